package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.Publish(context.Background(), []byte("k"), []byte("v")))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "k", string(w.msgs[0].Key))
	assert.Equal(t, "v", string(w.msgs[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducerPublishError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}}

	err := p.Publish(context.Background(), nil, []byte("v"))
	assert.True(t, errors.Is(err, boom))
}

func mockConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return cfg
}

func TestSaramaProducerPublish(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mockConfig())
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != "payload" {
			return errors.Newf("unexpected value %q", val)
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newSaramaProducer(mock, "memkit.trace")
	require.NoError(t, p.Publish(context.Background(), []byte("1"), []byte("payload")))

	err := p.Publish(context.Background(), []byte("2"), []byte("payload"))
	assert.True(t, errors.Is(err, sarama.ErrOutOfBrokers))

	require.NoError(t, p.Close())
}

func TestSaramaProducerCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mockConfig())
	p := newSaramaProducer(mock, "memkit.trace")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, nil, []byte("v")), context.Canceled)
	require.NoError(t, p.Close())
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(Config{Topic: "t"})
	assert.True(t, errors.Is(err, ErrNoBrokers))

	_, err = New(Config{Brokers: []string{"localhost:9092"}, Client: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewKafkaGoIsLazy(t *testing.T) {
	p, err := New(Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	_, ok := p.(*Producer)
	assert.True(t, ok)
	require.NoError(t, p.Close())
}
