// Package kafka publishes encoded trace events to a Kafka topic. Two
// clients are supported behind the Publisher interface: segmentio's
// kafka-go writer and IBM's sarama sync producer.
package kafka

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers one message and returns once the broker has
// acknowledged it.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

const (
	ClientKafkaGo = "kafka-go"
	ClientSarama  = "sarama"
)

// Config selects and configures a Publisher.
type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Client  string   `yaml:"client"`
}

var ErrNoBrokers = errors.New("kafka: no brokers configured")

// New builds the Publisher named by cfg.Client.
func New(cfg Config) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	switch cfg.Client {
	case "", ClientKafkaGo:
		return NewProducer(cfg.Brokers, cfg.Topic), nil
	case ClientSarama:
		return NewSaramaProducer(cfg.Brokers, cfg.Topic)
	default:
		return nil, errors.Newf("kafka: unknown client %q", cfg.Client)
	}
}

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes through a kafka-go Writer.
type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
	if err != nil {
		return errors.Wrap(err, "kafka-go write")
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
