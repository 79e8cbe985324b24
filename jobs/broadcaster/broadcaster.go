// Package broadcaster relays persisted trace events to Kafka. It keeps
// a delivery cursor in the trace store, so a restarted broadcaster
// resumes after the last acknowledged event instead of starting over.
package broadcaster

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"memkit/infra/kafka"
	"memkit/infra/trace"
	"memkit/infra/trace/store"
)

type Broadcaster struct {
	store     *store.Store
	publisher kafka.Publisher
	log       *slog.Logger
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(s *store.Store, p kafka.Publisher, log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		store:     s,
		publisher: p,
		log:       log.With("component", "broadcaster"),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run relays new events every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration) {
	b.log.Info("started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return
		case <-ticker.C:
			if _, err := b.RunOnce(ctx); err != nil {
				b.log.Warn("relay failed, retrying next tick", "err", err)
			}
		}
	}
}

// ------------------------------------------------
// RELAY
// ------------------------------------------------

// RunOnce publishes every event after the cursor, advancing the cursor
// after each acknowledged event. It returns how many were delivered.
// An event that fails to publish stops the pass; it is retried first on
// the next one.
func (b *Broadcaster) RunOnce(ctx context.Context) (int, error) {
	cursor, err := b.store.Cursor()
	if err != nil {
		return 0, err
	}

	sent := 0
	err = b.store.Scan(cursor, func(e trace.Event) error {
		key := []byte(strconv.FormatUint(e.Seq, 10))
		if err := b.publisher.Publish(ctx, key, e.Marshal()); err != nil {
			return errors.Wrapf(err, "publish event %d", e.Seq)
		}
		if err := b.store.SetCursor(e.Seq); err != nil {
			return err
		}
		sent++
		return nil
	})
	if sent > 0 {
		b.log.Debug("relayed events", "count", sent)
	}
	return sent, err
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.publisher.Close()
}
