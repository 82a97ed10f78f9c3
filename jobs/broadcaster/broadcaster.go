package broadcaster

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"triage/infra/outbox"
)

// Publisher is the bus-side contract. infra/kafka.Producer (kafka-go)
// and KafkaPublisher below (sarama) both satisfy it.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

// Broadcaster drains the outbox onto the bus. A record travels
// NEW → SENT → ACKED; a failed publish leaves it SENT with a bumped retry
// count and the next pass picks it up again.
type Broadcaster struct {
	outbox   *outbox.Outbox
	pub      Publisher
	interval time.Duration
	log      zerolog.Logger
}

func New(
	ob *outbox.Outbox,
	pub Publisher,
	interval time.Duration,
	log zerolog.Logger,
) *Broadcaster {
	return &Broadcaster{
		outbox:   ob,
		pub:      pub,
		interval: interval,
		log:      log,
	}
}

// Run loops until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info().Dur("interval", b.interval).Msg("broadcaster started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("broadcaster stopped")
			return
		case <-ticker.C:
			b.DrainOnce(ctx)
		}
	}
}

// DrainOnce publishes every pending record once. Publish failures are
// not errors of the scan; the record simply stays for the next pass.
func (b *Broadcaster) DrainOnce(ctx context.Context) {
	err := b.outbox.ScanPending(func(rec *outbox.Record) error {
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		key := []byte(rec.Event.EventID)
		if err := b.pub.Publish(ctx, key, outbox.EncodeEvent(rec.Event)); err != nil {
			b.log.Warn().
				Err(err).
				Uint64("seq", rec.Seq).
				Str("kind", rec.Event.Kind.String()).
				Msg("publish failed, will retry")
			return nil
		}

		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error().Err(err).Msg("outbox scan failed")
	}
}
