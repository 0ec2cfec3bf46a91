package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "clinic/pkg/platform/audit"
	"clinic/pkg/platform/tx"
)

// Producer is the subset of *kgo.Client the relay uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Outbox is the pending-event source, normally the Postgres audit store.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Relay periodically moves outbox entries to a Kafka topic. Entries are
// fetched, produced and marked in one transaction, so a failed produce
// leaves them pending for the next tick.
type Relay struct {
	outbox   Outbox
	producer Producer
	tx       tx.Runner
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger

	published prometheus.Counter
	failures  prometheus.Counter
}

type RelayOption func(*Relay)

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = logger }
}

// WithRegisterer exposes relay counters on reg.
func WithRegisterer(reg prometheus.Registerer) RelayOption {
	return func(r *Relay) {
		f := promauto.With(reg)
		r.published = f.NewCounter(prometheus.CounterOpts{
			Name: "clinic_outbox_published_total",
			Help: "Audit outbox entries relayed to Kafka",
		})
		r.failures = f.NewCounter(prometheus.CounterOpts{
			Name: "clinic_outbox_relay_failures_total",
			Help: "Outbox relay batches that failed",
		})
	}
}

func NewRelay(outbox Outbox, producer Producer, runner tx.Runner, topic string, interval time.Duration, batch int, opts ...RelayOption) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	r := &Relay{
		outbox:   outbox,
		producer: producer,
		tx:       runner,
		topic:    topic,
		interval: interval,
		batch:    batch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries it relayed.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var n int
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entries, err := r.outbox.FetchPending(txCtx, r.batch)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		records := make([]*kgo.Record, 0, len(entries))
		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			records = append(records, &kgo.Record{
				Topic: r.topic,
				Key:   []byte(e.AggregateType + ":" + e.AggregateID),
				Value: e.Payload,
				Headers: []kgo.RecordHeader{
					{Key: "event_type", Value: []byte(e.EventType)},
					{Key: "outbox_id", Value: []byte(e.ID.String())},
				},
				Timestamp: e.CreatedAt,
			})
			ids = append(ids, e.ID)
		}
		if err := r.producer.ProduceSync(txCtx, records...).FirstErr(); err != nil {
			return fmt.Errorf("produce outbox batch: %w", err)
		}
		if err := r.outbox.MarkPublished(txCtx, ids); err != nil {
			return err
		}
		n = len(entries)
		return nil
	})
	if err != nil {
		if r.failures != nil {
			r.failures.Inc()
		}
		return 0, err
	}
	if r.published != nil && n > 0 {
		r.published.Add(float64(n))
	}
	return n, nil
}
