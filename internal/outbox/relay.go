// Package outbox moves committed order events from the events table to Kafka.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	pkgkafka "github.com/k-code-yt/go-order-placement/pkg/kafka"
	"github.com/k-code-yt/go-order-placement/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

type PendingEvents interface {
	ProcessPending(ctx context.Context, limit int, fn func(ctx context.Context, e *domain.Event) error) (int, error)
}

type RelayConfig struct {
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

type Relay struct {
	events   PendingEvents
	producer Producer
	encoder  pkgkafka.MsgEncoder
	cfg      RelayConfig
}

func NewRelay(events PendingEvents, producer Producer, encoder pkgkafka.MsgEncoder, cfg RelayConfig) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second * 2
	}
	return &Relay{
		events:   events,
		producer: producer,
		encoder:  encoder,
		cfg:      cfg,
	}
}

// Run polls for pending events until ctx is cancelled. A failed batch is logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"topic":    r.cfg.Topic,
		"encoder":  r.encoder.GetType(),
		"interval": r.cfg.PollInterval,
	}).Info("OUTBOX:RELAY_STARTED")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("OUTBOX:RELAY_STOPPED")
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("OUTBOX:BATCH_FAILED")
			}
		}
	}
}

// RelayOnce produces one batch of pending events and reports how many were marked produced.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	n, err := r.events.ProcessPending(ctx, r.cfg.BatchSize, r.produce)
	if n > 0 {
		logrus.WithField("count", n).Info("OUTBOX:PRODUCED")
	}
	return n, err
}

func (r *Relay) produce(ctx context.Context, e *domain.Event) error {
	value, err := r.encoder.Encode(e.ParentMetadata)
	if err != nil {
		metrics.OutboxEvents.WithLabelValues(string(e.EventType), metrics.ResultError).Inc()
		return fmt.Errorf("failed to encode event %s: %w", e.EventId, err)
	}

	headers := map[string]string{
		"event_id":    e.EventId,
		"event_type":  string(e.EventType),
		"parent_type": e.ParentType,
		"encoding":    string(r.encoder.GetType()),
	}
	if err := r.producer.Produce(ctx, r.cfg.Topic, []byte(e.ParentId), value, headers); err != nil {
		metrics.OutboxEvents.WithLabelValues(string(e.EventType), metrics.ResultError).Inc()
		return fmt.Errorf("failed to produce event %s: %w", e.EventId, err)
	}

	metrics.OutboxEvents.WithLabelValues(string(e.EventType), metrics.ResultSuccess).Inc()
	return nil
}
