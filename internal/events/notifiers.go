package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// LogNotifier writes every event to a structured logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify logs the event at info level.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("event_id", event.ID.String()).
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Time("occurred_at", event.OccurredAt).
		Msg("storefront event")
	return nil
}

// MetricsNotifier counts events by topic. The counter must carry a single "topic" label.
type MetricsNotifier struct {
	Counter *prometheus.CounterVec
}

// Notify increments the topic counter.
func (n MetricsNotifier) Notify(_ context.Context, event Event) error {
	if n.Counter == nil {
		return nil
	}
	counter, err := n.Counter.GetMetricWithLabelValues(event.Topic)
	if err != nil {
		return err
	}
	counter.Inc()
	return nil
}
