// Package metrics exposes prometheus collectors for the dispatch engine.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_processed_total",
			Help: "Total number of contract events handled, labeled by event kind",
		},
		[]string{"kind"},
	)
	notificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification send attempts labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	sendDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_send_duration_seconds",
			Help:    "Duration of transport send calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	pollErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "source_poll_errors_total",
			Help: "Total number of failed event source polls",
		},
	)
	scheduledBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_broadcasts_total",
			Help: "Scheduled broadcast outcomes labeled by status (fired, dropped)",
		},
		[]string{"status"},
	)
	directoryUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "directory_users",
			Help: "Current number of registered directory members",
		},
	)
)

// RecordEvent counts one handled contract event.
func RecordEvent(kind string) {
	if kind == "" {
		kind = "unknown"
	}

	eventsProcessedTotal.WithLabelValues(kind).Inc()
}

// RecordSend counts one send attempt and its duration.
func RecordSend(kind string, err error, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}

	status := "sent"
	if err != nil {
		status = "failed"
	}

	notificationsSentTotal.WithLabelValues(kind, status).Inc()
	sendDurationSeconds.Observe(duration.Seconds())
}

// RecordPollError counts one failed source poll.
func RecordPollError() {
	pollErrorsTotal.Inc()
}

// RecordScheduledBroadcast counts a scheduler outcome.
func RecordScheduledBroadcast(status string) {
	scheduledBroadcastsTotal.WithLabelValues(status).Inc()
}

// SetDirectoryUsers updates the registered users gauge.
func SetDirectoryUsers(count int) {
	directoryUsers.Set(float64(count))
}

// Counter abstracts the directory size query used by the collector loop.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// DirectoryCollector periodically refreshes the directory size gauge.
type DirectoryCollector struct {
	store Counter
}

// NewDirectoryCollector builds a collector bound to the given store.
func NewDirectoryCollector(store Counter) *DirectoryCollector {
	return &DirectoryCollector{store: store}
}

// Run refreshes the gauge every 10 seconds until ctx is cancelled.
func (c *DirectoryCollector) Run(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if count, err := c.store.Count(ctx); err == nil {
				SetDirectoryUsers(count)
			}
		}
	}
}
