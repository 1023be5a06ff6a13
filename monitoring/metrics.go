package monitoring

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Total roster mutations by operation and outcome",
		},
		[]string{"operation", "event_id", "outcome"},
	)

	rosterConfirmed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roster_confirmed_total",
			Help: "Current confirmed participants per event roster",
		},
		[]string{"event_id", "venue_id"},
	)

	rosterWaiting = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roster_waiting_total",
			Help: "Current waitlisted participants per event roster",
		},
		[]string{"event_id", "venue_id"},
	)

	transactionAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_transaction_attempts",
			Help:    "Attempts needed per roster transaction",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		},
		[]string{"event_id"},
	)
)

// TrackReservationOp records one roster mutation outcome.
func TrackReservationOp(operation, eventID, outcome string) {
	reservationOps.WithLabelValues(operation, eventID, outcome).Inc()
}

// TrackTransactionAttempts records how many attempts a mutation needed.
func TrackTransactionAttempts(eventID string, attempts int) {
	transactionAttempts.WithLabelValues(eventID).Observe(float64(attempts))
}

// RosterSnapshot is the per-roster occupancy a collector reports.
type RosterSnapshot struct {
	EventID   string
	VenueID   string
	Confirmed int
	Waiting   int
}

// SnapshotSource lists current roster occupancy across open events.
type SnapshotSource interface {
	RosterSnapshots(ctx context.Context) ([]RosterSnapshot, error)
}

// Monitor periodically refreshes the roster gauges from the store.
type Monitor struct {
	source   SnapshotSource
	interval time.Duration
}

func NewMonitor(source SnapshotSource, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{source: source, interval: interval}
}

// Run blocks until ctx is cancelled, refreshing gauges on each tick.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collect(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	snapshots, err := m.source.RosterSnapshots(ctx)
	if err != nil {
		log.Printf("metrics: collecting roster snapshots: %v", err)
		return
	}
	rosterConfirmed.Reset()
	rosterWaiting.Reset()
	for _, s := range snapshots {
		rosterConfirmed.WithLabelValues(s.EventID, s.VenueID).Set(float64(s.Confirmed))
		rosterWaiting.WithLabelValues(s.EventID, s.VenueID).Set(float64(s.Waiting))
	}
}
