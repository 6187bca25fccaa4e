package monitoring

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Total reservation operations by outcome",
		},
		[]string{"operation", "status"},
	)

	lockedSeats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "locked_seats_total",
			Help: "Currently locked seats per section",
		},
		[]string{"section_id"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of lock reclamation sweeps",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	reclaimedSeats = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reclaimed_seats_total",
			Help: "Seats released by the sweeper from expired bookings",
		},
	)

	sweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_booking_failures_total",
			Help: "Bookings the sweeper failed to reclaim",
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)
)

// ObserveReservation 記錄一次 reserve / confirm / cancel 的結果
func ObserveReservation(operation, status string) {
	reservationOps.WithLabelValues(operation, status).Inc()
}

// SetLockedSeats 更新分區鎖定座位 gauge
func SetLockedSeats(sectionID string, locked int) {
	lockedSeats.WithLabelValues(sectionID).Set(float64(locked))
}

// ObserveSweep 記錄一輪掃描的耗時與回收結果
func ObserveSweep(d time.Duration, reclaimed int, failures int) {
	sweepDuration.Observe(d.Seconds())
	reclaimedSeats.Add(float64(reclaimed))
	sweepFailures.Add(float64(failures))
}

// StartGoroutineCollector 背景收集 goroutine 數量
func StartGoroutineCollector() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			goroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}()
}
