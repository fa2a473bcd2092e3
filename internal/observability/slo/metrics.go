// Package slo tracks the watcher's service level objectives: how many feed
// cycles succeed and how long a new entry waits before it is notified.
package slo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for the watcher.
const (
	// CycleSuccessSLO is the target ratio of feed cycles that end without a
	// fetch, store or dispatch failure (99%)
	CycleSuccessSLO = 0.99

	// NotificationLagSLO is the target for the time between an entry's
	// publication and its notification, in seconds (30 minutes)
	NotificationLagSLO = 1800.0

	// StoreWriteFailureSLO is the maximum acceptable ratio of notified feeds
	// whose watermark could not be advanced (0.1%); each one is a duplicate
	// window
	StoreWriteFailureSLO = 0.001
)

// SLO tracking metrics, updated after every watch run.
var (
	// SLOCycleSuccess tracks the success ratio of the last run (0-1)
	SLOCycleSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_cycle_success_ratio",
			Help: "Ratio of successful feed cycles in the last run (0-1), target: 0.99",
		},
	)

	// SLONotificationLag tracks the worst publication-to-notification lag of
	// the last run that notified anything
	SLONotificationLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_notification_lag_seconds",
			Help: "Largest publication-to-notification lag in the last notifying run, target: 1800",
		},
	)

	// SLOStoreWriteFailure tracks the ratio of notified feeds whose watermark
	// write failed in the last run
	SLOStoreWriteFailure = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_store_write_failure_ratio",
			Help: "Ratio of notified feeds whose watermark write failed (0-1), target: 0.001",
		},
	)
)

// UpdateCycleSuccess sets the cycle success ratio from a run's counts.
// A run over zero feeds leaves the gauge untouched.
func UpdateCycleSuccess(succeeded, failed int) {
	total := succeeded + failed
	if total == 0 {
		return
	}
	SLOCycleSuccess.Set(float64(succeeded) / float64(total))
}

// UpdateNotificationLag sets the notification lag gauge.
func UpdateNotificationLag(lag time.Duration) {
	if lag < 0 {
		lag = 0
	}
	SLONotificationLag.Set(lag.Seconds())
}

// UpdateStoreWriteFailure sets the write failure ratio: writeFailed out of
// the feeds that reached the write step (notified plus writeFailed).
func UpdateStoreWriteFailure(notified, writeFailed int) {
	total := notified + writeFailed
	if total == 0 {
		return
	}
	SLOStoreWriteFailure.Set(float64(writeFailed) / float64(total))
}
