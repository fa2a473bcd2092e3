package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFeedCycle(t *testing.T) {
	tests := []struct {
		name     string
		outcome  string
		duration time.Duration
	}{
		{name: "no change", outcome: "no_change", duration: 10 * time.Millisecond},
		{name: "notified", outcome: "notified", duration: 2 * time.Second},
		{name: "fetch failed", outcome: "fetch_failed", duration: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(FeedCyclesTotal.WithLabelValues(tt.outcome))
			RecordFeedCycle(tt.outcome, tt.duration)
			after := testutil.ToFloat64(FeedCyclesTotal.WithLabelValues(tt.outcome))
			assert.Equal(t, before+1, after)
		})
	}
}

func TestRecordDetection(t *testing.T) {
	fetchedBefore := testutil.ToFloat64(EntriesFetchedTotal)
	newBefore := testutil.ToFloat64(EntriesNewTotal)

	RecordDetection(5, 2)
	RecordDetection(0, 0)

	assert.Equal(t, fetchedBefore+5, testutil.ToFloat64(EntriesFetchedTotal))
	assert.Equal(t, newBefore+2, testutil.ToFloat64(EntriesNewTotal))
}

func TestRecordAnomaly(t *testing.T) {
	for _, kind := range []string{"timestamp", "identity"} {
		before := testutil.ToFloat64(EntryAnomaliesTotal.WithLabelValues(kind))
		RecordAnomaly(kind)
		assert.Equal(t, before+1, testutil.ToFloat64(EntryAnomaliesTotal.WithLabelValues(kind)), kind)
	}
}

func TestRecordRun(t *testing.T) {
	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	okBefore := testutil.ToFloat64(RunsTotal.WithLabelValues("success"))
	partialBefore := testutil.ToFloat64(RunsTotal.WithLabelValues("partial_failure"))

	RecordRun(0, time.Second, finished)
	RecordRun(2, time.Second, finished)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues("success")))
	assert.Equal(t, partialBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues("partial_failure")))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(LastRunTimestamp))
}

func TestUpdateFeedsConfigured(t *testing.T) {
	UpdateFeedsConfigured(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(FeedsConfigured))

	UpdateFeedsConfigured(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(FeedsConfigured))
}

func TestRecordStoreOperation(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordStoreOperation("get", 3*time.Millisecond, nil)
		RecordStoreOperation("put", 5*time.Millisecond, errors.New("timeout"))
	})

	count := testutil.CollectAndCount(StoreOperationDuration, "feedwatch_store_operation_duration_seconds")
	assert.GreaterOrEqual(t, count, 2)
}

func TestUpdateDBConnectionStats(t *testing.T) {
	UpdateDBConnectionStats(3, 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(DBConnectionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(DBConnectionsIdle))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))
	RecordHTTPRequest("GET", "/health", "200", 2*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
}
