package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDispatch(t *testing.T) {
	for _, channel := range []string{"discord", "slack", "email"} {
		t.Run(channel, func(t *testing.T) {
			initial := testutil.ToFloat64(notificationDispatchedTotal.WithLabelValues(channel))
			RecordDispatch(channel)
			after := testutil.ToFloat64(notificationDispatchedTotal.WithLabelValues(channel))
			if after != initial+1 {
				t.Errorf("RecordDispatch() counter = %v, want %v", after, initial+1)
			}
		})
	}
}

func TestRecordSuccessAndFailure(t *testing.T) {
	success := testutil.ToFloat64(notificationSentTotal.WithLabelValues("slack", "success"))
	failure := testutil.ToFloat64(notificationSentTotal.WithLabelValues("slack", "failure"))

	RecordSuccess("slack", 100*time.Millisecond)
	RecordFailure("slack", 2*time.Second)

	if got := testutil.ToFloat64(notificationSentTotal.WithLabelValues("slack", "success")); got != success+1 {
		t.Errorf("success counter = %v, want %v", got, success+1)
	}
	if got := testutil.ToFloat64(notificationSentTotal.WithLabelValues("slack", "failure")); got != failure+1 {
		t.Errorf("failure counter = %v, want %v", got, failure+1)
	}
}

func TestRecordDropped(t *testing.T) {
	initial := testutil.ToFloat64(notificationDroppedTotal.WithLabelValues("email", "circuit_open"))
	RecordDropped("email", "circuit_open")
	if got := testutil.ToFloat64(notificationDroppedTotal.WithLabelValues("email", "circuit_open")); got != initial+1 {
		t.Errorf("dropped counter = %v, want %v", got, initial+1)
	}
}

func TestRecordCircuitBreakerOpen(t *testing.T) {
	initial := testutil.ToFloat64(circuitBreakerOpenTotal.WithLabelValues("discord"))
	RecordCircuitBreakerOpen("discord")
	if got := testutil.ToFloat64(circuitBreakerOpenTotal.WithLabelValues("discord")); got != initial+1 {
		t.Errorf("circuit breaker counter = %v, want %v", got, initial+1)
	}
}

func TestRecordEntriesDelivered(t *testing.T) {
	initial := testutil.ToFloat64(entriesDeliveredTotal)
	RecordEntriesDelivered(3)
	if got := testutil.ToFloat64(entriesDeliveredTotal); got != initial+3 {
		t.Errorf("entries counter = %v, want %v", got, initial+3)
	}
}

func TestActiveSends(t *testing.T) {
	initial := testutil.ToFloat64(activeSends)
	IncrementActiveSends()
	if got := testutil.ToFloat64(activeSends); got != initial+1 {
		t.Errorf("after increment = %v", got)
	}
	DecrementActiveSends()
	if got := testutil.ToFloat64(activeSends); got != initial {
		t.Errorf("after decrement = %v", got)
	}
}

func TestSetChannelsEnabled(t *testing.T) {
	SetChannelsEnabled(2)
	if got := testutil.ToFloat64(channelsEnabled); got != 2 {
		t.Errorf("channels enabled = %v, want 2", got)
	}
}

func TestConcurrentMetricsRecording(t *testing.T) {
	initial := testutil.ToFloat64(notificationDispatchedTotal.WithLabelValues("concurrent"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordDispatch("concurrent")
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(notificationDispatchedTotal.WithLabelValues("concurrent")); got != initial+50 {
		t.Errorf("counter = %v, want %v", got, initial+50)
	}
}
