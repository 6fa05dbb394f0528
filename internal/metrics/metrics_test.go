package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/example/notification-service/internal/metrics"
)

func TestObserveDispatchCountsOutcomes(t *testing.T) {
	rec := metrics.NewRecorder()

	rec.ObserveDispatch("email", "normal", true, 1)
	rec.ObserveDispatch("email", "normal", true, 2)
	rec.ObserveDispatch("sms", "high", false, 3)

	expected := `
# HELP notification_dispatch_total Dispatch requests processed, by channel, priority and outcome.
# TYPE notification_dispatch_total counter
notification_dispatch_total{channel="email",outcome="success",priority="normal"} 2
notification_dispatch_total{channel="sms",outcome="failure",priority="high"} 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "notification_dispatch_total"); err != nil {
		t.Fatalf("unexpected counter state: %v", err)
	}
}

func TestDispatchStartedTracksInFlight(t *testing.T) {
	rec := metrics.NewRecorder()

	done := rec.DispatchStarted()
	expected := `
# HELP notification_dispatch_in_flight Dispatches currently running.
# TYPE notification_dispatch_in_flight gauge
notification_dispatch_in_flight 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "notification_dispatch_in_flight"); err != nil {
		t.Fatalf("unexpected gauge state: %v", err)
	}

	done()
	expected = `
# HELP notification_dispatch_in_flight Dispatches currently running.
# TYPE notification_dispatch_in_flight gauge
notification_dispatch_in_flight 0
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "notification_dispatch_in_flight"); err != nil {
		t.Fatalf("unexpected gauge state after done: %v", err)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.ObserveDispatch("push", "low", true, 1)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
