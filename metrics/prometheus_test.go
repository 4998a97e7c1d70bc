package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FramesReceived.Inc()
	m.FramesReceived.Inc()
	m.Matches.Inc()
	m.WSConnected.Set(1)

	if got := testutil.ToFloat64(m.FramesReceived); got != 2 {
		t.Errorf("Expected FramesReceived to be 2, got %f", got)
	}
	if got := testutil.ToFloat64(m.Matches); got != 1 {
		t.Errorf("Expected Matches to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.WSConnected); got != 1 {
		t.Errorf("Expected WSConnected to be 1, got %f", got)
	}
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	a := NewNop()
	b := NewNop()

	a.DeliveryErrors.Inc()

	if got := testutil.ToFloat64(b.DeliveryErrors); got != 0 {
		t.Errorf("Expected fresh registry counter to be 0, got %f", got)
	}
}
