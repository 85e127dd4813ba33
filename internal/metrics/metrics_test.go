package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	CandlesTotal.WithLabelValues("btctwd").Inc()
	SignalsTotal.WithLabelValues("btctwd", "buy").Inc()
	ConfirmationScore.WithLabelValues("buy").Observe(72)
	ScanErrors.Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{"candles_total": false, "signals_total": false, "confirmation_score": false, "scan_errors_total": false}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("%s metric not found", name)
		}
	}
}
