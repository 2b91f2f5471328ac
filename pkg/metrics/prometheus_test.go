package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)
	r.RecordForecast("1h", "ok")
	r.RecordForecast("1h", "ok")
	r.RecordSimulation("ensemble", "BTC/USDT", 12.5)
	r.RecordCandlesIngested("BTC/USDT", 3)
	r.RecordLatency("forecast", 0.01)
	r.RecordError("forecast")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	got := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.Counter != nil:
				got[mf.GetName()] += m.Counter.GetValue()
			case m.Gauge != nil:
				got[mf.GetName()] = m.Gauge.GetValue()
			}
		}
	}
	if got["lenxys_forecasts_total"] != 2 {
		t.Fatalf("forecasts=%v", got["lenxys_forecasts_total"])
	}
	if got["lenxys_simulation_last_pnl"] != 12.5 {
		t.Fatalf("pnl gauge=%v", got["lenxys_simulation_last_pnl"])
	}
	if got["lenxys_candles_ingested_total"] != 3 {
		t.Fatalf("candles=%v", got["lenxys_candles_ingested_total"])
	}
}
