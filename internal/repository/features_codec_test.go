package repository

import "testing"

func TestFeatureCodec(t *testing.T) {
	names, values := unzipFeatures(map[string]float64{"rsi_14": 55, "ema_9": 101.5, "return_1": -0.01})
	if names[0] != "ema_9" || names[2] != "rsi_14" || values[1] != -0.01 {
		t.Fatalf("unexpected order: %v %v", names, values)
	}
	m := zipFeatures(names, values)
	if len(m) != 3 || m["rsi_14"] != 55 {
		t.Fatalf("unexpected map: %v", m)
	}
	if got := zipFeatures([]string{"a", "b"}, []float64{1}); len(got) != 1 {
		t.Fatalf("mismatched arrays should truncate, got %v", got)
	}
}
