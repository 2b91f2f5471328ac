package signal

import (
	"testing"

	"Lenxys/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestDecide(t *testing.T) {
	p := NewDefaultPolicy()
	tests := []struct {
		name    string
		pred    *float64
		conf    *float64
		horizon string
		want    models.Signal
	}{
		{"missing prediction", nil, f(0.9), "1h", models.SignalHold},
		{"missing confidence", f(0.1), nil, "1h", models.SignalHold},
		{"buy 1h", f(0.006), f(0.6), "1h", models.SignalBuy},
		{"return at threshold holds", f(0.005), f(0.9), "1h", models.SignalHold},
		{"low confidence holds", f(0.006), f(0.59), "1h", models.SignalHold},
		{"sell 1h", f(-0.006), f(0.61), "1h", models.SignalSell},
		{"buy 1m", f(0.0006), f(0.55), "1m", models.SignalBuy},
		{"1d needs more", f(0.009), f(0.9), "1d", models.SignalHold},
		{"fallback buy", f(0.0011), f(0.55), "4h", models.SignalBuy},
		{"fallback hold", f(0.0009), f(0.99), "5m", models.SignalHold},
		{"fallback sell", f(-0.002), f(0.56), "15m", models.SignalSell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Decide(tt.pred, tt.conf, tt.horizon); got != tt.want {
				t.Fatalf("Decide=%v, expected %v", got, tt.want)
			}
		})
	}
}

func TestThresholdsAreConfigurable(t *testing.T) {
	p := NewPolicy(map[string]Threshold{"1h": {MinReturn: 0.1, MinConfidence: 0.9}}, Threshold{MinReturn: 0, MinConfidence: 0})
	if got := p.Decide(f(0.05), f(0.95), "1h"); got != models.SignalHold {
		t.Fatalf("Decide=%v, expected hold under overridden 1h threshold", got)
	}
	// 1m no longer has an explicit entry, so the custom fallback applies.
	if got := p.Decide(f(0.0001), f(0), "1m"); got != models.SignalBuy {
		t.Fatalf("Decide=%v, expected buy under zero fallback", got)
	}
}
