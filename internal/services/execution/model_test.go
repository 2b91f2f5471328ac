package execution

import (
	"math"
	"testing"

	"Lenxys/internal/domain/models"
)

func TestZeroCostsLeavePricesUnchanged(t *testing.T) {
	m := New(Config{SlippageBps: 0, FeeBps: 0})
	if got := m.ApplySlippage(100, models.SideBuy); got != 100 {
		t.Fatalf("buy slippage=%v, expected 100", got)
	}
	if got := m.ApplySlippage(100, models.SideSell); got != 100 {
		t.Fatalf("sell slippage=%v, expected 100", got)
	}
	if got := m.ApplyFees(100); got != 100 {
		t.Fatalf("fees=%v, expected 100", got)
	}
}

func TestDefaultCosts(t *testing.T) {
	m := NewDefault()
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"buy slippage", m.ApplySlippage(100, models.SideBuy), 100.05},
		{"sell slippage", m.ApplySlippage(110, models.SideSell), 109.945},
		{"fees", m.ApplyFees(1000), 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Fatalf("got %v, expected %v", tt.got, tt.want)
			}
		})
	}
}
