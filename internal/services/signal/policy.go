package signal

import (
	"Lenxys/internal/domain/models"
	domsvc "Lenxys/internal/domain/service"
)

// Threshold is the minimum forecast strength required to act on a horizon.
type Threshold struct {
	MinReturn     float64 `yaml:"min_return"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// DefaultThresholds returns the per-horizon defaults.
func DefaultThresholds() map[string]Threshold {
	return map[string]Threshold{
		"1m": {MinReturn: 0.0005, MinConfidence: 0.55},
		"1h": {MinReturn: 0.005, MinConfidence: 0.60},
		"1d": {MinReturn: 0.01, MinConfidence: 0.65},
	}
}

// DefaultFallback applies to horizons without an explicit threshold.
func DefaultFallback() Threshold {
	return Threshold{MinReturn: 0.001, MinConfidence: 0.55}
}

// Policy maps a forecast to buy, sell or hold. It holds no state.
type Policy struct {
	thresholds map[string]Threshold
	fallback   Threshold
}

// NewPolicy creates a policy. A nil map uses DefaultThresholds.
func NewPolicy(thresholds map[string]Threshold, fallback Threshold) *Policy {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	cp := make(map[string]Threshold, len(thresholds))
	for k, v := range thresholds {
		cp[k] = v
	}
	return &Policy{thresholds: cp, fallback: fallback}
}

// NewDefaultPolicy creates a policy with the default tables.
func NewDefaultPolicy() *Policy { return NewPolicy(nil, DefaultFallback()) }

// ThresholdFor returns the threshold in effect for horizon.
func (p *Policy) ThresholdFor(horizon string) Threshold {
	if th, ok := p.thresholds[horizon]; ok {
		return th
	}
	return p.fallback
}

// Decide returns hold when either input is absent.
func (p *Policy) Decide(predictedReturn, confidence *float64, horizon string) models.Signal {
	if predictedReturn == nil || confidence == nil {
		return models.SignalHold
	}
	th := p.ThresholdFor(horizon)
	pred, conf := *predictedReturn, *confidence
	switch {
	case pred > th.MinReturn && conf >= th.MinConfidence:
		return models.SignalBuy
	case pred < -th.MinReturn && conf >= th.MinConfidence:
		return models.SignalSell
	default:
		return models.SignalHold
	}
}

var _ domsvc.SignalDecider = (*Policy)(nil)
