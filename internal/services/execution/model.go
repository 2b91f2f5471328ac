package execution

import "Lenxys/internal/domain/models"

const bpsDivisor = 10_000.0

// Config holds fixed execution costs in basis points.
type Config struct {
	SlippageBps float64 `yaml:"slippage_bps" default:"5"`
	FeeBps      float64 `yaml:"fee_bps" default:"10"`
}

// DefaultConfig returns 5 bps slippage and 10 bps fee.
func DefaultConfig() Config {
	return Config{SlippageBps: 5, FeeBps: 10}
}

// Model applies deterministic slippage and fees to fills.
type Model struct {
	cfg Config
}

// New creates an execution model. Zero costs are valid.
func New(cfg Config) *Model {
	return &Model{cfg: cfg}
}

// NewDefault creates an execution model with DefaultConfig.
func NewDefault() *Model { return New(DefaultConfig()) }

// Config returns the model configuration.
func (m *Model) Config() Config { return m.cfg }

// ApplySlippage moves price against the trader: up for buys, down for sells.
func (m *Model) ApplySlippage(price float64, side models.Side) float64 {
	adj := m.cfg.SlippageBps / bpsDivisor
	if side == models.SideBuy {
		return price * (1 + adj)
	}
	return price * (1 - adj)
}

// ApplyFees deducts the fee from notional and returns the net amount.
func (m *Model) ApplyFees(notional float64) float64 {
	fee := notional * (m.cfg.FeeBps / bpsDivisor)
	return notional - fee
}
