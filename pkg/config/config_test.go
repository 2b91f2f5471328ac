package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default error: %v", err)
	}
	if c.Execution.SlippageBps != 5 || c.Execution.FeeBps != 10 {
		t.Fatalf("execution defaults=%+v", c.Execution)
	}
	if c.Backtest.InitialCapital != 10000 || c.Backtest.PositionSizePct != 0.95 {
		t.Fatalf("backtest defaults=%+v", c.Backtest)
	}
	if c.Forecast.HorizonIntervals["4h"] != "1h" || len(c.Forecast.HorizonIntervals) != 6 {
		t.Fatalf("horizon defaults=%v", c.Forecast.HorizonIntervals)
	}
	if th := c.Signal.Thresholds["1d"]; th.MinReturn != 0.01 || th.MinConfidence != 0.65 {
		t.Fatalf("1d threshold=%+v", th)
	}
	if c.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("read timeout=%v", c.Server.ReadTimeout)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestParseKeepsExplicitZeros(t *testing.T) {
	c, err := Parse([]byte(`
execution:
  slippage_bps: 0
  fee_bps: 0
backtest:
  position_size_pct: 1.0
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if c.Execution.SlippageBps != 0 || c.Execution.FeeBps != 0 {
		t.Fatalf("explicit zero bps lost: %+v", c.Execution)
	}
	if c.Backtest.PositionSizePct != 1.0 || c.Backtest.InitialCapital != 10000 {
		t.Fatalf("backtest=%+v", c.Backtest)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"position size above one", "backtest:\n  position_size_pct: 1.5\n"},
		{"zero capital", "backtest:\n  initial_capital: 0\n"},
		{"negative fee", "execution:\n  fee_bps: -1\n"},
		{"unknown default horizon", "simulation:\n  default_horizon: 2w\n"},
		{"kafka without brokers", "kafka:\n  brokers: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, _ := Default()
	env := map[string]string{
		"LENXYS_ENV":        "production",
		"KAFKA_BROKERS":     "k1:9092, k2:9092",
		"REDIS_ADDR":        "cache:6379",
		"MODEL_SERVICE_URL": "http://models:8000/",
		"DEFAULT_SYMBOLS":   "BTC/USDT,ETH/USDT,",
	}
	c.ApplyEnv(func(k string) string { return env[k] })

	if c.Environment != "production" {
		t.Fatalf("environment=%q", c.Environment)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers=%v", c.Kafka.Brokers)
	}
	if !c.Redis.Enabled || c.Redis.Addr != "cache:6379" {
		t.Fatalf("redis=%+v", c.Redis)
	}
	if c.Models.ServiceURL != "http://models:8000" {
		t.Fatalf("service url=%q", c.Models.ServiceURL)
	}
	if len(c.Models.DefaultSymbols) != 2 {
		t.Fatalf("symbols=%v", c.Models.DefaultSymbols)
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("environment: test\nserver:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.Environment != "test" || c.Server.Port != 9999 {
		t.Fatalf("unexpected config %+v", c.Server)
	}
}
