package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Threshold is the minimum forecast strength for a trade on one horizon.
type Threshold struct {
	MinReturn     float64 `yaml:"min_return"`
	MinConfidence float64 `yaml:"min_confidence"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level      string        `yaml:"level" default:"info"`
		Format     string        `yaml:"format" default:"console"`
		Output     string        `yaml:"output" default:"stdout"`
		Collect    bool          `yaml:"collect"`
		Topic      string        `yaml:"topic" default:"lenxys.logs"`
		FlushEvery time.Duration `yaml:"flush_every" default:"30s"`
		MaxUnique  int           `yaml:"max_unique" default:"100"`
	} `yaml:"log"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled" default:"true"`
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Topics       struct {
			Candles      string `yaml:"candles" default:"lenxys.candles"`
			Forecasts    string `yaml:"forecasts" default:"lenxys.forecasts"`
			RunCompleted string `yaml:"run_completed" default:"lenxys.runs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"lenxys-candles"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"1000"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"lenxys.candles.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"lenxys"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Models struct {
		ArtifactDir    string        `yaml:"artifact_dir" default:"models/artifacts"`
		ServiceURL     string        `yaml:"service_url"`
		Timeout        time.Duration `yaml:"timeout" default:"3s"`
		RetryAttempts  int           `yaml:"retry_attempts" default:"2"`
		DefaultSymbols []string      `yaml:"default_symbols" default:"[\"BTC/USDT\"]"`
	} `yaml:"models"`
	Forecast struct {
		HorizonIntervals map[string]string `yaml:"horizon_intervals" default:"{\"1m\":\"1m\",\"5m\":\"1m\",\"15m\":\"1m\",\"1h\":\"1h\",\"4h\":\"1h\",\"1d\":\"1d\"}"`
		CacheTTL         time.Duration     `yaml:"cache_ttl" default:"30s"`
	} `yaml:"forecast"`
	Signal struct {
		Thresholds map[string]Threshold `yaml:"thresholds"`
		Fallback   Threshold            `yaml:"fallback"`
	} `yaml:"signal"`
	Execution struct {
		SlippageBps float64 `yaml:"slippage_bps" default:"5"`
		FeeBps      float64 `yaml:"fee_bps" default:"10"`
	} `yaml:"execution"`
	Backtest struct {
		InitialCapital  float64 `yaml:"initial_capital" default:"10000"`
		PositionSizePct float64 `yaml:"position_size_pct" default:"0.95"`
	} `yaml:"backtest"`
	Simulation struct {
		DefaultHorizon string `yaml:"default_horizon" default:"1h"`
		CandleLimit    int    `yaml:"candle_limit" default:"5000"`
	} `yaml:"simulation"`
	Stream struct {
		Interval    time.Duration `yaml:"interval" default:"5s"`
		MaxSymbols  int           `yaml:"max_symbols" default:"20"`
		MaxConnsRPS int           `yaml:"max_conns_rps" default:"5"`
	} `yaml:"stream"`
	Reports struct {
		OutputDir string `yaml:"output_dir" default:"reports/output"`
		TopN      int    `yaml:"top_n" default:"5"`
	} `yaml:"reports"`
}

// Default returns a configuration populated from struct defaults only.
func Default() (*Config, error) {
	var c Config
	if err := c.setDefaults(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) setDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if c.Signal.Thresholds == nil {
		c.Signal.Thresholds = map[string]Threshold{
			"1m": {MinReturn: 0.0005, MinConfidence: 0.55},
			"1h": {MinReturn: 0.005, MinConfidence: 0.60},
			"1d": {MinReturn: 0.01, MinConfidence: 0.65},
		}
	}
	if c.Signal.Fallback == (Threshold{}) {
		c.Signal.Fallback = Threshold{MinReturn: 0.001, MinConfidence: 0.55}
	}
	return nil
}

// Parse decodes YAML on top of the defaults. Keys present in the document
// override defaults, including explicit zeros.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(b)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (if present) and config from YAML, then overrides
// with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("LENXYS_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("MODEL_ARTIFACT_DIR"); v != "" {
		c.Models.ArtifactDir = v
	}
	if v := getenv("MODEL_SERVICE_URL"); v != "" {
		c.Models.ServiceURL = strings.TrimRight(v, "/")
	}
	if v := getenv("DEFAULT_SYMBOLS"); v != "" {
		c.Models.DefaultSymbols = splitList(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive, got %v", c.Backtest.InitialCapital)
	}
	if c.Backtest.PositionSizePct <= 0 || c.Backtest.PositionSizePct > 1 {
		return fmt.Errorf("backtest.position_size_pct must be in (0, 1], got %v", c.Backtest.PositionSizePct)
	}
	if c.Execution.SlippageBps < 0 || c.Execution.FeeBps < 0 {
		return fmt.Errorf("execution bps must be non-negative")
	}
	if len(c.Forecast.HorizonIntervals) == 0 {
		return fmt.Errorf("forecast.horizon_intervals cannot be empty")
	}
	if _, ok := c.Forecast.HorizonIntervals[c.Simulation.DefaultHorizon]; !ok {
		return fmt.Errorf("simulation.default_horizon %q has no interval mapping", c.Simulation.DefaultHorizon)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
