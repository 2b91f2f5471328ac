package main

import (
	"flag"
	"log"
	"os"

	"Lenxys/internal/di"
	"Lenxys/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s port=%d horizons=%d", cfg.Environment, cfg.Server.Port, len(cfg.Forecast.HorizonIntervals))

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: schema ready db=%s", cfg.ClickHouse.Database)
	if cfg.Kafka.Enabled {
		log.Printf("kafka: brokers=%v candles=%s forecasts=%s", cfg.Kafka.Brokers, cfg.Kafka.Topics.Candles, cfg.Kafka.Topics.Forecasts)
	}

	// blocks until SIGINT/SIGTERM
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
