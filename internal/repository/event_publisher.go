package repository

import (
	"context"
	"fmt"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	pkgkafka "Lenxys/pkg/kafka"
)

// KafkaPublisher publishes domain events with the symbol or run id as key.
type KafkaPublisher struct {
	producer       *pkgkafka.Producer
	forecastsTopic string
	runsTopic      string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, forecastsTopic, runsTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, forecastsTopic: forecastsTopic, runsTopic: runsTopic}
}

func (p *KafkaPublisher) PublishForecast(ctx context.Context, ev models.ForecastEvent) error {
	if err := p.producer.Publish(ctx, p.forecastsTopic, []byte(ev.Symbol), "forecast", ev); err != nil {
		return fmt.Errorf("publish forecast: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) PublishRunCompleted(ctx context.Context, ev models.RunCompletedEvent) error {
	if err := p.producer.Publish(ctx, p.runsTopic, []byte(ev.RunID), "run_completed", ev); err != nil {
		return fmt.Errorf("publish run completed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// NoopPublisher drops events. Used when kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishForecast(context.Context, models.ForecastEvent) error         { return nil }
func (NoopPublisher) PublishRunCompleted(context.Context, models.RunCompletedEvent) error { return nil }
func (NoopPublisher) Close() error                                                        { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaPublisher)(nil)
	_ domrepo.EventPublisher = NoopPublisher{}
)
