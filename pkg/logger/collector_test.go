package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
	topic   string
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "boom", map[string]interface{}{"symbol": "BTC"}, "x.go:1")
	}
	c.AddLog("error", "boom", map[string]interface{}{"symbol": "ETH"}, "x.go:1")
	c.Close()

	if len(pub.batches) != 1 || pub.topic != "logs" {
		t.Fatalf("want one batch on logs, got %d on %q", len(pub.batches), pub.topic)
	}
	b := pub.batches[0]
	if len(b) != 2 || b[0].Count+b[1].Count != 4 || (b[0].Count != 3 && b[1].Count != 3) {
		t.Fatalf("unexpected aggregation %+v", b)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	c.Close()

	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("threshold flush missing: %+v", pub.batches)
	}
}

func TestLoggerFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})
	l.With("test").Error("failed", String("k", "v"))
	l.Warn("not collected")
	l.RemoveCollector()

	if len(pub.batches) != 1 || pub.batches[0][0].Fields["k"] != "v" {
		t.Fatalf("error log not collected: %+v", pub.batches)
	}
}
