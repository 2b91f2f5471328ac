package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed chan kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed <- m
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

type flakyHandler struct {
	mu    sync.Mutex
	calls map[string]int
}

func (h *flakyHandler) Topic() string { return "candles" }

func (h *flakyHandler) Handle(_ context.Context, b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls[string(b)]++
	switch {
	case string(b) == "poison":
		return errors.New("bad payload")
	case string(b) == "flaky" && h.calls["flaky"] == 1:
		return errors.New("transient")
	}
	return nil
}

func TestConsumerRetriesThenDeadLetters(t *testing.T) {
	reader := &fakeReader{
		queue: []kafka.Message{
			{Topic: "candles", Offset: 1, Value: []byte("flaky")},
			{Topic: "candles", Offset: 2, Value: []byte("poison")},
			{Topic: "candles", Offset: 3, Value: []byte("ok")},
		},
		committed: make(chan kafka.Message, 3),
	}
	dlq := &captureWriter{}

	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(1, time.Millisecond, 2*time.Millisecond),
		WithConsumerDLQ("candles.dlq"),
	)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	c.dlq = dlq
	c.open = func(string) fetcher { return reader }
	h := &flakyHandler{calls: map[string]int{}}
	c.RegisterHandler(h)
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	var offsets []int64
	for len(offsets) < 3 {
		select {
		case m := <-reader.committed:
			offsets = append(offsets, m.Offset)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, committed %v", offsets)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if offsets[0] != 1 || offsets[1] != 2 || offsets[2] != 3 {
		t.Fatalf("partition order broken: %v", offsets)
	}
	if h.calls["flaky"] != 2 || h.calls["poison"] != 2 || h.calls["ok"] != 1 {
		t.Fatalf("unexpected call counts %v", h.calls)
	}
	if len(dlq.msgs) != 1 || string(dlq.msgs[0].Value) != "poison" || dlq.msgs[0].Topic != "candles.dlq" {
		t.Fatalf("unexpected dlq contents %+v", dlq.msgs)
	}
	headers := map[string]string{}
	for _, hd := range dlq.msgs[0].Headers {
		headers[hd.Key] = string(hd.Value)
	}
	if headers["source_topic"] != "candles" || headers["attempts"] != "2" || headers["source_offset"] != "2" {
		t.Fatalf("unexpected dlq headers %v", headers)
	}
}

func TestConsumerStartWithoutHandlers(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Fatal("want error without handlers")
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
}

func TestShardForIsStable(t *testing.T) {
	c := &Consumer{shards: make([]chan kafka.Message, 4)}
	for p := 0; p < 16; p++ {
		a, b := c.shardFor("candles", p), c.shardFor("candles", p)
		if a != b || a < 0 || a >= 4 {
			t.Fatalf("partition %d: shards %d, %d", p, a, b)
		}
	}
}
