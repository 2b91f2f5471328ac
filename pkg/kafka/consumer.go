package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	applogger "Lenxys/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles the payloads of one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type ConsumerOption func(*ConsumerConfig)

type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int // per worker
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *applogger.Logger
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) { c.GroupID = groupID }
}

func WithConsumerWorkers(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.WorkerCount = n
		}
	}
}

func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerRetry sets how many times a failed message is retried and the
// exponential backoff range between tries.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax, c.BackoffMin, c.BackoffMax = max, backoffMin, backoffMax
	}
}

// WithConsumerDLQ routes messages that exhaust their retries to topic.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) { c.MinBytes, c.MaxBytes = minBytes, maxBytes }
}

func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) { c.Logger = l }
}

type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var errShutdown = errors.New("consumer stopping")

// Consumer reads registered topics in a consumer group and hands messages to
// a fixed pool of workers. A (topic, partition) always maps to the same
// worker, so each partition is processed in order. Failed messages are
// retried with backoff, then written to the DLQ and committed.
type Consumer struct {
	cfg      ConsumerConfig
	l        *applogger.Logger
	hook     ConsumerHook
	handlers map[string]MessageHandler
	readers  map[string]fetcher
	shards   []chan kafka.Message
	dlq      messageWriter
	open     func(topic string) fetcher

	ctx      context.Context
	cancel   context.CancelFunc
	fetching sync.WaitGroup
	working  sync.WaitGroup
	stopOnce sync.Once
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := ConsumerConfig{
		GroupID:     "lenxys",
		WorkerCount: 1,
		BufferSize:  64,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	l := cfg.Logger
	if l == nil {
		l = applogger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:      cfg,
		l:        l,
		hook:     NoopHook{},
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]fetcher),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.open = func(topic string) fetcher {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.GroupID,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			StartOffset: kafka.FirstOffset,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.Hash{}}
	}
	consumerMetricsOnce.Do(registerConsumerMetrics)
	return c, nil
}

// WithConsumerHook installs lifecycle hooks. Call before Start.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler binds handler to its topic. Call before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.l.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start opens one reader per registered topic and starts the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	c.shards = make([]chan kafka.Message, c.cfg.WorkerCount)
	for i := range c.shards {
		ch := make(chan kafka.Message, c.cfg.BufferSize)
		c.shards[i] = ch
		c.working.Add(1)
		go c.work(ch)
	}
	for topic := range c.handlers {
		r := c.open(topic)
		c.readers[topic] = r
		c.fetching.Add(1)
		go c.fetch(topic, r)
	}
	c.l.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
		applogger.String("group_id", c.cfg.GroupID))
	return nil
}

// Stop stops fetching, lets workers drain what was already fetched, then
// closes readers. It returns early with an error if ctx expires first.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		c.cancel()
		c.fetching.Wait()
		for _, ch := range c.shards {
			close(ch)
		}

		done := make(chan struct{})
		go func() {
			c.working.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.l.Warn("close kafka reader", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.l.Warn("close dlq writer", applogger.Error(cerr))
			}
		}
		if err == nil {
			c.l.Info("kafka consumer stopped")
		}
	})
	return err
}

func (c *Consumer) fetch(topic string, r fetcher) {
	defer c.fetching.Done()
	for {
		km, err := r.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.l.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			select {
			case <-time.After(time.Second):
				continue
			case <-c.ctx.Done():
				return
			}
		}
		if km.Topic == "" {
			km.Topic = topic
		}

		shard := c.shards[c.shardFor(km.Topic, km.Partition)]
		select {
		case shard <- km:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(shard)))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) shardFor(topic string, partition int) int {
	return int(xxhash.Sum64String(topic+"/"+strconv.Itoa(partition)) % uint64(len(c.shards)))
}

func (c *Consumer) work(in <-chan kafka.Message) {
	defer c.working.Done()
	for km := range in {
		c.process(km)
	}
}

func (c *Consumer) process(km kafka.Message) {
	h, ok := c.handlers[km.Topic]
	if !ok {
		return
	}
	start := time.Now()
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			c.l.Error("panic in kafka handler", applogger.String("topic", km.Topic), applogger.Any("panic", r))
		}
		consumerMessages.WithLabelValues(km.Topic, result).Inc()
		consumerHandleLatency.WithLabelValues(km.Topic).Observe(time.Since(start).Seconds())
	}()

	attempts, err := c.handleWithRetry(h, km)
	switch {
	case err == nil:
	case errors.Is(err, errShutdown):
		// left uncommitted for redelivery
		result = "aborted"
		return
	default:
		result = "failed"
		c.hook.OnError(context.Background(), km.Topic, km, km.Value, err)
		c.l.Error("kafka message failed",
			applogger.String("topic", km.Topic),
			applogger.Int64("offset", km.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err))
		if c.dlq == nil {
			return
		}
		result = "dlq"
		c.toDLQ(km, attempts, err)
	}
	c.commit(km)
}

func (c *Consumer) handleWithRetry(h MessageHandler, km kafka.Message) (int, error) {
	for attempt := 1; ; attempt++ {
		hctx, hkm, data, err := c.hook.BeforeHandle(context.Background(), km.Topic, km, km.Value)
		if err != nil {
			return attempt, err
		}
		err = h.Handle(hctx, data)
		c.hook.AfterHandle(hctx, km.Topic, hkm, data, err)
		if err == nil || attempt > c.cfg.RetryMax {
			return attempt, err
		}
		select {
		case <-time.After(retryDelay(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.ctx.Done():
			return attempt, fmt.Errorf("%w: %v", errShutdown, err)
		}
	}
}

func (c *Consumer) toDLQ(km kafka.Message, attempts int, cause error) {
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   km.Key,
		Value: km.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(km.Topic)},
			{Key: "source_offset", Value: []byte(strconv.FormatInt(km.Offset, 10))},
			{Key: "attempts", Value: []byte(strconv.Itoa(attempts))},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		c.l.Error("kafka dlq write failed", applogger.String("dlq_topic", c.cfg.DLQTopic), applogger.Error(err))
	}
}

func (c *Consumer) commit(km kafka.Message) {
	r := c.readers[km.Topic]
	if r == nil {
		return
	}
	const tries = 3
	var err error
	for attempt := 1; attempt <= tries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(retryDelay(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.l.Error("kafka commit failed",
		applogger.String("topic", km.Topic),
		applogger.Int64("offset", km.Offset),
		applogger.Error(err))
}

// retryDelay doubles from min per attempt, caps at max and takes off up to
// half as jitter.
func retryDelay(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := max
	if attempt >= 1 && attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}

var (
	consumerMetricsOnce   sync.Once
	consumerMessages      *prometheus.CounterVec
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
)

func registerConsumerMetrics() {
	consumerMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lenxys_kafka_consumer_messages_total",
		Help: "Consumed messages by result (ok, failed, dlq, aborted, panic).",
	}, []string{"topic", "result"})
	consumerQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lenxys_kafka_consumer_queue_depth",
		Help: "Messages waiting in the destination worker queue.",
	}, []string{"topic"})
	consumerHandleLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "lenxys_kafka_consumer_handle_seconds",
		Help: "Handling time per message including retries.",
	}, []string{"topic"})
	prometheus.MustRegister(consumerMessages, consumerQueueDepth, consumerHandleLatency)
}
