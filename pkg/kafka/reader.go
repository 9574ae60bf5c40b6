package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Record is a decoded-enough view of one consumed message.
type Record struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Time      time.Time
}

// HandlerFunc processes one record. Returning an error stops Consume.
type HandlerFunc func(ctx context.Context, rec Record) error

// Reader tails a single topic.
type Reader struct {
	r     *kafka.Reader
	topic string
	group bool
}

// NewReader creates a topic reader. Without a group it starts at the latest
// offset of partition 0 unless WithFromBeginning is given.
func NewReader(opts ...ReaderOption) (*Reader, error) {
	cfg := &ReaderConfig{
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	initProducerMetrics()
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: cfg.StartOffset,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
	})
	return &Reader{r: r, topic: cfg.Topic, group: cfg.GroupID != ""}, nil
}

// Consume blocks until ctx is cancelled or fn fails. Offsets are committed
// after fn succeeds when a group is set.
func (rd *Reader) Consume(ctx context.Context, fn HandlerFunc) error {
	for {
		km, err := rd.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			readerMsgsTotal.WithLabelValues(rd.topic, "fetch_error").Inc()
			return fmt.Errorf("kafka fetch %s: %w", rd.topic, err)
		}
		if err := fn(ctx, toRecord(km)); err != nil {
			readerMsgsTotal.WithLabelValues(rd.topic, "handler_error").Inc()
			return err
		}
		readerMsgsTotal.WithLabelValues(rd.topic, "ok").Inc()
		if rd.group {
			if err := rd.r.CommitMessages(ctx, km); err != nil {
				return fmt.Errorf("kafka commit %s: %w", rd.topic, err)
			}
		}
	}
}

// Close closes the underlying reader.
func (rd *Reader) Close() error {
	return rd.r.Close()
}

func toRecord(km kafka.Message) Record {
	h := make(map[string]string, len(km.Headers))
	for _, x := range km.Headers {
		h[x.Key] = string(x.Value)
	}
	return Record{
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Key:       km.Key,
		Value:     km.Value,
		Headers:   h,
		Time:      km.Time,
	}
}
