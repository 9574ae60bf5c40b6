package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchBytes   int
	BatchTimeout time.Duration
	Async        bool
	HashByKey    bool
	ClientID     string
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Brokers = brokers
	}
}

// WithCompression sets compression type.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Compression = compression
	}
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) {
		c.RequiredAcks = acks
	}
}

// WithMaxAttempts sets max retry attempts by the writer.
func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		c.MaxAttempts = n
	}
}

// WithBatchSize sets batch size.
func WithBatchSize(size int) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchSize = size
	}
}

// WithBatchTimeout sets batch timeout.
func WithBatchTimeout(timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchTimeout = timeout
	}
}

// WithBatchBytes sets target aggregate batch bytes.
func WithBatchBytes(bytes int) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchBytes = bytes
	}
}

// WithTimeouts sets writer read/write timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}

// WithAsync toggles async writes (fire-and-forget).
func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.Async = async
	}
}

// WithClientID tags outgoing messages with a producer header.
func WithClientID(id string) ProducerOption {
	return func(c *ProducerConfig) {
		c.ClientID = id
	}
}

// WithHashByKey sets hash balancer for per-key (sector) ordering.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.HashByKey = hash
	}
}

// ReaderOption configures Reader.
type ReaderOption func(*ReaderConfig)

// ReaderConfig holds reader configuration.
type ReaderConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset int64
	MinBytes    int
	MaxBytes    int
	MaxWait     time.Duration
}

// WithReaderBrokers sets Kafka brokers.
func WithReaderBrokers(brokers []string) ReaderOption {
	return func(c *ReaderConfig) {
		c.Brokers = brokers
	}
}

// WithReaderTopic sets the topic to read.
func WithReaderTopic(topic string) ReaderOption {
	return func(c *ReaderConfig) {
		c.Topic = topic
	}
}

// WithReaderGroup joins a consumer group. Empty reads partition 0 without commits.
func WithReaderGroup(groupID string) ReaderOption {
	return func(c *ReaderConfig) {
		c.GroupID = groupID
	}
}

// WithFromBeginning starts at the earliest offset instead of the latest.
func WithFromBeginning(on bool) ReaderOption {
	return func(c *ReaderConfig) {
		if on {
			c.StartOffset = kafka.FirstOffset
		} else {
			c.StartOffset = kafka.LastOffset
		}
	}
}
