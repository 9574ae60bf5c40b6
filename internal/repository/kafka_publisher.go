package repository

import (
	"context"
	"errors"
	"time"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	pkgkafka "SectorPulse/pkg/kafka"
)

type messageWriter interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaResultPublisher ships sentiment results keyed by sector, so one
// sector's series stays on one partition.
type KafkaResultPublisher struct {
	producer messageWriter
	topic    string
	now      func() time.Time
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) domrepo.ResultPublisher {
	return newKafkaResultPublisher(producer, topic)
}

func newKafkaResultPublisher(w messageWriter, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: w, topic: topic, now: time.Now}
}

func (p *KafkaResultPublisher) PublishResult(ctx context.Context, r *models.SectorSentimentResult) error {
	if r == nil {
		return errors.New("nil result")
	}
	return p.PublishResults(ctx, []*models.SectorSentimentResult{r})
}

// PublishResults sends several results in one write.
func (p *KafkaResultPublisher) PublishResults(ctx context.Context, results []*models.SectorSentimentResult) error {
	if len(results) == 0 {
		return nil
	}
	at := p.now()
	msgs := make([]pkgkafka.Message, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(r.Sector),
			Value: models.NewSentimentEvent(r, at),
			Headers: map[string]string{
				"event":     models.SentimentEventType,
				"timeframe": string(r.Timeframe),
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
