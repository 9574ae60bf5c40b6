package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/pkg/logger"
)

// ResultPipeline sits between the aggregator and its downstream sinks. It
// validates results, drops exact repeats, fans out to every sink and buffers
// deliveries a sink refused so they can be retried in the background.
type ResultPipeline struct {
	sinks   []namedSink
	metrics domrepo.Metrics
	log     *logger.Logger

	bufCh   chan pending
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex

	lastSeen   map[string]time.Time // sector:timeframe -> last published timestamp
	minBackoff time.Duration
	maxBackoff time.Duration
	maxRetries int
}

type namedSink struct {
	name string
	pub  domrepo.ResultPublisher
}

type pending struct {
	sink     int
	result   *models.SectorSentimentResult
	attempts int
}

// PipelineOption configures ResultPipeline.
type PipelineOption func(*ResultPipeline)

// WithSink adds a named downstream. Nil publishers are ignored.
func WithSink(name string, pub domrepo.ResultPublisher) PipelineOption {
	return func(p *ResultPipeline) {
		if pub != nil {
			p.sinks = append(p.sinks, namedSink{name: name, pub: pub})
		}
	}
}

// WithBufferSize sets how many refused deliveries are held for retry.
func WithBufferSize(n int) PipelineOption {
	return func(p *ResultPipeline) {
		if n > 0 {
			p.bufCh = make(chan pending, n)
		}
	}
}

// WithBackoff bounds the retry delay.
func WithBackoff(min, max time.Duration) PipelineOption {
	return func(p *ResultPipeline) {
		if min > 0 {
			p.minBackoff = min
		}
		if max >= p.minBackoff {
			p.maxBackoff = max
		}
	}
}

// WithMaxRetries caps background attempts per delivery.
func WithMaxRetries(n int) PipelineOption {
	return func(p *ResultPipeline) { p.maxRetries = n }
}

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *ResultPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewResultPipeline creates a pipeline. Call Start to enable retries.
func NewResultPipeline(metrics domrepo.Metrics, opts ...PipelineOption) *ResultPipeline {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	p := &ResultPipeline{
		metrics:    metrics,
		log:        logger.Nop(),
		bufCh:      make(chan pending, 256),
		stopCh:     make(chan struct{}),
		lastSeen:   make(map[string]time.Time),
		minBackoff: 50 * time.Millisecond,
		maxBackoff: 5 * time.Second,
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Component("result_pipeline")
	return p
}

// Start launches the background retry loop.
func (p *ResultPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.wg.Add(1)
	go p.retryLoop(ctx)
}

func (p *ResultPipeline) retryLoop(ctx context.Context) {
	defer p.wg.Done()
	backoff := p.minBackoff
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case d := <-p.bufCh:
			s := p.sinks[d.sink]
			if err := s.pub.PublishResult(ctx, d.result); err != nil {
				p.metrics.RecordPublish(s.name, "retry_error")
				d.attempts++
				if d.attempts >= p.maxRetries {
					p.metrics.RecordPublish(s.name, "dropped")
					p.log.Warn("delivery dropped after retries",
						logger.String("sink", s.name),
						logger.String("sector", d.result.Sector),
						logger.Int("attempts", d.attempts),
						logger.Error(err))
					continue
				}
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					return
				case <-ctx.Done():
					return
				}
				if backoff *= 2; backoff > p.maxBackoff {
					backoff = p.maxBackoff
				}
				p.buffer(d)
				continue
			}
			p.metrics.RecordPublish(s.name, "retried")
			backoff = p.minBackoff
		}
	}
}

// PublishResult validates r and hands it to every sink. A sink error buffers
// that delivery and is reported; other sinks are unaffected.
func (p *ResultPipeline) PublishResult(ctx context.Context, r *models.SectorSentimentResult) error {
	start := time.Now()
	if err := validateResult(r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.firstSight(r) {
		p.metrics.RecordPublish("pipeline", "duplicate")
		return nil
	}

	var errs []error
	for i, s := range p.sinks {
		if err := s.pub.PublishResult(ctx, r); err != nil {
			p.metrics.RecordPublish(s.name, "error")
			p.buffer(pending{sink: i, result: r, attempts: 1})
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		p.metrics.RecordPublish(s.name, "ok")
	}
	p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
	if len(errs) > 0 {
		return fmt.Errorf("pipeline downstream: %w", errors.Join(errs...))
	}
	return nil
}

func (p *ResultPipeline) buffer(d pending) {
	select {
	case p.bufCh <- d:
	default:
		p.metrics.RecordPublish(p.sinks[d.sink].name, "buffer_full")
	}
}

// firstSight reports whether r is newer than the last result published for
// its (sector, timeframe).
func (p *ResultPipeline) firstSight(r *models.SectorSentimentResult) bool {
	key := r.Sector + ":" + string(r.Timeframe)
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastSeen[key]; ok && !r.Timestamp.After(last) {
		return false
	}
	p.lastSeen[key] = r.Timestamp
	return true
}

// Buffered is the number of deliveries waiting for retry.
func (p *ResultPipeline) Buffered() int { return len(p.bufCh) }

// Close stops the retry loop and closes every sink.
func (p *ResultPipeline) Close() error {
	p.mu.Lock()
	if p.started {
		p.started = false
		close(p.stopCh)
	}
	p.mu.Unlock()
	p.wg.Wait()

	var errs []error
	for _, s := range p.sinks {
		if err := s.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func validateResult(r *models.SectorSentimentResult) error {
	if r == nil {
		return errors.New("result nil")
	}
	if r.Sector == "" {
		return errors.New("sector empty")
	}
	if !models.IsValidTimeframe(r.Timeframe) {
		return fmt.Errorf("timeframe %q invalid", r.Timeframe)
	}
	if r.SentimentScore < -1 || r.SentimentScore > 1 {
		return fmt.Errorf("score %v out of range", r.SentimentScore)
	}
	if r.Timestamp.IsZero() {
		return errors.New("timestamp missing")
	}
	return nil
}
