package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
)

type sink struct {
	mu     sync.Mutex
	got    []*models.SectorSentimentResult
	fail   int // fail this many calls, then succeed
	closed bool
}

func (s *sink) PublishResult(_ context.Context, r *models.SectorSentimentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return errors.New("unavailable")
	}
	s.got = append(s.got, r)
	return nil
}

func (s *sink) Close() error {
	s.closed = true
	return nil
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type publishCounter struct {
	mu  sync.Mutex
	out map[string]int
}

func (p *publishCounter) RecordFetch(string, string)                    {}
func (p *publishCounter) RecordError(string)                            {}
func (p *publishCounter) RecordSentiment(string, float64, float64, int) {}
func (p *publishCounter) RecordBenchmark(string, float64)               {}
func (p *publishCounter) RecordLatency(string, float64)                 {}
func (p *publishCounter) RecordPublish(sink, outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		p.out = map[string]int{}
	}
	p.out[sink+":"+outcome]++
}

func (p *publishCounter) get(k string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out[k]
}

func result(sector string, at time.Time) *models.SectorSentimentResult {
	return &models.SectorSentimentResult{
		Sector:         sector,
		Timeframe:      models.TF1Day,
		Timestamp:      at,
		SentimentScore: 0.3,
	}
}

var t0 = time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)

func TestPipelineFansOut(t *testing.T) {
	a, b := &sink{}, &sink{}
	m := &publishCounter{}
	p := NewResultPipeline(m, WithSink("kafka", a), WithSink("live", b), WithSink("none", nil))

	require.NoError(t, p.PublishResult(context.Background(), result("energy", t0)))
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 1, m.get("kafka:ok"))
	assert.Equal(t, 1, m.get("live:ok"))
}

func TestPipelineRejectsInvalid(t *testing.T) {
	a := &sink{}
	p := NewResultPipeline(nil, WithSink("a", a))
	ctx := context.Background()

	bad := []*models.SectorSentimentResult{
		nil,
		result("", t0),
		{Sector: "x", Timeframe: "2day", Timestamp: t0},
		{Sector: "x", Timeframe: models.TF1Day},
		{Sector: "x", Timeframe: models.TF1Day, Timestamp: t0, SentimentScore: 1.2},
	}
	for _, r := range bad {
		assert.Error(t, p.PublishResult(ctx, r))
	}
	assert.Zero(t, a.count())
}

func TestPipelineDropsRepeats(t *testing.T) {
	a := &sink{}
	m := &publishCounter{}
	p := NewResultPipeline(m, WithSink("a", a))
	ctx := context.Background()

	require.NoError(t, p.PublishResult(ctx, result("energy", t0)))
	require.NoError(t, p.PublishResult(ctx, result("energy", t0)))
	require.NoError(t, p.PublishResult(ctx, result("energy", t0.Add(-time.Minute))))
	require.NoError(t, p.PublishResult(ctx, result("energy", t0.Add(time.Minute))))
	require.NoError(t, p.PublishResult(ctx, result("technology", t0)))

	assert.Equal(t, 3, a.count())
	assert.Equal(t, 2, m.get("pipeline:duplicate"))
}

func TestPipelineIsolatesFailingSink(t *testing.T) {
	bad, good := &sink{fail: 1}, &sink{}
	p := NewResultPipeline(nil, WithSink("bad", bad), WithSink("good", good))

	err := p.PublishResult(context.Background(), result("energy", t0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, 1, good.count())
	assert.Equal(t, 1, p.Buffered())
}

func TestPipelineRetriesInBackground(t *testing.T) {
	bad := &sink{fail: 2}
	m := &publishCounter{}
	p := NewResultPipeline(m,
		WithSink("bad", bad),
		WithBackoff(time.Millisecond, 2*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	_ = p.PublishResult(ctx, result("energy", t0))
	assert.Eventually(t, func() bool { return bad.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.get("bad:retried"))

	require.NoError(t, p.Close())
	assert.True(t, bad.closed)
}

func TestPipelineDropsAfterMaxRetries(t *testing.T) {
	bad := &sink{fail: 100}
	m := &publishCounter{}
	p := NewResultPipeline(m,
		WithSink("bad", bad),
		WithBackoff(time.Millisecond, time.Millisecond),
		WithMaxRetries(3),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	_ = p.PublishResult(ctx, result("energy", t0))
	assert.Eventually(t, func() bool { return m.get("bad:dropped") == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, bad.count())
	require.NoError(t, p.Close())
}

func TestPipelineBufferIsBounded(t *testing.T) {
	bad := &sink{fail: 100}
	m := &publishCounter{}
	p := NewResultPipeline(m, WithSink("bad", bad), WithBufferSize(2))

	for i := 0; i < 3; i++ {
		_ = p.PublishResult(context.Background(), result("energy", t0.Add(time.Duration(i)*time.Minute)))
	}
	assert.Equal(t, 2, p.Buffered())
	assert.Equal(t, 1, m.get("bad:buffer_full"))
}
