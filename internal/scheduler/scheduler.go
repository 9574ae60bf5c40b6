package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/usecase"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/queue"
)

// Locker guards a fire slot across replicas. pkg/cache.Service satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Scheduler turns cron specs into queued sweep items. It never aggregates
// itself; the SweepJob consumer does.
type Scheduler struct {
	cron    *cron.Cron
	queue   queue.QueueService
	lock    Locker
	log     *logger.Logger
	loc     *time.Location
	lockTTL time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]cron.EntryID
	history map[string]*RunHistory
}

// RunHistory tracks the last outcome of one schedule.
type RunHistory struct {
	LastFire  time.Time `json:"last_fire"`
	LastError string    `json:"last_error,omitempty"`
	Fired     int       `json:"fired"`
	Skipped   int       `json:"skipped"`
}

type Option func(*Scheduler)

// WithLocation sets the zone cron specs are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLockTTL sets how long a fire slot stays claimed.
func WithLockTTL(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// New creates a scheduler. lock may be nil for single-replica deployments.
func New(q queue.QueueService, lock Locker, log *logger.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		queue:   q,
		lock:    lock,
		log:     log.Component("scheduler"),
		loc:     time.UTC,
		lockTTL: 50 * time.Second,
		now:     time.Now,
		entries: make(map[string]cron.EntryID),
		history: make(map[string]*RunHistory),
	}
	for _, o := range opts {
		o(s)
	}
	s.cron = cron.New(cron.WithSeconds(), cron.WithLocation(s.loc))
	return s
}

// AddSweep schedules an all-sector sweep on a six-field cron spec.
func (s *Scheduler) AddSweep(spec string, timeframes bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[spec]; ok {
		return fmt.Errorf("sweep %q already scheduled", spec)
	}
	id, err := s.cron.AddFunc(spec, func() {
		_ = s.fire(context.Background(), spec, timeframes)
	})
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	s.entries[spec] = id
	s.history[spec] = &RunHistory{}
	s.log.Info("sweep scheduled", logger.String("spec", spec), logger.Bool("timeframes", timeframes))
	return nil
}

// fire enqueues one sweep unless another replica already claimed the slot.
func (s *Scheduler) fire(ctx context.Context, spec string, timeframes bool) error {
	at := s.now().In(s.loc)
	slot := at.Truncate(time.Minute)

	if s.lock != nil {
		key := fmt.Sprintf("scheduler:sweep:%s:%d", spec, slot.Unix())
		ok, err := s.lock.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			s.log.Warn("sweep lock failed, firing anyway", logger.String("spec", spec), logger.Error(err))
		} else if !ok {
			s.record(spec, at, nil, true)
			s.log.Debug("sweep slot taken by another replica", logger.String("spec", spec))
			return nil
		}
	}

	item := usecase.NewSweepItem(models.SweepRequest{Timeframes: timeframes}, "schedule:"+spec, at)
	err := s.queue.PublishMessage(ctx, usecase.SweepJobType, item)
	s.record(spec, at, err, false)
	if err != nil {
		s.log.Error("enqueue scheduled sweep failed", logger.String("spec", spec), logger.Error(err))
		return err
	}
	s.log.Info("scheduled sweep queued", logger.String("spec", spec))
	return nil
}

func (s *Scheduler) record(spec string, at time.Time, err error, skipped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[spec]
	if !ok {
		h = &RunHistory{}
		s.history[spec] = h
	}
	if skipped {
		h.Skipped++
		return
	}
	h.LastFire = at
	h.Fired++
	h.LastError = ""
	if err != nil {
		h.LastError = err.Error()
	}
}

// History returns a copy of per-spec run history.
func (s *Scheduler) History() map[string]RunHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]RunHistory, len(s.history))
	for k, v := range s.history {
		out[k] = *v
	}
	return out
}

// Next returns the next fire time of spec, zero when unknown.
func (s *Scheduler) Next(spec string) time.Time {
	s.mu.RLock()
	id, ok := s.entries[spec]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.log.Info("scheduler starting", logger.Int("sweeps", len(s.entries)), logger.String("tz", s.loc.String()))
	s.cron.Start()
}

// Stop waits for running fires to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
	s.log.Info("scheduler stopped")
}
