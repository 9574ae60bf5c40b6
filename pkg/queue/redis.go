package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"SectorPulse/pkg/logger"
)

// QueueMode defines the operation mode of the queue.
type QueueMode int

const (
	ModeProducerConsumer QueueMode = iota
	ModeProducerOnly
	ModeConsumerOnly
)

func (m QueueMode) String() string {
	switch m {
	case ModeProducerOnly:
		return "producer-only"
	case ModeConsumerOnly:
		return "consumer-only"
	default:
		return "producer-consumer"
	}
}

// RedisQueue is a list-backed work queue with a sorted-set retry schedule
// and a dead-letter list.
type RedisQueue struct {
	logger    *logger.Logger
	config    QueueConfig
	client    redis.UniversalClient
	jobs      map[string]Job
	mode      QueueMode
	keyPrefix string
	now       func() time.Time

	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		r.keyPrefix = prefix
	}
}

// NewRedisQueue creates a queue. Call Start before Enqueue.
func NewRedisQueue(lgr *logger.Logger, config *QueueConfig, client redis.UniversalClient, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	cfg := QueueConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Minute
	}
	if lgr == nil {
		lgr = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	rq := &RedisQueue{
		logger:    lgr.Component("queue"),
		config:    cfg,
		client:    client,
		jobs:      make(map[string]Job),
		mode:      mode,
		keyPrefix: "sectorpulse:queue",
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(rq)
	}
	return rq
}

// NewRedisPublisher creates and starts a producer-only queue.
func NewRedisPublisher(lgr *logger.Logger, client redis.UniversalClient, opts ...RedisQueueOption) (*RedisQueue, error) {
	q := NewRedisQueue(lgr, nil, client, ModeProducerOnly, opts...)
	if err := q.Start(); err != nil {
		return nil, err
	}
	return q, nil
}

// RegisterJobs registers multiple jobs.
func (r *RedisQueue) RegisterJobs(jobs []Job) {
	for _, job := range jobs {
		r.RegisterJob(job)
	}
}

// RegisterJob routes a message type to job. Duplicates are ignored.
func (r *RedisQueue) RegisterJob(job Job) {
	if r.mode == ModeProducerOnly {
		r.logger.Warn("job registration ignored in producer-only mode",
			logger.String("job", job.Name()))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Type()]; exists {
		r.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	r.jobs[job.Type()] = job
	r.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start pings Redis and, in consumer modes, launches workers and the retry mover.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("queue already running")
	}

	ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	r.running = true

	if r.mode != ModeProducerOnly {
		for i := 0; i < r.config.Workers; i++ {
			r.wg.Add(1)
			go r.worker(i)
		}
		r.wg.Add(1)
		go r.retryLoop()
	}
	r.logger.Info("redis queue started",
		logger.Int("workers", r.config.Workers),
		logger.String("prefix", r.keyPrefix),
		logger.String("mode", r.mode.String()))
	return nil
}

// Stop cancels workers and waits for in-flight messages or ctx.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		r.logger.Info("redis queue stopped")
		return nil
	}
}

// Enqueue encodes payload and pushes it onto the work list.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	r.mu.RLock()
	running := r.running
	_, known := r.jobs[msgType]
	r.mu.RUnlock()

	if !running {
		return fmt.Errorf("queue not running")
	}
	if r.mode != ModeProducerOnly && !known {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}

	data, err := r.newMessage(msgType, payload)
	if err != nil {
		return err
	}
	if err := r.client.LPush(ctx, r.queueKey(), data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// PublishMessage implements QueueService.
func (r *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return r.Enqueue(ctx, msgType, payload)
}

// Depth reports pending, scheduled-retry and dead-lettered counts.
func (r *RedisQueue) Depth(ctx context.Context) (pending, retry, dead int64, err error) {
	pipe := r.client.Pipeline()
	p := pipe.LLen(ctx, r.queueKey())
	z := pipe.ZCard(ctx, r.retryKey())
	d := pipe.LLen(ctx, r.deadLetterKey())
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, 0, 0, fmt.Errorf("queue depth: %w", err)
	}
	return p.Val(), z.Val(), d.Val(), nil
}

func (r *RedisQueue) newMessage(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return data, nil
}

func (r *RedisQueue) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("queue worker started", logger.Int("worker_id", id))
	for {
		select {
		case <-r.ctx.Done():
			return
		default:
			r.next()
		}
	}
}

func (r *RedisQueue) next() {
	res, err := r.client.BRPop(r.ctx, time.Second, r.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return
		}
		r.logger.Error("brpop error", logger.Error(err))
		select {
		case <-r.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}
	if len(res) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		r.logger.Error("unmarshal message", logger.Error(err))
		return
	}
	r.settle(msg, r.run(msg))
}

// run executes the job for msg, turning panics into errors.
func (r *RedisQueue) run(msg Message) (err error) {
	r.mu.RLock()
	job, ok := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no job registered for type: %s", msg.Type)
	}

	ctx := r.ctx
	if r.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.JobTimeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), rec)
		}
	}()

	start := r.now()
	err = job.Handle(ctx, msg.Payload)
	r.logger.Debug("message handled",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Duration("elapsed", r.now().Sub(start)),
		logger.Bool("ok", err == nil))
	return err
}

func (r *RedisQueue) settle(msg Message, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && r.ctx.Err() != nil {
		// shutting down: put it back for the next process
		r.push(r.queueKey(), msg)
		return
	}

	r.logger.Error("message processing error",
		logger.String("id", msg.ID),
		logger.String("type", msg.Type),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))

	if msg.Attempts >= r.config.RetryLimit {
		r.logger.Error("max retries reached, dead-lettering",
			logger.String("id", msg.ID),
			logger.String("type", msg.Type))
		r.push(r.deadLetterKey(), msg)
		return
	}

	msg.Attempts++
	at := r.now().Add(retryDelay(r.config.RetryDelay, r.config.MaxDelay, msg.Attempts))
	data, mErr := json.Marshal(msg)
	if mErr != nil {
		r.logger.Error("marshal retry", logger.Error(mErr))
		return
	}
	if zErr := r.client.ZAdd(context.Background(), r.retryKey(), redis.Z{
		Score:  float64(at.Unix()),
		Member: data,
	}).Err(); zErr != nil {
		r.logger.Error("zadd retry", logger.Error(zErr))
		return
	}
	r.logger.Info("scheduled retry",
		logger.String("id", msg.ID),
		logger.Int("attempt", msg.Attempts),
		logger.String("retry_at", at.Format(time.RFC3339)))
}

func (r *RedisQueue) push(key string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal message", logger.Error(err))
		return
	}
	if err := r.client.LPush(context.Background(), key, data).Err(); err != nil {
		r.logger.Error("lpush", logger.String("key", key), logger.Error(err))
	}
}

func (r *RedisQueue) retryLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.promoteDue()
		}
	}
}

// promoteDue moves retries whose time has come back onto the work list.
func (r *RedisQueue) promoteDue() {
	due, err := r.client.ZRangeByScore(r.ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(r.now().Unix(), 10),
	}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("fetch retry messages", logger.Error(err))
		}
		return
	}
	for _, member := range due {
		pipe := r.client.TxPipeline()
		pipe.ZRem(r.ctx, r.retryKey(), member)
		pipe.LPush(r.ctx, r.queueKey(), member)
		if _, err := pipe.Exec(r.ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Error("move retry to queue", logger.Error(err))
		}
	}
}

func (r *RedisQueue) queueKey() string      { return r.keyPrefix + ":messages" }
func (r *RedisQueue) retryKey() string      { return r.keyPrefix + ":retry" }
func (r *RedisQueue) deadLetterKey() string { return r.keyPrefix + ":dlq" }
