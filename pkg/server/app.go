package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"SectorPulse/internal/domain/repository"
	mid "SectorPulse/internal/middleware"
	"SectorPulse/internal/scheduler"
	"SectorPulse/internal/usecase"
	"SectorPulse/pkg/config"
	xhttp "SectorPulse/pkg/http"
	applogger "SectorPulse/pkg/logger"
	"SectorPulse/pkg/queue"
)

// Closer releases one infrastructure client on shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// Components are the long-running parts the App starts and stops.
// Scheduler may be nil when scheduling is disabled.
type Components struct {
	HTTP      *xhttp.Server
	Pipeline  *mid.ResultPipeline
	Queue     *queue.RedisQueue
	Scheduler *scheduler.Scheduler
	Benchmark *usecase.BenchmarkService
	Store     repository.SentimentStore
	Closers   []Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	log *applogger.Logger
	c   Components

	mu   sync.Mutex
	stop context.CancelFunc
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, c Components) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log.Component("app"), c: c}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done, then
// shuts down.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.stop = cancel
	a.mu.Unlock()
	defer cancel()

	if err := a.start(runCtx); err != nil {
		a.log.Error("startup failed", applogger.Error(err))
		a.shutdown()
		return err
	}
	a.log.Info("sectorpulse started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Bool("schedule", a.c.Scheduler != nil))

	<-runCtx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) start(ctx context.Context) error {
	if a.c.Pipeline != nil {
		a.c.Pipeline.Start(ctx)
	}

	// warm the benchmark so the first sweep does not pay for it
	if a.c.Benchmark != nil {
		warmCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		if _, err := a.c.Benchmark.Refresh(warmCtx); err != nil {
			a.log.Warn("benchmark warmup failed", applogger.Error(err))
		}
		cancel()
	}

	if a.c.Queue != nil {
		if err := a.c.Queue.Start(); err != nil {
			return fmt.Errorf("queue start: %w", err)
		}
	}
	if a.c.Scheduler != nil {
		a.c.Scheduler.Start()
	}
	if a.c.HTTP != nil {
		if err := a.c.HTTP.Start(); err != nil {
			return fmt.Errorf("http start: %w", err)
		}
	}
	return nil
}

// shutdown stops producers of work before consumers, then closes clients.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.c.HTTP != nil {
		if err := a.c.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.c.Scheduler != nil {
		a.c.Scheduler.Stop(ctx)
	}
	if a.c.Queue != nil {
		if err := a.c.Queue.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	// flush the error digest while its Kafka writer is still open
	a.log.DetachDigest()

	if a.c.Pipeline != nil {
		if err := a.c.Pipeline.Close(); err != nil {
			a.log.Warn("result pipeline close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.c.Store != nil {
		if err := a.c.Store.Close(); err != nil {
			a.log.Warn("sentiment store close error", applogger.Error(err))
		}
	}
	for _, c := range a.c.Closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("client", c.Name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

// Stop triggers shutdown of a running App.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		a.stop()
	}
}
