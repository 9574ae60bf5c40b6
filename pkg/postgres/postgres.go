package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option configures the pool.
type Option func(*Config)

// Config holds pool settings.
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	PingTimeout     time.Duration
}

func WithURL(url string) Option {
	return func(c *Config) { c.URL = url }
}

// WithPoolSize sets max and min connections. Zero keeps the default.
func WithPoolSize(maxConns, minConns int32) Option {
	return func(c *Config) {
		if maxConns > 0 {
			c.MaxConns = maxConns
		}
		if minConns > 0 {
			c.MinConns = minConns
		}
	}
}

func WithConnLifetime(life, idle time.Duration) Option {
	return func(c *Config) {
		if life > 0 {
			c.MaxConnLifetime = life
		}
		if idle > 0 {
			c.MaxConnIdleTime = idle
		}
	}
}

// DB wraps pgxpool.Pool. It is the only place a pool is created.
type DB struct {
	Pool *pgxpool.Pool
}

// New parses the URL, opens a pool and pings it.
func New(ctx context.Context, opts ...Option) (*DB, error) {
	cfg := &Config{
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgres url is required")
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func poolConfig(cfg *Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	return pc, nil
}

// Migrate runs idempotent DDL in order.
func (db *DB) Migrate(ctx context.Context, stmts []string) error {
	for _, s := range stmts {
		if _, err := db.Pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
