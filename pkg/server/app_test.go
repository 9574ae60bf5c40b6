package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/pkg/config"
)

func TestRunContextClosesClientsInOrder(t *testing.T) {
	var closed []string
	closer := func(name string, err error) Closer {
		return Closer{Name: name, Close: func() error {
			closed = append(closed, name)
			return err
		}}
	}

	cfg := &config.Config{}
	cfg.Server.ShutdownTimeout = time.Second
	app := New(cfg, nil, Components{
		Closers: []Closer{closer("clickhouse", nil), closer("redis", errors.New("boom"))},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis: boom")
	case <-time.After(2 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}
	assert.Equal(t, []string{"clickhouse", "redis"}, closed)
}

func TestStopEndsRun(t *testing.T) {
	app := New(&config.Config{}, nil, Components{})
	done := make(chan error, 1)
	go func() { done <- app.RunContext(context.Background()) }()

	require.Eventually(t, func() bool {
		app.Stop()
		select {
		case err := <-done:
			return err == nil
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
