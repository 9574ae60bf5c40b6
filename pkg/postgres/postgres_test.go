package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfigAppliesSizes(t *testing.T) {
	cfg := &Config{URL: "postgres://u:p@localhost:5432/sectorpulse?sslmode=disable"}
	WithPoolSize(20, 2)(cfg)
	WithConnLifetime(time.Hour, time.Minute)(cfg)

	pc, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(20), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, "sectorpulse", pc.ConnConfig.Database)
}

func TestPoolConfigRejectsBadURL(t *testing.T) {
	_, err := poolConfig(&Config{URL: "postgres://%zz"})
	assert.Error(t, err)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(context.Background())
	assert.Error(t, err)
}
