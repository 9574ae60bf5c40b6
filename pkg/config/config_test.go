package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
environment: test
quotes:
  source_a:
    api_key: key-a
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "IWM", c.Benchmark.Symbol)
	assert.Equal(t, 50.0, c.Benchmark.MinPrice)
	assert.Equal(t, 500.0, c.Benchmark.MaxPrice)
	assert.Equal(t, 5*time.Minute, c.Benchmark.MarketTTL)
	assert.Equal(t, 60*time.Minute, c.Benchmark.AfterTTL)
	assert.Equal(t, 120*time.Minute, c.Benchmark.WeekendTTL)
	assert.Equal(t, 0.3, c.Benchmark.Multipliers.Min30)
	assert.Equal(t, 2.5, c.Benchmark.Multipliers.Day3)
	assert.Equal(t, 4.0, c.Benchmark.Multipliers.Week1)
	assert.Equal(t, 4, c.Aggregation.SectorWorkers)
	assert.Equal(t, "sector.sentiment", c.Kafka.Topic)
	assert.Equal(t, "sectorpulse", c.Kafka.ClientID)
	assert.False(t, c.Schedule.Enabled)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing environment": `
quotes:
  source_a:
    api_key: k
`,
		"no api keys": `
environment: test
`,
		"multiplier out of band": `
environment: test
quotes:
  source_b:
    api_key: k
benchmark:
  timeframe_multipliers:
    30min: 0.9
`,
		"weights not summing to one": `
environment: test
quotes:
  source_a:
    api_key: k
aggregation:
  timeframe_weights:
    1day: 0.5
    1week: 0.2
`,
		"non positive volatility": `
environment: test
quotes:
  source_a:
    api_key: k
aggregation:
  volatility_multipliers:
    energy: -1
`,
		"bad timezone": `
environment: test
quotes:
  source_a:
    api_key: k
benchmark:
  timezone: Mars/Olympus
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: dev\nserver:\n  port: 9000\n"), 0o600))

	t.Setenv("POLYGON_API_KEY", "from-env")
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Quotes.SourceB.APIKey)
	assert.Equal(t, 9100, c.Server.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
}

func TestSampleConfig(t *testing.T) {
	t.Setenv("FMP_API_KEY", "sample")

	c, err := LoadWithEnv(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.True(t, c.Schedule.Enabled)
	assert.True(t, c.Schedule.RefreshTimeframes)
	assert.Equal(t, 2*time.Minute, c.Schedule.LockTTL)
	assert.Equal(t, 256, c.Kafka.Producer.RetryBuffer)
	assert.Len(t, c.Schedule.Sweeps, 2)
	assert.Equal(t, "America/New_York", c.Benchmark.Timezone)
	assert.InDelta(t, 0.4, c.Aggregation.TimeframeWeights["1day"], 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
