package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SectorPulse/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		// Sweeps caps POST /api/sweeps per client.
		SweepRateLimit struct {
			Rate  float64 `yaml:"rate"`
			Burst int     `yaml:"burst"`
		} `yaml:"sweep_rate_limit"`
	} `yaml:"server"`
	Logging struct {
		Level        string        `yaml:"level"`
		Format       string        `yaml:"format"`
		Output       string        `yaml:"output"`
		DigestTopic  string        `yaml:"digest_topic"`
		DigestWindow time.Duration `yaml:"digest_window"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Quotes struct {
		Timeout      time.Duration `yaml:"timeout"`
		PaceInterval time.Duration `yaml:"pace_interval"`
		RetryMax     int           `yaml:"retry_max"`
		MinPrice     float64       `yaml:"min_price"`
		MaxPrice     float64       `yaml:"max_price"`
		SourceA      struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"source_a"`
		SourceB struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"source_b"`
	} `yaml:"quotes"`
	Benchmark struct {
		Symbol      string        `yaml:"symbol"`
		MinPrice    float64       `yaml:"min_price"`
		MaxPrice    float64       `yaml:"max_price"`
		MaxChange   float64       `yaml:"max_change"`
		ThinVolume  int64         `yaml:"thin_volume"`
		MarketTTL   time.Duration `yaml:"market_ttl"`
		AfterTTL    time.Duration `yaml:"after_hours_ttl"`
		WeekendTTL  time.Duration `yaml:"weekend_ttl"`
		Timezone    string        `yaml:"timezone"`
		Multipliers struct {
			Min30 float64 `yaml:"30min"`
			Day3  float64 `yaml:"3day"`
			Week1 float64 `yaml:"1week"`
		} `yaml:"timeframe_multipliers"`
	} `yaml:"benchmark"`
	Aggregation struct {
		SectorWorkers        int                `yaml:"sector_workers"`
		SuccessRatioAlert    float64            `yaml:"success_ratio_alert"`
		ResultTTL            time.Duration      `yaml:"result_ttl"`
		VolatilityMultiplier map[string]float64 `yaml:"volatility_multipliers"`
		TimeframeWeights     map[string]float64 `yaml:"timeframe_weights"`
	} `yaml:"aggregation"`
	Postgres struct {
		URL             string        `yaml:"url"`
		MaxConns        int32         `yaml:"max_conns"`
		MinConns        int32         `yaml:"min_conns"`
		MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		MaxRetries int           `yaml:"max_retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Schedule struct {
		Enabled           bool          `yaml:"enabled"`
		Sweeps            []string      `yaml:"sweeps"` // cron specs with seconds, benchmark timezone
		RefreshTimeframes bool          `yaml:"refresh_timeframes"`
		LockTTL           time.Duration `yaml:"lock_ttl"` // how long one replica owns a fire slot
	} `yaml:"schedule"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		ClientID     string   `yaml:"client_id"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
			RetryBuffer  int           `yaml:"retry_buffer"` // results held while a sink refuses them
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Bounds for timeframe approximation multipliers.
var (
	Min30Bounds = [2]float64{0.1, 0.8}
	Day3Bounds  = [2]float64{1.5, 3.5}
	Week1Bounds = [2]float64{2.5, 6.0}
)

// Load reads and parses a YAML configuration file, fills defaults and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present), then YAML, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyEnv()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.Quotes.SourceA.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Quotes.SourceB.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.SweepRateLimit.Rate == 0 {
		c.Server.SweepRateLimit.Rate = 0.2
	}
	if c.Server.SweepRateLimit.Burst == 0 {
		c.Server.SweepRateLimit.Burst = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Quotes.Timeout == 0 {
		c.Quotes.Timeout = 5 * time.Second
	}
	if c.Quotes.PaceInterval == 0 {
		c.Quotes.PaceInterval = 50 * time.Millisecond
	}
	if c.Quotes.MaxPrice == 0 {
		c.Quotes.MinPrice, c.Quotes.MaxPrice = 0.01, 10000
	}
	b := &c.Benchmark
	if b.Symbol == "" {
		b.Symbol = "IWM"
	}
	if b.MaxPrice == 0 {
		b.MinPrice, b.MaxPrice = 50, 500
	}
	if b.MaxChange == 0 {
		b.MaxChange = 20
	}
	if b.ThinVolume == 0 {
		b.ThinVolume = 5_000_000
	}
	if b.MarketTTL == 0 {
		b.MarketTTL = 5 * time.Minute
	}
	if b.AfterTTL == 0 {
		b.AfterTTL = 60 * time.Minute
	}
	if b.WeekendTTL == 0 {
		b.WeekendTTL = 120 * time.Minute
	}
	if b.Timezone == "" {
		b.Timezone = "America/New_York"
	}
	if b.Multipliers.Min30 == 0 {
		b.Multipliers.Min30 = 0.3
	}
	if b.Multipliers.Day3 == 0 {
		b.Multipliers.Day3 = 2.5
	}
	if b.Multipliers.Week1 == 0 {
		b.Multipliers.Week1 = 4.0
	}
	a := &c.Aggregation
	if a.SectorWorkers == 0 {
		a.SectorWorkers = 4
	}
	if a.SuccessRatioAlert == 0 {
		a.SuccessRatioAlert = 0.95
	}
	if a.ResultTTL == 0 {
		a.ResultTTL = 15 * time.Minute
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.MaxRetries == 0 {
		c.Queue.MaxRetries = 3
	}
	if c.Queue.RetryDelay == 0 {
		c.Queue.RetryDelay = 30 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "sector.sentiment"
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "sectorpulse"
	}
}

// Validate checks if the configuration is valid. Multiplier and weight
// violations are programming errors, so startup must stop on them.
func (c *Config) Validate() error {
	var errs []error
	if c.Environment == "" {
		errs = append(errs, errors.New("environment is required"))
	}
	if c.Quotes.SourceA.APIKey == "" && c.Quotes.SourceB.APIKey == "" {
		errs = append(errs, errors.New("at least one of quotes.source_a.api_key or quotes.source_b.api_key is required"))
	}
	if c.Benchmark.MinPrice >= c.Benchmark.MaxPrice {
		errs = append(errs, fmt.Errorf("benchmark price band [%v, %v] is empty", c.Benchmark.MinPrice, c.Benchmark.MaxPrice))
	}
	if _, err := time.LoadLocation(c.Benchmark.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("benchmark.timezone: %w", err))
	}
	m := c.Benchmark.Multipliers
	errs = append(errs,
		checkBounds("30min", m.Min30, Min30Bounds),
		checkBounds("3day", m.Day3, Day3Bounds),
		checkBounds("1week", m.Week1, Week1Bounds),
	)
	for sector, v := range c.Aggregation.VolatilityMultiplier {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("aggregation.volatility_multipliers[%s] must be > 0, got %v", sector, v))
		}
	}
	if w := c.Aggregation.TimeframeWeights; len(w) > 0 {
		sum := 0.0
		for _, v := range w {
			if v < 0 {
				errs = append(errs, fmt.Errorf("aggregation.timeframe_weights must be non-negative"))
			}
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-9 {
			errs = append(errs, fmt.Errorf("aggregation.timeframe_weights must sum to 1.0, got %v", sum))
		}
	}
	if c.Aggregation.SectorWorkers < 1 {
		errs = append(errs, errors.New("aggregation.sector_workers must be >= 1"))
	}
	return errors.Join(errs...)
}

func checkBounds(name string, v float64, b [2]float64) error {
	if v < b[0] || v > b[1] {
		return fmt.Errorf("benchmark.timeframe_multipliers.%s=%v outside [%v, %v]", name, v, b[0], b[1])
	}
	return nil
}
