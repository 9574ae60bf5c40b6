package quotes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"

	xhttp "SectorPulse/pkg/http"
	"SectorPulse/pkg/logger"
)

// ErrNoData means the provider answered but had nothing for the symbol.
var ErrNoData = errors.New("no data for symbol")

// Option configures a source client.
type Option func(*httpSource)

// WithBaseURL overrides the vendor base URL.
func WithBaseURL(u string) Option {
	return func(s *httpSource) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithPace spaces outbound calls at least interval apart.
func WithPace(interval time.Duration) Option {
	return func(s *httpSource) {
		if interval > 0 {
			s.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// WithRetry sets how many extra attempts a transient failure gets.
func WithRetry(n int) Option {
	return func(s *httpSource) { s.retryMax = n }
}

// WithClient replaces the HTTP client.
func WithClient(c *xhttp.Client) Option {
	return func(s *httpSource) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *httpSource) { s.log = l }
}

// httpSource is the shared plumbing of the vendor clients: pacing, retry
// on transient failures and JSON decoding.
type httpSource struct {
	baseURL  string
	apiKey   string
	client   *xhttp.Client
	limiter  *rate.Limiter
	retryMax int
	backoff  time.Duration
	log      *logger.Logger
}

func newHTTPSource(baseURL, apiKey string, opts []Option) *httpSource {
	s := &httpSource{
		baseURL:  baseURL,
		apiKey:   apiKey,
		limiter:  rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
		retryMax: 1,
		backoff:  100 * time.Millisecond,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	}
	return s
}

func (s *httpSource) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	var err error
	for attempt := 0; attempt <= s.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * s.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if werr := s.limiter.Wait(ctx); werr != nil {
			return fmt.Errorf("pace wait: %w", werr)
		}
		err = s.client.GetJSON(ctx, s.baseURL+path, query, dest)
		if err == nil || !retryable(err) {
			break
		}
		s.log.Debug("retrying quote request",
			logger.String("path", path),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int64) *int64     { return &v }
