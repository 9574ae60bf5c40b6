package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/service/metrics"
	"SectorPulse/internal/service/ratelimit"
	"SectorPulse/internal/usecase"
	xhttp "SectorPulse/pkg/http"
	xlogger "SectorPulse/pkg/logger"
	"SectorPulse/pkg/queue"
)

// SectorService is the aggregation surface the handler reads from.
type SectorService interface {
	Latest(ctx context.Context, sector string) (*models.SectorSentimentResult, bool, error)
	Aggregate(ctx context.Context, sector string) (*models.SectorSentimentResult, error)
	Cached(ctx context.Context) ([]*models.SectorSentimentResult, error)
}

type HistoryReader interface {
	History(ctx context.Context, sector string, tf models.Timeframe, from, to time.Time, limit int) ([]*models.SectorSentimentResult, error)
}

type TimeframeService interface {
	Calculate(ctx context.Context, sector string, refresh bool) (*models.TimeframeSentiment, error)
}

type Ranker interface {
	Rank(ctx context.Context, sector string, n int) (*models.SectorRanking, error)
}

type BenchmarkReader interface {
	Approximations(ctx context.Context) (models.BenchmarkSnapshot, models.TimeframeApproximation)
}

// SectorsEchoHandler serves the sector sentiment API.
type SectorsEchoHandler struct {
	logger    *xlogger.Logger
	sectors   SectorService
	history   HistoryReader
	tf        TimeframeService
	ranker    Ranker
	benchmark BenchmarkReader
	sweeps    queue.QueueService
	limiter   *ratelimit.Limiter
	live      *LiveHub
	now       func() time.Time
}

type HandlerOption func(*SectorsEchoHandler)

func WithHistory(h HistoryReader) HandlerOption {
	return func(s *SectorsEchoHandler) { s.history = h }
}

func WithTimeframes(t TimeframeService) HandlerOption {
	return func(s *SectorsEchoHandler) { s.tf = t }
}

func WithRanker(r Ranker) HandlerOption {
	return func(s *SectorsEchoHandler) { s.ranker = r }
}

func WithBenchmark(b BenchmarkReader) HandlerOption {
	return func(s *SectorsEchoHandler) { s.benchmark = b }
}

// WithSweeps enables POST /api/sweeps. lim may be nil for no limit.
func WithSweeps(q queue.QueueService, lim *ratelimit.Limiter) HandlerOption {
	return func(s *SectorsEchoHandler) {
		s.sweeps = q
		s.limiter = lim
	}
}

// WithLive enables the websocket stream.
func WithLive(h *LiveHub) HandlerOption {
	return func(s *SectorsEchoHandler) { s.live = h }
}

func NewSectorsEchoHandler(logger *xlogger.Logger, sectors SectorService, opts ...HandlerOption) *SectorsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &SectorsEchoHandler{logger: logger.Component("api"), sectors: sectors, now: time.Now}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *SectorsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/sectors", h.List)
	g.GET("/sectors/:sector", h.Get)
	g.GET("/sectors/:sector/history", h.History)
	g.GET("/sectors/:sector/timeframes", h.Timeframes)
	g.GET("/sectors/:sector/rankings", h.Rankings)
	g.GET("/benchmark", h.Benchmark)
	g.POST("/sweeps", h.Sweep)
	if h.live != nil {
		e.GET("/ws/sentiment", h.live.ServeWS)
	}
}

// List returns the cached result of every sector.
func (h *SectorsEchoHandler) List(c echo.Context) error {
	start := time.Now()
	res, err := h.sectors.Cached(c.Request().Context())
	metrics.Observe("sectors", "cache", start, err)
	if err != nil {
		h.logger.Error("list sectors failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("sector list unavailable").WithError(err))
	}
	rows := make([]SectorView, len(res))
	for i, r := range res {
		rows[i] = toSectorView(r, "cache", false)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Get returns one sector, from cache unless refresh=true.
func (h *SectorsEchoHandler) Get(c echo.Context) error {
	start := time.Now()
	req := &models.SectorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sector, bad := normalizedSector(req.Sector)
	if bad != nil {
		return xhttp.AppErrorResponse(c, bad)
	}

	ctx := c.Request().Context()
	var (
		res    *models.SectorSentimentResult
		cached bool
		err    error
	)
	if req.Refresh {
		res, err = h.sectors.Aggregate(ctx, sector)
	} else {
		res, cached, err = h.sectors.Latest(ctx, sector)
	}
	source := "live"
	if cached {
		source = "cache"
	}
	metrics.Observe("sector", source, start, err)
	if err != nil {
		h.logger.Error("sector aggregation failed", xlogger.String("sector", sector), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("sector %s unavailable", sector).WithError(err))
	}
	if cached {
		c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	}
	return xhttp.SuccessResponse(c, toSectorView(res, source, true))
}

// History returns persisted results, newest first.
func (h *SectorsEchoHandler) History(c echo.Context) error {
	start := time.Now()
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("history store not configured"))
	}
	sector, bad := normalizedSector(req.Sector)
	if bad != nil {
		return xhttp.AppErrorResponse(c, bad)
	}
	from := xhttp.ParseTimeDefault(req.From, time.Time{})
	to := xhttp.ParseTimeDefault(req.To, time.Time{})
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("to must not be before from"))
	}

	rows, err := h.history.History(c.Request().Context(), sector, models.NormalizeTimeframe(req.Timeframe), from, to, req.Limit)
	metrics.Observe("history", "store", start, err)
	if err != nil {
		h.logger.Error("history query failed", xlogger.String("sector", sector), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("history unavailable").WithError(err))
	}
	out := make([]SectorView, len(rows))
	for i, r := range rows {
		out[i] = toSectorView(r, "store", true)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *SectorsEchoHandler) Timeframes(c echo.Context) error {
	start := time.Now()
	req := &models.SectorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.tf == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("timeframe data not configured"))
	}
	sector, bad := normalizedSector(req.Sector)
	if bad != nil {
		return xhttp.AppErrorResponse(c, bad)
	}

	res, err := h.tf.Calculate(c.Request().Context(), sector, req.Refresh)
	metrics.Observe("timeframes", "live", start, err)
	if err != nil {
		h.logger.Error("timeframe calculation failed", xlogger.String("sector", sector), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("timeframes for %s unavailable", sector).WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SectorsEchoHandler) Rankings(c echo.Context) error {
	start := time.Now()
	req := &models.RankingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.ranker == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("ranker not configured"))
	}
	sector, bad := normalizedSector(req.Sector)
	if bad != nil {
		return xhttp.AppErrorResponse(c, bad)
	}

	res, err := h.ranker.Rank(c.Request().Context(), sector, req.Top)
	metrics.Observe("rankings", "live", start, err)
	if err != nil {
		h.logger.Error("ranking failed", xlogger.String("sector", sector), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("rankings for %s unavailable", sector).WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SectorsEchoHandler) Benchmark(c echo.Context) error {
	start := time.Now()
	if h.benchmark == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("benchmark not configured"))
	}
	snap, approx := h.benchmark.Approximations(c.Request().Context())
	metrics.Observe("benchmark", string(snap.Status), start, nil)
	return xhttp.SuccessResponse(c, BenchmarkView{Benchmark: snap, Approximations: approx})
}

// Sweep queues an on-demand aggregation run.
func (h *SectorsEchoHandler) Sweep(c echo.Context) error {
	if h.sweeps == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("sweep queue not configured"))
	}
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		metrics.SweepsRejected.Inc()
		h.logger.Warn("sweep rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.TooManyRequestsResponse(c, []*xhttp.AppError{
			xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many sweep requests", http.StatusTooManyRequests),
		})
	}

	req := &models.SweepRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sectors := make([]string, 0, len(req.Sectors))
	for _, s := range req.Sectors {
		n, bad := normalizedSector(s)
		if bad != nil {
			return xhttp.AppErrorResponse(c, bad)
		}
		sectors = append(sectors, n)
	}
	req.Sectors = sectors

	item := usecase.NewSweepItem(*req, "api", h.now())
	if err := h.sweeps.PublishMessage(c.Request().Context(), usecase.SweepJobType, item); err != nil {
		h.logger.Error("enqueue sweep failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("sweep queue unavailable").WithError(err))
	}
	h.logger.Info("sweep queued", xlogger.Strings("sectors", sectors), xlogger.String("reason", item.Reason))
	return xhttp.AcceptedResponse(c, SweepAccepted{
		Queued:      true,
		Sectors:     sectors,
		Timeframes:  item.Timeframes,
		RequestedAt: item.RequestedAt,
	})
}

func normalizedSector(raw string) (string, *xhttp.AppError) {
	s := models.NormalizeSector(raw)
	if s == "" {
		return "", xhttp.BadRequestErrorf("sector %q is not a valid sector name", raw).WithParam("sector", raw)
	}
	return s, nil
}
