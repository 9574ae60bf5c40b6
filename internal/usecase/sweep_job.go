package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SectorPulse/internal/domain/models"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/queue"
)

// SweepJobType is the queue message type of a sweep work item.
const SweepJobType = "sector.sweep"

// SweepItem is the queued work item. The scheduler and the HTTP API both
// produce it; SweepJob consumes it.
type SweepItem struct {
	Sectors     []string  `json:"sectors,omitempty"`
	Timeframes  bool      `json:"timeframes"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewSweepItem builds a work item from an API or CLI request.
func NewSweepItem(req models.SweepRequest, reason string, at time.Time) SweepItem {
	if req.Reason != "" {
		reason = req.Reason
	}
	return SweepItem{Sectors: req.Sectors, Timeframes: req.Timeframes, Reason: reason, RequestedAt: at.UTC()}
}

// SweepJob runs queued sweeps against the aggregator.
type SweepJob struct {
	agg *SectorAggregator
	tf  *TimeframeCalculator
	log *logger.Logger
}

// NewSweepJob creates the queue job. tf may be nil.
func NewSweepJob(agg *SectorAggregator, tf *TimeframeCalculator, log *logger.Logger) *SweepJob {
	if log == nil {
		log = logger.Nop()
	}
	return &SweepJob{agg: agg, tf: tf, log: log.Component("sweep")}
}

func (j *SweepJob) Name() string { return "sector-sweep" }
func (j *SweepJob) Type() string { return SweepJobType }

// Handle runs one sweep. It fails, so the queue retries, only when nothing
// succeeded.
func (j *SweepJob) Handle(ctx context.Context, payload interface{}) error {
	item, err := queue.ParsePayload[SweepItem](payload)
	if err != nil {
		return fmt.Errorf("sweep payload: %w", err)
	}
	j.log.Info("sweep started",
		logger.String("reason", item.Reason),
		logger.Strings("sectors", item.Sectors),
		logger.Bool("timeframes", item.Timeframes),
	)

	var report *SweepReport
	if len(item.Sectors) == 0 {
		report, err = j.agg.AggregateAll(ctx)
		if err != nil {
			return err
		}
	} else {
		report = j.agg.AggregateSectors(ctx, item.Sectors)
	}

	if item.Timeframes && j.tf != nil {
		for sector := range report.Results {
			if _, err := j.tf.Calculate(ctx, sector, true); err != nil {
				j.log.Warn("timeframe refresh failed", logger.String("sector", sector), logger.Error(err))
			}
		}
	}

	if len(report.Results) == 0 && len(report.Failed) > 0 {
		return errors.New("sweep: every sector failed")
	}
	return nil
}
