package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"SectorPulse/internal/di"
	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/usecase"
	xhttp "SectorPulse/pkg/http"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/queue"
)

var sweepReq models.SweepRequest

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Queue a sweep for the running service",
	Long: `Push a sweep work item onto the Redis queue. A running sectorpulse
instance picks it up; no quotes are fetched here.

Example:
  sectorctl sweep
  sectorctl sweep --sector technology --sector energy --timeframes`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringSliceVar(&sweepReq.Sectors, "sector", nil, "sectors to sweep, all when empty")
	sweepCmd.Flags().BoolVar(&sweepReq.Timeframes, "timeframes", false, "also refresh the multi-timeframe blend")
	sweepCmd.Flags().StringVar(&sweepReq.Reason, "reason", "", "free-form note stored with the run")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	for i, s := range sweepReq.Sectors {
		sweepReq.Sectors[i] = models.NormalizeSector(s)
	}
	if err := xhttp.ValidateStruct(&sweepReq); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	rc, err := di.ProvideRedisCache(cfg)
	if err != nil {
		return err
	}
	defer rc.Close()

	q, err := queue.NewRedisPublisher(log, rc.Client())
	if err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	defer func() { _ = q.Stop(cmd.Context()) }()

	item := usecase.NewSweepItem(sweepReq, "cli", time.Now())
	if err := q.PublishMessage(cmd.Context(), usecase.SweepJobType, item); err != nil {
		return fmt.Errorf("enqueue sweep: %w", err)
	}
	out := sweepQueued{SweepItem: item}
	if out.Pending, out.Retrying, out.Dead, err = q.Depth(cmd.Context()); err != nil {
		log.Warn("queue depth unavailable", logger.Error(err))
	}
	return printJSON(out)
}

// sweepQueued is the queued item plus the queue backlog it joined.
type sweepQueued struct {
	usecase.SweepItem
	Pending  int64 `json:"queue_pending"`
	Retrying int64 `json:"queue_retrying"`
	Dead     int64 `json:"queue_dead"`
}
