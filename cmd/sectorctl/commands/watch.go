package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"SectorPulse/internal/domain/models"
	pkgkafka "SectorPulse/pkg/kafka"
)

var (
	watchSector    string
	watchGroup     string
	watchBeginning bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail sentiment events from Kafka",
	Long: `Print one line per sentiment event published by the service.

Example:
  sectorctl watch
  sectorctl watch --sector energy --from-beginning`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchSector, "sector", "", "only print this sector")
	watchCmd.Flags().StringVar(&watchGroup, "group", "", "consumer group; offsets are committed when set")
	watchCmd.Flags().BoolVar(&watchBeginning, "from-beginning", false, "start at the oldest offset")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := []pkgkafka.ReaderOption{
		pkgkafka.WithReaderBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithReaderTopic(cfg.Kafka.Topic),
	}
	if watchGroup != "" {
		opts = append(opts, pkgkafka.WithReaderGroup(watchGroup))
	}
	if watchBeginning {
		opts = append(opts, pkgkafka.WithFromBeginning(true))
	}
	rd, err := pkgkafka.NewReader(opts...)
	if err != nil {
		return err
	}
	defer rd.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	filter := models.NormalizeSector(watchSector)
	return rd.Consume(ctx, func(_ context.Context, rec pkgkafka.Record) error {
		if filter != "" && string(rec.Key) != filter {
			return nil
		}
		var ev models.SentimentEvent
		if err := json.Unmarshal(rec.Value, &ev); err != nil || ev.Result == nil {
			fmt.Fprintf(os.Stderr, "skip offset %d: not a sentiment event\n", rec.Offset)
			return nil
		}
		r := ev.Result
		fmt.Printf("%s  %-24s %-6s score=%+.4f conf=%.2f stocks=%d %s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Sector, r.Timeframe,
			r.SentimentScore, r.Confidence, r.StockCount, r.Signal)
		return nil
	})
}
