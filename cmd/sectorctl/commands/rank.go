package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"SectorPulse/internal/domain/models"
	xhttp "SectorPulse/pkg/http"
)

var rankReq models.RankingRequest

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the top bullish and bearish stocks of a sector",
	Long: `Example:
  sectorctl rank --sector healthcare --top 5`,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVar(&rankReq.Sector, "sector", "", "sector name, any spelling")
	rankCmd.Flags().IntVar(&rankReq.Top, "top", 3, "names per side")
}

func runRank(cmd *cobra.Command, _ []string) error {
	rankReq.Sector = models.NormalizeSector(rankReq.Sector)
	if err := xhttp.ValidateStruct(&rankReq); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tk, err := newToolkit(cfg, false)
	if err != nil {
		return err
	}
	defer tk.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	ranking, err := tk.ranker.Rank(ctx, rankReq.Sector, rankReq.Top)
	if err != nil {
		return err
	}
	return printJSON(ranking)
}
