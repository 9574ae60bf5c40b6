package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"SectorPulse/internal/di"
	"SectorPulse/internal/usecase"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Manage the stock universe",
}

var universeImportCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Upsert universe rows from a CSV file",
	Long: `The CSV needs a header with at least symbol and sector. Optional columns:
name, is_active, float_shares, market_cap. Sectors are normalized on import.

Example:
  sectorctl universe import smallcaps.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runUniverseImport,
}

var universeListCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List sectors with active symbol counts",
	RunE:  runUniverseSectors,
}

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeImportCmd, universeListCmd)
}

func runUniverseImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := di.ProvidePostgres(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}

	n, skipped, err := usecase.ImportUniverse(cmd.Context(), di.ProvideUniverseStore(db, log), f)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintln(os.Stderr, "skipped", s)
	}
	fmt.Printf("upserted %d rows, skipped %d\n", n, len(skipped))
	return nil
}

func runUniverseSectors(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := di.ProvidePostgres(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	store := di.ProvideUniverseStore(db, log)

	sectors, err := store.Sectors(cmd.Context())
	if err != nil {
		return err
	}
	for _, s := range sectors {
		m, err := store.ActiveSymbols(cmd.Context(), s)
		if err != nil {
			return err
		}
		fmt.Printf("%-28s %5d / %-5d (%.1f%%)\n", s, m.ActiveCount, m.TotalCount, m.Coverage())
	}
	return nil
}
