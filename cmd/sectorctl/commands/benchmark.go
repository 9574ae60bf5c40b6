package commands

import (
	"github.com/spf13/cobra"
)

var benchRefresh bool

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Print the small-cap benchmark and its timeframe approximations",
	Long: `Read the benchmark through the same fresh, stale and neutral fallbacks
the service uses. --refresh forces a live fetch and fails if it cannot get one.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)
	benchmarkCmd.Flags().BoolVar(&benchRefresh, "refresh", false, "fail instead of falling back when the live fetch fails")
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
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

	if benchRefresh {
		if _, err := tk.bench.Refresh(ctx); err != nil {
			return err
		}
	}
	snap, approx := tk.bench.Approximations(ctx)
	return printJSON(map[string]interface{}{
		"benchmark":      snap,
		"approximations": approx,
	})
}
