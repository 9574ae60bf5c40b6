package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"SectorPulse/pkg/config"
)

var (
	// Global flags
	configFile string
	pretty     bool
)

var rootCmd = &cobra.Command{
	Use:   "sectorctl",
	Short: "SectorPulse operator CLI",
	Long: `Run sector sentiment operations by hand against the configured sources.

Examples:
  sectorctl aggregate --sector technology
  sectorctl benchmark
  sectorctl rank --sector energy --top 5
  sectorctl sweep --sector technology --timeframes
  sectorctl watch --from-beginning
  sectorctl universe import stocks.csv`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "indent JSON output")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
