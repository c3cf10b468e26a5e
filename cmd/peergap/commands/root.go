package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "peergap",
	Short: "Peer discovery, comparative ranking and valuation gap analysis",
	Long: `peergap Unified CLI

동종 기업(peer) 탐색부터 비교 순위, 밸류에이션 갭 분해까지.
Discovery → Collection → Insights → Valuation → Persist

Usage:
  go run ./cmd/peergap [command]

Examples:
  go run ./cmd/peergap discover WRB
  go run ./cmd/peergap analyze WRB --peers CINF,AFG
  go run ./cmd/peergap api
  go run ./cmd/peergap scheduler start`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return nil
		}
		// Explicit env file first; config.Load never overrides variables already set
		if err := godotenv.Load(configFile); err != nil {
			return fmt.Errorf("load env file %s: %w", configFile, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env lookup)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
