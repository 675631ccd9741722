package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "hubbub",
	Short: "hubbub — a simulated multi-channel chat workspace",
	Long: "hubbub simulates a living chat workspace: seeded channel history,\n" +
		"ambient synthetic traffic, and bot identities that answer direct messages.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "verbose logging")
}

func newLogger() (*zap.Logger, error) {
	if debugMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
