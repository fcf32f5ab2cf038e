package main

import (
	"fmt"
	"os"

	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/notaris/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "notaryctl",
	Short: "Administration tool for the notaris backend",
	Long: `notaryctl runs maintenance tasks against the notaris database:
schema migrations, first-time office setup and license checks.

Configuration is read the same way the server reads it, from config.yaml
and NOTARIS_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// loadEnv reads the configuration and builds a console logger on stderr.
func loadEnv() (*config.Config, *zap.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %s\n", err)
		os.Exit(1)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, _ := logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
	return cfg, log
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
