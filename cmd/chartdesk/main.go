package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/config"
	"github.com/newthinker/chartdesk/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "chartdesk",
	Short: "ChartDesk - technical analysis dashboard",
	Long: `ChartDesk charts cryptocurrencies, futures and currencies with
support/resistance, Fibonacci retracements, swing points, ABC patterns
and buy/sell signals.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, falling back to defaults, and validates it.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger, adding the rotating file sink
// from cfg when one is configured.
func newLogger(cfg *config.Config) *zap.Logger {
	if cfg == nil {
		return logger.Must(debug)
	}
	return logger.Must(debug, logger.WithFile(logger.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}))
}

// setup loads configuration and returns the configured logger with it.
func setup() (*config.Config, *zap.Logger, error) {
	boot := logger.Must(debug)
	cfg, err := loadConfig(boot)
	if err != nil {
		return nil, boot, err
	}
	return cfg, newLogger(cfg), nil
}
