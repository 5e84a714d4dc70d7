// Package cli implements the semhl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hantianjz/semhl/internal/config"
	"github.com/hantianjz/semhl/internal/logging"
)

// Execute runs the semhl CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var (
		configFile string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:           "semhl",
		Short:         "Semantic identifier coloring engine",
		Long:          "semhl assigns every distinct identifier in a source file a stable, perceptually distinct color.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.config/semhl/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging format (json, console)")

	loadConfig := func() (*config.Config, error) {
		loader := config.NewLoader()
		if configFile != "" {
			loader.SetConfigFile(configFile)
		}
		cfg, err := loader.Load()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		if cfg.Logging.Format == "console" && !term.IsTerminal(int(os.Stderr.Fd())) {
			cfg.Logging.Format = "json"
		}
		logging.Init(logging.Config{
			Level:        cfg.Logging.Level,
			Format:       cfg.Logging.Format,
			EnableCaller: cfg.Logging.EnableCaller,
		})
		return cfg, nil
	}

	cmd.AddCommand(
		newViewCmd(loadConfig),
		newColorsCmd(loadConfig),
		newCacheCmd(loadConfig),
	)
	return cmd
}
