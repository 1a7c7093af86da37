package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"contrastcurve/pkg/config"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg is loaded once in PersistentPreRunE and read by subcommands
	cfg *config.Config
	// logger is built from cfg and handed to the analysis pipeline
	logger zerolog.Logger

	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "contrastcurve",
	Short:         "Contrast arrival and uptake analysis for perfusion image series",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal; a malformed one is not
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if configPath == "" {
			configPath = os.Getenv(config.EnvConfigPath)
		}
		if configPath == "" {
			configPath = config.DefaultConfigFile
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg.ApplyEnv()
		if verbose {
			cfg.Output.Verbose = true
		}

		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(cfg.Level()).
			With().
			Timestamp().
			Logger()
		logger.Debug().Str("config", configPath).Str("data_dir", cfg.Input.DataDir).Msg("configuration loaded")
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v - aborting\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $"+config.EnvConfigPath+" or "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
