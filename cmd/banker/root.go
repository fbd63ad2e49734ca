package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/banker/pkg/cli"
	"mercator-hq/banker/pkg/config"
	"mercator-hq/banker/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "banker",
	Short: "Banker - deadlock-avoidance resource-safety engine",
	Long: `Banker decides whether resource requests can be granted without leading
the system into an unsafe state, using the Banker's algorithm.

A scenario describes processes, resource types, the current allocation, each
process's declared maximum, the free units and a list of requests:

  banker run scenario.txt       evaluate every request in order
  banker check scenario.txt     print the safety verdict
  banker serve                  serve the state over HTTP`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code carried by the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the config file. A missing file is only an error when
// --config was given explicitly.
func loadConfig() (*config.Config, error) {
	explicit := rootCmd.PersistentFlags().Changed("config")
	cfg, err := config.LoadOrDefault(cfgFile, explicit)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg; --verbose forces debug level.
func newLogger(cfg config.LoggingConfig, w io.Writer) (*logging.Logger, error) {
	level := cfg.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
		Writer:    w,
	})
}

// commandLogger is used by the one-shot commands: quiet unless --verbose.
func commandLogger(cfg *config.Config) (*logging.Logger, error) {
	if !verbose {
		return logging.Discard(), nil
	}
	return newLogger(cfg.Telemetry.Logging, os.Stderr)
}

func outWriter(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}
