package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clusterlog-go/internal/config"
	"clusterlog-go/internal/store"
)

const Version = "0.3.0"

var (
	cfgFile string
	cfg     config.AppConfig

	flagLogFile   string
	flagStrict    bool
	flagDatabase  string
	flagOutputDir string
)

var errCalibrationUnsupported = errors.New("calibration mode (-c) is not supported")

var rootCmd = &cobra.Command{
	Use:               "clusterlog",
	Short:             "Read Timepix cluster logs into frames, tables, streams and stores",
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var calibrateCmd = &cobra.Command{
	Use:    "calibrate",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return errCalibrationUnsupported
	},
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-file") {
		c.LogFile = flagLogFile
	}
	if flags.Changed("strict") {
		c.Strict = flagStrict
	}
	if flags.Changed("db") {
		c.Database = flagDatabase
	}
	if flags.Changed("output-dir") {
		c.OutputDir = flagOutputDir
	}
	cfg = c
	return nil
}

// openStore returns nil when no database is configured.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Database == "" {
		return nil, nil
	}
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

// rewriteLegacyArgs maps the old single-binary flags onto subcommands:
// "-t <path>" becomes "table <path>" and "-c" the unsupported calibrate.
func rewriteLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	switch args[0] {
	case "-t":
		return append([]string{"table"}, args[1:]...)
	case "-c":
		return append([]string{"calibrate"}, args[1:]...)
	}
	return args
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.SetArgs(rewriteLegacyArgs(os.Args[1:]))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "log.txt", "Driver log file (empty disables it)")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "Reject malformed numbers instead of reading them as 0")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "db", "", "SQLite path or postgres:// URL to persist frames to")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "output", "Directory for raw logs, exports and hitmaps")
	rootCmd.AddCommand(calibrateCmd)
}
