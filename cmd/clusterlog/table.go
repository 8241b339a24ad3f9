package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clusterlog-go/internal/driver"
)

var (
	tableProgress     bool
	tableRawLog       bool
	tableExportPixels bool
	tableLogFrames    bool
)

var tableCmd = &cobra.Command{
	Use:     "table <path>",
	Aliases: []string{"t"},
	Short:   "Read a cluster log and print its wiki table row",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("progress") {
			cfg.Progress = tableProgress
		}
		if flags.Changed("raw-log") {
			cfg.RawLog = tableRawLog
		}
		if flags.Changed("export-pixels") {
			cfg.ExportPixels = tableExportPixels
		}
		if flags.Changed("log-frames") {
			cfg.LogFrames = tableLogFrames
		}
		return runTable(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func init() {
	tableCmd.Flags().BoolVar(&tableProgress, "progress", true, "Show a progress bar on stderr")
	tableCmd.Flags().BoolVar(&tableRawLog, "raw-log", false, "Write every frame to a binary frame log")
	tableCmd.Flags().BoolVar(&tableExportPixels, "export-pixels", false, "Write a per-pixel text export")
	tableCmd.Flags().BoolVar(&tableLogFrames, "log-frames", false, "Write every frame to the log file")
	rootCmd.AddCommand(tableCmd)
}

func runTable(ctx context.Context, path string, stdout io.Writer) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	opts := driver.Options{
		Config: cfg,
		Stdout: stdout,
		Store:  st,
	}
	if cfg.Progress {
		opts.Progress = os.Stderr
	}
	_, err = driver.Run(ctx, path, opts)
	return err
}
