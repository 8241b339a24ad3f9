package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clusterlog-go/internal/simulator"
)

var simulateConfig = simulator.DefaultConfig()

var simulateCmd = &cobra.Command{
	Use:   "simulate <out-path>",
	Short: "Write a synthetic cluster log with a Gaussian beam profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		frames, err := simulator.Generate(f, simulateConfig)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", len(frames), args[0])
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simulateConfig.Frames, "frames", simulateConfig.Frames, "Number of frames")
	simulateCmd.Flags().IntVar(&simulateConfig.ClustersPerFrame, "clusters", simulateConfig.ClustersPerFrame, "Cluster lines per frame")
	simulateCmd.Flags().Float64Var(&simulateConfig.FrameInterval, "interval", simulateConfig.FrameInterval, "Running time step between frames (s)")
	simulateCmd.Flags().Int64Var(&simulateConfig.Seed, "seed", simulateConfig.Seed, "Random seed")
	rootCmd.AddCommand(simulateCmd)
}
