package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"clusterlog-go/internal/driver"
	"clusterlog-go/internal/ingest"
	"clusterlog-go/internal/output"
	"clusterlog-go/internal/types"
)

var (
	replayEndpoint string
	replayRate     float64
)

var replayCmd = &cobra.Command{
	Use:   "replay <path>",
	Short: "Publish the frames of a cluster log over ZMQ",
	Long: "Publish a start message, one CBOR frame message per frame and an end message " +
		"on a ZMQ PUSH socket. Sending blocks until a listener is connected.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("endpoint") {
			cfg.PublishEndpoint = replayEndpoint
		}
		if cmd.Flags().Changed("rate") {
			cfg.ReplayRate = replayRate
		}
		return runReplay(cmd.Context(), args[0])
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayEndpoint, "endpoint", "tcp://*:5557", "ZMQ endpoint to bind")
	replayCmd.Flags().Float64Var(&replayRate, "rate", 0, "Frames per second (0 sends as fast as possible)")
	rootCmd.AddCommand(replayCmd)
}

// framePublisher is the part of output.Publisher replay needs.
type framePublisher interface {
	Start(meta map[string]any) error
	Frame(rec types.FrameRecord) error
	End(meta map[string]any) error
}

func runReplay(ctx context.Context, path string) error {
	pub, err := output.NewPublisher(cfg.PublishEndpoint)
	if err != nil {
		return err
	}
	defer pub.Close()

	return replay(ctx, path, pub)
}

// replay checks that path opens before announcing the run, so a listener
// never sees a start that is not followed by an end. A run that fails
// part way ends with an "error" meta key.
func replay(ctx context.Context, path string, pub framePublisher) error {
	reader, err := ingest.Open[int32](path)
	if err != nil {
		return err
	}
	meta := map[string]any{
		"path":     path,
		"source":   reader.Source(),
		"settings": reader.Settings(),
		"size":     reader.Size(),
		"lines":    reader.Lines(),
	}
	_ = reader.Close()

	if err := pub.Start(meta); err != nil {
		return fmt.Errorf("publish start: %w", err)
	}

	var tick <-chan time.Time
	if cfg.ReplayRate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.ReplayRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	sent := 0
	res, err := driver.Run(ctx, path, driver.Options{
		Config: cfg,
		OnFrame: func(rec types.FrameRecord) error {
			if tick != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-tick:
				}
			}
			if err := pub.Frame(rec); err != nil {
				return err
			}
			sent++
			return nil
		},
	})
	if err != nil {
		end := map[string]any{
			"source":   meta["source"],
			"settings": meta["settings"],
			"size":     meta["size"],
			"lines":    meta["lines"],
			"frames":   sent,
			"error":    err.Error(),
		}
		if endErr := pub.End(end); endErr != nil {
			log.Printf("publish end after failure: %v", endErr)
		}
		return err
	}

	if err := pub.End(map[string]any{
		"source":   res.Entry.Source,
		"settings": res.Entry.Settings,
		"size":     res.Entry.Size,
		"lines":    res.Entry.Lines,
		"frames":   res.Entry.Frames,
	}); err != nil {
		return fmt.Errorf("publish end: %w", err)
	}
	log.Printf("replayed %d frames from %s", res.Entry.Frames, path)
	return nil
}
