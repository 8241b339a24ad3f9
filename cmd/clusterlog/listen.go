package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"clusterlog-go/internal/ingest"
	"clusterlog-go/internal/output"
	"clusterlog-go/internal/report"
	"clusterlog-go/internal/store"
	"clusterlog-go/internal/types"
)

var (
	listenEndpoint string
	listenOnce     bool
	listenRawLog   bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Receive frames published by replay and log, record or persist them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("endpoint") {
			cfg.ListenEndpoint = listenEndpoint
		}
		if cmd.Flags().Changed("raw-log") {
			cfg.RawLog = listenRawLog
		}
		return runListen(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	listenCmd.Flags().StringVar(&listenEndpoint, "endpoint", "tcp://localhost:5557", "ZMQ endpoint to connect to")
	listenCmd.Flags().BoolVar(&listenOnce, "once", false, "Exit after the first end message")
	listenCmd.Flags().BoolVar(&listenRawLog, "raw-log", false, "Write received frames to a binary frame log")
	rootCmd.AddCommand(listenCmd)
}

// listenRun tracks one start..end sequence.
type listenRun struct {
	id    string
	meta  map[string]any
	tally report.Tally
}

func runListen(ctx context.Context, stdout io.Writer) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	var rawLog *output.FrameLogWriter
	if cfg.RawLog {
		rawLog, err = output.NewFrameLogWriter(cfg.OutputDir, "listen")
		if err != nil {
			return fmt.Errorf("create raw frame log: %w", err)
		}
		defer rawLog.Close()
	}

	messages, err := ingest.Subscribe(ctx, cfg.ListenEndpoint, cfg.IngestLogEvery)
	if err != nil {
		return err
	}
	log.Printf("listening on %s", cfg.ListenEndpoint)

	var run *listenRun
	begin := func(meta map[string]any) error {
		run = &listenRun{meta: meta}
		if st == nil {
			return nil
		}
		run.id = store.NewRunID()
		return st.SaveRun(ctx, store.Run{
			ID:        run.id,
			Path:      metaString(meta, "path"),
			Source:    metaString(meta, "source"),
			Settings:  metaString(meta, "settings"),
			StartedAt: time.Now(),
		})
	}

	for msg := range messages {
		switch msg.Type {
		case types.MessageStart:
			log.Printf("run started: %v", output.NormalizeJSONValue(msg.Meta))
			if err := begin(msg.Meta); err != nil {
				return fmt.Errorf("save run: %w", err)
			}
		case types.MessageFrame:
			if run == nil {
				if err := begin(nil); err != nil {
					return fmt.Errorf("save run: %w", err)
				}
			}
			rec := *msg.Frame
			run.tally.Add(rec)
			log.Printf("frame %d: %d pixels, capture time %.6f s, running time %g s",
				rec.Index, len(rec.Pixels), rec.CaptureTime, rec.RunningTime)
			if rawLog != nil {
				if err := rawLog.Record(rec); err != nil {
					return fmt.Errorf("raw frame log: %w", err)
				}
			}
			if st != nil {
				if err := st.SaveFrame(ctx, run.id, rec); err != nil {
					return fmt.Errorf("save frame %d: %w", rec.Index, err)
				}
			}
		case types.MessageEnd:
			if run == nil {
				continue
			}
			entry := report.Entry{
				Source:   metaString(msg.Meta, "source"),
				Size:     metaInt(msg.Meta, "size"),
				Lines:    int(metaInt(msg.Meta, "lines")),
				Frames:   run.tally.Frames(),
				Settings: metaString(msg.Meta, "settings"),
			}
			if st != nil {
				if err := st.FinishRun(ctx, run.id, run.tally.Frames()); err != nil {
					return fmt.Errorf("finish run: %w", err)
				}
			}
			if failure := metaString(msg.Meta, "error"); failure != "" {
				log.Printf("run ended with error after %d frames: %s", run.tally.Frames(), failure)
				run = nil
				if listenOnce {
					return fmt.Errorf("replay failed: %s", failure)
				}
				continue
			}
			log.Printf("run finished: %s", run.tally.Summary())
			if _, err := fmt.Fprint(stdout, entry.Row()); err != nil {
				return err
			}
			run = nil
			if listenOnce {
				return nil
			}
		}
	}
	// Subscribe only closes the channel once ctx is done.
	return nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// metaInt reads an integer that may have been decoded as any integer kind.
func metaInt(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
