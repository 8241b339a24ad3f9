package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"clusterlog-go/internal/driver"
	"clusterlog-go/internal/ingest"
	"clusterlog-go/internal/output"
	"clusterlog-go/internal/processing"
	"clusterlog-go/internal/server"
	"clusterlog-go/internal/simulator"
	"clusterlog-go/internal/types"
)

var (
	servePort     int
	serveSimulate bool
	serveListen   bool
	serveSimRate  float64
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve a live hitmap of a cluster log, a ZMQ stream or simulated data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return runServe(cmd.Context(), path)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8888, "HTTP port for the web UI")
	serveCmd.Flags().BoolVar(&serveSimulate, "simulate", false, "Serve simulated frames")
	serveCmd.Flags().Float64Var(&serveSimRate, "sim-rate", 20, "Simulated frames per second")
	serveCmd.Flags().BoolVar(&serveListen, "listen", false, "Serve frames pulled from the listen endpoint")
	rootCmd.AddCommand(serveCmd)
}

type metrics struct {
	framesReceived  atomic.Uint64
	framesBroadcast atomic.Uint64
	snapshotsSent   atomic.Uint64
	hitmapWriteOK   atomic.Uint64
	hitmapWriteErr  atomic.Uint64
}

func (m *metrics) snapshot() map[string]any {
	return map[string]any{
		"frames_received_total":   m.framesReceived.Load(),
		"frames_broadcast_total":  m.framesBroadcast.Load(),
		"snapshots_sent_total":    m.snapshotsSent.Load(),
		"hitmap_write_ok_total":   m.hitmapWriteOK.Load(),
		"hitmap_write_err_total":  m.hitmapWriteErr.Load(),
		"ingest_decode_err_total": ingest.DecodeFailures(),
	}
}

// frameSource starts the configured producer. The channel is closed when
// the producer is done.
func frameSource(ctx context.Context, path string) (<-chan types.FrameRecord, string, error) {
	switch {
	case path != "":
		out := make(chan types.FrameRecord, 128)
		go func() {
			defer close(out)
			_, err := driver.Run(ctx, path, driver.Options{
				Config: cfg,
				OnFrame: func(rec types.FrameRecord) error {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case out <- rec:
						return nil
					}
				},
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("reading %s failed: %v", path, err)
			}
		}()
		return out, "file", nil
	case serveListen:
		messages, err := ingest.Subscribe(ctx, cfg.ListenEndpoint, cfg.IngestLogEvery)
		if err != nil {
			return nil, "", err
		}
		out := make(chan types.FrameRecord, 128)
		go func() {
			defer close(out)
			for msg := range messages {
				if msg.Type != types.MessageFrame {
					log.Printf("stream %s message: %v", msg.Type, output.NormalizeJSONValue(msg.Meta))
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- *msg.Frame:
				}
			}
		}()
		return out, "stream", nil
	default:
		simCfg := simulator.DefaultConfig()
		simCfg.Frames = 0
		return simulator.Stream(ctx, simCfg, serveSimRate), "simulator", nil
	}
}

func runServe(ctx context.Context, path string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if path == "" && !serveListen && !serveSimulate {
		serveSimulate = true
	}
	frames, mode, err := frameSource(ctx, path)
	if err != nil {
		return err
	}

	uiMessages := make(chan any, 16)
	hitmap := processing.NewHitmap(cfg.HitmapFlush)
	runTimestamp := processing.Timestamp()
	flushes := 0
	var m metrics

	var statusMu sync.Mutex
	status := map[string]any{
		"source":     mode,
		"path":       path,
		"stream":     "idle",
		"last_frame": "",
	}
	setStatus := func(key string, value any) {
		statusMu.Lock()
		status[key] = value
		statusMu.Unlock()
	}

	var latestMu sync.Mutex
	var latest types.UISnapshot
	var hasLatest bool
	publishSnapshot := func() {
		snap := types.UISnapshot{Type: "snapshot", Data: hitmap.SnapshotCopy()}
		latestMu.Lock()
		latest = snap
		hasLatest = true
		latestMu.Unlock()
		select {
		case uiMessages <- snap:
			m.snapshotsSent.Add(1)
		default:
		}
	}

	go func() {
		defer close(uiMessages)
		rate := cfg.UIRate
		if rate <= 0 {
			rate = 1
		}
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()
		dirty := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if dirty {
					publishSnapshot()
					dirty = false
				}
			case rec, ok := <-frames:
				if !ok {
					publishSnapshot()
					setStatus("stream", "done")
					log.Printf("%s source finished after %d frames", mode, hitmap.Frames())
					frames = nil
					continue
				}
				m.framesReceived.Add(1)
				setStatus("stream", "receiving")
				setStatus("last_frame", time.Now().Format(time.RFC3339))
				if hitmap.AddFrame(rec) {
					flushes++
					if p, err := output.WriteHitmap(cfg.OutputDir, runTimestamp, flushes, hitmap.SnapshotCopy()); err != nil {
						m.hitmapWriteErr.Add(1)
						log.Printf("hitmap write failed: %v", err)
					} else {
						m.hitmapWriteOK.Add(1)
						log.Printf("wrote hitmap %s", p)
					}
				}
				dirty = true
				select {
				case uiMessages <- types.UIFrame{Type: "frame", Frame: rec}:
					m.framesBroadcast.Add(1)
				default:
				}
			}
		}
	}()

	statusFn := func() map[string]any {
		statusMu.Lock()
		out := make(map[string]any, len(status)+1)
		for k, v := range status {
			out[k] = v
		}
		statusMu.Unlock()
		out["metrics"] = m.snapshot()
		return out
	}
	snapshotFn := func() any {
		latestMu.Lock()
		defer latestMu.Unlock()
		if !hasLatest {
			return nil
		}
		return latest
	}

	log.Printf("Starting web UI at http://localhost:%d (source: %s)", cfg.Port, mode)
	return server.Run(ctx, cfg, uiMessages, statusFn, snapshotFn, nil)
}
