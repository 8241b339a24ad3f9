// Package driver reads a whole cluster log, feeds every frame to the
// configured sinks and produces the summary table row.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"clusterlog-go/internal/config"
	"clusterlog-go/internal/ingest"
	"clusterlog-go/internal/output"
	"clusterlog-go/internal/processing"
	"clusterlog-go/internal/report"
	"clusterlog-go/internal/store"
	"clusterlog-go/internal/types"
)

type Options struct {
	Config config.AppConfig
	// Stdout receives the table row. Nil discards it.
	Stdout io.Writer
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
	// Logger overrides the log file named by Config.LogFile.
	Logger *log.Logger
	Store  store.Store
	// OnFrame is called for every frame after the built-in sinks.
	OnFrame    func(types.FrameRecord) error
	KeepFrames bool
}

type Result struct {
	Entry      report.Entry
	Summary    report.Summary
	RunID      string
	RawLogPath string
	PixelsPath string
	Frames     []types.FrameRecord
}

// Run parses the cluster log at path to the end. Any open, parse or sink
// error aborts the run; the input file and every sink are released on
// every path.
func Run(ctx context.Context, path string, opts Options) (result Result, err error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		l, closer, err := OpenLog(cfg.LogFile)
		if err != nil {
			return result, fmt.Errorf("open log file: %w", err)
		}
		logger = l
		defer func() {
			logger.Print("Closing log file")
			_ = closer.Close()
		}()
	}
	logger.Print("Opened log file")
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	logger.Printf("Opening detector dataset: %s", path)
	reader, err := ingest.Open[int32](path, ingest.WithStrict(cfg.Strict), ingest.WithLogf(logger.Printf))
	if err != nil {
		logger.Print(err)
		return result, err
	}
	defer func() {
		logger.Print("Closing input file")
		_ = reader.Close()
	}()

	runTimestamp := processing.Timestamp()
	var rawLog *output.FrameLogWriter
	if cfg.RawLog {
		rawLog, err = output.NewFrameLogWriter(cfg.OutputDir, labelOr(reader.Source(), "frames"))
		if err != nil {
			return result, fmt.Errorf("create raw frame log: %w", err)
		}
		result.RawLogPath = rawLog.Path()
		defer rawLog.Close()
	}

	if opts.Store != nil {
		result.RunID = store.NewRunID()
		if err := opts.Store.SaveRun(ctx, store.Run{
			ID:        result.RunID,
			Path:      reader.Path(),
			Source:    reader.Source(),
			Settings:  reader.Settings(),
			Size:      reader.Size(),
			Lines:     reader.Lines(),
			StartedAt: time.Now(),
		}); err != nil {
			return result, fmt.Errorf("save run: %w", err)
		}
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(reader.Lines(),
			progressbar.OptionSetDescription("Parsing "+labelOr(reader.Source(), path)),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionShowCount(),
		)
	}

	keep := opts.KeepFrames || cfg.ExportPixels
	var tally report.Tally
	count := 0

	logger.Print("Starting frame retrieval loop...")
	for reader.HasMore() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		frame, err := reader.Next()
		if errors.Is(err, ingest.ErrEndOfStream) {
			break
		}
		if err != nil {
			logger.Print(err)
			return result, err
		}
		count++
		if cfg.LogFrames {
			logger.Printf("Frame no: %d\n%s", count, frame.String())
		}

		rec := types.NewRecord(count, frame)
		tally.Add(rec)
		if keep {
			result.Frames = append(result.Frames, rec)
		}
		if rawLog != nil {
			if err := rawLog.Record(rec); err != nil {
				return result, fmt.Errorf("raw frame log: %w", err)
			}
		}
		if opts.Store != nil {
			if err := opts.Store.SaveFrame(ctx, result.RunID, rec); err != nil {
				return result, fmt.Errorf("save frame %d: %w", count, err)
			}
		}
		if opts.OnFrame != nil {
			if err := opts.OnFrame(rec); err != nil {
				return result, err
			}
		}
		if bar != nil {
			_ = bar.Set(reader.Line())
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	logger.Print("Finished reading in data")
	logger.Printf("Number of frames is: %d frames", count)

	if opts.Store != nil {
		if err := opts.Store.FinishRun(ctx, result.RunID, count); err != nil {
			return result, fmt.Errorf("finish run: %w", err)
		}
	}
	if cfg.ExportPixels {
		result.PixelsPath, err = output.WritePixels(cfg.OutputDir, runTimestamp, reader.Source(), result.Frames)
		if err != nil {
			return result, fmt.Errorf("export pixels: %w", err)
		}
	}

	result.Entry = report.Entry{
		Source:   reader.Source(),
		Size:     reader.Size(),
		Lines:    reader.Lines(),
		Frames:   count,
		Settings: reader.Settings(),
	}
	result.Summary = tally.Summary()
	row := result.Entry.Row()
	logger.Printf("Generated table entry:\n%s", row)
	logger.Print(result.Summary.String())
	if _, err := io.WriteString(stdout, row); err != nil {
		return result, err
	}
	return result, nil
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
