package simulator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"clusterlog-go/internal/types"
)

// Config describes a synthetic acquisition.
type Config struct {
	Frames           int
	ClustersPerFrame int
	Width            int
	Height           int
	// FrameInterval is the running-time step between frames, in seconds.
	FrameInterval float64
	StartTime     float64
	Seed          int64
}

func DefaultConfig() Config {
	return Config{
		Frames:           100,
		ClustersPerFrame: 20,
		Width:            256,
		Height:           256,
		FrameInterval:    0.1,
		StartTime:        1335967757.2905033,
		Seed:             1,
	}
}

// Source produces frames whose hits follow a Gaussian beam profile centred
// on the chip. Counts are the profile value plus Poisson-like noise.
type Source struct {
	cfg   Config
	rng   *rand.Rand
	index int
	sigma float64
}

func NewSource(cfg Config) *Source {
	if cfg.Width <= 0 {
		cfg.Width = 256
	}
	if cfg.Height <= 0 {
		cfg.Height = 256
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 0.1
	}
	return &Source{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		sigma: math.Sqrt(float64(cfg.Width*cfg.Height)/20) / 2,
	}
}

// Next returns the next synthetic frame. Indices start at 1.
func (s *Source) Next() types.FrameRecord {
	s.index++
	running := float64(s.index) * s.cfg.FrameInterval
	rec := types.FrameRecord{
		Index:       s.index,
		CaptureTime: s.cfg.StartTime + running,
		RunningTime: running,
		Pixels:      make([]types.PixelRecord, 0, s.cfg.ClustersPerFrame),
	}

	centerX := float64(s.cfg.Width) / 2.0
	centerY := float64(s.cfg.Height) / 2.0
	for i := 0; i < s.cfg.ClustersPerFrame; i++ {
		x := clamp(int64(math.Round(centerX+s.rng.NormFloat64()*s.sigma)), int64(s.cfg.Width))
		y := clamp(int64(math.Round(centerY+s.rng.NormFloat64()*s.sigma)), int64(s.cfg.Height))
		dx := float64(x) - centerX
		dy := float64(y) - centerY
		base := 1000 * math.Exp(-(dx*dx+dy*dy)/(float64(s.cfg.Width*s.cfg.Height)/20))
		val := base + s.rng.NormFloat64()*math.Sqrt(base)
		if val < 1 {
			val = 1
		}
		rec.Pixels = append(rec.Pixels, types.PixelRecord{
			Key:   uint(i + 1),
			X:     x,
			Y:     y,
			Count: int64(val),
		})
	}
	return rec
}

func clamp(v, limit int64) int64 {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}

// WriteFrame writes rec in the cluster log text format, followed by the
// blank terminator line.
func WriteFrame(w io.Writer, rec types.FrameRecord) error {
	if _, err := fmt.Fprintf(w, "Frame %d (%.7f s, %g s)\n", rec.Index, rec.CaptureTime, rec.RunningTime); err != nil {
		return err
	}
	for _, p := range rec.Pixels {
		if _, err := fmt.Fprintf(w, "[%d, %d, %d]\n", p.X, p.Y, p.Count); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Generate writes cfg.Frames synthetic frames to w and returns them.
func Generate(w io.Writer, cfg Config) ([]types.FrameRecord, error) {
	bw := bufio.NewWriter(w)
	src := NewSource(cfg)
	frames := make([]types.FrameRecord, 0, cfg.Frames)
	for i := 0; i < cfg.Frames; i++ {
		rec := src.Next()
		if err := WriteFrame(bw, rec); err != nil {
			return frames, err
		}
		frames = append(frames, rec)
	}
	return frames, bw.Flush()
}

// Stream emits synthetic frames at rate frames per second until ctx is done
// or cfg.Frames frames were sent (0 means unbounded).
func Stream(ctx context.Context, cfg Config, rate float64) <-chan types.FrameRecord {
	out := make(chan types.FrameRecord)
	go func() {
		defer close(out)

		if rate <= 0 {
			rate = 10
		}
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()

		src := NewSource(cfg)
		for sent := 0; cfg.Frames <= 0 || sent < cfg.Frames; sent++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case <-ctx.Done():
				return
			case out <- src.Next():
			}
		}
	}()

	return out
}
