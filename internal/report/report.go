// Package report turns the totals of a parsed cluster log into a wiki table
// row and a short statistical summary.
package report

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"clusterlog-go/internal/types"
)

// Entry is one dataset row of the detector wiki table.
type Entry struct {
	Source   string
	Size     int64
	Lines    int
	Frames   int
	Settings string
}

// Row renders the entry, preceded by the wiki row separator:
//
//	|-
//	| <source> || <size> || <lines> || <frames> || <settings>
func (e Entry) Row() string {
	return fmt.Sprintf("|-\n| %s || %d || %d || %d || %s\n", e.Source, e.Size, e.Lines, e.Frames, e.Settings)
}

// Tally accumulates per-frame totals while a log is read.
type Tally struct {
	frames         int
	pixels         int
	totalCount     int64
	pixelsPerFrame []float64
}

func (t *Tally) Add(rec types.FrameRecord) {
	t.frames++
	t.pixels += len(rec.Pixels)
	t.pixelsPerFrame = append(t.pixelsPerFrame, float64(len(rec.Pixels)))
	for _, p := range rec.Pixels {
		t.totalCount += p.Count
	}
}

func (t *Tally) Frames() int { return t.frames }
func (t *Tally) Pixels() int { return t.pixels }

type Summary struct {
	Frames               int
	Pixels               int
	TotalCount           int64
	MeanPixelsPerFrame   float64
	StdDevPixelsPerFrame float64
	MeanCountPerPixel    float64
}

func (t *Tally) Summary() Summary {
	s := Summary{
		Frames:     t.frames,
		Pixels:     t.pixels,
		TotalCount: t.totalCount,
	}
	switch len(t.pixelsPerFrame) {
	case 0:
	case 1:
		s.MeanPixelsPerFrame = t.pixelsPerFrame[0]
	default:
		s.MeanPixelsPerFrame, s.StdDevPixelsPerFrame = stat.MeanStdDev(t.pixelsPerFrame, nil)
	}
	if t.pixels > 0 {
		s.MeanCountPerPixel = float64(t.totalCount) / float64(t.pixels)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("frames=%d pixels=%d counts=%d pixels/frame=%.3f±%.3f counts/pixel=%.3f",
		s.Frames, s.Pixels, s.TotalCount, s.MeanPixelsPerFrame, s.StdDevPixelsPerFrame, s.MeanCountPerPixel)
}
