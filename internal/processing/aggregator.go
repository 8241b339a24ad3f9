package processing

import (
	"time"

	"clusterlog-go/internal/types"
)

const (
	ChipWidth  = 256
	ChipHeight = 256
	chipPixels = ChipWidth * ChipHeight
)

// Hitmap accumulates counts and hits per chip pixel over many frames.
// Pixels outside the 256x256 chip are counted as dropped.
type Hitmap struct {
	flushEvery int
	frames     int
	dropped    int
	counts     []uint64
	hits       []uint32
}

// NewHitmap returns an empty hitmap. When flushEvery > 0, AddFrame reports
// true after every flushEvery frames.
func NewHitmap(flushEvery int) *Hitmap {
	return &Hitmap{
		flushEvery: flushEvery,
		counts:     make([]uint64, chipPixels),
		hits:       make([]uint32, chipPixels),
	}
}

func (h *Hitmap) AddFrame(frame types.FrameRecord) bool {
	for _, p := range frame.Pixels {
		if p.X < 0 || p.X >= ChipWidth || p.Y < 0 || p.Y >= ChipHeight || p.Count < 0 {
			h.dropped++
			continue
		}
		idx := p.LinearIndex()
		h.counts[idx] += uint64(p.Count)
		h.hits[idx]++
	}

	h.frames++
	return h.flushEvery > 0 && h.frames%h.flushEvery == 0
}

func (h *Hitmap) Reset() {
	h.frames = 0
	h.dropped = 0
	h.counts = make([]uint64, chipPixels)
	h.hits = make([]uint32, chipPixels)
}

func (h *Hitmap) Frames() int  { return h.frames }
func (h *Hitmap) Dropped() int { return h.dropped }

// Count returns the accumulated count at (x, y), or 0 off the chip.
func (h *Hitmap) Count(x, y int) uint64 {
	if x < 0 || x >= ChipWidth || y < 0 || y >= ChipHeight {
		return 0
	}
	return h.counts[y*ChipWidth+x]
}

// SnapshotCopy returns a copy that is safe to hand to other goroutines.
func (h *Hitmap) SnapshotCopy() types.HitmapSnapshot {
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	hits := make([]uint32, len(h.hits))
	copy(hits, h.hits)
	return types.HitmapSnapshot{
		Counts:  counts,
		Hits:    hits,
		Frames:  h.frames,
		Dropped: h.dropped,
	}
}

func Timestamp() string {
	return time.Now().Format("20060102_150405")
}
