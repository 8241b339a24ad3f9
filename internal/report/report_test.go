package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"clusterlog-go/internal/types"
)

func TestEntryRow(t *testing.T) {
	e := Entry{Source: "MX-10", Size: 1234, Lines: 6, Frames: 2, Settings: "THL-400"}
	assert.Equal(t, "|-\n| MX-10 || 1234 || 6 || 2 || THL-400\n", e.Row())
}

func TestEntryRowEmptyLabels(t *testing.T) {
	assert.Equal(t, "|-\n|  || 0 || 0 || 0 || \n", Entry{}.Row())
}

func record(counts ...int64) types.FrameRecord {
	rec := types.FrameRecord{}
	for i, c := range counts {
		rec.Pixels = append(rec.Pixels, types.PixelRecord{Key: uint(i + 1), Count: c})
	}
	return rec
}

func TestTallySummary(t *testing.T) {
	var tally Tally
	tally.Add(record(55, 2))
	tally.Add(record(9))
	tally.Add(record())
	tally.Add(record(1, 1, 1))

	s := tally.Summary()
	assert.Equal(t, 4, s.Frames)
	assert.Equal(t, 6, s.Pixels)
	assert.Equal(t, int64(69), s.TotalCount)
	assert.InDelta(t, 1.5, s.MeanPixelsPerFrame, 1e-12)
	// Sample standard deviation of {2, 1, 0, 3}.
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDevPixelsPerFrame, 1e-12)
	assert.InDelta(t, 11.5, s.MeanCountPerPixel, 1e-12)
	assert.Contains(t, s.String(), "frames=4")
}

func TestTallyEdgeCases(t *testing.T) {
	var empty Tally
	assert.Equal(t, Summary{}, empty.Summary())

	var one Tally
	one.Add(record(4, 6))
	s := one.Summary()
	assert.Equal(t, 2.0, s.MeanPixelsPerFrame)
	assert.Zero(t, s.StdDevPixelsPerFrame)
	assert.Equal(t, 5.0, s.MeanCountPerPixel)
}
