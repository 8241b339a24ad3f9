package ingest

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Header
		ok   bool
	}{
		{"typical", "Frame 1 (1335967757.2905033 s, 0.1 s)", Header{1335967757.2905033, 0.1}, true},
		{"integers", "Frame 12 (10 s, 2 s)", Header{10, 2}, true},
		{"exponent", "Frame 3 (1.5e3 s, 2E-1 s)", Header{1500, 0.2}, true},
		{"no parenthesis", "Frame 1 1335967757.29 s, 0.1 s", Header{}, false},
		{"cluster line", "[19, 0, 55]", Header{}, false},
		{"blank", "", Header{}, false},
		{"non-numeric reads as zero", "Frame 1 (abc s, 0.1 s)", Header{0, 0.1}, true},
		{"trailing garbage ignored", "(12.5x s, 3y s)", Header{12.5, 3}, true},
		{"truncated after parenthesis", "Frame 1 (", Header{}, true},
		{"truncated after first time", "Frame 1 (7.5", Header{7.5, 0}, true},
		{"truncated inside separator", "Frame 1 (7.5 s", Header{7.5, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseHeader(tt.line)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHeaderRoundTrip(t *testing.T) {
	for _, times := range [][2]float64{
		{1335967757.29, 0.1},
		{1335967757.39, 0.2},
		{0, 0},
		{1.25e9, 12345.678901},
	} {
		line := fmt.Sprintf("Frame 7 (%s s, %s s)",
			strconv.FormatFloat(times[0], 'f', -1, 64),
			strconv.FormatFloat(times[1], 'f', -1, 64))
		got, ok := ParseHeader(line)
		require.True(t, ok, line)
		assert.Equal(t, times[0], got.CaptureTime, line)
		assert.Equal(t, times[1], got.RunningTime, line)
	}
}

func TestParseHeaderStrict(t *testing.T) {
	got, ok := ParseHeaderStrict("Frame 1 (1335967757.29 s, 0.1 s)")
	require.True(t, ok)
	assert.Equal(t, Header{1335967757.29, 0.1}, got)

	for _, line := range []string{
		"Frame 1 (abc s, 0.1 s)",
		"Frame 1 (1.0 s; 0.1 s)",
		"Frame 1 (1.0 s, 0.1)",
		"Frame 1 (",
		"no header",
	} {
		_, ok := ParseHeaderStrict(line)
		assert.False(t, ok, line)
	}
}

func TestParseCluster(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Cluster[int32]
		ok   bool
	}{
		{"typical", "[19, 0, 55]", Cluster[int32]{19, 0, 55}, true},
		{"wide values", "[255, 255, 11810]", Cluster[int32]{255, 255, 11810}, true},
		{"negative", "[-1, 2, -3]", Cluster[int32]{-1, 2, -3}, true},
		{"leading text", "cluster [3, 4, 2]", Cluster[int32]{3, 4, 2}, true},
		{"no bracket", "19, 0, 55", Cluster[int32]{}, false},
		{"blank", "", Cluster[int32]{}, false},
		{"header line", "Frame 2 (1335967757.39 s, 0.2 s)", Cluster[int32]{}, false},
		{"non-numeric reads as zero", "[a, 4, 2]", Cluster[int32]{0, 4, 2}, true},
		{"missing fields", "[5]", Cluster[int32]{5, 0, 0}, true},
		{"truncated", "[5, ", Cluster[int32]{5, 0, 0}, true},
		{"bracket only", "[", Cluster[int32]{}, true},
		{"no closing bracket", "[1, 2, 3", Cluster[int32]{1, 2, 3}, true},
		{"no spaces", "[19,0,55]", Cluster[int32]{19, 0, 55}, true},
		{"extra spaces", "[19,   0,  55]", Cluster[int32]{19, 0, 55}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCluster[int32](tt.line)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClusterPixel(t *testing.T) {
	for _, c := range [][3]int32{{19, 0, 55}, {3, 4, 2}, {255, 255, 1}, {0, 0, 0}} {
		line := fmt.Sprintf("[%d, %d, %d]", c[0], c[1], c[2])
		got, ok := ParseCluster[int32](line)
		require.True(t, ok, line)
		p := got.Pixel()
		assert.Equal(t, c[0], p.X())
		assert.Equal(t, c[1], p.Y())
		assert.Equal(t, c[2], p.Count())
		assert.Equal(t, 256*c[1]+c[0], p.LinearIndex())
	}
}

func TestParseClusterConvertsWithoutRangeCheck(t *testing.T) {
	got, ok := ParseCluster[uint8]("[300, 1, 2]")
	require.True(t, ok)
	assert.Equal(t, uint8(300%256), got.X)
}

func TestParseClusterStrict(t *testing.T) {
	got, ok := ParseClusterStrict[int32]("[19, 0, 55]")
	require.True(t, ok)
	assert.Equal(t, Cluster[int32]{19, 0, 55}, got)

	for _, line := range []string{
		"[a, 4, 2]",
		"[5]",
		"[1, 2, 3",
		"[1,2,3]",
		"[1, 2, 3, 4]",
		"[1.5, 2, 3]",
	} {
		_, ok := ParseClusterStrict[int32](line)
		assert.False(t, ok, line)
	}

	_, ok = ParseClusterStrict[uint8]("[300, 1, 2]")
	assert.False(t, ok, "value out of range for T")
	_, ok = ParseClusterStrict[uint16]("[-1, 1, 2]")
	assert.False(t, ok, "negative value for unsigned T")
}

func TestAtoi(t *testing.T) {
	tests := map[string]int64{
		"42":                    42,
		"  -7":                  -7,
		"+3":                    3,
		"55]":                   55,
		"abc":                   0,
		"":                      0,
		"-":                     0,
		"99999999999999999999":  1<<63 - 1,
		"-99999999999999999999": -1 << 63,
	}
	for in, want := range tests {
		assert.Equal(t, want, atoi(in), "atoi(%q)", in)
	}
}

func TestAtof(t *testing.T) {
	tests := map[string]float64{
		"0.1":       0.1,
		" 12.5":     12.5,
		"-3":        -3,
		".5":        0.5,
		"5.":        5,
		"1e3":       1000,
		"1e":        1,
		"2.5e+2xyz": 250,
		"abc":       0,
		".":         0,
		"":          0,
	}
	for in, want := range tests {
		assert.Equal(t, want, atof(in), "atof(%q)", in)
	}
}
