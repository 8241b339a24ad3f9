package types

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameZeroValue(t *testing.T) {
	var f Frame[int32]
	assert.Zero(t, f.CaptureTime())
	assert.Zero(t, f.RunningTime())
	assert.Zero(t, f.Len())
	assert.Empty(t, f.Pixels())

	_, err := f.Pixel(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPixelNotFound))
}

func TestFrameSetters(t *testing.T) {
	var f Frame[int32]
	f.SetCaptureTime(1335967757.29)
	f.SetRunningTime(0.1)
	f.SetPixel(1, NewPixel[int32](19, 0, 55))

	assert.Equal(t, 1335967757.29, f.CaptureTime())
	assert.Equal(t, 0.1, f.RunningTime())
	p, err := f.Pixel(1)
	require.NoError(t, err)
	assert.Equal(t, NewPixel[int32](19, 0, 55), p)
}

func TestFramePixelMissingKey(t *testing.T) {
	f := NewFrame[int32](1, 2)
	f.SetPixel(1, NewPixel[int32](1, 1, 1))

	_, err := f.Pixel(2)
	require.ErrorIs(t, err, ErrPixelNotFound)
}

func TestFrameSetPixelOverwrites(t *testing.T) {
	f := NewFrame[int](0, 0)
	f.SetPixel(1, NewPixel(1, 1, 1))
	f.SetPixel(1, NewPixel(2, 2, 2))

	assert.Equal(t, 1, f.Len())
	p, err := f.Pixel(1)
	require.NoError(t, err)
	assert.Equal(t, NewPixel(2, 2, 2), p)
}

func TestFramePixelsIsACopy(t *testing.T) {
	f := NewFrame[int](0, 0)
	f.SetPixel(1, NewPixel(1, 1, 1))

	view := f.Pixels()
	view[2] = NewPixel(9, 9, 9)
	delete(view, 1)

	assert.Equal(t, 1, f.Len())
	_, err := f.Pixel(1)
	assert.NoError(t, err)
}

func TestFrameKeyOrder(t *testing.T) {
	f := NewFrame[int](0, 0)
	for _, k := range []uint{3, 1, 2} {
		f.SetPixel(k, NewPixel(int(k), 0, 1))
	}
	assert.Equal(t, []uint{1, 2, 3}, f.Keys())

	var seen []uint
	for k := range f.All() {
		seen = append(seen, k)
	}
	assert.Equal(t, []uint{1, 2, 3}, seen)
}

func TestFrameString(t *testing.T) {
	f := NewFrame[int](1.5, 0.25)
	f.SetPixel(2, NewPixel(3, 4, 2))
	f.SetPixel(1, NewPixel(19, 0, 55))

	want := "C Time: 1.5\nRunning Time: 0.25\n" +
		"No. 1 Pixel:\nx = 19\ny = 0\nc = 55\nxy = 19\n" +
		"No. 2 Pixel:\nx = 3\ny = 4\nc = 2\nxy = 1027\n"
	if diff := cmp.Diff(want, f.String()); diff != "" {
		t.Fatalf("String mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordConversion(t *testing.T) {
	f := NewFrame[int32](1335967757.39, 0.2)
	f.SetPixel(1, NewPixel[int32](1, 1, 9))
	f.SetPixel(2, NewPixel[int32](255, 255, 3))

	rec := NewRecord(2, f)
	want := FrameRecord{
		Index:       2,
		CaptureTime: 1335967757.39,
		RunningTime: 0.2,
		Pixels: []PixelRecord{
			{Key: 1, X: 1, Y: 1, Count: 9},
			{Key: 2, X: 255, Y: 255, Count: 3},
		},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(65535), rec.Pixels[1].LinearIndex())

	back := ToFrame[int32](rec)
	assert.Equal(t, f.Pixels(), back.Pixels())
	assert.Equal(t, f.CaptureTime(), back.CaptureTime())
}
