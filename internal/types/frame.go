package types

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"golang.org/x/exp/constraints"
)

var ErrPixelNotFound = errors.New("pixel not found")

// Frame is one timestamped exposure: capture/running time plus the pixels
// read for it, keyed by their 1-based sequence number within the frame.
type Frame[T constraints.Integer] struct {
	captureTime float64
	runningTime float64
	pixels      map[uint]Pixel[T]
}

func NewFrame[T constraints.Integer](captureTime, runningTime float64) Frame[T] {
	return Frame[T]{
		captureTime: captureTime,
		runningTime: runningTime,
		pixels:      make(map[uint]Pixel[T]),
	}
}

// CaptureTime is seconds since the epoch.
func (f *Frame[T]) CaptureTime() float64 { return f.captureTime }

// RunningTime is seconds since acquisition start.
func (f *Frame[T]) RunningTime() float64 { return f.runningTime }

func (f *Frame[T]) SetCaptureTime(t float64) { f.captureTime = t }
func (f *Frame[T]) SetRunningTime(t float64) { f.runningTime = t }

// SetPixel inserts or overwrites the pixel stored at key.
func (f *Frame[T]) SetPixel(key uint, p Pixel[T]) {
	if f.pixels == nil {
		f.pixels = make(map[uint]Pixel[T])
	}
	f.pixels[key] = p
}

// Pixel returns the pixel at key, or an error wrapping ErrPixelNotFound.
func (f *Frame[T]) Pixel(key uint) (Pixel[T], error) {
	p, ok := f.pixels[key]
	if !ok {
		return Pixel[T]{}, fmt.Errorf("key %d: %w", key, ErrPixelNotFound)
	}
	return p, nil
}

// Pixels returns a copy of the pixel collection.
func (f *Frame[T]) Pixels() map[uint]Pixel[T] {
	if f.pixels == nil {
		return map[uint]Pixel[T]{}
	}
	return maps.Clone(f.pixels)
}

func (f *Frame[T]) Len() int { return len(f.pixels) }

// Keys returns the pixel keys in ascending order.
func (f *Frame[T]) Keys() []uint {
	return slices.Sorted(maps.Keys(f.pixels))
}

// All yields pixels in key order.
func (f *Frame[T]) All() iter.Seq2[uint, Pixel[T]] {
	return func(yield func(uint, Pixel[T]) bool) {
		for _, key := range f.Keys() {
			if !yield(key, f.pixels[key]) {
				return
			}
		}
	}
}

func (f *Frame[T]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "C Time: %v\nRunning Time: %v\n", f.captureTime, f.runningTime)
	for key, p := range f.All() {
		fmt.Fprintf(&b, "No. %d Pixel:\n%s", key, p)
	}
	return b.String()
}
