package types

import (
	"golang.org/x/exp/constraints"
)

// FrameRecord is the flat form of a Frame used on the wire (CBOR, JSON) and
// in storage. Index is the frame's 1-based position in its source log.
type FrameRecord struct {
	Index       int           `json:"index" cbor:"index"`
	CaptureTime float64       `json:"capture_time" cbor:"capture_time"`
	RunningTime float64       `json:"running_time" cbor:"running_time"`
	Pixels      []PixelRecord `json:"pixels" cbor:"pixels"`
}

type PixelRecord struct {
	Key   uint  `json:"key" cbor:"key"`
	X     int64 `json:"x" cbor:"x"`
	Y     int64 `json:"y" cbor:"y"`
	Count int64 `json:"count" cbor:"count"`
}

func NewRecord[T constraints.Integer](index int, frame Frame[T]) FrameRecord {
	rec := FrameRecord{
		Index:       index,
		CaptureTime: frame.CaptureTime(),
		RunningTime: frame.RunningTime(),
		Pixels:      make([]PixelRecord, 0, frame.Len()),
	}
	for key, p := range frame.All() {
		rec.Pixels = append(rec.Pixels, PixelRecord{
			Key:   key,
			X:     int64(p.X()),
			Y:     int64(p.Y()),
			Count: int64(p.Count()),
		})
	}
	return rec
}

// ToFrame rebuilds a Frame from a record. Values are converted to T as-is.
func ToFrame[T constraints.Integer](rec FrameRecord) Frame[T] {
	frame := NewFrame[T](rec.CaptureTime, rec.RunningTime)
	for _, p := range rec.Pixels {
		frame.SetPixel(p.Key, NewPixel(T(p.X), T(p.Y), T(p.Count)))
	}
	return frame
}

// LinearIndex mirrors Pixel.LinearIndex for the flat form.
func (p PixelRecord) LinearIndex() int64 {
	return 256*p.Y + p.X
}

const (
	MessageStart = "start"
	MessageFrame = "frame"
	MessageEnd   = "end"
)

// Message is the envelope frames travel in over ZMQ: one "start" carrying
// run metadata, a "frame" per frame, and an "end".
type Message struct {
	Type  string         `json:"type" cbor:"type"`
	Frame *FrameRecord   `json:"frame,omitempty" cbor:"frame,omitempty"`
	Meta  map[string]any `json:"meta,omitempty" cbor:"meta,omitempty"`
}
