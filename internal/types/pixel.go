package types

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Pixel is one activated sensor coordinate and its intensity count.
//
// The linear index is computed in T, so a narrow T wraps the same way the
// detector's native integer type would. Pick T wide enough (int32 or more)
// unless that wraparound is wanted.
type Pixel[T constraints.Integer] struct {
	x     T
	y     T
	count T
}

func NewPixel[T constraints.Integer](x, y, count T) Pixel[T] {
	return Pixel[T]{x: x, y: y, count: count}
}

func (p Pixel[T]) X() T     { return p.x }
func (p Pixel[T]) Y() T     { return p.y }
func (p Pixel[T]) Count() T { return p.count }

// LinearIndex flattens the coordinate onto a 256-column chip: 256*y + x.
// The shift keeps the expression valid for every integer T.
func (p Pixel[T]) LinearIndex() T {
	return p.y<<8 + p.x
}

func (p Pixel[T]) String() string {
	return fmt.Sprintf("x = %d\ny = %d\nc = %d\nxy = %d\n", p.x, p.y, p.count, p.LinearIndex())
}
