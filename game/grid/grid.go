// Package grid provides the immutable tile map shared by the level parser,
// the action replay builder and the scene spawner.
package grid

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wricardo/sokoban/game/tile"
)

// ErrOutOfBounds is returned for coordinates outside a map's dimensions
var ErrOutOfBounds = errors.New("out of bounds")

// OutOfBoundsError carries the offending coordinate
type OutOfBoundsError struct {
	Pos        Vec
	Dimensions Vec
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: %v outside %dx%d", ErrOutOfBounds, e.Pos, e.Dimensions.X, e.Dimensions.Y)
}

func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// Vec is an integer grid coordinate. X grows to the right, Y grows downward.
type Vec struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns v+o
func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v-o
func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

// In reports whether v lies in [0,dims.X)x[0,dims.Y)
func (v Vec) In(dims Vec) bool {
	return v.X >= 0 && v.Y >= 0 && v.X < dims.X && v.Y < dims.Y
}

func (v Vec) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Stack is the ordered list of kinds in one cell, bottom layer first
type Stack []tile.Kind

// Contains reports whether k is anywhere in the stack
func (s Stack) Contains(k tile.Kind) bool {
	return slices.Contains(s, k)
}

// Top returns the uppermost kind, or false for an empty stack
func (s Stack) Top() (tile.Kind, bool) {
	if len(s) == 0 {
		return "", false
	}
	return s[len(s)-1], true
}

// Map is a rectangular grid of tile stacks. A Map never changes once built.
type Map struct {
	dims  Vec
	cells []Stack // row-major, len == dims.X*dims.Y
}

// Dimensions returns the width (X) and height (Y) of the map
func (m *Map) Dimensions() Vec {
	return m.dims
}

// Get returns a copy of the stack at p
func (m *Map) Get(p Vec) (Stack, error) {
	if !p.In(m.dims) {
		return nil, &OutOfBoundsError{Pos: p, Dimensions: m.dims}
	}
	return slices.Clone(m.cells[m.index(p)]), nil
}

// Each calls fn for every cell, column by column (x outer, y inner). This is
// the spawn order, so ties within a depth layer resolve the same way on every
// run.
func (m *Map) Each(fn func(p Vec, s Stack)) {
	for x := 0; x < m.dims.X; x++ {
		for y := 0; y < m.dims.Y; y++ {
			p := Vec{X: x, Y: y}
			fn(p, slices.Clone(m.cells[m.index(p)]))
		}
	}
}

// Find returns every position whose stack contains k, in row-major order
func (m *Map) Find(k tile.Kind) []Vec {
	var out []Vec
	for i, s := range m.cells {
		if s.Contains(k) {
			out = append(out, Vec{X: i % m.dims.X, Y: i / m.dims.X})
		}
	}
	return out
}

// Count returns how many cells contain k
func (m *Map) Count(k tile.Kind) int {
	n := 0
	for _, s := range m.cells {
		if s.Contains(k) {
			n++
		}
	}
	return n
}

// Equal reports whether both maps have the same dimensions and stacks
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.dims != o.dims {
		return false
	}
	for i := range m.cells {
		if !slices.Equal(m.cells[i], o.cells[i]) {
			return false
		}
	}
	return true
}

func (m *Map) index(p Vec) int {
	return p.Y*m.dims.X + p.X
}
