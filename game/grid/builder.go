package grid

import (
	"fmt"

	"github.com/wricardo/sokoban/game/tile"
)

// Builder assembles a Map. Every cell starts with an empty stack; Build hands
// the cells to the Map, after which the builder must not be used.
type Builder struct {
	dims  Vec
	cells []Stack
	built bool
}

// NewBuilder creates a builder for a width x height map
func NewBuilder(width, height int) (*Builder, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid map dimensions %dx%d", width, height)
	}
	return &Builder{
		dims:  Vec{X: width, Y: height},
		cells: make([]Stack, width*height),
	}, nil
}

// Push appends kinds on top of the stack at p
func (b *Builder) Push(p Vec, kinds ...tile.Kind) error {
	if b.built {
		return fmt.Errorf("builder already used")
	}
	if !p.In(b.dims) {
		return &OutOfBoundsError{Pos: p, Dimensions: b.dims}
	}
	i := p.Y*b.dims.X + p.X
	b.cells[i] = append(b.cells[i], kinds...)
	return nil
}

// Build returns the finished map. It panics when called a second time.
func (b *Builder) Build() *Map {
	if b.built {
		panic("grid: Build called twice on the same Builder")
	}
	b.built = true
	cells := b.cells
	b.cells = nil
	for i, s := range cells {
		if s == nil {
			cells[i] = Stack{}
		}
	}
	return &Map{dims: b.dims, cells: cells}
}
