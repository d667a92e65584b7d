package tile

import (
	"fmt"
	"image"
)

// Layer is the draw tier of a tile. Lower layers render beneath higher ones.
type Layer int

const (
	Background Layer = iota // floor, wall
	Midground               // goal
	Foreground              // box, player
)

// Z returns the depth coordinate used when placing a tile of this layer
func (l Layer) Z() float64 {
	return float64(l)
}

func (l Layer) String() string {
	switch l {
	case Background:
		return "background"
	case Midground:
		return "midground"
	case Foreground:
		return "foreground"
	}
	return fmt.Sprintf("layer(%d)", int(l))
}

// Visual is the presentation of a tile kind
type Visual struct {
	AtlasIndex int   `json:"atlas_index"`
	Layer      Layer `json:"layer"`
}

// visuals must hold an entry for every kind in kinds.
var visuals = map[Kind]Visual{
	Floor:  {AtlasIndex: 12, Layer: Background},
	Wall:   {AtlasIndex: 6, Layer: Background},
	Goal:   {AtlasIndex: 13, Layer: Midground},
	Box:    {AtlasIndex: 1, Layer: Foreground},
	Player: {AtlasIndex: 0, Layer: Foreground},
}

// VisualOf returns the atlas index and depth layer for k. It panics when k is
// not part of the vocabulary: that means the atlas and the tile set are out of
// sync, which is not something a caller can recover from.
func VisualOf(k Kind) Visual {
	v, ok := visuals[k]
	if !ok {
		panic(fmt.Sprintf("tile: no visual mapped for kind %q", string(k)))
	}
	return v
}

// Atlas describes a sprite sheet laid out as a uniform grid
type Atlas struct {
	TileSize int // square cell edge in pixels
	Columns  int
	Rows     int
	Padding  int // gap between cells in pixels
}

// DefaultAtlas is the tilemap sheet: 6x3 cells of 128px with 1px padding.
var DefaultAtlas = Atlas{TileSize: 128, Columns: 6, Rows: 3, Padding: 1}

// Len returns the number of cells in the atlas
func (a Atlas) Len() int {
	return a.Columns * a.Rows
}

// Rect returns the source rectangle of the cell at index, counted row-major
// from the top-left corner.
func (a Atlas) Rect(index int) (image.Rectangle, error) {
	if index < 0 || index >= a.Len() {
		return image.Rectangle{}, fmt.Errorf("atlas index %d out of range [0,%d)", index, a.Len())
	}
	stride := a.TileSize + a.Padding
	x := (index % a.Columns) * stride
	y := (index / a.Columns) * stride
	return image.Rect(x, y, x+a.TileSize, y+a.TileSize), nil
}
