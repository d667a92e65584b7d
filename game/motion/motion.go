// Package motion keeps an entity's continuous visual position in step with
// its discrete grid position.
//
// Every tick each translation moves a fixed fraction of the remaining
// distance toward the cell its GridPosition names:
//
//	v' = v + (t - v) * alpha
//
// There is no velocity and no overshoot; v approaches t asymptotically.
// Only X and Y are interpolated, Z holds the depth layer and is left alone.
package motion

import (
	"fmt"
	"math"

	"github.com/wricardo/sokoban/game/grid"
)

// DefaultSmoothing is the fraction of the remaining distance covered per tick
const DefaultSmoothing = 0.3

// GridPosition is the logical cell an entity occupies
type GridPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FromVec converts a grid coordinate
func FromVec(v grid.Vec) GridPosition {
	return GridPosition{X: v.X, Y: v.Y}
}

// Vec returns the position as a grid coordinate
func (g GridPosition) Vec() grid.Vec {
	return grid.Vec{X: g.X, Y: g.Y}
}

// Vec3 is a continuous position. Z is depth.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Lerp moves v toward t by alpha on the X and Y axes. Z keeps v's value.
func Lerp(v, t Vec3, alpha float64) Vec3 {
	return Vec3{
		X: v.X + (t.X-v.X)*alpha,
		Y: v.Y + (t.Y-v.Y)*alpha,
		Z: v.Z,
	}
}

// Body pairs a logical cell with the translation drawn for it
type Body struct {
	Grid        GridPosition `json:"grid"`
	Translation Vec3         `json:"translation"`
}

// Reconciler moves translations toward their grid cells
type Reconciler struct {
	cellSize  float64
	smoothing float64
}

// NewReconciler creates a reconciler. cellSize is the edge of one cell in
// world units; smoothing must be in (0, 1].
func NewReconciler(cellSize, smoothing float64) (*Reconciler, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("cell size must be positive, got %v", cellSize)
	}
	if !(smoothing > 0 && smoothing <= 1) {
		return nil, fmt.Errorf("smoothing must be in (0, 1], got %v", smoothing)
	}
	return &Reconciler{cellSize: cellSize, smoothing: smoothing}, nil
}

// CellSize returns the world size of one cell
func (r *Reconciler) CellSize() float64 {
	return r.cellSize
}

// Smoothing returns the per-tick interpolation factor
func (r *Reconciler) Smoothing() float64 {
	return r.smoothing
}

// Target returns the translation of cell g at depth z
func (r *Reconciler) Target(g GridPosition, z float64) Vec3 {
	return Vec3{
		X: float64(g.X) * r.cellSize,
		Y: float64(g.Y) * r.cellSize,
		Z: z,
	}
}

// Step returns v advanced one tick toward g
func (r *Reconciler) Step(v Vec3, g GridPosition) Vec3 {
	return Lerp(v, r.Target(g, v.Z), r.smoothing)
}

// Arrived reports whether v is within tol of g's cell on both axes
func (r *Reconciler) Arrived(v Vec3, g GridPosition, tol float64) bool {
	t := r.Target(g, v.Z)
	return math.Abs(t.X-v.X) <= tol && math.Abs(t.Y-v.Y) <= tol
}

// Place puts b exactly on its cell, keeping its depth
func (r *Reconciler) Place(b *Body) {
	b.Translation = r.Target(b.Grid, b.Translation.Z)
}

// Tick advances every body by one step. The reconciler is the only writer of
// Translation while ticking.
func (r *Reconciler) Tick(bodies []*Body) {
	for _, b := range bodies {
		b.Translation = r.Step(b.Translation, b.Grid)
	}
}
