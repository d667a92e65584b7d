// Package scene spawns one presentable entity per tile of a level and drives
// their position reconciliation tick by tick.
package scene

import (
	"errors"
	"fmt"

	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/motion"
	"github.com/wricardo/sokoban/game/tile"
)

// ErrEntityNotFound is returned for unknown entity IDs
var ErrEntityNotFound = errors.New("entity not found")

// Entity is one drawn tile
type Entity struct {
	ID     int          `json:"id"`
	Kind   tile.Kind    `json:"kind"`
	Visual tile.Visual  `json:"visual"`
	Body   *motion.Body `json:"body"`
}

// Scene is a spawned level
type Scene struct {
	level      *level.Level
	reconciler *motion.Reconciler
	entities   []*Entity
	bodies     []*motion.Body
	tick       uint64
}

// Frame is a snapshot of a scene after a tick
type Frame struct {
	Tick       uint64   `json:"tick"`
	LevelName  string   `json:"level_name"`
	Dimensions grid.Vec `json:"dimensions"`
	Entities   []Entity `json:"entities"`
}

// Spawn creates an entity for every kind of every cell stack, visiting cells
// column by column and each stack bottom-up. Entities start at rest on their
// cell with the depth of their layer.
func Spawn(lvl *level.Level, r *motion.Reconciler) *Scene {
	s := &Scene{level: lvl, reconciler: r}

	lvl.Map.Each(func(p grid.Vec, stack grid.Stack) {
		for _, k := range stack {
			visual := tile.VisualOf(k)
			body := &motion.Body{Grid: motion.FromVec(p)}
			body.Translation = r.Target(body.Grid, visual.Layer.Z())
			s.entities = append(s.entities, &Entity{
				ID:     len(s.entities),
				Kind:   k,
				Visual: visual,
				Body:   body,
			})
			s.bodies = append(s.bodies, body)
		}
	})

	return s
}

// Level returns the level the scene was spawned from
func (s *Scene) Level() *level.Level {
	return s.level
}

// Entities returns the spawned entities in spawn order
func (s *Scene) Entities() []*Entity {
	return s.entities
}

// Entity returns the entity with the given ID
func (s *Scene) Entity(id int) (*Entity, error) {
	if id < 0 || id >= len(s.entities) {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}
	return s.entities[id], nil
}

// SetGridPosition moves an entity to another cell. Its translation catches
// up over the following ticks.
func (s *Scene) SetGridPosition(id int, g motion.GridPosition) error {
	e, err := s.Entity(id)
	if err != nil {
		return err
	}
	if !g.Vec().In(s.level.Map.Dimensions()) {
		return &grid.OutOfBoundsError{Pos: g.Vec(), Dimensions: s.level.Map.Dimensions()}
	}
	e.Body.Grid = g
	return nil
}

// Tick reconciles every entity once
func (s *Scene) Tick() {
	s.reconciler.Tick(s.bodies)
	s.tick++
}

// Settled reports whether every entity is within tol of its cell
func (s *Scene) Settled(tol float64) bool {
	for _, b := range s.bodies {
		if !s.reconciler.Arrived(b.Translation, b.Grid, tol) {
			return false
		}
	}
	return true
}

// Frame snapshots the current entity state
func (s *Scene) Frame() Frame {
	f := Frame{
		Tick:       s.tick,
		LevelName:  s.level.Name,
		Dimensions: s.level.Map.Dimensions(),
		Entities:   make([]Entity, len(s.entities)),
	}
	for i, e := range s.entities {
		body := *e.Body
		f.Entities[i] = Entity{ID: e.ID, Kind: e.Kind, Visual: e.Visual, Body: &body}
	}
	return f
}
