package main

import (
	"fmt"

	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/tile"
)

// ValidationResult captures the outcome of validating a single level.
type ValidationResult struct {
	Level  string
	Valid  bool
	Errors []string
}

var directions = []grid.Vec{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

// validateLevel checks the piece counts and that every box and goal can be
// reached from the player.
func validateLevel(lvl *level.Level) ValidationResult {
	result := ValidationResult{
		Level: fmt.Sprintf("%s (%s#%d)", lvl.Name, lvl.Source, lvl.Index),
		Valid: true,
	}
	fail := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	m := lvl.Map
	players := m.Find(tile.Player)
	boxes := m.Count(tile.Box)
	goals := m.Count(tile.Goal)

	if len(players) != 1 {
		fail("expected exactly one player, found %d", len(players))
	}
	if boxes == 0 {
		fail("level has no boxes")
	}
	if goals < boxes {
		fail("%d boxes but only %d goals", boxes, goals)
	}
	if len(players) != 1 {
		return result
	}

	reachable := reachableFrom(m, players[0])
	for _, kind := range []tile.Kind{tile.Box, tile.Goal} {
		for _, p := range m.Find(kind) {
			if !reachable[p] {
				fail("%s at %v is not reachable from the player", kind, p)
			}
		}
	}
	return result
}

// reachableFrom floods every non-wall cell connected to start. Boxes do not
// block the flood; this is a connectivity check, not a solver.
func reachableFrom(m *grid.Map, start grid.Vec) map[grid.Vec]bool {
	visited := map[grid.Vec]bool{start: true}
	queue := []grid.Vec{start}
	dims := m.Dimensions()

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, d := range directions {
			next := cur.Add(d)
			if !next.In(dims) || visited[next] {
				continue
			}
			stack, err := m.Get(next)
			if err != nil || stack.Contains(tile.Wall) || len(stack) == 0 {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return visited
}
