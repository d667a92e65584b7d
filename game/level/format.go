package level

import (
	"sort"
	"strings"

	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/tile"
)

// Symbol returns the level character for a stack. Floor is written as "-"
// so that rows keep their width when editors strip trailing spaces; empty
// stacks are written as floor too.
func Symbol(s grid.Stack) rune {
	switch {
	case s.Contains(tile.Wall):
		return '#'
	case s.Contains(tile.Goal) && s.Contains(tile.Box):
		return '*'
	case s.Contains(tile.Goal) && s.Contains(tile.Player):
		return '+'
	case s.Contains(tile.Box):
		return '$'
	case s.Contains(tile.Player):
		return '@'
	case s.Contains(tile.Goal):
		return '.'
	}
	return '-'
}

// Format writes m in level notation, one row per line
func Format(m *grid.Map) string {
	dims := m.Dimensions()
	var sb strings.Builder
	for y := 0; y < dims.Y; y++ {
		for x := 0; x < dims.X; x++ {
			s, _ := m.Get(grid.Vec{X: x, Y: y})
			sb.WriteRune(Symbol(s))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatLevel writes comments, the map and then metadata, so the result
// parses back into an equivalent level.
func FormatLevel(l *Level) string {
	var sb strings.Builder
	for _, c := range l.Comments {
		sb.WriteString("; ")
		sb.WriteString(c)
		sb.WriteByte('\n')
	}
	sb.WriteString(Format(l.Map))

	keys := make([]string, 0, len(l.Metadata))
	for k := range l.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(l.Metadata[k])
		sb.WriteByte('\n')
	}
	return sb.String()
}
