package level

import (
	"maps"
	"slices"

	"github.com/wricardo/sokoban/game/grid"
)

// Level is one parsed map plus what the source said about it
type Level struct {
	Index    int               `json:"index"` // 1-based position of the block in its source
	Name     string            `json:"name"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Comments []string          `json:"comments,omitempty"`
	Map      *grid.Map         `json:"-"`
}

// Clone returns a copy that shares the immutable map but nothing else
func (l *Level) Clone() *Level {
	c := *l
	c.Metadata = maps.Clone(l.Metadata)
	c.Comments = slices.Clone(l.Comments)
	return &c
}

// Title returns the Title metadata, if any
func (l *Level) Title() string {
	return l.Metadata["Title"]
}
