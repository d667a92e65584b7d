package service

import (
	"time"

	"github.com/wricardo/sokoban/game/scene"
	"github.com/wricardo/sokoban/game/tile"
)

// LevelInfo summarizes one level of the database
type LevelInfo struct {
	Index   int    `json:"index"` // 0-based position in the database
	Name    string `json:"name"`
	Source  string `json:"source"`
	Block   int    `json:"block"` // 1-based block number within Source
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Boxes   int    `json:"boxes"`
	Goals   int    `json:"goals"`
	Players int    `json:"players"`
}

// CellInfo is one cell of a level with the presentation of each layer
type CellInfo struct {
	X       int           `json:"x"`
	Y       int           `json:"y"`
	Stack   []tile.Kind   `json:"stack"`
	Visuals []tile.Visual `json:"visuals"`
}

// LevelDetail is a full level
type LevelDetail struct {
	LevelInfo
	Metadata map[string]string `json:"metadata,omitempty"`
	Comments []string          `json:"comments,omitempty"`
	Rows     []string          `json:"rows"`
	Cells    []CellInfo        `json:"cells"`
}

// ReplayResult is the map derived from a move string
type ReplayResult struct {
	Actions string     `json:"actions"`
	Moves   int        `json:"moves"`
	Pushes  int        `json:"pushes"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Rows    []string   `json:"rows"`
	Cells   []CellInfo `json:"cells"`
}

// SceneInfo describes a spawned scene
type SceneInfo struct {
	ID             string      `json:"id"`
	Level          LevelInfo   `json:"level"`
	CreatedAt      time.Time   `json:"created_at"`
	LastAccessedAt time.Time   `json:"last_accessed_at"`
	Settled        bool        `json:"settled"`
	Frame          scene.Frame `json:"frame"`
}

// SceneFrame is the result of ticking one scene
type SceneFrame struct {
	SceneID string      `json:"scene_id"`
	Settled bool        `json:"settled"`
	Frame   scene.Frame `json:"frame"`
}
