package service

import (
	"context"
	"time"

	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/motion"
	"github.com/wricardo/sokoban/game/scene"
)

// LevelService defines all operations the transports expose
type LevelService interface {
	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	GetLevel(ctx context.Context, index int) (*LevelDetail, error)
	FirstLevel(ctx context.Context) (*LevelDetail, error)

	// Replay
	Replay(ctx context.Context, actions string) (*ReplayResult, error)

	// Scenes
	CreateScene(ctx context.Context, levelIndex int) (*SceneInfo, error)
	GetScene(ctx context.Context, sceneID string) (*SceneInfo, error)
	ListScenes(ctx context.Context) ([]*SceneInfo, error)
	MoveEntity(ctx context.Context, sceneID string, entityID int, pos motion.GridPosition) (*SceneInfo, error)
	DeleteScene(ctx context.Context, sceneID string) error
	TickScenes(ctx context.Context) []SceneFrame
}

// LevelSource is the read side of the level database
type LevelSource interface {
	Len() int
	First() (*level.Level, error)
	At(i int) (*level.Level, error)
	Levels() []*level.Level
}

// SessionManager stores spawned scenes
type SessionManager interface {
	Create(id string, levelIndex int, sc *scene.Scene) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// Session is a spawned scene kept alive between requests
type Session struct {
	ID             string
	LevelIndex     int
	Scene          *scene.Scene
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
