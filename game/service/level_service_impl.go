package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/motion"
	"github.com/wricardo/sokoban/game/scene"
	"github.com/wricardo/sokoban/game/tile"
)

// SettleTolerance is the distance, in world units, under which an entity
// counts as resting on its cell.
const SettleTolerance = 0.01

var ErrSceneNotFound = errors.New("scene not found")

// levelServiceImpl implements the LevelService interface
type levelServiceImpl struct {
	levels     LevelSource
	sessions   SessionManager
	reconciler *motion.Reconciler
	mu         sync.Mutex // serializes ticks with entity moves
}

// NewLevelService creates a new level service instance
func NewLevelService(levels LevelSource, sessions SessionManager, reconciler *motion.Reconciler) LevelService {
	return &levelServiceImpl{
		levels:     levels,
		sessions:   sessions,
		reconciler: reconciler,
	}
}

// ListLevels returns a summary of every level
func (s *levelServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	levels := s.levels.Levels()
	result := make([]*LevelInfo, 0, len(levels))
	for i, lvl := range levels {
		info := levelInfo(i, lvl)
		result = append(result, &info)
	}
	return result, nil
}

// GetLevel returns one level by database position
func (s *levelServiceImpl) GetLevel(ctx context.Context, index int) (*LevelDetail, error) {
	lvl, err := s.levels.At(index)
	if err != nil {
		return nil, err
	}
	return levelDetail(index, lvl), nil
}

// FirstLevel returns the first level of the database
func (s *levelServiceImpl) FirstLevel(ctx context.Context) (*LevelDetail, error) {
	lvl, err := s.levels.First()
	if err != nil {
		return nil, err
	}
	return levelDetail(0, lvl), nil
}

// Replay builds a map from a move string
func (s *levelServiceImpl) Replay(ctx context.Context, actions string) (*ReplayResult, error) {
	parsed, err := level.ParseActions(actions)
	if err != nil {
		return nil, err
	}
	m, err := level.Replay(parsed)
	if err != nil {
		return nil, err
	}

	pushes := 0
	for _, a := range parsed {
		if a.Push {
			pushes++
		}
	}

	dims := m.Dimensions()
	return &ReplayResult{
		Actions: parsed.String(),
		Moves:   len(parsed),
		Pushes:  pushes,
		Width:   dims.X,
		Height:  dims.Y,
		Rows:    rows(m),
		Cells:   cells(m),
	}, nil
}

// CreateScene spawns a level as tile entities
func (s *levelServiceImpl) CreateScene(ctx context.Context, levelIndex int) (*SceneInfo, error) {
	lvl, err := s.levels.At(levelIndex)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Create("", levelIndex, scene.Spawn(lvl, s.reconciler))
	if err != nil {
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}
	return s.sceneInfo(sess), nil
}

// GetScene returns the current state of a scene
func (s *levelServiceImpl) GetScene(ctx context.Context, sceneID string) (*SceneInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sceneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSceneNotFound, err)
	}
	s.sessions.UpdateLastAccessed(sceneID)
	return s.sceneInfo(sess), nil
}

// ListScenes returns every live scene
func (s *levelServiceImpl) ListScenes(ctx context.Context) ([]*SceneInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SceneInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sceneInfo(sess))
	}
	return result, nil
}

// MoveEntity sets an entity's grid position; its translation follows on
// subsequent ticks.
func (s *levelServiceImpl) MoveEntity(ctx context.Context, sceneID string, entityID int, pos motion.GridPosition) (*SceneInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sceneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSceneNotFound, err)
	}
	if err := sess.Scene.SetGridPosition(entityID, pos); err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sceneID)
	return s.sceneInfo(sess), nil
}

// DeleteScene removes a scene
func (s *levelServiceImpl) DeleteScene(ctx context.Context, sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sceneID); err != nil {
		return fmt.Errorf("%w: %v", ErrSceneNotFound, err)
	}
	return nil
}

// TickScenes advances every scene that is still moving by one tick and
// returns their frames. Settled scenes are skipped.
func (s *levelServiceImpl) TickScenes(ctx context.Context) []SceneFrame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var frames []SceneFrame
	for _, sess := range s.sessions.List() {
		if sess.Scene.Settled(SettleTolerance) {
			continue
		}
		sess.Scene.Tick()
		frames = append(frames, SceneFrame{
			SceneID: sess.ID,
			Settled: sess.Scene.Settled(SettleTolerance),
			Frame:   sess.Scene.Frame(),
		})
	}
	return frames
}

func (s *levelServiceImpl) sceneInfo(sess *Session) *SceneInfo {
	return &SceneInfo{
		ID:             sess.ID,
		Level:          levelInfo(sess.LevelIndex, sess.Scene.Level()),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Settled:        sess.Scene.Settled(SettleTolerance),
		Frame:          sess.Scene.Frame(),
	}
}

func levelInfo(index int, lvl *level.Level) LevelInfo {
	dims := lvl.Map.Dimensions()
	return LevelInfo{
		Index:   index,
		Name:    lvl.Name,
		Source:  lvl.Source,
		Block:   lvl.Index,
		Width:   dims.X,
		Height:  dims.Y,
		Boxes:   lvl.Map.Count(tile.Box),
		Goals:   lvl.Map.Count(tile.Goal),
		Players: lvl.Map.Count(tile.Player),
	}
}

func levelDetail(index int, lvl *level.Level) *LevelDetail {
	return &LevelDetail{
		LevelInfo: levelInfo(index, lvl),
		Metadata:  lvl.Metadata,
		Comments:  lvl.Comments,
		Rows:      rows(lvl.Map),
		Cells:     cells(lvl.Map),
	}
}

func rows(m *grid.Map) []string {
	return strings.Split(strings.TrimSuffix(level.Format(m), "\n"), "\n")
}

// cells lists every non-empty cell in spawn order
func cells(m *grid.Map) []CellInfo {
	var out []CellInfo
	m.Each(func(p grid.Vec, stack grid.Stack) {
		if len(stack) == 0 {
			return
		}
		visuals := make([]tile.Visual, len(stack))
		for i, k := range stack {
			visuals[i] = tile.VisualOf(k)
		}
		out = append(out, CellInfo{X: p.X, Y: p.Y, Stack: stack, Visuals: visuals})
	})
	return out
}
