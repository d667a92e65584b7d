package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wricardo/sokoban/game/database"
	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/motion"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/game/tile"
)

const testLevels = `#####
#@$.#
#####
Title: Corridor

######
#@-$.#
#-*--#
######
Title: Room
`

func createTestService(t *testing.T) service.LevelService {
	t.Helper()
	levels, errs := level.ParseAll("test.xsb", testLevels)
	if len(errs) != 0 {
		t.Fatalf("failed to parse test levels: %v", errs)
	}
	rec, err := motion.NewReconciler(10, motion.DefaultSmoothing)
	if err != nil {
		t.Fatalf("NewReconciler failed: %v", err)
	}
	return service.NewLevelService(database.New(levels...), session.NewManager(), rec)
}

func TestLevelService_ListLevels(t *testing.T) {
	svc := createTestService(t)
	levels, err := svc.ListLevels(context.Background())
	if err != nil {
		t.Fatalf("ListLevels failed: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}

	room := levels[1]
	if room.Index != 1 || room.Name != "Room" || room.Block != 2 {
		t.Errorf("unexpected info %+v", room)
	}
	if room.Width != 6 || room.Height != 4 {
		t.Errorf("expected 6x4, got %dx%d", room.Width, room.Height)
	}
	if room.Boxes != 2 || room.Goals != 2 || room.Players != 1 {
		t.Errorf("unexpected counts %+v", room)
	}
}

func TestLevelService_GetLevel(t *testing.T) {
	svc := createTestService(t)
	ctx := context.Background()

	detail, err := svc.GetLevel(ctx, 0)
	if err != nil {
		t.Fatalf("GetLevel failed: %v", err)
	}
	expectedRows := []string{"#####", "#@$.#", "#####"}
	if len(detail.Rows) != len(expectedRows) {
		t.Fatalf("expected %d rows, got %v", len(expectedRows), detail.Rows)
	}
	for i := range expectedRows {
		if detail.Rows[i] != expectedRows[i] {
			t.Errorf("row %d: expected %q, got %q", i, expectedRows[i], detail.Rows[i])
		}
	}
	if len(detail.Cells) != 15 {
		t.Errorf("expected 15 cells, got %d", len(detail.Cells))
	}
	for _, c := range detail.Cells {
		if len(c.Stack) != len(c.Visuals) {
			t.Errorf("cell (%d,%d): %d kinds but %d visuals", c.X, c.Y, len(c.Stack), len(c.Visuals))
		}
	}

	if _, err := svc.GetLevel(ctx, 5); !errors.Is(err, database.ErrLevelNotFound) {
		t.Errorf("expected ErrLevelNotFound, got %v", err)
	}

	first, err := svc.FirstLevel(ctx)
	if err != nil || first.Name != "Corridor" {
		t.Errorf("expected Corridor as first level, got %+v, %v", first, err)
	}
}

func TestLevelService_FirstLevelEmpty(t *testing.T) {
	rec, _ := motion.NewReconciler(1, 1)
	svc := service.NewLevelService(database.New(), session.NewManager(), rec)
	if _, err := svc.FirstLevel(context.Background()); !errors.Is(err, database.ErrEmptyDatabase) {
		t.Errorf("expected ErrEmptyDatabase, got %v", err)
	}
}

func TestLevelService_Replay(t *testing.T) {
	svc := createTestService(t)
	ctx := context.Background()

	result, err := svc.Replay(ctx, "r R")
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if result.Actions != "rR" || result.Moves != 2 || result.Pushes != 1 {
		t.Errorf("unexpected counts %+v", result)
	}
	if result.Width != 4 || result.Height != 1 {
		t.Errorf("expected 4x1, got %dx%d", result.Width, result.Height)
	}
	if len(result.Rows) != 1 || result.Rows[0] != "@-$." {
		t.Errorf("unexpected rows %v", result.Rows)
	}

	if _, err := svc.Replay(ctx, "rlR"); !errors.Is(err, level.ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
	if _, err := svc.Replay(ctx, "q"); !errors.Is(err, level.ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction for malformed token, got %v", err)
	}
}

func TestLevelService_SceneLifecycle(t *testing.T) {
	svc := createTestService(t)
	ctx := context.Background()

	info, err := svc.CreateScene(ctx, 0)
	if err != nil {
		t.Fatalf("CreateScene failed: %v", err)
	}
	if !info.Settled {
		t.Error("expected new scene to be settled")
	}
	if frames := svc.TickScenes(ctx); len(frames) != 0 {
		t.Errorf("expected no frames for settled scenes, got %d", len(frames))
	}

	player := -1
	for _, e := range info.Frame.Entities {
		if e.Kind == tile.Player {
			player = e.ID
		}
	}
	if player < 0 {
		t.Fatal("expected a player entity")
	}

	moved, err := svc.MoveEntity(ctx, info.ID, player, motion.GridPosition{X: 2, Y: 1})
	if err != nil {
		t.Fatalf("MoveEntity failed: %v", err)
	}
	if moved.Settled {
		t.Error("expected scene to be moving after MoveEntity")
	}

	frames := svc.TickScenes(ctx)
	if len(frames) != 1 || frames[0].SceneID != info.ID {
		t.Fatalf("expected one frame for %s, got %+v", info.ID, frames)
	}
	if frames[0].Frame.Tick != 1 {
		t.Errorf("expected tick 1, got %d", frames[0].Frame.Tick)
	}

	for i := 0; i < 100 && !frames[0].Settled; i++ {
		frames = svc.TickScenes(ctx)
		if len(frames) == 0 {
			break
		}
	}
	got, err := svc.GetScene(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetScene failed: %v", err)
	}
	if !got.Settled {
		t.Error("expected scene to settle after ticking")
	}

	if _, err := svc.MoveEntity(ctx, info.ID, player, motion.GridPosition{X: 9, Y: 9}); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}

	list, _ := svc.ListScenes(ctx)
	if len(list) != 1 {
		t.Errorf("expected 1 scene, got %d", len(list))
	}

	if err := svc.DeleteScene(ctx, info.ID); err != nil {
		t.Fatalf("DeleteScene failed: %v", err)
	}
	if _, err := svc.GetScene(ctx, info.ID); !errors.Is(err, service.ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound, got %v", err)
	}
	if err := svc.DeleteScene(ctx, info.ID); !errors.Is(err, service.ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound, got %v", err)
	}
}

func TestLevelService_CreateSceneUnknownLevel(t *testing.T) {
	svc := createTestService(t)
	if _, err := svc.CreateScene(context.Background(), 7); !errors.Is(err, database.ErrLevelNotFound) {
		t.Errorf("expected ErrLevelNotFound, got %v", err)
	}
}
