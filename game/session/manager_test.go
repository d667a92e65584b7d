package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/motion"
	"github.com/wricardo/sokoban/game/scene"
	"github.com/wricardo/sokoban/game/service"
)

func createTestScene(t *testing.T) *scene.Scene {
	t.Helper()
	levels, errs := level.ParseAll("test", "#####\n#@$.#\n#####")
	if len(errs) != 0 {
		t.Fatalf("failed to parse test level: %v", errs)
	}
	r, err := motion.NewReconciler(16, motion.DefaultSmoothing)
	if err != nil {
		t.Fatalf("NewReconciler failed: %v", err)
	}
	return scene.Spawn(levels[0], r)
}

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager()

	sess, err := m.Create("", 3, createTestScene(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(sess.ID) != 4 {
		t.Errorf("expected 4-character ID, got %q", sess.ID)
	}
	if sess.LevelIndex != 3 {
		t.Errorf("expected level index 3, got %d", sess.LevelIndex)
	}

	got, err := m.Get(strings.ToUpper(sess.ID))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != sess {
		t.Error("expected the same session back")
	}
}

func TestManager_CreateErrors(t *testing.T) {
	m := NewManager()
	if _, err := m.Create("abcd", 0, nil); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}

	if _, err := m.Create("abcd", 0, createTestScene(t)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.Create("ABCD", 0, createTestScene(t)); !errors.Is(err, ErrSessionAlreadyExists) {
		t.Errorf("expected ErrSessionAlreadyExists, got %v", err)
	}
}

func TestManager_ListOrder(t *testing.T) {
	m := NewManager()
	for _, id := range []string{"bbbb", "aaaa", "cccc"} {
		if _, err := m.Create(id, 0, createTestScene(t)); err != nil {
			t.Fatalf("Create(%s) failed: %v", id, err)
		}
		time.Sleep(time.Millisecond)
	}

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	expected := []string{"bbbb", "aaaa", "cccc"}
	for i, id := range expected {
		if list[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestManager_Delete(t *testing.T) {
	m := NewManager()
	sess, _ := m.Create("", 0, createTestScene(t))

	if err := m.Delete(sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := m.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	m := NewManager()
	old, _ := m.Create("old1", 0, createTestScene(t))
	fresh, _ := m.Create("new1", 0, createTestScene(t))

	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	if err := m.UpdateLastAccessed(fresh.ID); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}

	removed := m.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if m.Count() != 1 {
		t.Errorf("expected 1 remaining, got %d", m.Count())
	}
	if _, err := m.Get("new1"); err != nil {
		t.Errorf("expected fresh session to remain: %v", err)
	}
	if err := m.UpdateLastAccessed("old1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentCreate(t *testing.T) {
	m := NewManager()
	sc := createTestScene(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Create("", 0, sc); err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if m.Count() != 20 {
		t.Errorf("expected 20 sessions, got %d", m.Count())
	}
}

// fillSessions occupies every generated ID except the ones in keep
func fillSessions(m *Manager, sc *scene.Scene, keep ...string) {
	free := make(map[string]bool)
	for _, id := range keep {
		free[id] = true
	}
	now := time.Now()
	for n := 0; n < idSpace; n++ {
		id := fmt.Sprintf("%04x", n)
		if free[id] {
			continue
		}
		m.sessions[id] = &service.Session{ID: id, Scene: sc, CreatedAt: now, LastAccessedAt: now}
	}
}

func TestManager_CreateWhenIDSpaceFull(t *testing.T) {
	m := NewManager()
	fillSessions(m, createTestScene(t))

	done := make(chan error, 1)
	go func() {
		_, err := m.Create("", 0, createTestScene(t))
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSessionLimit) {
			t.Errorf("expected ErrSessionLimit, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Create did not return with every ID taken")
	}

	// explicit IDs are outside the generated ID space
	if _, err := m.Create("custom", 0, createTestScene(t)); err != nil {
		t.Errorf("explicit ID should still be accepted: %v", err)
	}
}

func TestManager_CreateFindsLastFreeID(t *testing.T) {
	m := NewManager()
	fillSessions(m, createTestScene(t), "beef")

	sess, err := m.Create("", 0, createTestScene(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID != "beef" {
		t.Errorf("expected the only free ID beef, got %s", sess.ID)
	}
}
