package level

import (
	"errors"
	"testing"

	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/tile"
)

func stackAt(t *testing.T, m *grid.Map, x, y int) grid.Stack {
	t.Helper()
	s, err := m.Get(grid.Vec{X: x, Y: y})
	if err != nil {
		t.Fatalf("Get(%d,%d) failed: %v", x, y, err)
	}
	return s
}

func sameStack(a, b grid.Stack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseActions(t *testing.T) {
	actions, err := ParseActions("ruLD\n r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Actions{
		{Direction: Right},
		{Direction: Up},
		{Direction: Left, Push: true},
		{Direction: Down, Push: true},
		{Direction: Right},
	}
	if len(actions) != len(expected) {
		t.Fatalf("expected %d actions, got %d", len(expected), len(actions))
	}
	for i := range expected {
		if actions[i] != expected[i] {
			t.Errorf("action %d: expected %+v, got %+v", i, expected[i], actions[i])
		}
	}
	if got := actions.String(); got != "ruLDr" {
		t.Errorf("expected re-encoding ruLDr, got %q", got)
	}
}

func TestParseActions_Malformed(t *testing.T) {
	_, err := ParseActions("rrxl")
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Index != 2 || ae.Token != 'x' {
		t.Errorf("expected token 'x' at 2, got %+v", ae)
	}
}

func TestReplay_SingleStep(t *testing.T) {
	m, err := ReplayString("r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Dimensions(); got != (grid.Vec{X: 2, Y: 1}) {
		t.Fatalf("expected 2x1, got %v", got)
	}
	if s := stackAt(t, m, 0, 0); !sameStack(s, grid.Stack{tile.Floor, tile.Player}) {
		t.Errorf("expected player at origin, got %v", s)
	}
	if s := stackAt(t, m, 1, 0); !sameStack(s, grid.Stack{tile.Floor}) {
		t.Errorf("expected floor right of origin, got %v", s)
	}
}

func TestReplay_Empty(t *testing.T) {
	m, err := Replay(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Dimensions(); got != (grid.Vec{X: 1, Y: 1}) {
		t.Errorf("expected 1x1, got %v", got)
	}
}

func TestReplay_NegativeExtentIsRebased(t *testing.T) {
	m, err := ReplayString("lu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Dimensions(); got != (grid.Vec{X: 2, Y: 2}) {
		t.Fatalf("expected 2x2, got %v", got)
	}
	if s := stackAt(t, m, 1, 1); !sameStack(s, grid.Stack{tile.Floor, tile.Player}) {
		t.Errorf("expected player start at (1,1), got %v", s)
	}
	if s := stackAt(t, m, 1, 0); len(s) != 0 {
		t.Errorf("expected unvisited cell to be empty, got %v", s)
	}
}

func TestReplay_PushInfersBoxAndGoal(t *testing.T) {
	m, err := ReplayString("RR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Dimensions(); got != (grid.Vec{X: 4, Y: 1}) {
		t.Fatalf("expected 4x1, got %v", got)
	}

	expected := []grid.Stack{
		{tile.Floor, tile.Player},
		{tile.Floor, tile.Box},
		{tile.Floor},
		{tile.Goal},
	}
	for x, want := range expected {
		if s := stackAt(t, m, x, 0); !sameStack(s, want) {
			t.Errorf("x=%d: expected %v, got %v", x, want, s)
		}
	}
}

func TestReplay_BoxEndingOnItsStart(t *testing.T) {
	// push right, walk around, push back left
	m, err := ReplayString("RurrdL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := stackAt(t, m, 1, 1)
	if !sameStack(s, grid.Stack{tile.Goal, tile.Box}) {
		t.Errorf("expected box on goal at its start cell, got %v", s)
	}
}

func TestReplay_InvalidActions(t *testing.T) {
	tests := []struct {
		name    string
		actions string
		index   int
	}{
		{"push with no box", "rlR", 2},
		{"push into known empty cell", "rL", 1},
		{"step into box", "Rr", 1},
		{"box blocked by box", "RurrrdL", 6},
		{"malformed token", "rr?", 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, err := ReplayString(test.actions)
			if m != nil {
				t.Error("expected no map on failure")
			}
			if !errors.Is(err, ErrInvalidAction) {
				t.Fatalf("expected ErrInvalidAction, got %v", err)
			}
			var ae *ActionError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *ActionError, got %T", err)
			}
			if ae.Index != test.index {
				t.Errorf("expected failure at %d, got %d (%v)", test.index, ae.Index, err)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range []Direction{Up, Down, Left, Right} {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.String(), got, err)
		}
	}
	if _, err := ParseDirection("north"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestActionError_IndexUnits(t *testing.T) {
	// token errors count bytes of the input, whitespace included
	_, err := ParseActions("r r ?")
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Index != 4 {
		t.Fatalf("expected token error at byte 4, got %v", err)
	}

	// replay errors count actions, so whitespace does not shift them
	_, err = ReplayString("r lR")
	if !errors.As(err, &ae) || ae.Index != 2 || ae.Token != 'R' {
		t.Fatalf("expected replay error at action 2, got %v", err)
	}
}
