package level

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/tile"
)

// ErrInvalidAction is returned for malformed or impossible moves
var ErrInvalidAction = errors.New("invalid action")

// ActionError locates the action that stopped a parse or a replay
type ActionError struct {
	// Index is 0-based. ParseActions reports the byte offset of the token
	// in the input; Replay reports the position of the action in the list.
	Index  int
	Token  rune // the token as written
	Reason string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %q at %d: %s", ErrInvalidAction, e.Token, e.Index, e.Reason)
}

func (e *ActionError) Unwrap() error {
	return ErrInvalidAction
}

// Direction is one of the four grid directions
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionDeltas = [...]grid.Vec{
	Up:    {X: 0, Y: -1},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
	Right: {X: 1, Y: 0},
}

var directionNames = [...]string{Up: "up", Down: "down", Left: "left", Right: "right"}

// Delta returns the unit offset of d
func (d Direction) Delta() grid.Vec {
	return directionDeltas[d]
}

func (d Direction) String() string {
	return directionNames[d]
}

// ParseDirection accepts "up", "down", "left" or "right"
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if name == s {
			return Direction(d), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Action is a single player move. Push marks a move that displaces a box.
type Action struct {
	Direction Direction
	Push      bool
}

// Rune returns the LURD token for a: lowercase steps, uppercase pushes
func (a Action) Rune() rune {
	r := rune("udlr"[a.Direction])
	if a.Push {
		return unicode.ToUpper(r)
	}
	return r
}

// Actions is a move sequence
type Actions []Action

func (as Actions) String() string {
	var sb strings.Builder
	for _, a := range as {
		sb.WriteRune(a.Rune())
	}
	return sb.String()
}

// ParseActions decodes a LURD string. Whitespace between tokens is ignored.
func ParseActions(s string) (Actions, error) {
	actions := make(Actions, 0, len(s))
	for i, ch := range s {
		if unicode.IsSpace(ch) {
			continue
		}
		var a Action
		switch ch {
		case 'u', 'U':
			a.Direction = Up
		case 'd', 'D':
			a.Direction = Down
		case 'l', 'L':
			a.Direction = Left
		case 'r', 'R':
			a.Direction = Right
		default:
			return nil, &ActionError{Index: i, Token: ch, Reason: "unrecognized token"}
		}
		a.Push = unicode.IsUpper(ch)
		actions = append(actions, a)
	}
	return actions, nil
}

// ReplayString parses and replays a LURD string
func ReplayString(s string) (*grid.Map, error) {
	actions, err := ParseActions(s)
	if err != nil {
		return nil, err
	}
	return Replay(actions)
}

// replayState is the growing world while actions are applied. Nothing here
// escapes Replay except the final map.
type replayState struct {
	player grid.Vec
	known  map[grid.Vec]bool
	boxes  map[grid.Vec]int // current position -> box id
	starts []grid.Vec       // box id -> initial position
}

// Replay derives the map that actions were played on. The player starts at
// the origin. A push into a cell never seen before implies a box started
// there; the final box positions become goals. The result is the tight
// bounding box of every visited cell, shifted so its corner is (0,0).
func Replay(actions Actions) (*grid.Map, error) {
	st := &replayState{
		known: map[grid.Vec]bool{{}: true},
		boxes: map[grid.Vec]int{},
	}

	for i, a := range actions {
		if err := st.apply(a); err != nil {
			return nil, &ActionError{Index: i, Token: a.Rune(), Reason: err.Error()}
		}
	}

	return st.build()
}

func (st *replayState) apply(a Action) error {
	d := a.Direction.Delta()
	dest := st.player.Add(d)

	if !a.Push {
		if _, ok := st.boxes[dest]; ok {
			return fmt.Errorf("box at %v blocks a plain move", dest)
		}
		st.player = dest
		st.known[dest] = true
		return nil
	}

	id, ok := st.boxes[dest]
	if !ok {
		if st.known[dest] {
			return fmt.Errorf("no box to push at %v", dest)
		}
		id = len(st.starts)
		st.starts = append(st.starts, dest)
	}

	beyond := dest.Add(d)
	if _, blocked := st.boxes[beyond]; blocked {
		return fmt.Errorf("box at %v is blocked by another box", dest)
	}

	delete(st.boxes, dest)
	st.boxes[beyond] = id
	st.known[beyond] = true
	st.known[dest] = true
	st.player = dest
	return nil
}

func (st *replayState) build() (*grid.Map, error) {
	lo, hi := grid.Vec{}, grid.Vec{}
	for p := range st.known {
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}

	b, err := grid.NewBuilder(hi.X-lo.X+1, hi.Y-lo.Y+1)
	if err != nil {
		return nil, err
	}

	initial := make(map[grid.Vec]bool, len(st.starts))
	for _, p := range st.starts {
		initial[p] = true
	}

	for p := range st.known {
		stack := grid.Stack{tile.Floor}
		if _, ok := st.boxes[p]; ok {
			stack[0] = tile.Goal
		}
		switch {
		case initial[p]:
			stack = append(stack, tile.Box)
		case p == (grid.Vec{}):
			stack = append(stack, tile.Player)
		}
		if err := b.Push(p.Sub(lo), stack...); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}
