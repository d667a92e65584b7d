package tile

import "fmt"

// Kind represents what occupies one layer of a grid cell
type Kind string

const (
	Floor  Kind = "floor"
	Wall   Kind = "wall"
	Box    Kind = "box"
	Goal   Kind = "goal"
	Player Kind = "player"
)

// kinds lists the vocabulary in declaration order
var kinds = []Kind{Floor, Wall, Box, Goal, Player}

// Kinds returns every declared tile kind
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind converts a kind name into a Kind
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown tile kind %q", s)
}

// IsGround reports whether k forms the bottom layer of a cell
func (k Kind) IsGround() bool {
	return k == Floor || k == Wall || k == Goal
}

// IsOccupant reports whether k sits on top of a ground layer
func (k Kind) IsOccupant() bool {
	return k == Box || k == Player
}

func (k Kind) String() string {
	return string(k)
}
