// Package tile defines what can occupy a grid cell and how each kind is
// presented.
//
// A cell holds a stack of kinds: one ground kind (Floor, Wall or Goal)
// optionally topped by an occupant (Box or Player). Box-on-goal and
// player-on-goal are therefore two-element stacks, not separate kinds.
//
// VisualOf maps a kind to its sprite atlas index and depth layer. The mapping
// is total over Kinds(); asking for an undeclared kind is a programming error
// and panics.
package tile
