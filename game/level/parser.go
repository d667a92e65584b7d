package level

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strings"

	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/tile"
)

var (
	ErrRaggedBlock   = errors.New("rows have different widths")
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrBadRunLength  = errors.New("bad run length")
)

// ParseError reports why one level block was rejected
type ParseError struct {
	Source string
	Block  int // 1-based block number
	Line   int // 1-based line in the source text
	Column int // 1-based column, 0 when not applicable
	Err    error
}

func (e *ParseError) Error() string {
	pos := fmt.Sprintf("%s:%d", e.Source, e.Line)
	if e.Column > 0 {
		pos = fmt.Sprintf("%s:%d", pos, e.Column)
	}
	return fmt.Sprintf("%s: block %d: %v", pos, e.Block, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var metadataLine = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _-]*):\s*(.*)$`)

// symbols maps each level character to the stack it produces
var symbols = map[rune]grid.Stack{
	'#': {tile.Wall},
	' ': {tile.Floor},
	'-': {tile.Floor},
	'_': {tile.Floor},
	'$': {tile.Floor, tile.Box},
	'.': {tile.Goal},
	'@': {tile.Floor, tile.Player},
	'*': {tile.Goal, tile.Box},
	'+': {tile.Goal, tile.Player},
}

type sourceLine struct {
	num  int
	text string
}

type row struct {
	line  int
	cells []rune
}

// Parse lazily yields one result per level block in text. Errors are
// *ParseError values and only ever concern their own block.
func Parse(source, text string) iter.Seq2[*Level, error] {
	return func(yield func(*Level, error) bool) {
		block := 0
		var pending []sourceLine

		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			lines := pending
			pending = nil
			lvl, err := parseBlock(source, block+1, lines)
			if lvl == nil && err == nil {
				// comments and metadata only
				return true
			}
			block++
			return yield(lvl, err)
		}

		for i, line := range strings.Split(text, "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				if !flush() {
					return
				}
				continue
			}
			pending = append(pending, sourceLine{num: i + 1, text: line})
		}
		flush()
	}
}

// ParseAll collects every level of text, returning successes and failures
// separately.
func ParseAll(source, text string) ([]*Level, []error) {
	var levels []*Level
	var errs []error
	for lvl, err := range Parse(source, text) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		levels = append(levels, lvl)
	}
	return levels, errs
}

func parseBlock(source string, block int, lines []sourceLine) (*Level, error) {
	fail := func(line, col int, err error) (*Level, error) {
		return nil, &ParseError{Source: source, Block: block, Line: line, Column: col, Err: err}
	}

	var rows []row
	var comments []string
	metadata := map[string]string{}

	for _, l := range lines {
		switch {
		case strings.HasPrefix(l.text, ";"):
			comments = append(comments, strings.TrimSpace(strings.TrimPrefix(l.text, ";")))
			continue
		case metadataLine.MatchString(l.text):
			m := metadataLine.FindStringSubmatch(l.text)
			metadata[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
			continue
		}

		for _, segment := range strings.Split(l.text, "|") {
			cells, col, err := expandRunLength(segment)
			if err != nil {
				return fail(l.num, col, err)
			}
			rows = append(rows, row{line: l.num, cells: cells})
		}
	}

	if len(rows) == 0 {
		return nil, nil
	}

	width := len(rows[0].cells)
	for _, r := range rows[1:] {
		if len(r.cells) != width {
			return fail(r.line, 0, fmt.Errorf("%w: expected %d, got %d", ErrRaggedBlock, width, len(r.cells)))
		}
	}

	b, err := grid.NewBuilder(width, len(rows))
	if err != nil {
		return fail(rows[0].line, 0, err)
	}
	for y, r := range rows {
		for x, ch := range r.cells {
			stack, ok := symbols[ch]
			if !ok {
				return fail(r.line, x+1, fmt.Errorf("%w %q", ErrUnknownSymbol, ch))
			}
			if err := b.Push(grid.Vec{X: x, Y: y}, stack...); err != nil {
				return fail(r.line, x+1, err)
			}
		}
	}

	name := metadata["Title"]
	if name == "" {
		name = fmt.Sprintf("%s#%d", source, block)
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	return &Level{
		Index:    block,
		Name:     name,
		Source:   source,
		Metadata: metadata,
		Comments: comments,
		Map:      b.Build(),
	}, nil
}

// MaxRunLength bounds a single repeat count
const MaxRunLength = 1 << 16

// expandRunLength decodes "3#-$" style rows. On error the returned column
// points at the offending character.
func expandRunLength(s string) ([]rune, int, error) {
	var out []rune
	count := 0
	haveCount := false
	col := 0
	for _, ch := range s {
		col++
		if ch >= '0' && ch <= '9' {
			count = count*10 + int(ch-'0')
			haveCount = true
			if count > MaxRunLength {
				return nil, col, fmt.Errorf("%w: repeat count above %d", ErrBadRunLength, MaxRunLength)
			}
			continue
		}
		n := 1
		if haveCount {
			if count == 0 {
				return nil, col, fmt.Errorf("%w: zero repeat", ErrBadRunLength)
			}
			n = count
		}
		for i := 0; i < n; i++ {
			out = append(out, ch)
		}
		count, haveCount = 0, false
	}
	if haveCount {
		return nil, col, fmt.Errorf("%w: count without symbol", ErrBadRunLength)
	}
	return out, 0, nil
}
