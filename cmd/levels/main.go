// Command levels inspects a directory of XSB level files. It lists levels,
// prints one level with its tile visuals, replays move strings into maps and
// validates that every level parses and is playable in principle:
//   - exactly one player
//   - at least one box and as many goals as boxes
//   - every box and goal reachable from the player through non-wall cells
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/sokoban/game/database"
	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/tile"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "levels",
		Usage:  "inspect Sokoban level files",
		Writer: w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "levels",
				Usage:   "directory of level files",
				Sources: cli.EnvVars("LEVEL_DIR"),
			},
			&cli.StringSliceFlag{
				Name:  "ext",
				Usage: "only load files with these extensions (e.g. .xsb)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list every level in load order",
				Action: listAction,
			},
			{
				Name:      "show",
				Usage:     "print a level by index or title",
				ArgsUsage: "<index|title>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "visuals",
						Usage: "also print atlas index, layer and source rectangle of every tile",
					},
				},
				Action: showAction,
			},
			{
				Name:      "replay",
				Usage:     "build a map from a LURD move string",
				ArgsUsage: "<actions>",
				Action:    replayAction,
			},
			{
				Name:   "validate",
				Usage:  "check that every file parses and every level is playable",
				Action: validateAction,
			},
		},
	}
}

func loadDatabase(cmd *cli.Command, opts ...database.Option) (*database.Database, error) {
	if exts := cmd.StringSlice("ext"); len(exts) > 0 {
		opts = append(opts, database.WithExtensions(exts...))
	}
	return database.Load(cmd.String("dir"), opts...)
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	db, err := loadDatabase(cmd, database.WithoutLogging())
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	for i, lvl := range db.Levels() {
		dims := lvl.Map.Dimensions()
		fmt.Fprintf(w, "%3d  %-24s %3dx%-3d boxes=%d goals=%d  %s#%d\n",
			i, lvl.Name, dims.X, dims.Y, lvl.Map.Count(tile.Box), lvl.Map.Count(tile.Goal), lvl.Source, lvl.Index)
	}
	if skipped := len(db.Skipped()); skipped > 0 {
		fmt.Fprintf(w, "(%d blocks skipped, run validate for details)\n", skipped)
	}
	return nil
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("show expects exactly one level index or title")
	}
	db, err := loadDatabase(cmd, database.WithoutLogging())
	if err != nil {
		return err
	}

	lvl, err := lookupLevel(db, cmd.Args().First())
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	fmt.Fprint(w, level.FormatLevel(lvl))
	if cmd.Bool("visuals") {
		fmt.Fprintln(w)
		return printVisuals(w, lvl.Map)
	}
	return nil
}

// lookupLevel resolves a database index, falling back to a title lookup
func lookupLevel(db *database.Database, ref string) (*level.Level, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		return db.At(i)
	}
	return db.Find(ref)
}

func printVisuals(w io.Writer, m *grid.Map) error {
	var err error
	m.Each(func(p grid.Vec, s grid.Stack) {
		if err != nil {
			return
		}
		for _, kind := range s {
			v := tile.VisualOf(kind)
			r, rerr := tile.DefaultAtlas.Rect(v.AtlasIndex)
			if rerr != nil {
				err = fmt.Errorf("tile %s at %v: %w", kind, p, rerr)
				return
			}
			fmt.Fprintf(w, "%v %-6s atlas=%-2d layer=%-10s src=%v\n", p, kind, v.AtlasIndex, v.Layer, r)
		}
	})
	return err
}

func replayAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("replay expects a move string")
	}
	// moves may be split over several arguments; whitespace is ignored anyway
	var moves string
	for _, arg := range cmd.Args().Slice() {
		moves += arg
	}

	m, err := level.ReplayString(moves)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.Root().Writer, level.Format(m))
	return nil
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	db, err := loadDatabase(cmd, database.WithoutLogging())
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	failed := 0
	for _, skipped := range db.Skipped() {
		fmt.Fprintf(w, "✗ %v\n", skipped)
		failed++
	}

	for _, lvl := range db.Levels() {
		result := validateLevel(lvl)
		if result.Valid {
			fmt.Fprintf(w, "✓ %s\n", result.Level)
			continue
		}
		failed++
		fmt.Fprintf(w, "✗ %s\n", result.Level)
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "    - %s\n", msg)
		}
	}

	fmt.Fprintf(w, "\n%d levels loaded, %d problems\n", db.Len(), failed)
	if failed > 0 {
		return fmt.Errorf("validation failed: %d problems", failed)
	}
	return nil
}
