// Command gridsearch runs the search engines from the command line.
//
// Subcommands:
//   - compare: run several algorithms on one board and tabulate the results
//   - validate: check every board file in a directory
//   - render: draw a board with the path and expanded cells of one search
//
// Boards come from a preset (--board, see the boards directory or the built-in
// "classic" and "random") or are generated with --rows, --cols, --density and
// --seed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/engine"
)

const version = "1.0.0"

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree writing results to w
func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "gridsearch",
		Usage:   "compare, validate and render grid searches",
		Version: version,
		Writer:  w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "boards-dir",
				Value:   "boards",
				Usage:   "directory containing board presets",
				Sources: cli.EnvVars("BOARDS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "compare",
				Usage: "run algorithms on the same board and compare path length and work",
				Flags: append(boardFlags(),
					&cli.StringSliceFlag{
						Name:  "algorithms",
						Usage: "algorithms to run (default all)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print results as JSON",
					},
				),
				Action: runCompare,
			},
			{
				Name:      "validate",
				Usage:     "validate board files",
				ArgsUsage: "[DIR]",
				Action:    runValidate,
			},
			{
				Name:  "render",
				Usage: "draw a board with the result of one search",
				Flags: append(boardFlags(),
					&cli.StringFlag{
						Name:    "algorithm",
						Aliases: []string{"a"},
						Value:   "astar",
						Usage:   "algorithm to run",
					},
					&cli.BoolFlag{
						Name:  "no-visited",
						Usage: "only draw the path",
					},
				),
				Action: runRender,
			},
		},
	}
}

func boardFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "board",
			Usage: "board preset name",
			Value: board.DefaultName,
		},
		&cli.IntFlag{
			Name:  "rows",
			Usage: "generate a random board with this many rows",
		},
		&cli.IntFlag{
			Name:  "cols",
			Usage: "columns of the generated board",
		},
		&cli.FloatFlag{
			Name:  "density",
			Value: 0.3,
			Usage: "wall density of the generated board",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "seed of the generated board",
		},
	}
}

// resolveBoard loads the preset named by --board, or generates one when --rows
// is given
func resolveBoard(cmd *cli.Command) (*board.Board, error) {
	if rows := int(cmd.Int("rows")); rows > 0 {
		cols := int(cmd.Int("cols"))
		if cols <= 0 {
			cols = rows
		}
		b := &board.Board{
			Name:        "generated",
			Rows:        rows,
			Cols:        cols,
			WallDensity: cmd.Float("density"),
			Seed:        cmd.Int64("seed"),
		}
		if err := board.Validate(b); err != nil {
			return nil, err
		}
		return b, nil
	}

	manager, err := openBoards(cmd)
	if err != nil {
		return nil, err
	}
	return manager.Load(cmd.String("board"))
}

// openBoards falls back to built-in boards when the default directory is absent
func openBoards(cmd *cli.Command) (*board.Manager, error) {
	dir := cmd.String("boards-dir")
	if _, err := os.Stat(dir); err != nil && !cmd.IsSet("boards-dir") {
		log.WithField("dir", dir).Debug("Boards directory not found, using built-in boards")
		dir = ""
	}
	return board.NewManager(dir)
}

func parseAlgorithms(names []string) ([]engine.Algorithm, error) {
	if len(names) == 0 {
		return engine.All(), nil
	}
	var out []engine.Algorithm
	for _, name := range names {
		// accept --algorithms astar,bfs as well as repeated flags
		for _, part := range strings.Split(name, ",") {
			a, err := engine.ParseAlgorithm(part)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}
	return out, nil
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func describe(b *board.Board) string {
	if b.WallDensity > 0 && len(b.Layout) == 0 {
		return fmt.Sprintf("%s (%dx%d, density %.2f, seed %d)", b.Name, b.Rows, b.Cols, b.WallDensity, b.Seed)
	}
	return fmt.Sprintf("%s (%dx%d)", b.Name, b.Rows, b.Cols)
}
