package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/grid"
)

// comparison is one row of the compare output
type comparison struct {
	engine.Result
	DurationMs float64 `json:"duration_ms"`
}

func runCompare(ctx context.Context, cmd *cli.Command) error {
	b, err := resolveBoard(cmd)
	if err != nil {
		return err
	}
	algorithms, err := parseAlgorithms(cmd.StringSlice("algorithms"))
	if err != nil {
		return err
	}

	g, start, end, err := b.Grid()
	if err != nil {
		return err
	}

	rows := make([]comparison, 0, len(algorithms))
	for _, a := range algorithms {
		began := time.Now()
		res, err := engine.Solve(ctx, g, start, end, a)
		if err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
		rows = append(rows, comparison{
			Result:     res,
			DurationMs: float64(time.Since(began).Microseconds()) / 1000,
		})
	}

	w := writer(cmd)
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Fprintf(w, "Board: %s\n", describe(b))
	fmt.Fprintf(w, "Start: (%d,%d)  End: (%d,%d)  Walls: %d\n\n", start.X, start.Y, end.X, end.Y, g.WallCount())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tSTATUS\tLENGTH\tEXPANDED\tSTEPS\tTIME")
	for _, row := range rows {
		length := "-"
		if row.Found() {
			length = fmt.Sprint(row.PathLength)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.3fms\n", row.Algorithm, row.Status, length, row.Expanded, row.Steps, row.DurationMs)
	}
	return tw.Flush()
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	b, err := resolveBoard(cmd)
	if err != nil {
		return err
	}
	algorithm, err := engine.ParseAlgorithm(cmd.String("algorithm"))
	if err != nil {
		return err
	}

	g, start, end, err := b.Grid()
	if err != nil {
		return err
	}
	run, err := engine.NewRun(g, start, end, algorithm, engine.WithSnapshots(false))
	if err != nil {
		return err
	}
	if err := run.Drive(ctx, func(engine.Record) error { return nil }); err != nil {
		return err
	}
	res := run.Result()

	overlay := grid.Overlay{Start: &start, End: &end, Path: res.Path}
	if !cmd.Bool("no-visited") {
		overlay.Visited = run.Closed()
	}

	w := writer(cmd)
	fmt.Fprintf(w, "%s on %s: %s", algorithm, describe(b), res.Status)
	if res.Found() {
		fmt.Fprintf(w, ", path length %d", res.PathLength)
	}
	fmt.Fprintf(w, ", %d expanded\n", res.Expanded)
	fmt.Fprintln(w, strings.Join(grid.Render(g, overlay), "\n"))
	return nil
}
