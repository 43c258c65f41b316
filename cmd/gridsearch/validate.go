package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/engine"
)

// ValidationResult captures the outcome of validating a single file. Notes are
// informational and never make a board invalid.
type ValidationResult struct {
	File  string
	Valid bool
	Error string
	Notes []string
	Board *board.Board
}

// validateFile parses and validates one board file, then checks that its end
// is reachable from its start
func validateFile(ctx context.Context, path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	b, err := board.Parse(path, data)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Valid = true
	result.Board = b

	g, start, end, err := b.Grid()
	if err != nil {
		// Parse already validated the same board
		result.Valid = false
		result.Error = err.Error()
		return result
	}
	res, err := engine.Solve(ctx, g, start, end, engine.BFS)
	if err != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("reachability check failed: %v", err))
		return result
	}
	if res.Found() {
		result.Notes = append(result.Notes, fmt.Sprintf("shortest path %d", res.PathLength))
	} else {
		result.Notes = append(result.Notes, "end is not reachable from start")
	}
	return result
}

// validateDir validates every board file in dir, sorted by name
func validateDir(ctx context.Context, dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read boards directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, name := range files {
		results = append(results, validateFile(ctx, filepath.Join(dir, name)))
	}
	return results, nil
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = cmd.String("boards-dir")
	}

	results, err := validateDir(ctx, dir)
	if err != nil {
		return err
	}

	w := writer(cmd)
	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
			fmt.Fprintf(w, "FAIL %s: %s\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(w, "ok   %s: %s", r.File, describe(r.Board))
		if len(r.Notes) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(r.Notes, "; "))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d boards checked, %d invalid\n", len(results), invalid)

	if invalid > 0 {
		return fmt.Errorf("%d invalid board files in %s", invalid, dir)
	}
	return nil
}
