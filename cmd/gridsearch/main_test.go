package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/gridsearch/search/engine"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), append([]string{"gridsearch"}, args...))
	return out.String(), err
}

func TestCompareGeneratedBoard(t *testing.T) {
	out, err := run(t, "compare", "--rows", "5", "--cols", "5", "--density", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "Board: generated (5x5)")
	assert.Contains(t, out, "Start: (0,0)  End: (4,4)  Walls: 0")
	for _, name := range []string{"astar", "dijkstra", "bfs", "dfs"} {
		assert.Contains(t, out, name)
	}
}

func TestCompareJSON(t *testing.T) {
	out, err := run(t, "compare", "--rows", "6", "--density", "0", "--algorithms", "astar,bfs", "--json")
	require.NoError(t, err)

	var rows []comparison
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, engine.AStar, rows[0].Algorithm)
	assert.Equal(t, engine.BFS, rows[1].Algorithm)
	for _, r := range rows {
		assert.Equal(t, engine.StatusSucceeded, r.Status)
		assert.Equal(t, 10, r.PathLength, "cols default to rows, so the path is 5+5 moves")
	}
}

func TestCompareRejectsUnknownAlgorithm(t *testing.T) {
	_, err := run(t, "compare", "--rows", "3", "--algorithms", "greedy")
	assert.ErrorIs(t, err, engine.ErrInvalidAlgorithm)
}

func TestCompareBuiltinBoard(t *testing.T) {
	// no boards directory in the package, so built-ins are used
	out, err := run(t, "compare", "--board", "classic", "--algorithms", "bfs")
	require.NoError(t, err)
	assert.Contains(t, out, "Board: classic (30x70)")
	assert.Contains(t, out, "Start: (10,15)  End: (10,35)")
}

func TestRender(t *testing.T) {
	out, err := run(t, "render", "--rows", "3", "--density", "0", "--algorithm", "bfs")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "bfs on generated (3x3): succeeded, path length 4, 8 expanded", lines[0])
	assert.Equal(t, []string{"Soo", "*oo", "**E"}, lines[1:])

	out, err = run(t, "render", "--rows", "3", "--density", "0", "-a", "bfs", "--no-visited")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"S..", "*..", "**E"}, lines[1:])
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"maze.yaml": "name: maze\nlayout:\n  - \"S.#\"\n  - \".#.\"\n  - \"..E\"\n",
		"walled.json": `{"name":"walled","layout":["S#.","#..","..E"]}`,
		"bad.json":    `{"name":"bad","rows":0,"cols":3}`,
		"notes.txt":   "ignored",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	out, err := run(t, "validate", dir)
	require.Error(t, err, "an invalid board must fail the command")

	assert.Contains(t, out, "FAIL bad.json")
	assert.Contains(t, out, "ok   maze.yaml: maze (3x3) [shortest path 4]")
	assert.Contains(t, out, "ok   walled.json: walled (3x3) [end is not reachable from start]")
	assert.Contains(t, out, "3 boards checked, 1 invalid")
	assert.NotContains(t, out, "notes.txt")
}

func TestValidateAllGood(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "open.json"), []byte(`{"name":"open","rows":4,"cols":4}`), 0644))

	out, err := run(t, "--boards-dir", dir, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "1 boards checked, 0 invalid")
}

func TestValidateMissingDir(t *testing.T) {
	_, err := run(t, "validate", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
