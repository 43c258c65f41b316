package board

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/gridsearch/search/grid"
)

func writeBoardFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write board file: %v", err)
	}
}

const mazeYAML = `name: maze
description: Small maze
layout:
  - "S..#."
  - ".#..."
  - "...#E"
`

const corridorJSON = `{
  "name": "corridor",
  "description": "Single row",
  "rows": 1,
  "cols": 4,
  "layout": ["S..E"]
}`

func TestNewManager_MissingDir(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestManager_Builtins(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	classic := m.Default()
	if classic.Rows != 30 || classic.Cols != 70 {
		t.Errorf("Expected 30x70 classic board, got %dx%d", classic.Rows, classic.Cols)
	}
	g, start, end, err := classic.Grid()
	if err != nil {
		t.Fatalf("classic.Grid failed: %v", err)
	}
	if g.WallCount() != 0 {
		t.Errorf("Classic board should have no walls, got %d", g.WallCount())
	}
	if start != (grid.Position{X: 10, Y: 15}) || end != (grid.Position{X: 10, Y: 35}) {
		t.Errorf("Unexpected classic start/end: %v %v", start, end)
	}

	random, err := m.Load("random")
	if err != nil {
		t.Fatalf("Load(random) failed: %v", err)
	}
	g, start, end, err = random.Grid()
	if err != nil {
		t.Fatalf("random.Grid failed: %v", err)
	}
	if g.WallCount() == 0 {
		t.Error("Random board should have walls")
	}
	for _, p := range []grid.Position{start, end} {
		node, _ := g.NodeAt(p.X, p.Y)
		if node.Wall {
			t.Errorf("Random board must keep %v open", p)
		}
	}

	if _, err := m.Load("missing"); !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
}

func TestManager_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "maze.yaml", mazeYAML)
	writeBoardFile(t, dir, "corridor.json", corridorJSON)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	maze, err := m.Load("maze")
	if err != nil {
		t.Fatalf("Load(maze) failed: %v", err)
	}
	if maze.Rows != 3 || maze.Cols != 5 {
		t.Errorf("Rows/Cols should come from layout, got %dx%d", maze.Rows, maze.Cols)
	}
	g, start, end, err := maze.Grid()
	if err != nil {
		t.Fatalf("maze.Grid failed: %v", err)
	}
	if g.WallCount() != 3 {
		t.Errorf("Expected 3 walls, got %d", g.WallCount())
	}
	if start != (grid.Position{X: 0, Y: 0}) || end != (grid.Position{X: 2, Y: 4}) {
		t.Errorf("Unexpected markers: %v %v", start, end)
	}

	corridor, err := m.Load("corridor.json")
	if err != nil {
		t.Fatalf("Load(corridor.json) failed: %v", err)
	}
	if corridor.Name != "corridor" {
		t.Errorf("Unexpected name %q", corridor.Name)
	}

	again, _ := m.Load("corridor")
	if again != corridor {
		t.Error("Second load should come from cache")
	}
}

func TestManager_List(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "maze.yml", mazeYAML)
	writeBoardFile(t, dir, "broken.json", `{"name": "broken", "rows": 0}`)
	writeBoardFile(t, dir, "notes.txt", "ignored")

	m, _ := NewManager(dir)
	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	expected := []string{"classic", "maze", "random"}
	if len(ids) != len(expected) {
		t.Fatalf("Expected boards %v, got %v", expected, ids)
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Errorf("Board %d: expected %s, got %s", i, expected[i], ids[i])
		}
	}
	if !infos[0].Builtin || infos[1].Builtin {
		t.Error("Builtin flag mismatch")
	}
	if infos[1].Filename != "maze.yml" {
		t.Errorf("Expected filename maze.yml, got %q", infos[1].Filename)
	}
}

func TestManager_FileShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "classic.json", `{"name": "classic", "rows": 2, "cols": 2}`)

	m, _ := NewManager(dir)
	b := m.Default()
	if b.Rows != 2 {
		t.Errorf("Expected file board to shadow builtin, got %dx%d", b.Rows, b.Cols)
	}
}

func TestManager_Save(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	b := &Board{Name: "small", Layout: []string{"S.", ".E"}}
	if err := m.Save("small.yaml", b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "small.yaml")); err != nil {
		t.Fatalf("Expected small.yaml on disk: %v", err)
	}

	m.RefreshCache()
	loaded, err := m.Load("small")
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded.Rows != 2 || loaded.Cols != 2 || len(loaded.Layout) != 2 {
		t.Errorf("Unexpected round trip: %+v", loaded)
	}

	if err := m.Save("../escape", b); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("Expected ErrInvalidBoard for path name, got %v", err)
	}
	if err := m.Save("bad", &Board{Name: "bad", Rows: 500, Cols: 1}); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("Expected ErrInvalidBoard for oversize board, got %v", err)
	}
}

func TestManager_LoadRejectsPathNames(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "boards")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeBoardFile(t, root, "outside.json", corridorJSON)
	m, _ := NewManager(dir)

	for _, name := range []string{"../outside", `..\outside`, "sub/outside", ".."} {
		if _, err := m.Load(name); !errors.Is(err, ErrBoardNotFound) {
			t.Errorf("Load(%q): expected ErrBoardNotFound, got %v", name, err)
		}
	}

	writeBoardFile(t, dir, "inside.json", corridorJSON)
	if _, err := m.Load("inside"); err != nil {
		t.Errorf("Expected plain name to load: %v", err)
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "maze.yaml", mazeYAML)
	m, _ := NewManager(dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Load("maze"); err != nil {
				t.Errorf("Concurrent load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
