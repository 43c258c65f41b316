package grid

import (
	"errors"
	"math/rand"
	"testing"
)

func TestBuild(t *testing.T) {
	g, err := Build(3, 4, NoWalls)
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}

	if g.Rows() != 3 || g.Cols() != 4 {
		t.Errorf("Expected 3x4 grid, got %dx%d", g.Rows(), g.Cols())
	}
	if g.Len() != 12 {
		t.Errorf("Expected 12 nodes, got %d", g.Len())
	}

	// Exactly one node per coordinate
	seen := make(map[Position]bool)
	for idx := 0; idx < g.Len(); idx++ {
		p := g.PositionOf(idx)
		if seen[p] {
			t.Errorf("Duplicate node at %v", p)
		}
		seen[p] = true
		back, err := g.Index(p)
		if err != nil || back != idx {
			t.Errorf("Index(%v) = %d, %v; expected %d", p, back, err, idx)
		}
	}
}

func TestBuild_InvalidDimensions(t *testing.T) {
	tests := []struct {
		rows, cols int
	}{
		{0, 5},
		{5, 0},
		{-1, 3},
	}

	for _, tt := range tests {
		_, err := Build(tt.rows, tt.cols, nil)
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("Build(%d, %d) error = %v, expected ErrInvalidDimensions", tt.rows, tt.cols, err)
		}
	}
}

func TestBuild_NeighborOrderAndSymmetry(t *testing.T) {
	g, err := Build(3, 3, NoWalls)
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}

	center, _ := g.NodeAt(1, 1)
	expected := []Position{{0, 1}, {2, 1}, {1, 0}, {1, 2}}
	if len(center.Neighbors) != len(expected) {
		t.Fatalf("Expected %d neighbors, got %d", len(expected), len(center.Neighbors))
	}
	for i, p := range expected {
		if center.Neighbors[i] != p {
			t.Errorf("Neighbor %d: expected %v, got %v", i, p, center.Neighbors[i])
		}
	}

	corner, _ := g.NodeAt(0, 0)
	if len(corner.Neighbors) != 2 {
		t.Errorf("Corner should have 2 neighbors, got %d", len(corner.Neighbors))
	}

	for a := 0; a < g.Len(); a++ {
		for _, b := range g.Neighbors(a) {
			found := false
			for _, back := range g.Neighbors(b) {
				if back == a {
					found = true
				}
			}
			if !found {
				t.Errorf("Adjacency not symmetric: %v -> %v", g.PositionOf(a), g.PositionOf(b))
			}
		}
	}
}

func TestBuild_WallPredicate(t *testing.T) {
	g, err := Build(3, 3, func(i, j int) bool { return i == 1 })
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}

	for j := 0; j < 3; j++ {
		node, _ := g.NodeAt(1, j)
		if !node.Wall {
			t.Errorf("Expected wall at (1,%d)", j)
		}
	}
	if g.WallCount() != 3 {
		t.Errorf("Expected 3 walls, got %d", g.WallCount())
	}
}

func TestToggleWall(t *testing.T) {
	g, _ := Build(2, 2, NoWalls)
	before := len(g.Neighbors(0))

	if err := g.ToggleWall(0, 1); err != nil {
		t.Fatalf("ToggleWall failed: %v", err)
	}
	node, _ := g.NodeAt(0, 1)
	if !node.Wall {
		t.Error("Expected wall after toggle")
	}
	if len(g.Neighbors(0)) != before {
		t.Error("Toggle must not alter neighbor links")
	}

	g.ToggleWall(0, 1)
	node, _ = g.NodeAt(0, 1)
	if node.Wall {
		t.Error("Expected open cell after second toggle")
	}
}

func TestOutOfBounds(t *testing.T) {
	g, _ := Build(2, 3, NoWalls)

	if err := g.ToggleWall(2, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("ToggleWall out of bounds: expected ErrOutOfBounds, got %v", err)
	}
	if _, err := g.NodeAt(0, 3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("NodeAt out of bounds: expected ErrOutOfBounds, got %v", err)
	}
	if _, err := g.NodeAt(-1, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("NodeAt negative: expected ErrOutOfBounds, got %v", err)
	}
	if err := g.SetWall(5, 5, true); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetWall out of bounds: expected ErrOutOfBounds, got %v", err)
	}
}

func TestClone(t *testing.T) {
	g, _ := Build(3, 3, NoWalls)
	clone := g.Clone()

	g.ToggleWall(1, 1)
	node, _ := clone.NodeAt(1, 1)
	if node.Wall {
		t.Error("Clone must not observe walls toggled on the original")
	}

	clone.ClearWalls()
	if g.WallCount() != 1 {
		t.Error("Clearing the clone must not affect the original")
	}
}

func TestRandomWalls_KeepsPositionsOpen(t *testing.T) {
	start := Position{X: 0, Y: 0}
	end := Position{X: 9, Y: 9}
	g, err := Build(10, 10, RandomWalls(1.0, rand.New(rand.NewSource(7)), start, end))
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}

	if g.WallCount() != 98 {
		t.Errorf("Expected 98 walls at density 1.0, got %d", g.WallCount())
	}
	for _, p := range []Position{start, end} {
		node, _ := g.NodeAt(p.X, p.Y)
		if node.Wall {
			t.Errorf("Kept position %v should be open", p)
		}
	}
}

func TestRandomWalls_Deterministic(t *testing.T) {
	a, _ := Build(8, 8, RandomWalls(0.3, rand.New(rand.NewSource(42))))
	b, _ := Build(8, 8, RandomWalls(0.3, rand.New(rand.NewSource(42))))
	if a.String() != b.String() {
		t.Error("Same seed should produce the same board")
	}
}

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout([]string{
		"S..",
		"###",
		"..E",
	})
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}

	if layout.Rows != 3 || layout.Cols != 3 {
		t.Errorf("Expected 3x3 layout, got %dx%d", layout.Rows, layout.Cols)
	}
	if layout.Start == nil || *layout.Start != (Position{0, 0}) {
		t.Errorf("Unexpected start: %v", layout.Start)
	}
	if layout.End == nil || *layout.End != (Position{2, 2}) {
		t.Errorf("Unexpected end: %v", layout.End)
	}
	if len(layout.Walls) != 3 {
		t.Errorf("Expected 3 walls, got %d", len(layout.Walls))
	}

	g, _ := Build(layout.Rows, layout.Cols, layout.WallFunc())
	if g.String() != "...\n###\n..." {
		t.Errorf("Unexpected render:\n%s", g.String())
	}
}

func TestParseLayout_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
	}{
		{"empty", nil},
		{"ragged", []string{"...", ".."}},
		{"bad char", []string{"..x"}},
		{"two starts", []string{"S.S"}},
		{"two ends", []string{"E", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLayout(tt.layout); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestRender_Overlay(t *testing.T) {
	g, _ := Build(2, 3, func(i, j int) bool { return i == 1 && j == 1 })
	start := Position{0, 0}
	end := Position{0, 2}

	lines := Render(g, Overlay{
		Start:    &start,
		End:      &end,
		Path:     []Position{{0, 0}, {0, 1}, {0, 2}},
		Frontier: []Position{{1, 2}},
		Visited:  []Position{{1, 0}},
	})

	expected := []string{"S*E", "o#+"}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("Row %d: expected %q, got %q", i, expected[i], lines[i])
		}
	}
}

func TestManhattanDistance(t *testing.T) {
	tests := []struct {
		a, b     Position
		expected int
	}{
		{Position{0, 0}, Position{2, 2}, 4},
		{Position{3, 1}, Position{1, 4}, 5},
		{Position{5, 5}, Position{5, 5}, 0},
	}

	for _, tt := range tests {
		if got := ManhattanDistance(tt.a, tt.b); got != tt.expected {
			t.Errorf("ManhattanDistance(%v, %v) = %d, expected %d", tt.a, tt.b, got, tt.expected)
		}
	}

	if !AreNeighbors(Position{1, 1}, Position{1, 2}) {
		t.Error("Expected (1,1) and (1,2) to be neighbors")
	}
	if AreNeighbors(Position{1, 1}, Position{2, 2}) {
		t.Error("Diagonal cells are not neighbors")
	}
}
