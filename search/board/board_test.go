package board

import (
	"errors"
	"testing"

	"github.com/wricardo/gridsearch/search/grid"
)

func TestValidate(t *testing.T) {
	wall := grid.Position{X: 0, Y: 1}
	outside := grid.Position{X: 5, Y: 5}

	tests := []struct {
		name  string
		board Board
		valid bool
	}{
		{"classic", *Classic(), true},
		{"random", *Random(), true},
		{"missing name", Board{Rows: 2, Cols: 2}, false},
		{"zero rows", Board{Name: "x", Rows: 0, Cols: 2}, false},
		{"too large", Board{Name: "x", Rows: 201, Cols: 2}, false},
		{"density too high", Board{Name: "x", Rows: 2, Cols: 2, WallDensity: 0.95}, false},
		{"layout mismatch", Board{Name: "x", Rows: 3, Cols: 2, Layout: []string{"..", ".."}}, false},
		{"ragged layout", Board{Name: "x", Rows: 2, Cols: 2, Layout: []string{"..", "."}}, false},
		{"bad character", Board{Name: "x", Rows: 1, Cols: 2, Layout: []string{".x"}}, false},
		{"start on wall", Board{Name: "x", Rows: 1, Cols: 3, Layout: []string{".#."}, Start: &wall}, false},
		{"end outside", Board{Name: "x", Rows: 2, Cols: 2, End: &outside}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.board)
			if tt.valid && err != nil {
				t.Errorf("Expected valid board, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidBoard) {
				t.Errorf("Expected ErrInvalidBoard, got %v", err)
			}
		})
	}
}

func TestValidate_EndOutsideKeepsBoundsError(t *testing.T) {
	outside := grid.Position{X: 9, Y: 0}
	err := Validate(&Board{Name: "x", Rows: 2, Cols: 2, End: &outside})
	if !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("Expected wrapped ErrOutOfBounds, got %v", err)
	}
}

func TestGrid_ExplicitPositionsOverrideMarkers(t *testing.T) {
	start := grid.Position{X: 0, Y: 1}
	b := &Board{Name: "x", Rows: 1, Cols: 3, Layout: []string{"S.E"}, Start: &start}

	_, gotStart, gotEnd, err := b.Grid()
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if gotStart != start {
		t.Errorf("Expected explicit start %v, got %v", start, gotStart)
	}
	if gotEnd != (grid.Position{X: 0, Y: 2}) {
		t.Errorf("Expected layout end, got %v", gotEnd)
	}
}

func TestGrid_SeededWallsAreStable(t *testing.T) {
	b := &Board{Name: "x", Rows: 12, Cols: 12, WallDensity: 0.4, Seed: 99}
	a, _, _, err := b.Grid()
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	c, _, _, _ := b.Grid()
	if a.String() != c.String() {
		t.Error("Same seed must give the same walls")
	}
	if node, _ := a.NodeAt(11, 11); node.Wall {
		t.Error("Default end corner must stay open")
	}
}

func TestParse(t *testing.T) {
	b, err := Parse("maze.yaml", []byte(mazeYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if b.Name != "maze" || b.Rows != 3 {
		t.Errorf("Unexpected board %+v", b)
	}

	unnamed, err := Parse("dir/open.json", []byte(`{"rows": 4, "cols": 4}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if unnamed.Name != "open" {
		t.Errorf("Expected name from filename, got %q", unnamed.Name)
	}

	if _, err := Parse("x.json", []byte(`{`)); err == nil {
		t.Error("Expected parse error on truncated JSON")
	}
}
