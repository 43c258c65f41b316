package grid

import "errors"

var (
	ErrOutOfBounds        = errors.New("coordinate out of bounds")
	ErrInvalidDimensions  = errors.New("grid dimensions must be positive")
	ErrLayoutInconsistent = errors.New("layout rows must have equal length")
)

// Size limits applied to generated and loaded boards
const (
	MinDimension = 1
	MaxDimension = 200
)

// Position represents x,y coordinates. X is the row index, Y the column index.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Node is a read-only view of a single grid cell
type Node struct {
	Position  Position   `json:"position"`
	Wall      bool       `json:"wall"`
	Neighbors []Position `json:"neighbors"`
}

// WallFunc decides whether the cell at row i, column j starts as a wall
type WallFunc func(i, j int) bool
