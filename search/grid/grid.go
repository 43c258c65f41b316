package grid

import "fmt"

// Grid is a fixed-size rows x cols table of nodes. Shape and adjacency never
// change after Build; only walls are mutable.
type Grid struct {
	rows      int
	cols      int
	walls     []bool
	neighbors [][]int // shared between clones, never mutated
}

// Build allocates a node for every (i, j) with 0 <= i < rows and 0 <= j < cols,
// sets its wall flag from isWall and links the in-bounds up, down, left and
// right neighbors in that order.
func Build(rows, cols int, isWall WallFunc) (*Grid, error) {
	if rows < MinDimension || cols < MinDimension {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if isWall == nil {
		isWall = NoWalls
	}

	g := &Grid{
		rows:      rows,
		cols:      cols,
		walls:     make([]bool, rows*cols),
		neighbors: make([][]int, rows*cols),
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			idx := i*cols + j
			g.walls[idx] = isWall(i, j)

			links := make([]int, 0, 4)
			if i > 0 {
				links = append(links, idx-cols)
			}
			if i < rows-1 {
				links = append(links, idx+cols)
			}
			if j > 0 {
				links = append(links, idx-1)
			}
			if j < cols-1 {
				links = append(links, idx+1)
			}
			g.neighbors[idx] = links
		}
	}

	return g, nil
}

// Rows returns the number of rows
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns
func (g *Grid) Cols() int { return g.cols }

// Len returns the number of nodes
func (g *Grid) Len() int { return len(g.walls) }

// InBounds reports whether (x, y) is a valid coordinate
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.rows && y >= 0 && y < g.cols
}

// Index converts a position to its node index
func (g *Grid) Index(p Position) (int, error) {
	if !g.InBounds(p.X, p.Y) {
		return -1, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, p.X, p.Y, g.rows, g.cols)
	}
	return p.X*g.cols + p.Y, nil
}

// PositionOf converts a node index back to its coordinates
func (g *Grid) PositionOf(idx int) Position {
	return Position{X: idx / g.cols, Y: idx % g.cols}
}

// Neighbors returns the neighbor indexes of idx. The slice must not be modified.
func (g *Grid) Neighbors(idx int) []int {
	return g.neighbors[idx]
}

// IsWall reports the wall flag of the node at idx
func (g *Grid) IsWall(idx int) bool {
	return g.walls[idx]
}

// NodeAt returns a view of the node at (x, y)
func (g *Grid) NodeAt(x, y int) (Node, error) {
	idx, err := g.Index(Position{X: x, Y: y})
	if err != nil {
		return Node{}, err
	}

	links := g.neighbors[idx]
	neighbors := make([]Position, len(links))
	for i, n := range links {
		neighbors[i] = g.PositionOf(n)
	}

	return Node{
		Position:  Position{X: x, Y: y},
		Wall:      g.walls[idx],
		Neighbors: neighbors,
	}, nil
}

// ToggleWall flips the wall flag at (x, y). Neighbor links are untouched.
func (g *Grid) ToggleWall(x, y int) error {
	idx, err := g.Index(Position{X: x, Y: y})
	if err != nil {
		return err
	}
	g.walls[idx] = !g.walls[idx]
	return nil
}

// SetWall sets the wall flag at (x, y)
func (g *Grid) SetWall(x, y int, wall bool) error {
	idx, err := g.Index(Position{X: x, Y: y})
	if err != nil {
		return err
	}
	g.walls[idx] = wall
	return nil
}

// ClearWalls removes every wall
func (g *Grid) ClearWalls() {
	for i := range g.walls {
		g.walls[i] = false
	}
}

// Walls returns the positions of all wall cells in row-major order
func (g *Grid) Walls() []Position {
	var walls []Position
	for idx, wall := range g.walls {
		if wall {
			walls = append(walls, g.PositionOf(idx))
		}
	}
	return walls
}

// WallCount returns the number of wall cells
func (g *Grid) WallCount() int {
	count := 0
	for _, wall := range g.walls {
		if wall {
			count++
		}
	}
	return count
}

// Clone returns a copy whose walls can change independently. Adjacency is shared.
func (g *Grid) Clone() *Grid {
	walls := make([]bool, len(g.walls))
	copy(walls, g.walls)
	return &Grid{
		rows:      g.rows,
		cols:      g.cols,
		walls:     walls,
		neighbors: g.neighbors,
	}
}
