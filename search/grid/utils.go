package grid

import (
	"fmt"
	"math/rand"
	"strings"
)

// Layout characters
const (
	OpenChar     = '.'
	WallChar     = '#'
	StartChar    = 'S'
	EndChar      = 'E'
	PathChar     = '*'
	VisitedChar  = 'o'
	FrontierChar = '+'
)

// NoWalls is a WallFunc that leaves every cell open
func NoWalls(i, j int) bool { return false }

// RandomWalls returns a WallFunc that makes a cell a wall with the given
// probability. Positions in keep always stay open.
func RandomWalls(density float64, rng *rand.Rand, keep ...Position) WallFunc {
	open := make(map[Position]bool, len(keep))
	for _, p := range keep {
		open[p] = true
	}
	return func(i, j int) bool {
		// Draw for every cell so kept cells don't shift the sequence
		wall := rng.Float64() < density
		if open[Position{X: i, Y: j}] {
			return false
		}
		return wall
	}
}

// Layout is a parsed text board
type Layout struct {
	Rows  int
	Cols  int
	Walls map[Position]bool
	Start *Position
	End   *Position
}

// WallFunc returns a WallFunc backed by the layout's wall set
func (l *Layout) WallFunc() WallFunc {
	return func(i, j int) bool { return l.Walls[Position{X: i, Y: j}] }
}

// ParseLayout reads text rows using '.' for open cells, '#' for walls and
// optional single 'S' and 'E' markers.
func ParseLayout(lines []string) (*Layout, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: layout is empty", ErrInvalidDimensions)
	}

	layout := &Layout{
		Rows:  len(lines),
		Cols:  len(lines[0]),
		Walls: make(map[Position]bool),
	}
	if layout.Cols == 0 {
		return nil, fmt.Errorf("%w: layout row 1 is empty", ErrInvalidDimensions)
	}

	for i, line := range lines {
		if len(line) != layout.Cols {
			return nil, fmt.Errorf("%w: row %d has %d characters, expected %d", ErrLayoutInconsistent, i+1, len(line), layout.Cols)
		}
		for j := 0; j < len(line); j++ {
			p := Position{X: i, Y: j}
			switch line[j] {
			case OpenChar:
			case WallChar:
				layout.Walls[p] = true
			case StartChar:
				if layout.Start != nil {
					return nil, fmt.Errorf("layout has more than one start marker (row %d, col %d)", i+1, j+1)
				}
				layout.Start = &p
			case EndChar:
				if layout.End != nil {
					return nil, fmt.Errorf("layout has more than one end marker (row %d, col %d)", i+1, j+1)
				}
				layout.End = &p
			default:
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", line[j], i+1, j+1)
			}
		}
	}

	return layout, nil
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// AreNeighbors reports whether a and b are 4-connected
func AreNeighbors(a, b Position) bool {
	return ManhattanDistance(a, b) == 1
}

// Overlay marks cells drawn on top of walls when rendering
type Overlay struct {
	Start    *Position
	End      *Position
	Path     []Position
	Visited  []Position
	Frontier []Position
}

// Render draws the grid as text rows. Precedence: start/end, path, frontier,
// visited, wall, open.
func Render(g *Grid, overlay Overlay) []string {
	cells := make([][]byte, g.rows)
	for i := 0; i < g.rows; i++ {
		row := make([]byte, g.cols)
		for j := 0; j < g.cols; j++ {
			if g.walls[i*g.cols+j] {
				row[j] = WallChar
			} else {
				row[j] = OpenChar
			}
		}
		cells[i] = row
	}

	mark := func(points []Position, c byte) {
		for _, p := range points {
			if g.InBounds(p.X, p.Y) {
				cells[p.X][p.Y] = c
			}
		}
	}
	mark(overlay.Visited, VisitedChar)
	mark(overlay.Frontier, FrontierChar)
	mark(overlay.Path, PathChar)
	if overlay.Start != nil {
		mark([]Position{*overlay.Start}, StartChar)
	}
	if overlay.End != nil {
		mark([]Position{*overlay.End}, EndChar)
	}

	lines := make([]string, g.rows)
	for i, row := range cells {
		lines[i] = string(row)
	}
	return lines
}

// String renders the bare grid
func (g *Grid) String() string {
	return strings.Join(Render(g, Overlay{}), "\n")
}
