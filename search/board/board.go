package board

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wricardo/gridsearch/search/grid"
)

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrInvalidBoard  = errors.New("invalid board")
)

// DefaultName is the board used when a session does not name one
const DefaultName = "classic"

// Board is a named board preset. A preset either spells out its cells in
// Layout or asks for seeded random walls at WallDensity.
type Board struct {
	Name        string         `json:"name" yaml:"name" validate:"required,max=64"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" validate:"max=256"`
	Rows        int            `json:"rows" yaml:"rows" validate:"min=1,max=200"`
	Cols        int            `json:"cols" yaml:"cols" validate:"min=1,max=200"`
	Layout      []string       `json:"layout,omitempty" yaml:"layout,omitempty"`
	WallDensity float64        `json:"wall_density,omitempty" yaml:"wall_density,omitempty" validate:"gte=0,lte=0.9"`
	Seed        int64          `json:"seed,omitempty" yaml:"seed,omitempty"`
	Start       *grid.Position `json:"start,omitempty" yaml:"start,omitempty"`
	End         *grid.Position `json:"end,omitempty" yaml:"end,omitempty"`
}

// Info describes a board for listings
type Info struct {
	ID          string  `json:"id"`
	Filename    string  `json:"filename,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Rows        int     `json:"rows"`
	Cols        int     `json:"cols"`
	WallDensity float64 `json:"wall_density,omitempty"`
	Builtin     bool    `json:"builtin"`
}

var validate = validator.New()

// Classic returns the wall-free 30x70 board with start (10,15) and end (10,35)
func Classic() *Board {
	return &Board{
		Name:        DefaultName,
		Description: "Open 30x70 board, start and end on the same row",
		Rows:        30,
		Cols:        70,
		Start:       &grid.Position{X: 10, Y: 15},
		End:         &grid.Position{X: 10, Y: 35},
	}
}

// Random returns a 50x50 board with 30% random walls between opposite corners
func Random() *Board {
	return &Board{
		Name:        "random",
		Description: "50x50 board with 30% random walls, corner to corner",
		Rows:        50,
		Cols:        50,
		WallDensity: 0.3,
		Seed:        1,
		Start:       &grid.Position{X: 0, Y: 0},
		End:         &grid.Position{X: 49, Y: 49},
	}
}

// Builtins returns the presets available without a boards directory
func Builtins() []*Board {
	return []*Board{Classic(), Random()}
}

// Normalize fills Rows and Cols from Layout when they are unset
func (b *Board) Normalize() {
	if len(b.Layout) == 0 {
		return
	}
	if b.Rows == 0 {
		b.Rows = len(b.Layout)
	}
	if b.Cols == 0 {
		b.Cols = len(b.Layout[0])
	}
}

// Info returns the listing entry for b under id
func (b *Board) Info(id string) *Info {
	return &Info{
		ID:          id,
		Name:        b.Name,
		Description: b.Description,
		Rows:        b.Rows,
		Cols:        b.Cols,
		WallDensity: b.WallDensity,
	}
}

// Validate checks field ranges, layout shape and characters, and that start and
// end are in bounds and open.
func Validate(b *Board) error {
	if b == nil {
		return fmt.Errorf("%w: board is nil", ErrInvalidBoard)
	}
	if err := validate.Struct(b); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidBoard, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	_, _, _, err := b.Grid()
	return err
}

// Grid materializes the board and resolves its start and end. Without explicit
// positions the layout markers are used, then the top-left and bottom-right
// corners.
func (b *Board) Grid() (*grid.Grid, grid.Position, grid.Position, error) {
	var (
		start = grid.Position{X: 0, Y: 0}
		end   = grid.Position{X: b.Rows - 1, Y: b.Cols - 1}
		walls grid.WallFunc
	)

	if len(b.Layout) > 0 {
		layout, err := grid.ParseLayout(b.Layout)
		if err != nil {
			return nil, start, end, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
		}
		if layout.Rows != b.Rows || layout.Cols != b.Cols {
			return nil, start, end, fmt.Errorf("%w: layout is %dx%d, board declares %dx%d",
				ErrInvalidBoard, layout.Rows, layout.Cols, b.Rows, b.Cols)
		}
		if layout.Start != nil {
			start = *layout.Start
		}
		if layout.End != nil {
			end = *layout.End
		}
		walls = layout.WallFunc()
	}
	if b.Start != nil {
		start = *b.Start
	}
	if b.End != nil {
		end = *b.End
	}
	if walls == nil {
		walls = grid.NoWalls
		if b.WallDensity > 0 {
			walls = grid.RandomWalls(b.WallDensity, rand.New(rand.NewSource(b.Seed)), start, end)
		}
	}

	g, err := grid.Build(b.Rows, b.Cols, walls)
	if err != nil {
		return nil, start, end, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	for _, check := range []struct {
		label string
		p     grid.Position
	}{{"start", start}, {"end", end}} {
		node, err := g.NodeAt(check.p.X, check.p.Y)
		if err != nil {
			return nil, start, end, fmt.Errorf("%w: %s: %w", ErrInvalidBoard, check.label, err)
		}
		if node.Wall {
			return nil, start, end, fmt.Errorf("%w: %s (%d,%d) is a wall", ErrInvalidBoard, check.label, check.p.X, check.p.Y)
		}
	}
	return g, start, end, nil
}
