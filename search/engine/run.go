package engine

import (
	"context"
	"fmt"

	"github.com/wricardo/gridsearch/search/frontier"
	"github.com/wricardo/gridsearch/search/grid"
)

// Options configures a run
type Options struct {
	Snapshots bool
}

// Option mutates Options
type Option func(*Options)

// WithSnapshots controls whether records carry closed-set and frontier copies.
// Enabled by default.
func WithSnapshots(enabled bool) Option {
	return func(o *Options) {
		o.Snapshots = enabled
	}
}

// discipline captures the only differences between the four algorithms
type discipline struct {
	newFrontier func(key frontier.KeyFunc) frontier.Frontier
	// key orders a priority frontier; nil for queue and stack disciplines
	key func(n *NodeState) int
	// relax selects the cost-relaxation rule instead of plain discovery
	relax     bool
	heuristic bool
}

func disciplineFor(a Algorithm) discipline {
	switch a {
	case AStar:
		return discipline{
			newFrontier: func(key frontier.KeyFunc) frontier.Frontier { return frontier.NewPriority(key) },
			key:         func(n *NodeState) int { return n.F },
			relax:       true,
			heuristic:   true,
		}
	case Dijkstra:
		return discipline{
			newFrontier: func(key frontier.KeyFunc) frontier.Frontier { return frontier.NewPriority(key) },
			key:         func(n *NodeState) int { return n.G },
			relax:       true,
		}
	case BFS:
		return discipline{
			newFrontier: func(frontier.KeyFunc) frontier.Frontier { return frontier.NewQueue() },
		}
	default:
		return discipline{
			newFrontier: func(frontier.KeyFunc) frontier.Frontier { return frontier.NewStack() },
		}
	}
}

// Run is a single search over a frozen copy of a grid. A Run is not safe for
// concurrent use and is discarded after its terminal record.
type Run struct {
	grid      *grid.Grid
	algorithm Algorithm
	start     int
	end       int
	endPos    grid.Position
	rule      discipline
	opts      Options

	state  *State
	open   frontier.Frontier
	closed []int
	status Status
	steps  int
	path   []grid.Position
}

// NewRun validates the request and returns a run in the Ready state. The grid is
// cloned, so later wall changes on g are not observed by the run.
func NewRun(g *grid.Grid, start, end grid.Position, algorithm Algorithm, options ...Option) (*Run, error) {
	if !algorithm.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlgorithm, int(algorithm))
	}
	startIdx, err := g.Index(start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	endIdx, err := g.Index(end)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if g.IsWall(startIdx) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrStartIsWall, start.X, start.Y)
	}
	if g.IsWall(endIdx) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrEndIsWall, end.X, end.Y)
	}

	opts := Options{Snapshots: true}
	for _, o := range options {
		o(&opts)
	}

	snapshot := g.Clone()
	r := &Run{
		grid:      snapshot,
		algorithm: algorithm,
		start:     startIdx,
		end:       endIdx,
		endPos:    end,
		rule:      disciplineFor(algorithm),
		opts:      opts,
		state:     NewState(snapshot.Len()),
		status:    StatusReady,
	}
	r.open = r.rule.newFrontier(func(id int) int {
		return r.rule.key(r.state.At(id))
	})
	return r, nil
}

// Algorithm returns the selector the run was created with
func (r *Run) Algorithm() Algorithm { return r.algorithm }

// Status returns the current lifecycle state
func (r *Run) Status() Status { return r.status }

// Done reports whether the terminal record has been produced
func (r *Run) Done() bool { return r.status.Terminal() }

// Steps returns the number of records produced so far
func (r *Run) Steps() int { return r.steps }

// Grid returns the frozen board the run searches
func (r *Run) Grid() *grid.Grid { return r.grid }

// Next performs one step and returns its record. After the terminal record it
// returns false.
func (r *Run) Next() (Record, bool) {
	if r.status.Terminal() {
		return Record{}, false
	}
	if r.status == StatusReady {
		r.begin()
	}

	r.steps++
	current, ok := r.open.Pop()
	if !ok {
		r.status = StatusExhausted
		return r.record(nil), true
	}

	if current == r.end {
		r.status = StatusSucceeded
		r.path = Reconstruct(r.state, r.grid, r.start, r.end)
		return r.record(&current), true
	}

	r.state.markVisited(current)
	r.closed = append(r.closed, current)
	r.expand(current)

	return r.record(&current), true
}

// Drive calls fn once per record until the run terminates. It stops between
// steps when ctx is cancelled or fn returns an error.
func (r *Run) Drive(ctx context.Context, fn func(Record) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, ok := r.Next()
		if !ok {
			return nil
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Closed returns the expanded positions in expansion order
func (r *Run) Closed() []grid.Position {
	out := make([]grid.Position, len(r.closed))
	for i, idx := range r.closed {
		out[i] = r.grid.PositionOf(idx)
	}
	return out
}

// Result summarizes the run. Path is empty unless the run succeeded.
func (r *Run) Result() Result {
	res := Result{
		Algorithm: r.algorithm,
		Status:    r.status,
		Path:      append([]grid.Position(nil), r.path...),
		Expanded:  r.state.Expanded(),
		Steps:     r.steps,
	}
	if len(res.Path) > 0 {
		res.PathLength = len(res.Path) - 1
	}
	return res
}

// Solve runs algorithm to completion without snapshots
func Solve(ctx context.Context, g *grid.Grid, start, end grid.Position, algorithm Algorithm) (Result, error) {
	run, err := NewRun(g, start, end, algorithm, WithSnapshots(false))
	if err != nil {
		return Result{}, err
	}
	if err := run.Drive(ctx, func(Record) error { return nil }); err != nil {
		return run.Result(), err
	}
	return run.Result(), nil
}

func (r *Run) begin() {
	r.state.Reset()
	r.closed = r.closed[:0]
	r.path = nil

	s := r.state.At(r.start)
	s.G = 0
	if r.rule.heuristic {
		s.H = grid.ManhattanDistance(r.grid.PositionOf(r.start), r.endPos)
	}
	s.F = s.G + s.H
	r.open.Push(r.start)
	r.status = StatusRunning
}

func (r *Run) expand(current int) {
	cur := r.state.At(current)
	for _, n := range r.grid.Neighbors(current) {
		ns := r.state.At(n)
		if ns.Visited || r.grid.IsWall(n) {
			continue
		}

		if !r.rule.relax {
			if r.open.Contains(n) {
				continue
			}
			ns.Pred = current
			r.open.Push(n)
			continue
		}

		tempG := cur.G + 1
		if !r.open.Contains(n) {
			ns.G = tempG
			ns.Pred = current
			if r.rule.heuristic {
				ns.H = grid.ManhattanDistance(r.grid.PositionOf(n), r.endPos)
			}
			ns.F = ns.G + ns.H
			r.open.Push(n)
		} else if tempG < ns.G {
			ns.G = tempG
			ns.F = ns.G + ns.H
			ns.Pred = current
		}
	}
}

func (r *Run) record(current *int) Record {
	rec := Record{
		Index:     r.steps,
		Status:    r.status,
		Algorithm: r.algorithm,
		Path:      append([]grid.Position(nil), r.path...),
		Expanded:  r.state.Expanded(),
	}
	if current != nil {
		c := r.cell(*current)
		rec.Current = &c
	}
	if r.opts.Snapshots {
		rec.Visited = r.cells(r.closed)
		rec.Frontier = r.cells(r.open.Items())
	}
	return rec
}

func (r *Run) cell(idx int) Cell {
	p := r.grid.PositionOf(idx)
	s := r.state.At(idx)
	return Cell{
		X:       p.X,
		Y:       p.Y,
		Wall:    r.grid.IsWall(idx),
		Visited: s.Visited,
		Order:   s.Order,
		G:       s.G,
		H:       s.H,
		F:       s.F,
	}
}

func (r *Run) cells(ids []int) []Cell {
	out := make([]Cell, len(ids))
	for i, idx := range ids {
		out[i] = r.cell(idx)
	}
	return out
}
