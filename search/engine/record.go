package engine

import "github.com/wricardo/gridsearch/search/grid"

// Status is the lifecycle state of a run
type Status string

const (
	StatusReady     Status = "ready"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusExhausted Status = "exhausted"
)

// Terminal reports whether no further records follow
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusExhausted
}

// Cell is a self-contained copy of one node and its search state
type Cell struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Wall    bool `json:"wall"`
	Visited bool `json:"visited"`
	Order   int  `json:"order,omitempty"`
	G       int  `json:"g"`
	H       int  `json:"h"`
	F       int  `json:"f"`
}

// Position returns the cell coordinates
func (c Cell) Position() grid.Position {
	return grid.Position{X: c.X, Y: c.Y}
}

// Record is emitted once per step. It shares no memory with the run that
// produced it.
type Record struct {
	Index     int             `json:"index"`
	Status    Status          `json:"status"`
	Algorithm Algorithm       `json:"algorithm"`
	Current   *Cell           `json:"current,omitempty"`
	Visited   []Cell          `json:"visited,omitempty"`
	Frontier  []Cell          `json:"frontier,omitempty"`
	Path      []grid.Position `json:"path,omitempty"`
	Expanded  int             `json:"expanded"`
}

// Terminal reports whether r is the last record of its run
func (r Record) Terminal() bool {
	return r.Status.Terminal()
}

// Result summarizes a finished run
type Result struct {
	Algorithm  Algorithm       `json:"algorithm"`
	Status     Status          `json:"status"`
	Path       []grid.Position `json:"path"`
	PathLength int             `json:"path_length"`
	Expanded   int             `json:"expanded"`
	Steps      int             `json:"steps"`
}

// Found reports whether the end was reached
func (r Result) Found() bool {
	return r.Status == StatusSucceeded
}
