package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAlgorithm = errors.New("invalid algorithm")
	ErrStartIsWall      = errors.New("start cell is a wall")
	ErrEndIsWall        = errors.New("end cell is a wall")
)

// Algorithm selects the frontier discipline of a run
type Algorithm int

const (
	AStar Algorithm = iota
	Dijkstra
	BFS
	DFS
)

var algorithmNames = map[Algorithm]string{
	AStar:    "astar",
	Dijkstra: "dijkstra",
	BFS:      "bfs",
	DFS:      "dfs",
}

// All returns every algorithm in display order
func All() []Algorithm {
	return []Algorithm{AStar, Dijkstra, BFS, DFS}
}

// ParseAlgorithm resolves a selector name. Unknown names are rejected instead of
// falling back to a default.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "astar", "a*", "a-star":
		return AStar, nil
	case "dijkstra":
		return Dijkstra, nil
	case "bfs", "breadth-first":
		return BFS, nil
	case "dfs", "depth-first":
		return DFS, nil
	}
	return 0, fmt.Errorf("%w: %q (valid: astar, dijkstra, bfs, dfs)", ErrInvalidAlgorithm, name)
}

// Valid reports whether a is one of the known algorithms
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]
	return ok
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ShortestPath reports whether the algorithm guarantees a minimal hop count
func (a Algorithm) ShortestPath() bool {
	return a != DFS
}

// Description returns a one-line summary used by listings
func (a Algorithm) Description() string {
	switch a {
	case AStar:
		return "A* with Manhattan heuristic, priority by f = g + h"
	case Dijkstra:
		return "Dijkstra, priority by g (A* with h = 0)"
	case BFS:
		return "Breadth-first search, FIFO queue"
	case DFS:
		return "Depth-first search, LIFO stack, no shortest-path guarantee"
	}
	return ""
}

// MarshalText encodes the algorithm by name
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlgorithm, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes any name accepted by ParseAlgorithm
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
