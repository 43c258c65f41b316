package engine

import "github.com/wricardo/gridsearch/search/grid"

// Reconstruct walks predecessor links from end back to start and returns the
// path in start to end order. The start is prepended when the chain does not
// already begin with it, so start == end yields [start].
func Reconstruct(state *State, g *grid.Grid, start, end int) []grid.Position {
	var chain []int
	// A chain can never be longer than the grid; the bound stops a corrupt table
	for idx := end; idx != NoPredecessor && len(chain) <= state.Len(); idx = state.At(idx).Pred {
		chain = append(chain, idx)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if len(chain) == 0 || chain[0] != start {
		chain = append([]int{start}, chain...)
	}

	path := make([]grid.Position, len(chain))
	for i, idx := range chain {
		path[i] = g.PositionOf(idx)
	}
	return path
}
