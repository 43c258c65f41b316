package engine

// NoPredecessor marks a node that was not reached from another node
const NoPredecessor = -1

// NodeState is the transient search bookkeeping of one node
type NodeState struct {
	G       int
	H       int
	F       int
	Pred    int
	Visited bool
	// Order is the 1-based expansion sequence number, 0 until expanded
	Order int
}

// State is a run-scoped side table indexed by grid node index. The grid itself
// never carries search state, so runs over the same board cannot interfere.
type State struct {
	nodes []NodeState
	order int
}

// NewState allocates a reset table for n nodes
func NewState(n int) *State {
	s := &State{nodes: make([]NodeState, n)}
	s.Reset()
	return s
}

// Reset clears every entry to g=h=f=0, no predecessor, not visited
func (s *State) Reset() {
	for i := range s.nodes {
		s.nodes[i] = NodeState{Pred: NoPredecessor}
	}
	s.order = 0
}

// At returns the entry for idx
func (s *State) At(idx int) *NodeState {
	return &s.nodes[idx]
}

// Len returns the number of entries
func (s *State) Len() int { return len(s.nodes) }

// Expanded returns how many nodes have been stamped visited
func (s *State) Expanded() int { return s.order }

func (s *State) markVisited(idx int) {
	s.order++
	n := &s.nodes[idx]
	n.Visited = true
	n.Order = s.order
}
