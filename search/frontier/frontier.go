// Package frontier provides the three open-set disciplines used by the search
// engines: a linear-scan priority list, a FIFO queue and a LIFO stack.
//
// All three hold node indexes and answer Contains in O(1) through a membership
// set. None of them is safe for concurrent use; a frontier belongs to exactly
// one run.
package frontier

// Frontier is the open set of a single search run
type Frontier interface {
	// Push adds id. An id already present is left where it is.
	Push(id int)
	// Pop removes and returns the next id according to the discipline
	Pop() (int, bool)
	// Contains reports whether id is currently in the frontier
	Contains(id int) bool
	// Len returns the number of ids in the frontier
	Len() int
	// Items returns a copy of the ids in discipline storage order
	Items() []int
}

// KeyFunc returns the current priority key of id. Lower keys pop first.
type KeyFunc func(id int) int

// Priority is an extract-min list. Keys are read at extraction time, so a key
// relaxed in place is honored without reinsertion. Among equal keys the element
// inserted earliest wins.
type Priority struct {
	items   []int
	members map[int]struct{}
	key     KeyFunc
}

// NewPriority creates an empty priority frontier ordered by key
func NewPriority(key KeyFunc) *Priority {
	return &Priority{
		members: make(map[int]struct{}),
		key:     key,
	}
}

// Push inserts id unless it is already present
func (p *Priority) Push(id int) {
	if _, ok := p.members[id]; ok {
		return
	}
	p.items = append(p.items, id)
	p.members[id] = struct{}{}
}

// Pop removes the first element holding the minimum key
func (p *Priority) Pop() (int, bool) {
	if len(p.items) == 0 {
		return 0, false
	}

	lowest := 0
	lowestKey := p.key(p.items[0])
	for i := 1; i < len(p.items); i++ {
		if k := p.key(p.items[i]); k < lowestKey {
			lowest = i
			lowestKey = k
		}
	}

	id := p.items[lowest]
	// Ordered removal keeps insertion order for future ties
	copy(p.items[lowest:], p.items[lowest+1:])
	p.items = p.items[:len(p.items)-1]
	delete(p.members, id)
	return id, true
}

// Contains reports membership
func (p *Priority) Contains(id int) bool {
	_, ok := p.members[id]
	return ok
}

// Len returns the frontier size
func (p *Priority) Len() int { return len(p.items) }

// Items returns the ids in insertion order
func (p *Priority) Items() []int { return clone(p.items) }

// Queue pops ids in arrival order
type Queue struct {
	items   []int
	head    int
	members map[int]struct{}
}

// NewQueue creates an empty FIFO frontier
func NewQueue() *Queue {
	return &Queue{members: make(map[int]struct{})}
}

// Push appends id unless it is already queued
func (q *Queue) Push(id int) {
	if _, ok := q.members[id]; ok {
		return
	}
	q.items = append(q.items, id)
	q.members[id] = struct{}{}
}

// Pop removes the oldest id
func (q *Queue) Pop() (int, bool) {
	if q.head >= len(q.items) {
		return 0, false
	}
	id := q.items[q.head]
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array
	if q.head > 32 && q.head*2 > len(q.items) {
		q.items = append([]int(nil), q.items[q.head:]...)
		q.head = 0
	}

	delete(q.members, id)
	return id, true
}

// Contains reports membership
func (q *Queue) Contains(id int) bool {
	_, ok := q.members[id]
	return ok
}

// Len returns the frontier size
func (q *Queue) Len() int { return len(q.items) - q.head }

// Items returns the ids from oldest to newest
func (q *Queue) Items() []int { return clone(q.items[q.head:]) }

// Stack pops ids in reverse arrival order
type Stack struct {
	items   []int
	members map[int]struct{}
}

// NewStack creates an empty LIFO frontier
func NewStack() *Stack {
	return &Stack{members: make(map[int]struct{})}
}

// Push places id on top unless it is already stacked
func (s *Stack) Push(id int) {
	if _, ok := s.members[id]; ok {
		return
	}
	s.items = append(s.items, id)
	s.members[id] = struct{}{}
}

// Pop removes the newest id
func (s *Stack) Pop() (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	id := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	delete(s.members, id)
	return id, true
}

// Contains reports membership
func (s *Stack) Contains(id int) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the frontier size
func (s *Stack) Len() int { return len(s.items) }

// Items returns the ids from bottom to top
func (s *Stack) Items() []int { return clone(s.items) }

func clone(items []int) []int {
	out := make([]int, len(items))
	copy(out, items)
	return out
}
