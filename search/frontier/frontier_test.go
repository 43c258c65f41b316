package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(f Frontier) []int {
	var out []int
	for {
		id, ok := f.Pop()
		if !ok {
			return out
		}
		out = append(out, id)
	}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for _, id := range []int{3, 1, 4, 5} {
		q.Push(id)
	}

	assert.Equal(t, 4, q.Len())
	assert.True(t, q.Contains(4))
	assert.Equal(t, []int{3, 1, 4, 5}, q.Items())
	assert.Equal(t, []int{3, 1, 4, 5}, drain(q))
	assert.False(t, q.Contains(4))

	_, ok := q.Pop()
	assert.False(t, ok, "empty queue must report no element")
}

func TestQueue_CompactsConsumedPrefix(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	for i := 0; i < 80; i++ {
		id, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, id)
	}

	q.Push(500)
	assert.Equal(t, 21, q.Len())
	items := q.Items()
	assert.Equal(t, 80, items[0])
	assert.Equal(t, 500, items[len(items)-1])
}

func TestStack_LIFO(t *testing.T) {
	s := NewStack()
	for _, id := range []int{3, 1, 4} {
		s.Push(id)
	}

	assert.Equal(t, []int{3, 1, 4}, s.Items())
	assert.Equal(t, []int{4, 1, 3}, drain(s))
	assert.Equal(t, 0, s.Len())
}

func TestPush_IgnoresDuplicates(t *testing.T) {
	keys := map[int]int{}
	frontiers := map[string]Frontier{
		"queue":    NewQueue(),
		"stack":    NewStack(),
		"priority": NewPriority(func(id int) int { return keys[id] }),
	}

	for name, f := range frontiers {
		t.Run(name, func(t *testing.T) {
			f.Push(7)
			f.Push(7)
			assert.Equal(t, 1, f.Len())
			id, ok := f.Pop()
			assert.True(t, ok)
			assert.Equal(t, 7, id)
			assert.False(t, f.Contains(7))
		})
	}
}

func TestPriority_ExtractMin(t *testing.T) {
	keys := map[int]int{10: 5, 11: 2, 12: 9, 13: 1}
	p := NewPriority(func(id int) int { return keys[id] })
	for _, id := range []int{10, 11, 12, 13} {
		p.Push(id)
	}

	assert.Equal(t, []int{13, 11, 10, 12}, drain(p))
}

func TestPriority_TiesResolveToEarliestInserted(t *testing.T) {
	keys := map[int]int{1: 4, 2: 4, 3: 4, 4: 3}
	p := NewPriority(func(id int) int { return keys[id] })
	for _, id := range []int{1, 2, 3, 4} {
		p.Push(id)
	}

	id, _ := p.Pop()
	assert.Equal(t, 4, id)

	// Removing an element must preserve the relative order of the rest
	id, _ = p.Pop()
	assert.Equal(t, 1, id)
	assert.Equal(t, []int{2, 3}, p.Items())

	p.Push(5)
	keys[5] = 4
	assert.Equal(t, []int{2, 3, 5}, drain(p))
}

func TestPriority_RelaxationInPlace(t *testing.T) {
	keys := map[int]int{1: 5, 2: 6, 3: 7}
	p := NewPriority(func(id int) int { return keys[id] })
	p.Push(1)
	p.Push(2)
	p.Push(3)

	// Lower the key of a member without reinserting it
	keys[3] = 1
	p.Push(3)

	assert.Equal(t, []int{1, 2, 3}, p.Items(), "push of a member must not move it")
	id, _ := p.Pop()
	assert.Equal(t, 3, id)
}
