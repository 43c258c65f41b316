package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/grid"
	"github.com/wricardo/gridsearch/search/service"
)

// streamFunc adapts a function to Streamer
type streamFunc func(ctx context.Context, sessionID string, algorithm engine.Algorithm, fn func(engine.Record) error) (*service.SearchResult, error)

func (f streamFunc) Stream(ctx context.Context, sessionID string, algorithm engine.Algorithm, fn func(engine.Record) error) (*service.SearchResult, error) {
	return f(ctx, sessionID, algorithm, fn)
}

// realStream runs the engine on an open board
func realStream(rows, cols int) streamFunc {
	return func(ctx context.Context, sessionID string, algorithm engine.Algorithm, fn func(engine.Record) error) (*service.SearchResult, error) {
		g, err := grid.Build(rows, cols, grid.NoWalls)
		if err != nil {
			return nil, err
		}
		run, err := engine.NewRun(g, grid.Position{}, grid.Position{X: cols - 1, Y: rows - 1}, algorithm)
		if err != nil {
			return nil, err
		}
		records := 0
		err = run.Drive(ctx, func(rec engine.Record) error {
			records++
			return fn(rec)
		})
		if err != nil {
			return nil, err
		}
		return &service.SearchResult{SessionID: sessionID, Result: run.Result(), Records: records}, nil
	}
}

func TestAnimatorBroadcastsEveryRecordInOrder(t *testing.T) {
	hub, _ := startHub(t)
	client := newTestClient(hub, "anim")
	hub.register <- client

	animator := NewAnimator(context.Background(), realStream(3, 3), hub)
	anim, err := animator.Start("anim", engine.BFS, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "anim", anim.SessionID)
	assert.Equal(t, int64(1), anim.DelayMs)
	assert.NotEmpty(t, anim.ID)

	for want := 1; want <= 9; want++ {
		msg := receive(t, client)
		require.Equal(t, EventRecord, msg.Event)
		require.NotNil(t, msg.Record)
		assert.Equal(t, want, msg.Record.Index)
	}
	msg := receive(t, client)
	assert.Equal(t, EventSearchDone, msg.Event)

	animator.Wait()
	_, active := animator.Active("anim")
	assert.False(t, active)
}

func TestAnimatorNewAnimationCancelsPrevious(t *testing.T) {
	hub, _ := startHub(t)

	started := make(chan string, 2)
	blocking := streamFunc(func(ctx context.Context, sessionID string, algorithm engine.Algorithm, fn func(engine.Record) error) (*service.SearchResult, error) {
		started <- algorithm.String()
		<-ctx.Done()
		return nil, ctx.Err()
	})

	animator := NewAnimator(context.Background(), blocking, hub)
	first, err := animator.Start("s1", engine.DFS, 0)
	require.NoError(t, err)
	assert.Equal(t, "dfs", <-started)

	second, err := animator.Start("s1", engine.AStar, 0)
	require.NoError(t, err)
	assert.Equal(t, "astar", <-started)
	assert.NotEqual(t, first.ID, second.ID)

	active, ok := animator.Active("s1")
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)

	assert.True(t, animator.Stop("s1"))
	assert.False(t, animator.Stop("s1"))
	animator.Wait()
}

func TestAnimatorStopsWithBaseContext(t *testing.T) {
	hub, _ := startHub(t)
	ctx, cancel := context.WithCancel(context.Background())

	animator := NewAnimator(ctx, realStream(20, 20), hub)
	_, err := animator.Start("slow", engine.Dijkstra, MaxDelay)
	require.NoError(t, err)

	cancel()
	done := make(chan struct{})
	go func() {
		animator.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("animation did not stop after cancellation")
	}
}

func TestAnimatorReportsFailure(t *testing.T) {
	hub, _ := startHub(t)
	client := newTestClient(hub, "fail")
	hub.register <- client

	failing := streamFunc(func(context.Context, string, engine.Algorithm, func(engine.Record) error) (*service.SearchResult, error) {
		return nil, errors.New("session fail: not found")
	})
	animator := NewAnimator(context.Background(), failing, hub)
	_, err := animator.Start("fail", engine.BFS, 0)
	require.NoError(t, err)

	msg := receive(t, client)
	assert.Equal(t, EventSearchFailed, msg.Event)
	animator.Wait()
}

func TestAnimatorRejectsInvalidAlgorithm(t *testing.T) {
	animator := NewAnimator(context.Background(), realStream(2, 2), NewHub())
	_, err := animator.Start("x", engine.Algorithm(42), 0)
	assert.ErrorIs(t, err, engine.ErrInvalidAlgorithm)
}
