package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/service"
	"golang.org/x/time/rate"
)

// MaxDelay bounds the pause between two animated records
const MaxDelay = 5 * time.Second

// Streamer runs a search and hands each record to fn
type Streamer interface {
	Stream(ctx context.Context, sessionID string, algorithm engine.Algorithm, fn func(engine.Record) error) (*service.SearchResult, error)
}

// Animation describes a paced search being broadcast to a session
type Animation struct {
	ID        string           `json:"animation_id"`
	SessionID string           `json:"session_id"`
	Algorithm engine.Algorithm `json:"algorithm"`
	DelayMs   int64            `json:"delay_ms"`
	StartedAt time.Time        `json:"started_at"`
}

type animation struct {
	Animation
	cancel context.CancelFunc
}

// Animator replays searches to hub subscribers at a fixed pace. Each session
// has at most one animation; starting another cancels the previous one.
type Animator struct {
	streamer Streamer
	hub      *Hub
	base     context.Context

	mu     sync.Mutex
	active map[string]*animation
	wg     sync.WaitGroup
}

// NewAnimator creates an animator whose animations stop when ctx is cancelled
func NewAnimator(ctx context.Context, streamer Streamer, hub *Hub) *Animator {
	return &Animator{
		streamer: streamer,
		hub:      hub,
		base:     ctx,
		active:   make(map[string]*animation),
	}
}

// Start begins a paced search for sessionID and returns immediately
func (a *Animator) Start(sessionID string, algorithm engine.Algorithm, delay time.Duration) (*Animation, error) {
	if !algorithm.Valid() {
		return nil, engine.ErrInvalidAlgorithm
	}
	if delay < 0 {
		delay = 0
	}
	if delay > MaxDelay {
		delay = MaxDelay
	}

	ctx, cancel := context.WithCancel(a.base)
	anim := &animation{
		Animation: Animation{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Algorithm: algorithm,
			DelayMs:   delay.Milliseconds(),
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}

	a.mu.Lock()
	if prev, ok := a.active[sessionID]; ok {
		prev.cancel()
	}
	a.active[sessionID] = anim
	a.mu.Unlock()

	a.wg.Add(1)
	go a.play(ctx, anim, delay)

	info := anim.Animation
	return &info, nil
}

// Stop cancels the animation of sessionID. It reports whether one was running.
func (a *Animator) Stop(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	anim, ok := a.active[sessionID]
	if !ok {
		return false
	}
	anim.cancel()
	delete(a.active, sessionID)
	return true
}

// Active returns the running animation of sessionID, if any
func (a *Animator) Active(sessionID string) (*Animation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	anim, ok := a.active[sessionID]
	if !ok {
		return nil, false
	}
	info := anim.Animation
	return &info, true
}

// Wait blocks until every started animation has returned
func (a *Animator) Wait() {
	a.wg.Wait()
}

func (a *Animator) play(ctx context.Context, anim *animation, delay time.Duration) {
	defer a.wg.Done()
	defer a.finish(anim)

	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	// burst of one lets the first record through immediately
	limiter := rate.NewLimiter(limit, 1)

	logger := log.WithFields(log.Fields{
		"session":   anim.SessionID,
		"animation": anim.ID,
		"algorithm": anim.Algorithm.String(),
	})
	logger.Debug("Animation started")

	result, err := a.streamer.Stream(ctx, anim.SessionID, anim.Algorithm, func(rec engine.Record) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		a.hub.BroadcastRecord(anim.SessionID, rec)
		return nil
	})

	switch {
	case err == nil:
		a.hub.BroadcastEvent(anim.SessionID, EventSearchDone, result)
		logger.WithField("status", result.Result.Status).Debug("Animation finished")
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		a.hub.BroadcastEvent(anim.SessionID, EventCancelled, anim.Animation)
		logger.Debug("Animation cancelled")
	default:
		a.hub.BroadcastEvent(anim.SessionID, EventSearchFailed, map[string]string{"error": err.Error()})
		logger.WithError(err).Warn("Animation failed")
	}
}

func (a *Animator) finish(anim *animation) {
	anim.cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur, ok := a.active[anim.SessionID]; ok && cur == anim {
		delete(a.active, anim.SessionID)
	}
}
