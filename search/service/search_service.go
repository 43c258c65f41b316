package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/grid"
)

// SearchService defines all session, board and search operations
type SearchService interface {
	// Session Management
	CreateSession(ctx context.Context, boardName string) (*SessionInfo, error)
	GenerateSession(ctx context.Context, opts GenerateOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Board Editing
	GetBoard(ctx context.Context, sessionID string) (*BoardState, error)
	ToggleWall(ctx context.Context, sessionID string, pos grid.Position) (*BoardState, error)
	SetStart(ctx context.Context, sessionID string, pos grid.Position) (*BoardState, error)
	SetEnd(ctx context.Context, sessionID string, pos grid.Position) (*BoardState, error)
	ClearWalls(ctx context.Context, sessionID string) (*BoardState, error)

	// Searching
	Search(ctx context.Context, sessionID string, algorithm engine.Algorithm) (*SearchResult, error)
	Stream(ctx context.Context, sessionID string, algorithm engine.Algorithm, fn func(engine.Record) error) (*SearchResult, error)
	StartRun(ctx context.Context, sessionID string, algorithm engine.Algorithm) (*RunInfo, error)
	StepRun(ctx context.Context, sessionID, runID string, count int) (*StepBatch, error)
	CancelRun(ctx context.Context, sessionID, runID string) error
	Compare(ctx context.Context, sessionID string) (*CompareResult, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Boards and algorithms
	ListBoards(ctx context.Context) ([]*board.Info, error)
	LoadBoard(ctx context.Context, name string) (*board.Board, error)
	SaveBoard(ctx context.Context, name string, b *board.Board) error
	ListAlgorithms(ctx context.Context) []AlgorithmInfo
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, b *board.Board) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	Count() int
}

// BoardManager handles board preset loading
type BoardManager interface {
	Load(name string) (*board.Board, error)
	List() ([]*board.Info, error)
	Default() *board.Board
	Save(name string, b *board.Board) error
}

// Session is one mutable board owned by a client. Search state never lives
// here; runs work on clones of Grid.
type Session struct {
	ID             string
	BoardName      string
	Grid           *grid.Grid
	Start          grid.Position
	End            grid.Position
	CreatedAt      time.Time
	History        []RunSummary
	Runs           map[string]*ActiveRun

	// unix nanoseconds; read by the expiry sweep without the service lock
	lastAccessed atomic.Int64
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) { s.lastAccessed.Store(t.UnixNano()) }

// LastAccessed returns the time of the most recent access
func (s *Session) LastAccessed() time.Time { return time.Unix(0, s.lastAccessed.Load()) }

// ActiveRun is a steppable run waiting for its next StepRun call
type ActiveRun struct {
	ID        string
	Run       *engine.Run
	StartedAt time.Time
	Start     grid.Position
	End       grid.Position
}

// NewSession builds a session from a board preset
func NewSession(id, boardName string, b *board.Board) (*Session, error) {
	g, start, end, err := b.Grid()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &Session{
		ID:        id,
		BoardName: boardName,
		Grid:      g,
		Start:     start,
		End:       end,
		CreatedAt: now,
		Runs:      make(map[string]*ActiveRun),
	}
	sess.Touch(now)
	return sess, nil
}
