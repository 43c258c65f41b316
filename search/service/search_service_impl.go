package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/grid"
	"github.com/wricardo/gridsearch/search/metrics"
)

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrProtectedCell = errors.New("start and end cells cannot become walls")
)

// Limits applied per session
const (
	MaxHistory    = 100
	MaxActiveRuns = 8
	MaxStepBatch  = 500
)

// searchServiceImpl implements the SearchService interface
type searchServiceImpl struct {
	sessions SessionManager
	boards   BoardManager
	mu       sync.RWMutex
}

// NewSearchService creates a new search service instance
func NewSearchService(sessions SessionManager, boards BoardManager) SearchService {
	return &searchServiceImpl{
		sessions: sessions,
		boards:   boards,
	}
}

// CreateSession creates a session from a board preset, or the default board
// when boardName is empty
func (s *searchServiceImpl) CreateSession(ctx context.Context, boardName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b *board.Board
	if boardName != "" {
		var err error
		b, err = s.boards.Load(boardName)
		if err != nil {
			if errors.Is(err, board.ErrBoardNotFound) {
				if infos, listErr := s.boards.List(); listErr == nil && len(infos) > 0 {
					ids := make([]string, len(infos))
					for i, info := range infos {
						ids[i] = info.ID
					}
					return nil, fmt.Errorf("board '%s' not found, available boards: %v: %w", boardName, ids, err)
				}
			}
			return nil, fmt.Errorf("failed to load board %s: %w", boardName, err)
		}
	} else {
		b = s.boards.Default()
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", b)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SetSessions(s.sessions.Count())

	log.WithFields(log.Fields{"session": sess.ID, "board": sess.BoardName}).Info("Session created")
	return sessionInfo(sess), nil
}

// GenerateSession creates a session over a freshly generated random board
func (s *searchServiceImpl) GenerateSession(ctx context.Context, opts GenerateOptions) (*SessionInfo, error) {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	b := &board.Board{
		Name:        "generated",
		Description: fmt.Sprintf("%dx%d random board, density %.2f, seed %d", opts.Rows, opts.Cols, opts.Density, opts.Seed),
		Rows:        opts.Rows,
		Cols:        opts.Cols,
		WallDensity: opts.Density,
		Seed:        opts.Seed,
	}
	if err := board.Validate(b); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Create("", b)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SetSessions(s.sessions.Count())

	log.WithFields(log.Fields{"session": sess.ID, "rows": opts.Rows, "cols": opts.Cols, "seed": opts.Seed}).Info("Generated session")
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *searchServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(sess), nil
}

// ListSessions returns all sessions, oldest first
func (s *searchServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession deletes a session and drops its active runs
func (s *searchServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, err := s.sessions.Get(sessionID); err == nil {
		for range sess.Runs {
			metrics.RunFinished()
		}
		sess.Runs = make(map[string]*ActiveRun)
	}
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	metrics.SetSessions(s.sessions.Count())
	return nil
}

// GetBoard returns the current board of a session
func (s *searchServiceImpl) GetBoard(ctx context.Context, sessionID string) (*BoardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return boardState(sess), nil
}

// ToggleWall flips a wall. The start and end cells are protected.
func (s *searchServiceImpl) ToggleWall(ctx context.Context, sessionID string, pos grid.Position) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if pos == sess.Start || pos == sess.End {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrProtectedCell, pos.X, pos.Y)
	}
	if err := sess.Grid.ToggleWall(pos.X, pos.Y); err != nil {
		return nil, err
	}

	s.touch(sess)
	return boardState(sess), nil
}

// SetStart moves the start cell
func (s *searchServiceImpl) SetStart(ctx context.Context, sessionID string, pos grid.Position) (*BoardState, error) {
	return s.moveEndpoint(sessionID, pos, true)
}

// SetEnd moves the end cell
func (s *searchServiceImpl) SetEnd(ctx context.Context, sessionID string, pos grid.Position) (*BoardState, error) {
	return s.moveEndpoint(sessionID, pos, false)
}

// ClearWalls removes every wall of a session board
func (s *searchServiceImpl) ClearWalls(ctx context.Context, sessionID string) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Grid.ClearWalls()

	s.touch(sess)
	return boardState(sess), nil
}

// Search runs algorithm to completion on a frozen copy of the session board
func (s *searchServiceImpl) Search(ctx context.Context, sessionID string, algorithm engine.Algorithm) (*SearchResult, error) {
	return s.runToEnd(ctx, sessionID, algorithm, metrics.ModeSearch, nil)
}

// Stream runs algorithm to completion and hands every record to fn in order
func (s *searchServiceImpl) Stream(ctx context.Context, sessionID string, algorithm engine.Algorithm, fn func(engine.Record) error) (*SearchResult, error) {
	if fn == nil {
		fn = func(engine.Record) error { return nil }
	}
	return s.runToEnd(ctx, sessionID, algorithm, metrics.ModeStream, fn)
}

// StartRun creates a steppable run owned by the session. The oldest run is
// dropped once a session holds MaxActiveRuns.
func (s *searchServiceImpl) StartRun(ctx context.Context, sessionID string, algorithm engine.Algorithm) (*RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	run, err := engine.NewRun(sess.Grid, sess.Start, sess.End, algorithm)
	if err != nil {
		return nil, err
	}

	if len(sess.Runs) >= MaxActiveRuns {
		var oldest *ActiveRun
		for _, ar := range sess.Runs {
			if oldest == nil || ar.StartedAt.Before(oldest.StartedAt) {
				oldest = ar
			}
		}
		delete(sess.Runs, oldest.ID)
		metrics.RunFinished()
		log.WithFields(log.Fields{"session": sess.ID, "run": oldest.ID}).Debug("Evicted oldest run")
	}

	ar := &ActiveRun{
		ID:        uuid.NewString(),
		Run:       run,
		StartedAt: time.Now(),
		Start:     sess.Start,
		End:       sess.End,
	}
	if sess.Runs == nil {
		sess.Runs = make(map[string]*ActiveRun)
	}
	sess.Runs[ar.ID] = ar
	metrics.RunStarted()

	return runInfo(sess.ID, ar), nil
}

// StepRun advances a run by up to count records. The run is discarded after
// its terminal record. Every record taken from the run is returned.
func (s *searchServiceImpl) StepRun(ctx context.Context, sessionID, runID string, count int) (*StepBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	ar, ok := sess.Runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if count < 1 {
		count = 1
	}
	if count > MaxStepBatch {
		count = MaxStepBatch
	}

	// A cancelled request fails only before the first step. Once records are
	// taken the run has advanced past them, so the batch ends early instead.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch := &StepBatch{RunID: runID, Records: make([]engine.Record, 0, count)}
	for i := 0; i < count; i++ {
		if i > 0 && ctx.Err() != nil {
			break
		}
		rec, ok := ar.Run.Next()
		if !ok {
			break
		}
		batch.Records = append(batch.Records, rec)
		if rec.Terminal() {
			break
		}
	}

	if ar.Run.Done() {
		res := ar.Run.Result()
		elapsed := time.Since(ar.StartedAt)
		batch.Done = true
		batch.Result = &res

		delete(sess.Runs, runID)
		metrics.RunFinished()
		metrics.ObserveSearch(res, metrics.ModeStep, elapsed)
		s.recordRun(sess, runID, metrics.ModeStep, ar.Start, ar.End, res, elapsed)
	}
	return batch, nil
}

// CancelRun discards a run before its terminal record
func (s *searchServiceImpl) CancelRun(ctx context.Context, sessionID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	if _, ok := sess.Runs[runID]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	delete(sess.Runs, runID)
	metrics.RunFinished()
	return nil
}

// Compare runs every algorithm concurrently over one frozen snapshot
func (s *searchServiceImpl) Compare(ctx context.Context, sessionID string) (*CompareResult, error) {
	snap, err := s.snapshot(sessionID)
	if err != nil {
		return nil, err
	}

	algorithms := engine.All()
	results := make([]engine.Result, len(algorithms))
	durations := make([]time.Duration, len(algorithms))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range algorithms {
		g.Go(func() error {
			began := time.Now()
			res, err := engine.Solve(gctx, snap.grid, snap.start, snap.end, a)
			if err != nil {
				return fmt.Errorf("%s: %w", a, err)
			}
			results[i] = res
			durations[i] = time.Since(began)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &CompareResult{SessionID: snap.id, Results: results, Shortest: -1, Agree: true}
	lengths := make(map[int]bool)
	for _, res := range results {
		if res.Found() && (cmp.Shortest < 0 || res.PathLength < cmp.Shortest) {
			cmp.Shortest = res.PathLength
		}
		if res.Algorithm.ShortestPath() {
			lengths[res.PathLength] = true
		}
	}
	cmp.Agree = len(lengths) <= 1

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, err := s.sessions.Get(snap.id); err == nil {
		for i, res := range results {
			metrics.ObserveSearch(res, metrics.ModeCompare, durations[i])
			s.recordRun(sess, uuid.NewString(), metrics.ModeCompare, snap.start, snap.end, res, durations[i])
		}
	}
	return cmp, nil
}

// GetHistory returns paginated run history
func (s *searchServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	runs := []RunSummary{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			runs = append(runs, history[i])
		}
	} else if start < total {
		runs = append(runs, history[start:end]...)
	}

	return &HistoryResponse{
		Runs:        runs,
		TotalRuns:   total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListBoards returns available board presets
func (s *searchServiceImpl) ListBoards(ctx context.Context) ([]*board.Info, error) {
	return s.boards.List()
}

// LoadBoard loads a board preset
func (s *searchServiceImpl) LoadBoard(ctx context.Context, name string) (*board.Board, error) {
	return s.boards.Load(name)
}

// SaveBoard writes a board preset
func (s *searchServiceImpl) SaveBoard(ctx context.Context, name string, b *board.Board) error {
	return s.boards.Save(name, b)
}

// ListAlgorithms describes the available algorithms
func (s *searchServiceImpl) ListAlgorithms(ctx context.Context) []AlgorithmInfo {
	var infos []AlgorithmInfo
	for _, a := range engine.All() {
		infos = append(infos, AlgorithmInfo{
			Name:         a.String(),
			Description:  a.Description(),
			ShortestPath: a.ShortestPath(),
		})
	}
	return infos
}

type boardSnapshot struct {
	id    string
	grid  *grid.Grid
	start grid.Position
	end   grid.Position
}

// snapshot copies the session board so a run can proceed without the lock
func (s *searchServiceImpl) snapshot(sessionID string) (*boardSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return &boardSnapshot{
		id:    sess.ID,
		grid:  sess.Grid.Clone(),
		start: sess.Start,
		end:   sess.End,
	}, nil
}

func (s *searchServiceImpl) runToEnd(ctx context.Context, sessionID string, algorithm engine.Algorithm, mode string, fn func(engine.Record) error) (*SearchResult, error) {
	snap, err := s.snapshot(sessionID)
	if err != nil {
		return nil, err
	}

	run, err := engine.NewRun(snap.grid, snap.start, snap.end, algorithm, engine.WithSnapshots(fn != nil))
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	began := time.Now()
	err = run.Drive(ctx, func(rec engine.Record) error {
		if fn == nil {
			return nil
		}
		return fn(rec)
	})
	if err != nil {
		log.WithFields(log.Fields{"session": snap.id, "run": runID, "algorithm": algorithm}).Debugf("Run stopped: %v", err)
		return nil, err
	}
	elapsed := time.Since(began)
	res := run.Result()
	metrics.ObserveSearch(res, mode, elapsed)

	visited := run.Closed()
	result := &SearchResult{
		SessionID: snap.id,
		RunID:     runID,
		Result:    res,
		Visited:   visited,
		Records:   run.Steps(),
		Rendered: grid.Render(run.Grid(), grid.Overlay{
			Start:   &snap.start,
			End:     &snap.end,
			Path:    res.Path,
			Visited: visited,
		}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, err := s.sessions.Get(snap.id); err == nil {
		s.recordRun(sess, runID, mode, snap.start, snap.end, res, elapsed)
	}

	log.WithFields(log.Fields{
		"session":   snap.id,
		"algorithm": algorithm,
		"status":    res.Status,
		"expanded":  res.Expanded,
		"path":      res.PathLength,
	}).Debug("Search finished")
	return result, nil
}

func (s *searchServiceImpl) moveEndpoint(sessionID string, pos grid.Position, start bool) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	node, err := sess.Grid.NodeAt(pos.X, pos.Y)
	if err != nil {
		return nil, err
	}

	if start {
		if node.Wall {
			return nil, fmt.Errorf("%w: (%d,%d)", engine.ErrStartIsWall, pos.X, pos.Y)
		}
		sess.Start = pos
	} else {
		if node.Wall {
			return nil, fmt.Errorf("%w: (%d,%d)", engine.ErrEndIsWall, pos.X, pos.Y)
		}
		sess.End = pos
	}

	s.touch(sess)
	return boardState(sess), nil
}

// recordRun appends to the bounded history. Caller holds the write lock.
func (s *searchServiceImpl) recordRun(sess *Session, runID, mode string, start, end grid.Position, res engine.Result, elapsed time.Duration) {
	sess.History = append(sess.History, RunSummary{
		ID:         runID,
		Algorithm:  res.Algorithm,
		Mode:       mode,
		Status:     res.Status,
		PathLength: res.PathLength,
		Expanded:   res.Expanded,
		Steps:      res.Steps,
		Start:      start,
		End:        end,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
		FinishedAt: time.Now(),
	})
	if over := len(sess.History) - MaxHistory; over > 0 {
		sess.History = append([]RunSummary(nil), sess.History[over:]...)
	}
	s.touch(sess)
}

// touch persists a changed session. Caller holds the write lock.
func (s *searchServiceImpl) touch(sess *Session) {
	sess.Touch(time.Now())
	if err := s.sessions.Save(sess.ID); err != nil {
		log.WithField("session", sess.ID).Warnf("Failed to persist session: %v", err)
	}
}

func (s *searchServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return sess, nil
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		BoardName:      sess.BoardName,
		Rows:           sess.Grid.Rows(),
		Cols:           sess.Grid.Cols(),
		WallCount:      sess.Grid.WallCount(),
		Start:          sess.Start,
		End:            sess.End,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		ActiveRuns:     len(sess.Runs),
		RunCount:       len(sess.History),
	}
}

func boardState(sess *Session) *BoardState {
	walls := sess.Grid.Walls()
	if walls == nil {
		walls = []grid.Position{}
	}
	return &BoardState{
		SessionID: sess.ID,
		Rows:      sess.Grid.Rows(),
		Cols:      sess.Grid.Cols(),
		Walls:     walls,
		Start:     sess.Start,
		End:       sess.End,
		Rendered: grid.Render(sess.Grid, grid.Overlay{
			Start: &sess.Start,
			End:   &sess.End,
		}),
	}
}

func runInfo(sessionID string, ar *ActiveRun) *RunInfo {
	return &RunInfo{
		RunID:     ar.ID,
		SessionID: sessionID,
		Algorithm: ar.Run.Algorithm(),
		Status:    ar.Run.Status(),
		Steps:     ar.Run.Steps(),
		Start:     ar.Start,
		End:       ar.End,
		StartedAt: ar.StartedAt,
	}
}
