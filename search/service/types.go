package service

import (
	"time"

	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/grid"
)

// SessionInfo provides information about a session
type SessionInfo struct {
	ID             string        `json:"id"`
	BoardName      string        `json:"board_name"`
	Rows           int           `json:"rows"`
	Cols           int           `json:"cols"`
	WallCount      int           `json:"wall_count"`
	Start          grid.Position `json:"start"`
	End            grid.Position `json:"end"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
	ActiveRuns     int           `json:"active_runs"`
	RunCount       int           `json:"run_count"`
}

// BoardState is the editable part of a session
type BoardState struct {
	SessionID string          `json:"session_id"`
	Rows      int             `json:"rows"`
	Cols      int             `json:"cols"`
	Walls     []grid.Position `json:"walls"`
	Start     grid.Position   `json:"start"`
	End       grid.Position   `json:"end"`
	Rendered  []string        `json:"rendered,omitempty"`
}

// SearchResult is the outcome of a complete run
type SearchResult struct {
	SessionID string          `json:"session_id"`
	RunID     string          `json:"run_id"`
	Result    engine.Result   `json:"result"`
	Visited   []grid.Position `json:"visited"`
	Records   int             `json:"records"`
	Rendered  []string        `json:"rendered,omitempty"`
}

// RunInfo describes a steppable run
type RunInfo struct {
	RunID     string           `json:"run_id"`
	SessionID string           `json:"session_id"`
	Algorithm engine.Algorithm `json:"algorithm"`
	Status    engine.Status    `json:"status"`
	Steps     int              `json:"steps"`
	Start     grid.Position    `json:"start"`
	End       grid.Position    `json:"end"`
	StartedAt time.Time        `json:"started_at"`
}

// StepBatch holds the records produced by one StepRun call
type StepBatch struct {
	RunID   string          `json:"run_id"`
	Records []engine.Record `json:"records"`
	Done    bool            `json:"done"`
	Result  *engine.Result  `json:"result,omitempty"`
}

// CompareResult holds one result per algorithm over the same frozen board
type CompareResult struct {
	SessionID string          `json:"session_id"`
	Results   []engine.Result `json:"results"`
	// Shortest is the minimal path length among successful runs, -1 if none
	Shortest int `json:"shortest"`
	// Agree reports whether every shortest-path algorithm found the same length
	Agree bool `json:"agree"`
}

// RunSummary is one entry of a session's run history
type RunSummary struct {
	ID         string           `json:"id"`
	Algorithm  engine.Algorithm `json:"algorithm"`
	Mode       string           `json:"mode"`
	Status     engine.Status    `json:"status"`
	PathLength int              `json:"path_length"`
	Expanded   int              `json:"expanded"`
	Steps      int              `json:"steps"`
	Start      grid.Position    `json:"start"`
	End        grid.Position    `json:"end"`
	DurationMs float64          `json:"duration_ms"`
	FinishedAt time.Time        `json:"finished_at"`
}

// HistoryOptions configures run history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated run history
type HistoryResponse struct {
	Runs        []RunSummary `json:"runs"`
	TotalRuns   int          `json:"total_runs"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

// GenerateOptions describes a random board for GenerateSession. A zero Seed
// picks one from the clock.
type GenerateOptions struct {
	Rows    int     `json:"rows"`
	Cols    int     `json:"cols"`
	Density float64 `json:"density"`
	Seed    int64   `json:"seed"`
}

// AlgorithmInfo describes an available algorithm
type AlgorithmInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ShortestPath bool   `json:"shortest_path"`
}
