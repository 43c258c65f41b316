package session

import (
	"time"

	"github.com/wricardo/gridsearch/search/grid"
	"github.com/wricardo/gridsearch/search/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the JSON structure of a persisted session. Only the
// board is stored; active runs and their search state are not.
type PersistedSessionData struct {
	ID             string               `json:"id"`
	BoardName      string               `json:"board_name"`
	Rows           int                  `json:"rows"`
	Cols           int                  `json:"cols"`
	Walls          []grid.Position      `json:"walls"`
	Start          grid.Position        `json:"start"`
	End            grid.Position        `json:"end"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	History        []service.RunSummary `json:"history,omitempty"`
}
