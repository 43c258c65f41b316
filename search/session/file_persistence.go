package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/gridsearch/search/grid"
	"github.com/wricardo/gridsearch/search/service"
)

// FilePersistence implements SessionPersistence with one JSON file per session
type FilePersistence struct {
	sessionsDir string
	// serializes writes; concurrent saves of one session share a temp file
	mu sync.Mutex
}

// NewFilePersistence creates a file-based persistence layer, creating
// sessionsDir when missing
func NewFilePersistence(sessionsDir string) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{sessionsDir: sessionsDir}, nil
}

// Save persists a session to a JSON file
func (fp *FilePersistence) Save(sess *service.Session) error {
	if sess == nil {
		return fmt.Errorf("session cannot be nil")
	}

	walls := sess.Grid.Walls()
	if walls == nil {
		walls = []grid.Position{}
	}
	data := PersistedSessionData{
		ID:             sess.ID,
		BoardName:      sess.BoardName,
		Rows:           sess.Grid.Rows(),
		Cols:           sess.Grid.Cols(),
		Walls:          walls,
		Start:          sess.Start,
		End:            sess.End,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		History:        sess.History,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	// Write through a temp file so a crash never leaves a truncated session
	filePath := fp.getFilePath(sess.ID)
	tmp := filePath + ".tmp"

	fp.mu.Lock()
	defer fp.mu.Unlock()
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Load rebuilds a session from its JSON file
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	walls := make(map[grid.Position]bool, len(data.Walls))
	for _, p := range data.Walls {
		walls[p] = true
	}
	g, err := grid.Build(data.Rows, data.Cols, func(i, j int) bool {
		return walls[grid.Position{X: i, Y: j}]
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild board: %w", err)
	}
	for _, p := range []grid.Position{data.Start, data.End} {
		if !g.InBounds(p.X, p.Y) {
			return nil, fmt.Errorf("persisted endpoint (%d,%d): %w", p.X, p.Y, grid.ErrOutOfBounds)
		}
	}

	sess := &service.Session{
		ID:        data.ID,
		BoardName: data.BoardName,
		Grid:      g,
		Start:     data.Start,
		End:       data.End,
		CreatedAt: data.CreatedAt,
		History:   data.History,
		Runs:      make(map[string]*service.ActiveRun),
	}
	sess.Touch(data.LastAccessedAt)
	return sess, nil
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}
	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the file path for a session ID. IDs are stored lower-case
// so lookups stay case-insensitive on every filesystem.
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", strings.ToLower(id)))
}
