package board

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Manager loads board presets from a directory and caches them. Built-in
// presets are always available and can be shadowed by a file of the same name.
type Manager struct {
	dir    string
	boards map[string]*Board
	mu     sync.RWMutex
}

// NewManager creates a manager over dir. An empty dir serves built-ins only.
func NewManager(dir string) (*Manager, error) {
	if dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("boards directory does not exist: %s", dir)
		}
	}
	return &Manager{
		dir:    dir,
		boards: make(map[string]*Board),
	}, nil
}

// Dir returns the boards directory
func (m *Manager) Dir() string { return m.dir }

// Load returns the board registered under name
func (m *Manager) Load(name string) (*Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	if !validName(name) {
		return nil, fmt.Errorf("%w: bad board name %q", ErrBoardNotFound, name)
	}
	id := trimExt(name)

	m.mu.RLock()
	if b, ok := m.boards[id]; ok {
		m.mu.RUnlock()
		return b, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if b, ok := m.boards[id]; ok {
		return b, nil
	}

	b, err := m.readFile(id)
	if err == ErrBoardNotFound {
		b, err = builtin(id)
	}
	if err != nil {
		return nil, err
	}

	m.boards[id] = b
	return b, nil
}

// Default returns the classic board, falling back to the built-in copy when a
// shadowing file is broken.
func (m *Manager) Default() *Board {
	b, err := m.Load(DefaultName)
	if err != nil {
		log.Printf("Failed to load default board, using built-in: %v", err)
		return Classic()
	}
	return b
}

// List returns every loadable board sorted by id. Invalid files are skipped.
func (m *Manager) List() ([]*Info, error) {
	seen := make(map[string]*Info)

	for _, b := range Builtins() {
		info := b.Info(b.Name)
		info.Builtin = true
		seen[b.Name] = info
	}

	if m.dir != "" {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read boards directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !hasBoardExt(entry.Name()) {
				continue
			}
			id := trimExt(entry.Name())
			b, err := m.Load(id)
			if err != nil {
				log.WithField("file", entry.Name()).Debugf("Skipping board: %v", err)
				continue
			}
			info := b.Info(id)
			info.Filename = entry.Name()
			seen[id] = info
		}
	}

	infos := make([]*Info, 0, len(seen))
	for _, info := range seen {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Save validates b and writes it under name. The extension picks the format;
// names without one are written as JSON.
func (m *Manager) Save(name string, b *Board) error {
	if m.dir == "" {
		return fmt.Errorf("no boards directory configured")
	}
	if name == "" || !validName(name) {
		return fmt.Errorf("%w: bad board name %q", ErrInvalidBoard, name)
	}

	b.Normalize()
	if err := Validate(b); err != nil {
		return err
	}

	filename := name
	if !hasBoardExt(filename) {
		filename += ".json"
	}

	var (
		data []byte
		err  error
	)
	switch filepath.Ext(filename) {
	case ".json":
		data, err = json.MarshalIndent(b, "", "  ")
	default:
		data, err = yaml.Marshal(b)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.dir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write board file: %w", err)
	}

	m.mu.Lock()
	m.boards[trimExt(filename)] = b
	m.mu.Unlock()
	return nil
}

// RefreshCache drops every cached board so the next Load rereads the directory
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards = make(map[string]*Board)
}

// Parse decodes a board file by extension, normalizes and validates it
func Parse(filename string, data []byte) (*Board, error) {
	var b Board
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &b)
	default:
		err = json.Unmarshal(data, &b)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse board: %w", err)
	}

	b.Normalize()
	if b.Name == "" {
		b.Name = trimExt(filepath.Base(filename))
	}
	if err := Validate(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// validName rejects names that would resolve outside the boards directory
func validName(name string) bool {
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func (m *Manager) readFile(id string) (*Board, error) {
	if m.dir == "" {
		return nil, ErrBoardNotFound
	}
	for _, ext := range extensions {
		path := filepath.Join(m.dir, id+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read board file: %w", err)
		}
		return Parse(path, data)
	}
	return nil, ErrBoardNotFound
}

func builtin(id string) (*Board, error) {
	for _, b := range Builtins() {
		if strings.EqualFold(b.Name, id) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
}

func hasBoardExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func trimExt(name string) string {
	if hasBoardExt(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
