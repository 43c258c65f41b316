package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/session"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}

	expectedAppName := "Grid Search Server"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

// withDirs points the directory flags at temporary paths for one test
func withDirs(t *testing.T, boards, sessions string) {
	t.Helper()
	origBoards, origSessions := *boardsDir, *sessionsDir
	*boardsDir, *sessionsDir = boards, sessions
	t.Cleanup(func() {
		*boardsDir, *sessionsDir = origBoards, origSessions
	})
}

func TestInitializeServices(t *testing.T) {
	withDirs(t, t.TempDir(), filepath.Join(t.TempDir(), "sessions"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	searchService, sessionManager, err := initializeServices(ctx)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if searchService == nil || sessionManager == nil {
		t.Fatal("Expected services to be initialized")
	}

	info, err := searchService.CreateSession(ctx, board.DefaultName)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sessionManager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", sessionManager.Count())
	}
	if _, err := os.Stat(filepath.Join(*sessionsDir, strings.ToLower(info.ID)+".json")); err != nil {
		t.Errorf("Expected session file to be written: %v", err)
	}
}

func TestInitializeServices_InvalidBoardsDir(t *testing.T) {
	withDirs(t, "/non/existent/path", t.TempDir())

	_, _, err := initializeServices(context.Background())
	if err == nil {
		t.Error("Expected error for non-existent boards directory")
	}
}

func TestInitializeServices_MissingDefaultBoardsDir(t *testing.T) {
	// the package directory has no boards/ folder, so built-ins are served
	if _, err := os.Stat(defaultBoardsDir); err == nil {
		t.Skip("boards directory present")
	}
	withDirs(t, defaultBoardsDir, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	searchService, _, err := initializeServices(ctx)
	if err != nil {
		t.Fatalf("Expected built-in boards fallback, got %v", err)
	}
	boards, err := searchService.ListBoards(ctx)
	if err != nil {
		t.Fatalf("ListBoards failed: %v", err)
	}
	if len(boards) == 0 {
		t.Error("Expected built-in boards")
	}
}

func TestSyncWithFilesystem(t *testing.T) {
	dir := t.TempDir()
	persistence, err := session.NewFilePersistence(dir)
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}
	manager := session.NewManagerWithPersistence(persistence)

	b, err := board.NewManager("")
	if err != nil {
		t.Fatal(err)
	}
	classic, err := b.Load(board.DefaultName)
	if err != nil {
		t.Fatal(err)
	}

	kept, err := manager.Create("kept", classic)
	if err != nil {
		t.Fatal(err)
	}
	removed, err := manager.Create("removed", classic)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, strings.ToLower(removed.ID)+".json")); err != nil {
		t.Fatalf("Failed to remove session file: %v", err)
	}

	if pruned := syncWithFilesystem(manager, persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if _, err := manager.Get(kept.ID); err != nil {
		t.Errorf("Expected kept session to survive: %v", err)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session in memory, got %d", manager.Count())
	}
}

func TestMCPEndpoint(t *testing.T) {
	withDirs(t, t.TempDir(), t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	searchService, _, err := initializeServices(ctx)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(newHandler(ctx, searchService, "http://unused"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /mcp, got %d", resp.StatusCode)
	}

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	resp, err = http.Post(srv.URL+"/mcp", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var reply map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("Failed to decode MCP reply: %v", err)
	}
	if reply["jsonrpc"] != "2.0" {
		t.Errorf("Expected JSON-RPC reply, got %v", reply)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected healthz 200, got %d", resp.StatusCode)
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}
	if *host == "" {
		t.Error("Host should have a default value")
	}
	if *boardsDir == "" {
		t.Error("Boards directory should have a default value")
	}
	if *sessionsDir == "" {
		t.Error("Sessions directory should have a default value")
	}
	if *sessionTTL != 24*time.Hour {
		t.Errorf("Expected 24h session TTL, got %v", *sessionTTL)
	}
}

func TestApplyEnvDefaults(t *testing.T) {
	withDirs(t, defaultBoardsDir, "sessions")
	t.Setenv("BOARDS_DIR", "/srv/boards")
	t.Setenv("SESSIONS_DIR", "/srv/sessions")

	// an explicit flag wins over the environment
	if err := flag.CommandLine.Set("sessions-dir", "explicit"); err != nil {
		t.Fatal(err)
	}
	applyEnvDefaults(flag.CommandLine)

	if *boardsDir != "/srv/boards" {
		t.Errorf("Expected boards dir from environment, got %q", *boardsDir)
	}
	if *sessionsDir != "explicit" {
		t.Errorf("Expected explicit sessions dir, got %q", *sessionsDir)
	}
}
