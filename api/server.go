package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/gridsearch/search/board"
	"github.com/wricardo/gridsearch/search/engine"
	"github.com/wricardo/gridsearch/search/grid"
	"github.com/wricardo/gridsearch/search/service"
	"github.com/wricardo/gridsearch/search/session"
	"github.com/wricardo/gridsearch/transport/websocket"
)

// DefaultAnimationDelay paces /animate when the request gives no delay_ms
const DefaultAnimationDelay = 25 * time.Millisecond

// Server represents the REST API server
type Server struct {
	service  service.SearchService
	hub      *websocket.Hub
	animator *websocket.Animator
	router   *mux.Router
}

// NewServer creates a new API server
func NewServer(searchService service.SearchService, hub *websocket.Hub, animator *websocket.Animator) *Server {
	s := &Server{
		service:  searchService,
		hub:      hub,
		animator: animator,
		router:   mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// must be registered before the {id} pattern
	api.HandleFunc("/sessions/generate", s.handleGenerateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Board editing
	api.HandleFunc("/sessions/{id}/board", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/sessions/{id}/walls/toggle", s.handleToggleWall).Methods("POST")
	api.HandleFunc("/sessions/{id}/walls", s.handleClearWalls).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/start", s.handleSetStart).Methods("PUT")
	api.HandleFunc("/sessions/{id}/end", s.handleSetEnd).Methods("PUT")

	// Searching
	api.HandleFunc("/sessions/{id}/search", s.handleSearch).Methods("POST")
	api.HandleFunc("/sessions/{id}/animate", s.handleAnimate).Methods("POST")
	api.HandleFunc("/sessions/{id}/animate", s.handleStopAnimation).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/runs", s.handleStartRun).Methods("POST")
	api.HandleFunc("/sessions/{id}/runs/{run}/step", s.handleStepRun).Methods("POST")
	api.HandleFunc("/sessions/{id}/runs/{run}", s.handleCancelRun).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/compare", s.handleCompare).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Boards and algorithms
	api.HandleFunc("/boards", s.handleListBoards).Methods("GET")
	api.HandleFunc("/boards", s.handleSaveBoard).Methods("POST")
	api.HandleFunc("/boards/{name}", s.handleGetBoardPreset).Methods("GET")
	api.HandleFunc("/algorithms", s.handleListAlgorithms).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("HTTP request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, board.ErrBoardNotFound):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrOutOfBounds),
		errors.Is(err, grid.ErrInvalidDimensions),
		errors.Is(err, engine.ErrStartIsWall),
		errors.Is(err, engine.ErrEndIsWall),
		errors.Is(err, engine.ErrInvalidAlgorithm),
		errors.Is(err, board.ErrInvalidBoard),
		errors.Is(err, service.ErrProtectedCell):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		// client went away
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body into v
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseAlgorithm defaults to A* when the name is empty
func parseAlgorithm(name string) (engine.Algorithm, error) {
	if name == "" {
		return engine.AStar, nil
	}
	return engine.ParseAlgorithm(name)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BoardID string `json:"board_id,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.CreateSession(r.Context(), req.BoardID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGenerateSession(w http.ResponseWriter, r *http.Request) {
	opts := service.GenerateOptions{Rows: 30, Cols: 50, Density: 0.3}
	if err := decodeBody(r, &opts); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.GenerateSession(r.Context(), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	if s.animator != nil {
		s.animator.Stop(sessionID)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Board Handlers

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetBoard(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleToggleWall(w http.ResponseWriter, r *http.Request) {
	s.editCell(w, r, s.service.ToggleWall)
}

func (s *Server) handleSetStart(w http.ResponseWriter, r *http.Request) {
	s.editCell(w, r, s.service.SetStart)
}

func (s *Server) handleSetEnd(w http.ResponseWriter, r *http.Request) {
	s.editCell(w, r, s.service.SetEnd)
}

// editCell decodes a {x,y} body, applies edit and broadcasts the new board
func (s *Server) editCell(w http.ResponseWriter, r *http.Request, edit func(context.Context, string, grid.Position) (*service.BoardState, error)) {
	sessionID := mux.Vars(r)["id"]

	var pos *grid.Position
	if err := decodeBody(r, &pos); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if pos == nil {
		respondError(w, http.StatusBadRequest, "body must contain x and y")
		return
	}

	state, err := edit(r.Context(), sessionID, *pos)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.BroadcastBoard(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleClearWalls(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.ClearWalls(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.BroadcastBoard(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

// Search Handlers

type algorithmRequest struct {
	Algorithm string `json:"algorithm"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req algorithmRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	algorithm, err := parseAlgorithm(req.Algorithm)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := s.service.Search(r.Context(), sessionID, algorithm)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.BroadcastEvent(sessionID, websocket.EventSearchDone, result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if s.animator == nil {
		respondError(w, http.StatusServiceUnavailable, "animation is not enabled")
		return
	}

	var req struct {
		Algorithm string `json:"algorithm"`
		DelayMs   *int64 `json:"delay_ms,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	algorithm, err := parseAlgorithm(req.Algorithm)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	delay := DefaultAnimationDelay
	if req.DelayMs != nil {
		delay = time.Duration(*req.DelayMs) * time.Millisecond
	}

	// Verify session exists before going asynchronous
	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	anim, err := s.animator.Start(sessionID, algorithm, delay)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, anim)
}

func (s *Server) handleStopAnimation(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if s.animator == nil || !s.animator.Stop(sessionID) {
		respondError(w, http.StatusNotFound, "no animation running")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Animation for session %s stopped", sessionID),
	})
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req algorithmRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	algorithm, err := parseAlgorithm(req.Algorithm)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	info, err := s.service.StartRun(r.Context(), sessionID, algorithm)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleStepRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, runID := vars["id"], vars["run"]

	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := s.service.StepRun(r.Context(), sessionID, runID, req.Count)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	for _, rec := range batch.Records {
		s.hub.BroadcastRecord(sessionID, rec)
	}
	respondJSON(w, http.StatusOK, batch)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, runID := vars["id"], vars["run"]

	if err := s.service.CancelRun(r.Context(), sessionID, runID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s cancelled", runID),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Compare(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Board Preset Handlers

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(boards),
		"boards": boards,
	})
}

func (s *Server) handleGetBoardPreset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	b, err := s.service.LoadBoard(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleSaveBoard(w http.ResponseWriter, r *http.Request) {
	var b board.Board
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid board: %v", err))
		return
	}
	if b.Name == "" {
		respondError(w, http.StatusBadRequest, "board name is required")
		return
	}

	if err := s.service.SaveBoard(r.Context(), b.Name, &b); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Board %s saved", b.Name),
		"id":      b.Name,
	})
}

func (s *Server) handleListAlgorithms(w http.ResponseWriter, r *http.Request) {
	algorithms := s.service.ListAlgorithms(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(algorithms),
		"algorithms": algorithms,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	// Verify session exists
	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
