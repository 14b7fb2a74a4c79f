package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/models"
	"github.com/nexofix/nexo/internal/store"
)

// Server exposes the board engine over REST. The engine assumes one
// caller at a time, so every handler runs under the server's mutex.
type Server struct {
	mu     sync.Mutex
	engine *board.Engine
	store  store.Store
	log    *slog.Logger
}

// NewServer creates an API server around a loaded engine.
func NewServer(engine *board.Engine, s store.Store, logger *slog.Logger) *Server {
	return &Server{
		engine: engine,
		store:  s,
		log:    logger,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/issues", s.listIssues)
	mux.HandleFunc("POST /api/v1/issues", s.createIssue)
	mux.HandleFunc("GET /api/v1/issues/{id}", s.getIssue)
	mux.HandleFunc("PUT /api/v1/issues/{id}", s.updateIssue)
	mux.HandleFunc("DELETE /api/v1/issues/{id}", s.deleteIssue)
	mux.HandleFunc("POST /api/v1/issues/{id}/move", s.moveIssue)
	mux.HandleFunc("GET /api/v1/issues/{id}/history", s.issueHistory)

	mux.HandleFunc("GET /api/v1/systems", s.listSystems)
	mux.HandleFunc("GET /api/v1/board", s.boardColumns)

	return s.logMiddleware(corsMiddleware(mux))
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine sentinel errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Issues ---

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Load(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	q := board.Query{
		Priority:  models.Priority(r.URL.Query().Get("priority")),
		Status:    models.Status(r.URL.Query().Get("status")),
		SortField: board.SortField(r.URL.Query().Get("sort")),
		SortOrder: board.SortOrder(r.URL.Query().Get("order")),
	}
	issues := board.ApplyQuery(s.engine.Board().Issues(), q)
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.engine.Board().Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "issue not found")
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var draft board.IssueDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if draft.Priority == "" {
		draft.Priority = models.PriorityMedium
	}
	if draft.Type == "" {
		draft.Type = models.TypeProblem
	}

	issue, err := s.engine.Create(r.Context(), draft)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var patch board.IssuePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := r.PathValue("id")
	if err := s.engine.Update(r.Context(), id, patch); err != nil {
		writeEngineError(w, err)
		return
	}

	issue, _ := s.engine.Board().Get(id)
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) deleteIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Status    string `json:"status"`
	Direction string `json:"direction"`
}

func (s *Server) moveIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := r.PathValue("id")
	var err error
	switch {
	case req.Direction != "":
		issue, ok := s.engine.Board().Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "issue not found")
			return
		}
		dir := board.Next
		if req.Direction == "prev" {
			dir = board.Prev
		} else if req.Direction != "next" {
			writeError(w, http.StatusBadRequest, "direction must be next or prev")
			return
		}
		err = s.engine.MoveByDirection(r.Context(), issue, dir)
	case req.Status != "":
		dest := models.Status(req.Status)
		if !dest.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		err = s.engine.Move(r.Context(), id, dest)
	default:
		writeError(w, http.StatusBadRequest, "status or direction required")
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	issue, _ := s.engine.Board().Get(id)
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) issueHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Load(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	issue, ok := s.engine.Board().Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "issue not found")
		return
	}
	writeJSON(w, http.StatusOK, board.ProjectHistory(issue))
}

// --- Reference data ---

func (s *Server) listSystems(w http.ResponseWriter, r *http.Request) {
	systems, err := s.store.ListSystems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, systems)
}

// boardColumns returns the issues grouped into workflow columns.
func (s *Server) boardColumns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Load(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type columnOut struct {
		Status models.Status
		Title  string
		Issues []*models.Issue
	}
	var out []columnOut
	for _, col := range models.Columns() {
		out = append(out, columnOut{
			Status: col.Status,
			Title:  col.Title,
			Issues: s.engine.Board().ByStatus(col.Status),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
