package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/models"
	"github.com/nexofix/nexo/internal/notify"
	"github.com/nexofix/nexo/internal/store"
)

func setupTestServer(t *testing.T) (*Server, *store.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := store.NewSQLiteStore(dbPath, filepath.Join(dir, "images"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	// Every issue operation needs a logged-in user
	require.NoError(t, s.CreateProfile(context.Background(), &models.Profile{
		FullName: "Ana Souza",
		Email:    "ana@example.com",
	}))
	_, err = s.Login(context.Background(), "ana@example.com")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := board.NewEngine(s, notify.NewLog(logger))
	require.NoError(t, engine.Load(context.Background()))

	return NewServer(engine, s, logger), s
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createIssue(t *testing.T, router http.Handler, module string) *models.Issue {
	t.Helper()
	body := `{"Module":"` + module + `","Description":"something broke","Priority":"medium","Type":"bug"}`
	w := doJSON(t, router, "POST", "/api/v1/issues", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))
	return &issue
}

func TestListIssues_Empty(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, "GET", "/api/v1/issues", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var issues []*models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issues))
	assert.Empty(t, issues)
}

func TestIssueCRUD_API(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	issue := createIssue(t, router, "auth")
	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, models.StatusPending, issue.Status)

	// Get
	w := doJSON(t, router, "GET", "/api/v1/issues/"+issue.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Update
	w = doJSON(t, router, "PUT", "/api/v1/issues/"+issue.ID, `{"Description":"still broken","Priority":"high"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "still broken", updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)

	// Delete
	w = doJSON(t, router, "DELETE", "/api/v1/issues/"+issue.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/issues/"+issue.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateIssue_DefaultsAndBadJSON(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, "POST", "/api/v1/issues", `{"Module":"auth","Description":"x"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))
	assert.Equal(t, models.PriorityMedium, issue.Priority)
	assert.Equal(t, models.TypeProblem, issue.Type)

	w = doJSON(t, router, "POST", "/api/v1/issues", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIssue_Unauthenticated(t *testing.T) {
	srv, s := setupTestServer(t)
	require.NoError(t, s.Logout(context.Background()))
	router := srv.Router()

	w := doJSON(t, router, "POST", "/api/v1/issues", `{"Module":"auth","Description":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMoveIssue_ByStatus(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	issue := createIssue(t, router, "auth")

	w := doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var moved models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Equal(t, models.StatusInProgress, moved.Status)
}

func TestMoveIssue_ByDirection(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	issue := createIssue(t, router, "auth")

	w := doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{"direction":"next"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var moved models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Equal(t, models.StatusInProgress, moved.Status)

	// prev wraps back
	w = doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{"direction":"prev"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Equal(t, models.StatusPending, moved.Status)
}

func TestMoveIssue_Validation(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	issue := createIssue(t, router, "auth")

	w := doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{"status":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/issues/missing/move", `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueHistory(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	issue := createIssue(t, router, "auth")
	w := doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/issues/"+issue.ID+"/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var trail []models.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trail))
	require.Len(t, trail, 2)
	assert.Equal(t, models.StatusInProgress, trail[0].Status, "newest first")
	assert.Equal(t, models.StatusPending, trail[1].Status)
}

func TestListIssues_FilterAndSort(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	a := createIssue(t, router, "auth")
	b := createIssue(t, router, "billing")
	w := doJSON(t, router, "PUT", "/api/v1/issues/"+b.ID, `{"Priority":"high"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/issues?priority=high", "")
	require.Equal(t, http.StatusOK, w.Code)

	var issues []*models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, b.ID, issues[0].ID)

	w = doJSON(t, router, "GET", "/api/v1/issues?sort=priority&order=asc", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issues))
	require.Len(t, issues, 2)
	assert.Equal(t, a.ID, issues[0].ID, "medium before high ascending")
}

func TestListSystems_API(t *testing.T) {
	srv, s := setupTestServer(t)
	require.NoError(t, s.CreateSystem(context.Background(), &models.System{Name: "billing"}))
	router := srv.Router()

	w := doJSON(t, router, "GET", "/api/v1/systems", "")
	require.Equal(t, http.StatusOK, w.Code)

	var systems []*models.System
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &systems))
	require.Len(t, systems, 1)
	assert.Equal(t, "billing", systems[0].Name)
}

func TestBoardColumns_API(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	issue := createIssue(t, router, "auth")
	w := doJSON(t, router, "POST", "/api/v1/issues/"+issue.ID+"/move", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/board", "")
	require.Equal(t, http.StatusOK, w.Code)

	var cols []struct {
		Status models.Status
		Title  string
		Issues []*models.Issue
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cols))
	require.Len(t, cols, 3)
	assert.Equal(t, models.StatusPending, cols[0].Status)
	assert.Empty(t, cols[0].Issues)
	require.Len(t, cols[2].Issues, 1)
	assert.Equal(t, issue.ID, cols[2].Issues[0].ID)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("OPTIONS", "/api/v1/issues", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
