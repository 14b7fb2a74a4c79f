package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nexofix/nexo/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
// Beyond the engine-facing Store contract it carries the profile, session,
// and system management the CLI needs.
type SQLiteStore struct {
	db        *sql.DB
	imagesDir string
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
// Uploaded images are copied into imagesDir.
func NewSQLiteStore(dbPath, imagesDir string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db, imagesDir: imagesDir}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Profiles & session ---

// CreateProfile registers a user. ID and UserID are assigned when empty.
func (s *SQLiteStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	if p.UserID == "" {
		p.UserID = newULID()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, full_name, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.FullName, p.Email, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// GetProfileByEmail looks up a profile by email address.
func (s *SQLiteStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, full_name, email, created_at FROM profiles WHERE email = ?`, email,
	).Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns all registered profiles ordered by name.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, full_name, email, created_at FROM profiles ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []*models.Profile
	for rows.Next() {
		p := &models.Profile{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Login records the given profile as the current session user.
func (s *SQLiteStore) Login(ctx context.Context, email string) (*models.Profile, error) {
	p, err := s.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session (id, user_id) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id`, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return p, nil
}

// Logout clears the session.
func (s *SQLiteStore) Logout(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session"); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser resolves the session user, or (nil, nil) when logged out.
func (s *SQLiteStore) CurrentUser(ctx context.Context) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRowContext(ctx,
		`SELECT p.id, p.user_id, p.full_name, p.email, p.created_at
		FROM session s JOIN profiles p ON p.user_id = s.user_id
		WHERE s.id = 1`,
	).Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return p, nil
}

// --- Systems ---

// CreateSystem registers a system name for the module picker.
func (s *SQLiteStore) CreateSystem(ctx context.Context, sys *models.System) error {
	if sys.ID == "" {
		sys.ID = newULID()
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO systems (id, name) VALUES (?, ?)", sys.ID, sys.Name); err != nil {
		return fmt.Errorf("create system: %w", err)
	}
	return nil
}

// ListSystems returns all systems ordered by name.
func (s *SQLiteStore) ListSystems(ctx context.Context) ([]*models.System, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM systems ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var systems []*models.System
	for rows.Next() {
		sys := &models.System{}
		if err := rows.Scan(&sys.ID, &sys.Name); err != nil {
			return nil, fmt.Errorf("scan system: %w", err)
		}
		systems = append(systems, sys)
	}
	return systems, rows.Err()
}

// DeleteSystem removes a system by name.
func (s *SQLiteStore) DeleteSystem(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM systems WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete system: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("system not found: %s", name)
	}
	return nil
}

// --- Issues ---

// CreateIssue inserts a new issue and appends its initial history row in
// the same transaction, so the trail covers the issue from birth.
func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = newULID()
	}
	if issue.Status == "" {
		issue.Status = models.StatusPending
	}
	issue.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issues (id, module, description, priority, type, status, user_id, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.Module, issue.Description,
		string(issue.Priority), string(issue.Type), string(issue.Status),
		issue.OwnerID, nullString(issue.ImageURL), issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}

	if err := appendHistory(ctx, tx, issue.ID, issue.Status, issue.CreatedAt, issue.OwnerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// GetIssue loads a single issue with owner and history denormalized.
func (s *SQLiteStore) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	issues, err := s.queryIssues(ctx, "WHERE i.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("issue not found: %s", id)
	}
	return issues[0], nil
}

// ListIssues returns all issues newest-created first, each denormalized
// with its owner profile and status history.
func (s *SQLiteStore) ListIssues(ctx context.Context) ([]*models.Issue, error) {
	return s.queryIssues(ctx, "")
}

func (s *SQLiteStore) queryIssues(ctx context.Context, where string, args ...any) ([]*models.Issue, error) {
	query := `SELECT i.id, i.module, i.description, i.priority, i.type, i.status,
		i.user_id, i.image_url, i.created_at, i.updated_at,
		p.id, p.user_id, p.full_name, p.email, p.created_at
		FROM issues i
		LEFT JOIN profiles p ON p.user_id = i.user_id `
	query += where
	query += " ORDER BY i.created_at DESC, i.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*models.Issue
	byID := make(map[string]*models.Issue)
	for rows.Next() {
		issue := &models.Issue{}
		var priority, issueType, status string
		var imageURL sql.NullString
		var updatedAt sql.NullTime
		var pID, pUserID, pName, pEmail sql.NullString
		var pCreated sql.NullTime

		if err := rows.Scan(&issue.ID, &issue.Module, &issue.Description, &priority, &issueType, &status,
			&issue.OwnerID, &imageURL, &issue.CreatedAt, &updatedAt,
			&pID, &pUserID, &pName, &pEmail, &pCreated); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}

		issue.Priority = models.Priority(priority)
		issue.Type = models.IssueType(issueType)
		issue.Status = models.Status(status)
		if imageURL.Valid {
			issue.ImageURL = imageURL.String
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			issue.UpdatedAt = &t
		}
		if pID.Valid {
			issue.Owner = &models.Profile{
				ID:       pID.String,
				UserID:   pUserID.String,
				FullName: pName.String,
				Email:    pEmail.String,
			}
			if pCreated.Valid {
				issue.Owner.CreatedAt = pCreated.Time
			}
		}

		issues = append(issues, issue)
		byID[issue.ID] = issue
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return issues, nil
	}

	if err := s.loadHistory(ctx, byID, where, args...); err != nil {
		return nil, err
	}
	return issues, nil
}

// loadHistory attaches history entries to the given issues in one query.
func (s *SQLiteStore) loadHistory(ctx context.Context, byID map[string]*models.Issue, where string, args ...any) error {
	query := `SELECT h.id, h.issue_id, h.status, h.changed_at, COALESCE(h.changed_by, ''),
		COALESCE(p.full_name, '')
		FROM issue_history h
		LEFT JOIN profiles p ON p.user_id = h.changed_by
		JOIN issues i ON i.id = h.issue_id `
	query += where
	query += " ORDER BY h.changed_at, h.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e models.HistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.IssueID, &status, &e.ChangedAt, &e.ChangedBy, &e.ChangedByName); err != nil {
			return fmt.Errorf("scan history: %w", err)
		}
		e.Status = models.Status(status)
		if issue, ok := byID[e.IssueID]; ok {
			issue.History = append(issue.History, e)
		}
	}
	return rows.Err()
}

// UpdateIssue applies non-empty patch fields and stamps updated_at.
// Status is never touched here; see UpdateIssueStatus.
func (s *SQLiteStore) UpdateIssue(ctx context.Context, id string, patch IssuePatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if patch.Module != "" {
		sets = append(sets, "module = ?")
		args = append(args, patch.Module)
	}
	if patch.Description != "" {
		sets = append(sets, "description = ?")
		args = append(args, patch.Description)
	}
	if patch.Priority != "" {
		sets = append(sets, "priority = ?")
		args = append(args, string(patch.Priority))
	}
	if patch.Type != "" {
		sets = append(sets, "type = ?")
		args = append(args, string(patch.Type))
	}
	if patch.ImageURL != "" {
		sets = append(sets, "image_url = ?")
		args = append(args, patch.ImageURL)
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		"UPDATE issues SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue not found: %s", id)
	}
	return nil
}

// UpdateIssueStatus moves an issue to a new status and appends exactly one
// history row in the same transaction. The history row is attributed to
// the session user when one is logged in.
func (s *SQLiteStore) UpdateIssueStatus(ctx context.Context, id string, status models.Status, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"UPDATE issues SET status = ?, updated_at = ? WHERE id = ?",
		string(status), at, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue not found: %s", id)
	}

	var changedBy string
	_ = tx.QueryRowContext(ctx, "SELECT user_id FROM session WHERE id = 1").Scan(&changedBy)

	if err := appendHistory(ctx, tx, id, status, at, changedBy); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func appendHistory(ctx context.Context, tx *sql.Tx, issueID string, status models.Status, at time.Time, changedBy string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO issue_history (id, issue_id, status, changed_at, changed_by)
		VALUES (?, ?, ?, ?, ?)`,
		newULID(), issueID, string(status), at, nullString(changedBy))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// DeleteIssue removes an issue; its history rows cascade.
func (s *SQLiteStore) DeleteIssue(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue not found: %s", id)
	}
	return nil
}

// --- Attachments ---

// UploadImage copies the file into the images directory under a fresh
// ULID name and returns a file:// URL for it.
func (s *SQLiteStore) UploadImage(ctx context.Context, path string) (string, error) {
	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		return "", fmt.Errorf("create images directory: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = src.Close() }()

	name := newULID() + filepath.Ext(path)
	destPath := filepath.Join(s.imagesDir, name)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer func() { _ = dest.Close() }()

	if _, err := io.Copy(dest, src); err != nil {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("copy image: %w", err)
	}

	abs, err := filepath.Abs(destPath)
	if err != nil {
		abs = destPath
	}
	return "file://" + abs, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
