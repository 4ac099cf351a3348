// Package sqlite provides durable storage backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// archive interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.scribe/data/scribe.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".scribe", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "scribe.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SessionArchive returns a SessionArchive interface backed by this store.
func (s *Store) SessionArchive() driven.SessionArchive {
	return &sessionArchive{store: s}
}

// ExtractionArchive returns an ExtractionArchive interface backed by this store.
func (s *Store) ExtractionArchive() driven.ExtractionArchive {
	return &extractionArchive{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Session Archive ====================

// sessionArchive implements driven.SessionArchive.
type sessionArchive struct {
	store *Store
}

var _ driven.SessionArchive = (*sessionArchive)(nil)

// Save stores or replaces a session under its id. The transcript is
// serialised as a whole; there are no partial updates.
func (a *sessionArchive) Save(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		return domain.ErrInvalidInput
	}

	turnsJSON, err := json.Marshal(session.Turns)
	if err != nil {
		return fmt.Errorf("marshalling turns: %w", err)
	}

	_, err = a.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, turns, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			turns = excluded.turns,
			updated_at = excluded.updated_at
	`, session.ID, string(turnsJSON), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Get retrieves a session by id.
func (a *sessionArchive) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := a.store.db.QueryRowContext(ctx, `
		SELECT id, turns, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return session, nil
}

// List returns all stored sessions, most recent first.
func (a *sessionArchive) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := a.store.db.QueryContext(ctx, `
		SELECT id, turns, created_at, updated_at
		FROM sessions ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes a session from the archive.
func (a *sessionArchive) Delete(ctx context.Context, id string) error {
	_, err := a.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanSession reads one session row, deserialising the transcript.
func scanSession(row scanner) (*domain.Session, error) {
	var session domain.Session
	var turnsJSON string
	if err := row.Scan(&session.ID, &turnsJSON, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(turnsJSON), &session.Turns); err != nil {
		return nil, fmt.Errorf("unmarshalling turns: %w", err)
	}
	return &session, nil
}

// ==================== Extraction Archive ====================

// extractionArchive implements driven.ExtractionArchive.
type extractionArchive struct {
	store *Store
}

var _ driven.ExtractionArchive = (*extractionArchive)(nil)

// Save stores or replaces the record for an image. Last write wins.
func (a *extractionArchive) Save(ctx context.Context, record *domain.ExtractionRecord) error {
	if record.ImageName == "" {
		return domain.ErrInvalidInput
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}

	_, err = a.store.db.ExecContext(ctx, `
		INSERT INTO extractions (image_name, record, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(image_name) DO UPDATE SET
			record = excluded.record,
			updated_at = CURRENT_TIMESTAMP
	`, record.ImageName, string(recordJSON))
	if err != nil {
		return fmt.Errorf("saving extraction: %w", err)
	}
	return nil
}

// Get retrieves the record for an image name.
func (a *extractionArchive) Get(ctx context.Context, imageName string) (*domain.ExtractionRecord, error) {
	var recordJSON string
	err := a.store.db.QueryRowContext(ctx, `
		SELECT record FROM extractions WHERE image_name = ?
	`, imageName).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}

	var record domain.ExtractionRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, fmt.Errorf("unmarshalling record: %w", err)
	}
	return &record, nil
}
