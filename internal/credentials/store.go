// ABOUTME: SQLite-backed store for persisted bearer tokens using modernc.org/sqlite
// ABOUTME: One credential row per named profile with automatic schema creation

package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no credential exists for a profile.
var ErrNotFound = errors.New("credential not found")

// DefaultProfile is used when the caller does not name one.
const DefaultProfile = "default"

// Credential is a persisted login for one backend profile.
type Credential struct {
	Profile string
	UserID  string
	Token   string
	SavedAt time.Time
}

// Store persists credentials in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the credential database at path.
// Parent directories are created if needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "credentials")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating credential directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("credential store opened", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS credentials (
			profile TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save upserts the credential for its profile.
func (s *Store) Save(ctx context.Context, cred Credential) error {
	if cred.Profile == "" {
		cred.Profile = DefaultProfile
	}
	if cred.SavedAt.IsZero() {
		cred.SavedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (profile, user_id, token, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			user_id = excluded.user_id,
			token = excluded.token,
			saved_at = excluded.saved_at
	`, cred.Profile, cred.UserID, cred.Token, cred.SavedAt)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}

	s.logger.Debug("credential saved", "profile", cred.Profile, "user_id", cred.UserID)
	return nil
}

// Load fetches the credential for a profile.
func (s *Store) Load(ctx context.Context, profile string) (Credential, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	var cred Credential
	err := s.db.QueryRowContext(ctx, `
		SELECT profile, user_id, token, saved_at
		FROM credentials WHERE profile = ?
	`, profile).Scan(&cred.Profile, &cred.UserID, &cred.Token, &cred.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("loading credential: %w", err)
	}
	return cred, nil
}

// Delete removes the credential for a profile. Missing profiles are a no-op.
func (s *Store) Delete(ctx context.Context, profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE profile = ?`, profile); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// List returns all stored credentials ordered by profile.
func (s *Store) List(ctx context.Context) ([]Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile, user_id, token, saved_at
		FROM credentials ORDER BY profile
	`)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	defer rows.Close()

	var out []Credential
	for rows.Next() {
		var cred Credential
		if err := rows.Scan(&cred.Profile, &cred.UserID, &cred.Token, &cred.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
