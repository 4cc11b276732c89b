package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hermes/internal/config"
)

// FileName is the registry database inside the projects directory.
const FileName = "registry.db"

// Entry is one remembered project.
type Entry struct {
	SavePath  string    `json:"save_path"`
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	Words     int       `json:"words"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the SQLite-backed registry.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the registry under cfg's projects directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.ProjectsDir, FileName))
}

// OpenPath connects to the registry database at path and applies migrations.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Touch records a save of a project, inserting or refreshing its entry.
func (s *Store) Touch(ctx context.Context, entry Entry) error {
	savePath := strings.TrimSpace(entry.SavePath)
	if savePath == "" {
		return fmt.Errorf("registry touch: empty save path")
	}
	if abs, err := filepath.Abs(savePath); err == nil {
		savePath = abs
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recent_projects (save_path, name, mode, words, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(save_path) DO UPDATE SET
            name = excluded.name,
            mode = excluded.mode,
            words = excluded.words,
            updated_at = excluded.updated_at`,
		savePath, entry.Name, entry.Mode, entry.Words, now, now,
	)
	if err != nil {
		return fmt.Errorf("registry touch: %w", err)
	}
	return nil
}

// Recent lists entries, most recently updated first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT save_path, name, mode, words, created_at, updated_at
              FROM recent_projects ORDER BY updated_at DESC, save_path`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("registry list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var created, updated string
		if err := rows.Scan(&entry.SavePath, &entry.Name, &entry.Mode, &entry.Words, &created, &updated); err != nil {
			return nil, fmt.Errorf("registry scan: %w", err)
		}
		entry.CreatedAt = parseTime(created)
		entry.UpdatedAt = parseTime(updated)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry rows: %w", err)
	}
	return entries, nil
}

// Forget removes the entry for savePath.
func (s *Store) Forget(ctx context.Context, savePath string) error {
	if abs, err := filepath.Abs(savePath); err == nil {
		savePath = abs
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM recent_projects WHERE save_path = ?", savePath); err != nil {
		return fmt.Errorf("registry forget: %w", err)
	}
	return nil
}

// Prune removes entries whose save file no longer exists and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	entries, err := s.Recent(ctx, 0)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if _, err := os.Stat(entry.SavePath); err == nil || !os.IsNotExist(err) {
			continue
		}
		if err := s.Forget(ctx, entry.SavePath); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
