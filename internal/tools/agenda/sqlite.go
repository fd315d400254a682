package agenda

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists the agenda in a local database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating when missing) the database at path.
func OpenSQLite(ctx context.Context, path string, now func() time.Time) (*SQLite, error) {
	if now == nil {
		now = time.Now
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create agenda dir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open agenda db: %w", err)
	}
	// One writer keeps SQLITE_BUSY away from concurrent turns.
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS agenda_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at INTEGER NOT NULL,
  description TEXT NOT NULL
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init agenda schema: %w", err)
	}
	return &SQLite{db: db, now: now}, nil
}

func (s *SQLite) Add(ctx context.Context, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("empty agenda description")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agenda_entries (created_at, description) VALUES (?, ?)`,
		s.now().Unix(), description,
	)
	if err != nil {
		return fmt.Errorf("insert agenda entry: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT created_at, description FROM agenda_entries ORDER BY id`)
	if err != nil {
		return "", fmt.Errorf("query agenda: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			unix        int64
			description string
		)
		if err := rows.Scan(&unix, &description); err != nil {
			return "", fmt.Errorf("scan agenda entry: %w", err)
		}
		entries = append(entries, Entry{At: time.Unix(unix, 0), Description: description})
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate agenda: %w", err)
	}
	return render(entries), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
