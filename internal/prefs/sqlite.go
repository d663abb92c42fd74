package prefs

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

// SQLiteBackend stores preferences in a single-table sqlite database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (creating if needed) the database at path and
// applies pending migrations.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=rwc")
	if err != nil {
		return nil, err
	}
	// One writer keeps sqlite from reporting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBackend{db: db}, nil
}

func migrate(db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, value)
	return err
}

func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key)
	return err
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
