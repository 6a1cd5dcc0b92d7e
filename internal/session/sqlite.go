package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS local_storage (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cookies (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	path       TEXT NOT NULL,
	same_site  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);`

// SQLiteStorage keeps a session in a SQLite database so it survives process
// restarts, the way a browser profile keeps local storage and cookies.
type SQLiteStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

type cookieRow struct {
	Name      string `db:"name"`
	Value     string `db:"value"`
	Path      string `db:"path"`
	SameSite  int    `db:"same_site"`
	ExpiresAt int64  `db:"expires_at"`
}

// OpenSQLite opens (creating when needed) the session database at dsn.
func OpenSQLite(ctx context.Context, dsn string, now func() time.Time) (*SQLiteStorage, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("session: empty sqlite dsn")
	}
	if now == nil {
		now = time.Now
	}
	if dir := databaseDir(dsn); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("session: create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: open sqlite: %w", err)
	}
	// A single connection serialises writers and keeps in-memory databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db, now: now}, nil
}

// Close releases the database handle.
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Item returns the local storage value stored under key.
func (s *SQLiteStorage) Item(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrStorageClosed
	}
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM local_storage WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: read item %q: %w", key, err)
	}
	return value, true, nil
}

// Cookie returns the named cookie unless it is missing or expired.
func (s *SQLiteStorage) Cookie(ctx context.Context, name string) (CookieRecord, bool, error) {
	if s == nil || s.db == nil {
		return CookieRecord{}, false, ErrStorageClosed
	}
	var row cookieRow
	err := s.db.GetContext(ctx, &row, `SELECT name, value, path, same_site, expires_at FROM cookies WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return CookieRecord{}, false, nil
	}
	if err != nil {
		return CookieRecord{}, false, fmt.Errorf("session: read cookie %q: %w", name, err)
	}

	expiresAt := time.Unix(row.ExpiresAt, 0)
	now := s.now()
	if !now.Before(expiresAt) {
		return CookieRecord{}, false, nil
	}
	return CookieRecord{
		Name:      row.Name,
		Value:     row.Value,
		Path:      row.Path,
		MaxAge:    expiresAt.Sub(now),
		SameSite:  http.SameSite(row.SameSite),
		ExpiresAt: expiresAt,
	}, true, nil
}

// Apply writes the mutation in a single transaction.
func (s *SQLiteStorage) Apply(ctx context.Context, mutation Mutation) (err error) {
	if s == nil || s.db == nil {
		return ErrStorageClosed
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback error: %v)", err, rbErr)
			}
		}
	}()

	for key, value := range mutation.Set {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO local_storage (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("session: write item %q: %w", key, err)
		}
	}
	for _, key := range mutation.Remove {
		if _, err = tx.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
			return fmt.Errorf("session: remove item %q: %w", key, err)
		}
	}
	if c := mutation.Cookie; c != nil {
		if c.MaxAge <= 0 {
			_, err = tx.ExecContext(ctx, `DELETE FROM cookies WHERE name = ?`, c.Name)
		} else {
			row := cookieRow{
				Name:      c.Name,
				Value:     c.Value,
				Path:      c.Path,
				SameSite:  int(c.SameSite),
				ExpiresAt: s.now().Add(c.MaxAge).Unix(),
			}
			_, err = tx.NamedExecContext(ctx,
				`INSERT INTO cookies (name, value, path, same_site, expires_at)
				 VALUES (:name, :value, :path, :same_site, :expires_at)
				 ON CONFLICT(name) DO UPDATE SET value = excluded.value, path = excluded.path,
				 same_site = excluded.same_site, expires_at = excluded.expires_at`, row)
		}
		if err != nil {
			return fmt.Errorf("session: write cookie %q: %w", c.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("session: commit: %w", err)
	}
	return nil
}

func databaseDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
