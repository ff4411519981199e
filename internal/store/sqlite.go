package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores sessions in a single table, one JSON blob per session.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the session database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite session store: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite". Pragmas go in the DSN so
	// every pooled connection gets them.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateSessions(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite session store: migrate: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

func (b *SQLiteBackend) Path() string { return b.path }

func migrateSessions(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			expires_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (b *SQLiteBackend) Load(ctx context.Context, id string) (Record, error) {
	row := b.db.QueryRowContext(ctx, `SELECT id, json, created_at_unixms, updated_at_unixms, expires_at_unixms FROM sessions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrSessionNotFound
	}
	return rec, err
}

func (b *SQLiteBackend) Save(ctx context.Context, rec Record) error {
	js, err := encodeSession(rec.Data)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `INSERT INTO sessions(id, json, created_at_unixms, updated_at_unixms, expires_at_unixms)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			json = excluded.json,
			updated_at_unixms = excluded.updated_at_unixms,
			expires_at_unixms = excluded.expires_at_unixms`,
		rec.ID, js, toUnixMs(rec.CreatedAt), toUnixMs(rec.UpdatedAt), toUnixMs(rec.ExpiresAt))
	return err
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (b *SQLiteBackend) List(ctx context.Context) ([]Record, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, json, created_at_unixms, updated_at_unixms, expires_at_unixms FROM sessions ORDER BY updated_at_unixms DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *SQLiteBackend) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at_unixms > 0 AND expires_at_unixms <= ?`, toUnixMs(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(r rowScanner) (Record, error) {
	var (
		rec                         Record
		js                          string
		createdMs, updatedMs, expMs int64
	)
	if err := r.Scan(&rec.ID, &js, &createdMs, &updatedMs, &expMs); err != nil {
		return Record{}, err
	}
	s, err := decodeSession(js)
	if err != nil {
		return Record{}, fmt.Errorf("session %s: %w", rec.ID, err)
	}
	rec.Data = s
	rec.CreatedAt = fromUnixMs(createdMs)
	rec.UpdatedAt = fromUnixMs(updatedMs)
	rec.ExpiresAt = fromUnixMs(expMs)
	return rec, nil
}

func toUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
