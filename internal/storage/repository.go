// Package storage is the SQLite-backed local durable store.
//
// Values are kept in a key/value table, so the ledger is stored exactly as
// the serialized string the persistence layer hands over. Remote push
// outcomes are appended to sync_reports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stipendi/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps read-after-write trivially consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get returns the value stored under key.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	slog.DebugContext(ctx, "Local value stored", "key", key, "bytes", len(value))
	return nil
}

// Delete removes key; a missing key is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// RecordSync appends a push outcome.
func (r *SQLiteRepository) RecordSync(ctx context.Context, rep core.SyncReport) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.At.IsZero() {
		rep.At = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_reports (id, stamp, status, revision, kind, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, int64(rep.Stamp), string(rep.Status), rep.Revision, string(rep.Kind), rep.Error, rep.At.UTC())
	if err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	return nil
}

// RecentSyncs returns up to limit reports, newest first.
func (r *SQLiteRepository) RecentSyncs(ctx context.Context, limit int) ([]core.SyncReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, stamp, status, revision, kind, error, created_at
		 FROM sync_reports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync reports: %w", err)
	}
	defer rows.Close()

	var out []core.SyncReport
	for rows.Next() {
		var (
			rep          core.SyncReport
			stamp        int64
			status, kind string
		)
		if err := rows.Scan(&rep.ID, &stamp, &status, &rep.Revision, &kind, &rep.Error, &rep.At); err != nil {
			return nil, fmt.Errorf("scan sync report: %w", err)
		}
		rep.Stamp = uint64(stamp)
		rep.Status = core.SyncStatus(status)
		rep.Kind = core.SyncKind(kind)
		out = append(out, rep)
	}
	return out, rows.Err()
}
