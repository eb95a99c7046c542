// Package db persists the install manifest in a local sqlite database.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scruffaluff/binstall/internal/core"
)

// DB wraps the manifest database with separate read/write pools.
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New opens (creating if needed) the manifest database at dbPath.
func New(ctx context.Context, dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: single connection, sqlite allows one writer
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)

	db := &DB{write: write, read: read, path: dbPath}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

func (d *DB) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS installs (
	tool         TEXT PRIMARY KEY,
	version      TEXT NOT NULL,
	path         TEXT NOT NULL,
	scope        TEXT NOT NULL,
	install_date TIMESTAMP NOT NULL
);`
	_, err := d.write.ExecContext(ctx, schema)
	return err
}

// Upsert records an install, replacing any prior record for the same tool.
func (d *DB) Upsert(ctx context.Context, rec *core.InstallRecord) error {
	const query = `
INSERT INTO installs (tool, version, path, scope, install_date)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(tool) DO UPDATE SET
	version = excluded.version,
	path = excluded.path,
	scope = excluded.scope,
	install_date = excluded.install_date;`

	_, err := d.write.ExecContext(ctx, query,
		rec.Tool, rec.Version, rec.Path, rec.Scope, rec.InstallDate.UTC())
	if err != nil {
		return fmt.Errorf("upsert install record: %w", err)
	}
	return nil
}

// Get returns the record for a tool, or nil when none exists.
func (d *DB) Get(ctx context.Context, tool string) (*core.InstallRecord, error) {
	const query = `SELECT tool, version, path, scope, install_date FROM installs WHERE tool = ?;`

	var rec core.InstallRecord
	err := d.read.QueryRowContext(ctx, query, tool).Scan(
		&rec.Tool, &rec.Version, &rec.Path, &rec.Scope, &rec.InstallDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query install record: %w", err)
	}
	return &rec, nil
}

// List returns all records ordered by tool name.
func (d *DB) List(ctx context.Context) ([]core.InstallRecord, error) {
	const query = `SELECT tool, version, path, scope, install_date FROM installs ORDER BY tool;`

	rows, err := d.read.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list install records: %w", err)
	}
	defer rows.Close()

	var records []core.InstallRecord
	for rows.Next() {
		var rec core.InstallRecord
		if err := rows.Scan(&rec.Tool, &rec.Version, &rec.Path, &rec.Scope, &rec.InstallDate); err != nil {
			return nil, fmt.Errorf("scan install record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes the record for a tool. Deleting a missing record is not an
// error.
func (d *DB) Delete(ctx context.Context, tool string) error {
	const query = `DELETE FROM installs WHERE tool = ?;`
	if _, err := d.write.ExecContext(ctx, query, tool); err != nil {
		return fmt.Errorf("delete install record: %w", err)
	}
	return nil
}

// Close closes both connection pools.
func (d *DB) Close() error {
	var firstErr error
	if err := d.write.Close(); err != nil {
		firstErr = err
	}
	if err := d.read.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
