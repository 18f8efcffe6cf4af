// Package cache keeps ffprobe results in a local sqlite database so
// unchanged files are not probed again on every build.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string, logger zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, logger: logging.WithComponent(logger, "cache")}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if d.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := d.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := d.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		d.logger.Debug().Str("name", name).Msg("applied migration")
	}
	return nil
}

func (d *DB) isMigrationApplied(name string) bool {
	var exists int
	err := d.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = d.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Lookup returns the cached probe of path if it was stored for the same
// size and modification time.
func (d *DB) Lookup(ctx context.Context, path string, size, mtimeNS int64) (*ffmpeg.VideoInfo, bool, error) {
	var raw string
	err := d.conn.QueryRowContext(ctx,
		`SELECT info FROM probes WHERE path = ? AND size = ? AND mtime_ns = ?`,
		path, size, mtimeNS,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query probe cache: %w", err)
	}

	var info ffmpeg.VideoInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, false, fmt.Errorf("corrupt probe cache entry for %s: %w", path, err)
	}
	return &info, true, nil
}

// Store records the probe of path, replacing any older entry.
func (d *DB) Store(ctx context.Context, path string, size, mtimeNS int64, info *ffmpeg.VideoInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}

	_, err = d.conn.ExecContext(ctx,
		`INSERT INTO probes (path, size, mtime_ns, info) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   size = excluded.size,
		   mtime_ns = excluded.mtime_ns,
		   info = excluded.info,
		   updated_at = datetime('now')`,
		path, size, mtimeNS, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to store probe of %s: %w", path, err)
	}
	return nil
}

// Prune drops entries whose files no longer exist.
func (d *DB) Prune(ctx context.Context) (int, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT path FROM probes`)
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, p := range stale {
		if _, err := d.conn.ExecContext(ctx, `DELETE FROM probes WHERE path = ?`, p); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
