package registry

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
)

//go:embed schema.sql
var schema string

const sqliteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"

// db wraps the sqlite connection behind the registry.
type db struct {
	conn *sql.DB
}

// Open opens (or creates) the filter database at path and loads every
// saved filter into a new registry. A saved filter that no longer parses
// is logged and skipped rather than failing startup; the row stays in the
// database so the user can repair it.
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("open filter database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping filter database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init filter schema: %w", err)
	}

	r := New()
	r.db = &db{conn: conn}
	if err := r.loadAll(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Registry) loadAll() error {
	rows, err := r.db.conn.Query(`SELECT name, source, is_default FROM filters ORDER BY name`)
	if err != nil {
		return fmt.Errorf("load filters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, source string
		var isDefault bool
		if err := rows.Scan(&name, &source, &isDefault); err != nil {
			return fmt.Errorf("scan filter row: %w", err)
		}
		f, err := filter.Parse(source)
		if err == nil {
			err = filter.Validate(f, message.KnownField)
		}
		if err != nil {
			r.logger.Warn("skipping saved filter", "name", name, "error", err)
			continue
		}
		r.filters[name] = f
		r.sources[name] = source
		if isDefault {
			r.def = name
		}
	}
	return rows.Err()
}

func (d *db) save(name, source string, isDefault bool) error {
	_, err := d.conn.Exec(`
		INSERT INTO filters (name, source, is_default, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			source = excluded.source,
			updated_at = excluded.updated_at
	`, name, source, isDefault)
	return err
}

func (d *db) delete(name string) error {
	_, err := d.conn.Exec(`DELETE FROM filters WHERE name = ?`, name)
	return err
}

// setDefault flips the default flag to the named row in one transaction.
func (d *db) setDefault(name string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.Exec(`UPDATE filters SET is_default = 0 WHERE is_default = 1`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`UPDATE filters SET is_default = 1 WHERE name = ?`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (d *db) close() error {
	return d.conn.Close()
}
