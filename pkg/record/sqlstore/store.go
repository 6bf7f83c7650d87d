// Package sqlstore persists records in a SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
)

const (
	driverName = "sqlite"
	dirPerm    = 0o750
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	kind TEXT NOT NULL,
	id   TEXT NOT NULL,
	body TEXT NOT NULL,
	UNIQUE (kind, id)
);
`

// Store is a record.Store backed by SQLite. List returns records in insertion
// order; replacing a record keeps its position.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	mkErr := os.MkdirAll(filepath.Dir(path), dirPerm)
	if mkErr != nil {
		return nil, fmt.Errorf("create directory: %w", mkErr)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	_, execErr := db.Exec(schema)
	if execErr != nil {
		closeErr := db.Close()

		return nil, errors.Join(fmt.Errorf("initialize schema: %w", execErr), closeErr)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Put implements record.Store inside a single transaction.
func (s *Store) Put(ctx context.Context, records ...record.Record) error {
	if s.db == nil {
		return record.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	for _, rec := range records {
		putErr := putOne(ctx, tx, rec)
		if putErr != nil {
			return errors.Join(putErr, tx.Rollback())
		}
	}

	commitErr := tx.Commit()
	if commitErr != nil {
		return fmt.Errorf("commit: %w", commitErr)
	}

	return nil
}

func putOne(ctx context.Context, tx *sql.Tx, rec record.Record) error {
	validateErr := rec.Validate()
	if validateErr != nil {
		return fmt.Errorf("put %q: %w", rec.ID, validateErr)
	}

	body, marshalErr := json.Marshal(rec)
	if marshalErr != nil {
		return fmt.Errorf("encode %q: %w", rec.ID, marshalErr)
	}

	_, execErr := tx.ExecContext(ctx,
		`INSERT INTO records (kind, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET body = excluded.body`,
		rec.Kind, rec.ID, string(body))
	if execErr != nil {
		return fmt.Errorf("insert %q: %w", rec.ID, execErr)
	}

	return nil
}

// List implements record.Lister.
func (s *Store) List(ctx context.Context, kind string) ([]record.Record, error) {
	if s.db == nil {
		return nil, record.ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM records WHERE kind = ? ORDER BY rowid`, kind)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []record.Record

	for rows.Next() {
		var body string

		scanErr := rows.Scan(&body)
		if scanErr != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, scanErr)
		}

		var rec record.Record

		decodeErr := json.Unmarshal([]byte(body), &rec)
		if decodeErr != nil {
			return nil, fmt.Errorf("decode %s record: %w", kind, decodeErr)
		}

		out = append(out, rec)
	}

	rowsErr := rows.Err()
	if rowsErr != nil {
		return nil, fmt.Errorf("query %s: %w", kind, rowsErr)
	}

	return out, nil
}

// Kinds implements record.Store.
func (s *Store) Kinds(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, record.ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT kind FROM records ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("query kinds: %w", err)
	}
	defer rows.Close()

	var kinds []string

	for rows.Next() {
		var kind string

		scanErr := rows.Scan(&kind)
		if scanErr != nil {
			return nil, fmt.Errorf("scan kind: %w", scanErr)
		}

		kinds = append(kinds, kind)
	}

	rowsErr := rows.Err()
	if rowsErr != nil {
		return nil, fmt.Errorf("query kinds: %w", rowsErr)
	}

	return kinds, nil
}

// Close implements record.Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	return nil
}
