package deliverer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marcboeker/go-duckdb"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS deliverer_ids START 1;
CREATE SEQUENCE IF NOT EXISTS location_ids START 1;
CREATE TABLE IF NOT EXISTS deliverers (
	id   BIGINT PRIMARY KEY DEFAULT nextval('deliverer_ids'),
	name VARCHAR NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS locations (
	id           BIGINT PRIMARY KEY DEFAULT nextval('location_ids'),
	location     VARCHAR NOT NULL,
	deliverer_id BIGINT NOT NULL REFERENCES deliverers(id)
);
`

// SQLStore is a Store backed by DuckDB with a deliverers table and a
// locations table referencing it.
type SQLStore struct {
	db *sql.DB
}

// OpenDuckDB opens (or creates) the DuckDB database at path and prepares the
// schema. An empty path opens an in-memory database.
func OpenDuckDB(ctx context.Context, path string) (*SQLStore, error) {
	connector, err := duckdb.NewConnector(path, nil)
	if err != nil {
		return nil, fmt.Errorf("deliverer: open duckdb: %w", err)
	}
	db := sql.OpenDB(connector)
	// An in-memory database lives as long as its single connection.
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore prepares the schema on db and returns a store using it.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("deliverer: create schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func isConstraint(err error) bool {
	var de *duckdb.Error
	return errors.As(err, &de) && de.Type == duckdb.ErrorTypeConstraint
}

// CreateDeliverer implements Store.
func (s *SQLStore) CreateDeliverer(ctx context.Context, name string) (Deliverer, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Deliverer{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Deliverer{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT count(*) FROM deliverers WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return Deliverer{}, fmt.Errorf("deliverer: lookup name: %w", err)
	}
	if exists > 0 {
		return Deliverer{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	d := Deliverer{Name: name}
	err = tx.QueryRowContext(ctx, `INSERT INTO deliverers (name) VALUES (?) RETURNING id`, name).Scan(&d.ID)
	if err != nil {
		if isConstraint(err) {
			return Deliverer{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		return Deliverer{}, fmt.Errorf("deliverer: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Deliverer{}, fmt.Errorf("deliverer: commit: %w", err)
	}
	return d, nil
}

// ByName implements Store.
func (s *SQLStore) ByName(ctx context.Context, name string) (Deliverer, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Deliverer{}, err
	}
	d := Deliverer{Name: name}
	err = s.db.QueryRowContext(ctx, `SELECT id FROM deliverers WHERE name = ?`, name).Scan(&d.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return Deliverer{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Deliverer{}, fmt.Errorf("deliverer: lookup name: %w", err)
	}
	return d, nil
}

func (s *SQLStore) exists(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, id int64) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM deliverers WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("deliverer: lookup id: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// AddLocation implements Store.
func (s *SQLStore) AddLocation(ctx context.Context, delivererID int64, location string) error {
	if err := checkLocation(location); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.exists(ctx, tx, delivererID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO locations (location, deliverer_id) VALUES (?, ?)`, location, delivererID); err != nil {
		return fmt.Errorf("deliverer: insert location: %w", err)
	}
	return tx.Commit()
}

// Locations implements Store.
func (s *SQLStore) Locations(ctx context.Context, delivererID int64) ([]string, error) {
	if err := s.exists(ctx, s.db, delivererID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT location FROM locations WHERE deliverer_id = ? ORDER BY id`, delivererID)
	if err != nil {
		return nil, fmt.Errorf("deliverer: query locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context) ([]Deliverer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM deliverers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("deliverer: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Deliverer
	for rows.Next() {
		var d Deliverer
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ Store = (*SQLStore)(nil)
