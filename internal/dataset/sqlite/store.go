// Package sqlite keeps a snapshot of the dashboard table in a SQLite file.
// The snapshot is written by Import and read back by Load.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"superdash/internal/core"
)

// ErrNoSnapshot is returned by Load before anything was imported.
var ErrNoSnapshot = errors.New("no dataset imported")

// ImportInfo summarises the last snapshot written.
type ImportInfo struct {
	Source     string
	Rows       int
	ImportedAt time.Time
}

// Store is a migrated SQLite database holding at most one table snapshot.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database directory if needed, applies migrations and
// returns a ready store.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: dbPath}, nil
}

func (s *Store) Name() string { return "sqlite:" + s.path }

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Import replaces the stored snapshot with t in a single transaction.
// source is recorded for the import log.
func (s *Store) Import(ctx context.Context, t *core.Table, source string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM dataset_cells", "DELETE FROM dataset_columns"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	for pos, name := range t.Header() {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO dataset_columns (position, name) VALUES (?, ?)", pos, name); err != nil {
			return fmt.Errorf("insert column %q: %w", name, err)
		}
	}

	ins, err := tx.PrepareContext(ctx,
		"INSERT INTO dataset_cells (row_index, position, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare cell insert: %w", err)
	}
	defer ins.Close()

	err = t.EachRow(func(i int, row []string) error {
		for pos, v := range row {
			if _, err := ins.ExecContext(ctx, i, pos, v); err != nil {
				return fmt.Errorf("insert row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO dataset_imports (source, row_count, imported_at) VALUES (?, ?, ?)",
		source, t.Len(), time.Now().Unix()); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// Load rebuilds the snapshot table.
func (s *Store) Load(ctx context.Context) (*core.Table, error) {
	header, err := s.columns(ctx)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, ErrNoSnapshot
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT row_index, position, value FROM dataset_cells ORDER BY row_index, position")
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var ri, pos int
		var v string
		if err := rows.Scan(&ri, &pos, &v); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		for len(out) <= ri {
			out = append(out, make([]string, len(header)))
		}
		if pos >= len(header) {
			return nil, fmt.Errorf("cell at row %d references unknown column %d", ri+1, pos)
		}
		out[ri][pos] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}
	return core.NewTable(header, out)
}

func (s *Store) columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM dataset_columns ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		header = append(header, name)
	}
	return header, rows.Err()
}

// LastImport returns the most recent import record.
func (s *Store) LastImport(ctx context.Context) (ImportInfo, error) {
	var info ImportInfo
	var unix int64
	err := s.db.QueryRowContext(ctx,
		"SELECT source, row_count, imported_at FROM dataset_imports ORDER BY id DESC LIMIT 1").
		Scan(&info.Source, &info.Rows, &unix)
	if errors.Is(err, sql.ErrNoRows) {
		return ImportInfo{}, ErrNoSnapshot
	}
	if err != nil {
		return ImportInfo{}, fmt.Errorf("query last import: %w", err)
	}
	info.ImportedAt = time.Unix(unix, 0).UTC()
	return info, nil
}
