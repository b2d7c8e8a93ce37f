// Package store provides the relational data sources charted by pinchviz:
// an embedded SQLite database carrying a demo schema, and PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ayusman/pinchviz/internal/source"
)

// ErrUnknownTable is returned when a table name is not in the catalogue.
var ErrUnknownTable = source.ErrUnknownTable

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store represents a SQLite database holding the charted tables.
type Store struct {
	db   *sqlx.DB
	path string
}

// New creates a new Store with the given database path.
// It opens the database connection, enables foreign keys, and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ListTables returns the user tables in name order.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// foreignKeyRow holds the pragma columns we use. "to" is left out: it is
// NULL for keys declared without a column list.
type foreignKeyRow struct {
	Table string `db:"table"`
	From  string `db:"from"`
}

// ListRelationships reports every foreign key declared between user tables.
func (s *Store) ListRelationships(ctx context.Context) ([]source.Relationship, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	var rels []source.Relationship
	for _, table := range tables {
		var fks []foreignKeyRow
		if err := s.db.SelectContext(ctx, &fks, `SELECT "table", "from" FROM pragma_foreign_key_list(?)`, table); err != nil {
			return nil, fmt.Errorf("foreign keys of %s: %w", table, err)
		}
		for _, fk := range fks {
			rels = append(rels, source.Relationship{
				Table1:           table,
				Table2:           fk.Table,
				ReferencingTable: table,
				ReferencedTable:  fk.Table,
				ForeignKey:       fk.From,
			})
		}
	}
	return rels, nil
}

// FetchAll returns every row of table.
func (s *Store) FetchAll(ctx context.Context, table string) ([]source.Record, error) {
	if err := s.checkTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	return scanRecords(rows)
}

// FetchWithCount returns every parent row with an extra alias column holding
// the number of child rows whose foreignKey references it.
func (s *Store) FetchWithCount(ctx context.Context, parent, child, foreignKey, alias string) ([]source.Record, error) {
	for _, t := range []string{parent, child} {
		if err := s.checkTable(ctx, t); err != nil {
			return nil, err
		}
	}
	if !identPattern.MatchString(alias) {
		return nil, fmt.Errorf("invalid alias %q", alias)
	}

	var columns []string
	if err := s.db.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info(?)`, child); err != nil {
		return nil, fmt.Errorf("columns of %s: %w", child, err)
	}
	if !contains(columns, foreignKey) {
		return nil, fmt.Errorf("%s has no column %q: %w", child, foreignKey, source.ErrNoCountQuery)
	}

	query := fmt.Sprintf(
		`SELECT p.*, (SELECT COUNT(*) FROM %s c WHERE c.%s = p.id) AS %s FROM %s p`,
		quoteIdent(child), quoteIdent(foreignKey), quoteIdent(alias), quoteIdent(parent),
	)
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", child, parent, err)
	}
	return scanRecords(rows)
}

func (s *Store) checkTable(ctx context.Context, table string) error {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return err
	}
	if !contains(tables, table) {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return nil
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// scanRecords drains rows into records. Byte slices become strings so
// records render and serialise as text.
func scanRecords(rows *sqlx.Rows) ([]source.Record, error) {
	defer rows.Close()

	var records []source.Record
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		records = append(records, source.Record(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
