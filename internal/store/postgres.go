package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ayusman/pinchviz/internal/source"
)

// Postgres serves tables from the public schema of a PostgreSQL database.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres connects to the database at connStr.
func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// ListTables returns the base tables of the public schema in name order.
func (p *Postgres) ListTables(ctx context.Context) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	var names []string
	if err := p.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

// ListRelationships reports the foreign keys declared in the public schema.
func (p *Postgres) ListRelationships(ctx context.Context) ([]source.Relationship, error) {
	const query = `
		SELECT
			tc.table_name AS referencing_table,
			ccu.table_name AS referenced_table,
			kcu.column_name AS foreign_key
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = 'public'
		ORDER BY tc.table_name, kcu.column_name`

	var rows []struct {
		Referencing string `db:"referencing_table"`
		Referenced  string `db:"referenced_table"`
		ForeignKey  string `db:"foreign_key"`
	}
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}

	rels := make([]source.Relationship, 0, len(rows))
	for _, r := range rows {
		rels = append(rels, source.Relationship{
			Table1:           r.Referencing,
			Table2:           r.Referenced,
			ReferencingTable: r.Referencing,
			ReferencedTable:  r.Referenced,
			ForeignKey:       r.ForeignKey,
		})
	}
	return rels, nil
}

// FetchAll returns every row of table.
func (p *Postgres) FetchAll(ctx context.Context, table string) ([]source.Record, error) {
	if err := p.checkTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryxContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	return scanRecords(rows)
}

// FetchWithCount returns every parent row with the number of referencing
// child rows in the alias column.
func (p *Postgres) FetchWithCount(ctx context.Context, parent, child, foreignKey, alias string) ([]source.Record, error) {
	for _, t := range []string{parent, child} {
		if err := p.checkTable(ctx, t); err != nil {
			return nil, err
		}
	}

	var n int
	err := p.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2`,
		child, foreignKey)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", child, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s has no column %q: %w", child, foreignKey, source.ErrNoCountQuery)
	}

	query := fmt.Sprintf(
		`SELECT p.*, (SELECT COUNT(*) FROM %s c WHERE c.%s = p.id) AS %s FROM %s p`,
		pq.QuoteIdentifier(child), pq.QuoteIdentifier(foreignKey),
		pq.QuoteIdentifier(alias), pq.QuoteIdentifier(parent),
	)
	rows, err := p.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by %s: %w", child, parent, err)
	}
	return scanRecords(rows)
}

func (p *Postgres) checkTable(ctx context.Context, table string) error {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return err
	}
	if !contains(tables, table) {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return nil
}
