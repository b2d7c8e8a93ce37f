// Package source defines the relational data capability consumed by the
// data join engine.
package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTable is returned when a table name is not in the catalogue.
var ErrUnknownTable = errors.New("unknown table")

// ErrNoCountQuery is returned by sources that cannot run a nested count query.
var ErrNoCountQuery = errors.New("count query not supported")

// Record is one row keyed by column name.
type Record map[string]any

// Relationship describes a foreign key between two tables.
type Relationship struct {
	Table1           string `json:"table1"`
	Table2           string `json:"table2"`
	ReferencingTable string `json:"referencing_table"`
	ReferencedTable  string `json:"referenced_table"`
	ForeignKey       string `json:"foreign_key"`
}

// Involves reports whether the relationship links exactly the tables a and b,
// in either order.
func (r Relationship) Involves(a, b string) bool {
	return (r.ReferencingTable == a && r.ReferencedTable == b) ||
		(r.ReferencingTable == b && r.ReferencedTable == a)
}

// Source lists tables, reports their relationships and fetches rows.
type Source interface {
	ListTables(ctx context.Context) ([]string, error)
	ListRelationships(ctx context.Context) ([]Relationship, error)
	FetchAll(ctx context.Context, table string) ([]Record, error)
}

// CountQuerier is implemented by sources that can return every parent row
// augmented with the number of child rows referencing it.
type CountQuerier interface {
	FetchWithCount(ctx context.Context, parent, child, foreignKey, alias string) ([]Record, error)
}

// Find returns the relationship linking a and b, if any.
func Find(rels []Relationship, a, b string) (Relationship, bool) {
	for _, r := range rels {
		if r.Involves(a, b) {
			return r, true
		}
	}
	return Relationship{}, false
}

// Static is an in-memory Source used for demos and tests.
type Static struct {
	Tables        map[string][]Record
	Order         []string
	Relationships []Relationship
	Err           error
}

// ListTables returns the configured table order.
func (s *Static) ListTables(ctx context.Context) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]string(nil), s.Order...), nil
}

// ListRelationships returns the configured relationships.
func (s *Static) ListRelationships(ctx context.Context) ([]Relationship, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]Relationship(nil), s.Relationships...), nil
}

// FetchAll returns copies of the configured rows.
func (s *Static) FetchAll(ctx context.Context, table string) ([]Record, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, ok := s.Tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		c := make(Record, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out, nil
}
