package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/pinchviz/internal/source"
)

var (
	_ source.Source       = (*Store)(nil)
	_ source.CountQuerier = (*Store)(nil)
	_ source.Source       = (*Postgres)(nil)
	_ source.CountQuerier = (*Postgres)(nil)
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestStore_ListTables(t *testing.T) {
	s := newTestStore(t)

	tables, err := s.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}

	want := []string{"categories", "events", "posts", "products", "registrations", "users"}
	if len(tables) != len(want) {
		t.Fatalf("tables = %v, want %v", tables, want)
	}
	for i := range want {
		if tables[i] != want[i] {
			t.Errorf("tables[%d] = %q, want %q", i, tables[i], want[i])
		}
	}
}

func TestStore_ListRelationships(t *testing.T) {
	s := newTestStore(t)

	rels, err := s.ListRelationships(context.Background())
	if err != nil {
		t.Fatalf("ListRelationships: %v", err)
	}

	tests := []struct {
		a, b string
		fk   string
		from string
	}{
		{"users", "posts", "user_id", "posts"},
		{"products", "categories", "category_id", "products"},
		{"events", "registrations", "event_id", "registrations"},
	}
	for _, tt := range tests {
		r, ok := source.Find(rels, tt.a, tt.b)
		if !ok {
			t.Errorf("no relationship between %s and %s", tt.a, tt.b)
			continue
		}
		if r.ForeignKey != tt.fk || r.ReferencingTable != tt.from {
			t.Errorf("relationship %s-%s = %+v", tt.a, tt.b, r)
		}
	}

	if _, ok := source.Find(rels, "users", "categories"); ok {
		t.Error("users and categories should not be related")
	}
}

func TestStore_ListRelationships_ShorthandReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No column list: the pragma reports a NULL target column.
	if _, err := s.DB().ExecContext(ctx, `CREATE TABLE comments (
		id INTEGER PRIMARY KEY,
		author INTEGER REFERENCES users,
		body TEXT
	)`); err != nil {
		t.Fatalf("create comments: %v", err)
	}

	rels, err := s.ListRelationships(ctx)
	if err != nil {
		t.Fatalf("ListRelationships: %v", err)
	}
	r, ok := source.Find(rels, "comments", "users")
	if !ok {
		t.Fatal("no relationship between comments and users")
	}
	if r.ForeignKey != "author" || r.ReferencingTable != "comments" || r.ReferencedTable != "users" {
		t.Errorf("relationship = %+v", r)
	}
}

func TestStore_FetchAll(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	rows, err := s.FetchAll(ctx, "events")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(rows) != len(seedEvents) {
		t.Fatalf("got %d events, want %d", len(rows), len(seedEvents))
	}
	if title, ok := rows[0]["title"].(string); !ok || title != "Go Meetup" {
		t.Errorf("first title = %#v", rows[0]["title"])
	}

	_, err = s.FetchAll(ctx, `events"; DROP TABLE users; --`)
	if !errors.Is(err, ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", err)
	}
}

func TestStore_FetchWithCount(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	rows, err := s.FetchWithCount(ctx, "events", "registrations", "event_id", "registration_count")
	if err != nil {
		t.Fatalf("FetchWithCount: %v", err)
	}

	counts, err := s.Registrations().CountByEvent(ctx)
	if err != nil {
		t.Fatalf("CountByEvent: %v", err)
	}

	for _, r := range rows {
		id := r["id"].(int64)
		got := r["registration_count"].(int64)
		if int(got) != counts[id] {
			t.Errorf("event %d: registration_count = %d, want %d", id, got, counts[id])
		}
	}

	_, err = s.FetchWithCount(ctx, "events", "registrations", "eventId", "registration_count")
	if !errors.Is(err, source.ErrNoCountQuery) {
		t.Errorf("missing column: expected ErrNoCountQuery, got %v", err)
	}

	_, err = s.FetchWithCount(ctx, "events", "registrations", "event_id", "bad alias")
	if err == nil {
		t.Error("expected error for invalid alias")
	}
}

func TestStore_SeedIsIdempotent(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var n int
	if err := s.DB().Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		t.Fatal(err)
	}
	if n != len(seedUsers) {
		t.Errorf("users = %d, want %d", n, len(seedUsers))
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := map[string]string{
		"users":     `"users"`,
		`we"ird`:    `"we""ird"`,
		"has space": `"has space"`,
	}
	for in, want := range tests {
		if got := quoteIdent(in); got != want {
			t.Errorf("quoteIdent(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("PINCHVIZ_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("PINCHVIZ_TEST_POSTGRES not set")
	}
	ctx := context.Background()

	p, err := NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()

	tables, err := p.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) == 0 {
		t.Skip("public schema is empty")
	}
	if _, err := p.FetchAll(ctx, tables[0]); err != nil {
		t.Errorf("FetchAll(%s): %v", tables[0], err)
	}
	if _, err := p.FetchAll(ctx, "no such table"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", err)
	}
}
