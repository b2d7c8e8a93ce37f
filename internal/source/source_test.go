package source

import (
	"context"
	"errors"
	"testing"
)

func TestFind(t *testing.T) {
	rels := []Relationship{
		{Table1: "posts", Table2: "users", ReferencingTable: "posts", ReferencedTable: "users", ForeignKey: "user_id"},
	}

	for _, pair := range [][2]string{{"posts", "users"}, {"users", "posts"}} {
		r, ok := Find(rels, pair[0], pair[1])
		if !ok || r.ForeignKey != "user_id" {
			t.Errorf("Find(%v) = %+v, %v", pair, r, ok)
		}
	}

	if _, ok := Find(rels, "users", "events"); ok {
		t.Error("unrelated pair should not match")
	}
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := &Static{
		Order:  []string{"events"},
		Tables: map[string][]Record{"events": {{"id": 1, "title": "Launch"}}},
	}

	rows, err := s.FetchAll(ctx, "events")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	rows[0]["title"] = "mutated"
	if s.Tables["events"][0]["title"] != "Launch" {
		t.Error("FetchAll should return copies")
	}

	if _, err := s.FetchAll(ctx, "missing"); err == nil {
		t.Error("expected error for unknown table")
	}

	boom := errors.New("offline")
	s.Err = boom
	if _, err := s.ListTables(ctx); !errors.Is(err, boom) {
		t.Errorf("ListTables err = %v, want %v", err, boom)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	s.Err = nil
	if _, err := s.FetchAll(cancelled, "events"); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchAll on cancelled context err = %v", err)
	}
}
