package store

import (
	"context"
	"fmt"
	"log"
	"time"
)

// seedEpoch anchors the demo timestamps so charts are reproducible.
var seedEpoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

var (
	seedUsers      = []string{"Ada", "Grace", "Linus", "Margaret", "Ken", "Barbara", "Dennis", "Frances"}
	seedCategories = []string{"books", "games", "music", "tools"}
	seedEvents     = []struct{ title, venue string }{
		{"Go Meetup", "Hall A"},
		{"Data Viz Workshop", "Lab 2"},
		{"Hack Night", "Hall B"},
		{"Design Review", "Room 5"},
		{"Tech Talk: Databases", "Auditorium"},
		{"Gesture UI Demo", "Lab 1"},
		{"Community Standup", "Hall A"},
		{"Closing Party", "Roof"},
	}
)

// Seed fills an empty database with deterministic demo rows. It does nothing
// when the users table already has rows.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i, name := range seedUsers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)`,
			name, fmt.Sprintf("user%d@example.com", i+1), seedEpoch.AddDate(0, 0, i%3))
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	for i := 0; i < 20; i++ {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO posts (user_id, title, body, created_at) VALUES (?, ?, ?, ?)`,
			1+(i*i)%len(seedUsers), fmt.Sprintf("Post #%d", i+1), "", seedEpoch.AddDate(0, 0, i%5))
		if err != nil {
			return fmt.Errorf("seed posts: %w", err)
		}
	}

	for _, name := range seedCategories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
	}

	for i := 0; i < 12; i++ {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO products (category_id, name, price) VALUES (?, ?, ?)`,
			1+(i%7)%len(seedCategories),
			fmt.Sprintf("Product %c", 'A'+i), 5+float64(i)*2.5)
		if err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
	}

	events := &EventRepository{db: tx}
	regs := &RegistrationRepository{db: tx}
	for i, ev := range seedEvents {
		e := &Event{
			Title:     ev.title,
			Venue:     ev.venue,
			StartsAt:  seedEpoch.AddDate(0, 0, 7*i),
			CreatedAt: seedEpoch,
		}
		if err := events.Create(ctx, e); err != nil {
			return fmt.Errorf("seed events: %w", err)
		}

		count := 2 + (i*5)%9
		for j := 0; j < count; j++ {
			reg := &Registration{
				EventID:   e.ID,
				UserID:    int64(1 + (i+j)%len(seedUsers)),
				CreatedAt: seedEpoch.AddDate(0, 0, j),
			}
			if err := regs.Create(ctx, reg); err != nil {
				return fmt.Errorf("seed registrations: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	log.Printf("Seeded demo data into %s", s.path)
	return nil
}
