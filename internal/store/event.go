package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Event is a row of the events table.
type Event struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Venue     string    `db:"venue"`
	StartsAt  time.Time `db:"starts_at"`
	CreatedAt time.Time `db:"created_at"`
}

// EventRepository provides CRUD operations for events.
type EventRepository struct {
	db sqlx.ExtContext
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts a new event and sets its ID.
func (r *EventRepository) Create(ctx context.Context, e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (title, venue, starts_at, created_at) VALUES (?, ?, ?, ?)`,
		e.Title, e.Venue, e.StartsAt, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*Event, error) {
	e := &Event{}
	err := sqlx.GetContext(ctx, r.db, e,
		`SELECT id, title, venue, starts_at, created_at FROM events WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List retrieves all events ordered by start time.
func (r *EventRepository) List(ctx context.Context) ([]*Event, error) {
	var events []*Event
	err := sqlx.SelectContext(ctx, r.db, &events,
		`SELECT id, title, venue, starts_at, created_at FROM events ORDER BY starts_at, id`)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Delete removes an event and, through the cascade, its registrations.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Registration links a user to an event.
type Registration struct {
	ID        int64     `db:"id"`
	EventID   int64     `db:"event_id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// RegistrationRepository provides operations for registrations.
type RegistrationRepository struct {
	db sqlx.ExtContext
}

// Registrations returns the registration repository for this store.
func (s *Store) Registrations() *RegistrationRepository {
	return &RegistrationRepository{db: s.db}
}

// Create inserts a registration and sets its ID.
func (r *RegistrationRepository) Create(ctx context.Context, reg *Registration) error {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (event_id, user_id, created_at) VALUES (?, ?, ?)`,
		reg.EventID, reg.UserID, reg.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reg.ID = id
	return nil
}

// ListByEvent retrieves the registrations of one event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]*Registration, error) {
	var regs []*Registration
	err := sqlx.SelectContext(ctx, r.db, &regs,
		`SELECT id, event_id, user_id, created_at FROM registrations WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

// CountByEvent returns the number of registrations per event ID.
func (r *RegistrationRepository) CountByEvent(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		EventID int64 `db:"event_id"`
		Count   int   `db:"n"`
	}
	err := sqlx.SelectContext(ctx, r.db, &rows,
		`SELECT event_id, COUNT(*) AS n FROM registrations GROUP BY event_id`)
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	return counts, nil
}
