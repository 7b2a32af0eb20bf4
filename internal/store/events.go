package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event kinds recorded in the journal.
const (
	EventGesture     = "gesture"
	EventStageChange = "stage_change"
	EventFault       = "fault"
)

// Event is one journal row: something the exhibit did or saw.
type Event struct {
	ID        string
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// EventRepository appends to and reads the interaction journal.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append records one event. A missing ID is generated.
func (r *EventRepository) Append(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Kind, e.Detail, e.CreatedAt,
	)
	return err
}

// Recent returns the newest events, most recent first.
func (r *EventRepository) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, kind, detail, created_at FROM events
		 ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Prune deletes journal rows older than the cutoff.
func (r *EventRepository) Prune(olderThan time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM events WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
