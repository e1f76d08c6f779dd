package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// EventRepository handles events and meetings
type EventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) listEvents(query string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.Location, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListEvents returns all events in date order
func (r *EventRepository) ListEvents() ([]models.Event, error) {
	return r.listEvents("SELECT id, title, starts_at, location, description, created_at FROM events ORDER BY starts_at ASC")
}

// ListEventsBetween returns events starting in [from, to)
func (r *EventRepository) ListEventsBetween(from, to time.Time) ([]models.Event, error) {
	return r.listEvents(`
		SELECT id, title, starts_at, location, description, created_at
		FROM events WHERE starts_at >= ? AND starts_at < ?
		ORDER BY starts_at ASC
	`, from.UTC(), to.UTC())
}

// GetEvent retrieves an event by ID
func (r *EventRepository) GetEvent(id string) (*models.Event, error) {
	e := &models.Event{}
	err := r.db.QueryRow("SELECT id, title, starts_at, location, description, created_at FROM events WHERE id = ?", id).
		Scan(&e.ID, &e.Title, &e.StartsAt, &e.Location, &e.Description, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// CreateEvent inserts an event
func (r *EventRepository) CreateEvent(e *models.Event) error {
	e.ID = newID()
	e.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO events (id, title, starts_at, location, description, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.Title, e.StartsAt.UTC(), e.Location, e.Description, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event
func (r *EventRepository) DeleteEvent(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	return rowsAffected(result)
}

// CountEvents returns the number of events
func (r *EventRepository) CountEvents() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}

// ListMeetings returns all meetings in date order
func (r *EventRepository) ListMeetings() ([]models.Meeting, error) {
	rows, err := r.db.Query("SELECT id, title, host, starts_at, description, participants, created_at FROM meetings ORDER BY starts_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	meetings := []models.Meeting{}
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.Title, &m.Host, &m.StartsAt, &m.Description, &m.Participants, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// CreateMeeting inserts a meeting
func (r *EventRepository) CreateMeeting(m *models.Meeting) error {
	m.ID = newID()
	m.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO meetings (id, title, host, starts_at, description, participants, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.Title, m.Host, m.StartsAt.UTC(), m.Description, m.Participants, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// DeleteMeeting removes a meeting
func (r *EventRepository) DeleteMeeting(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM meetings WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete meeting: %w", err)
	}
	return rowsAffected(result)
}
