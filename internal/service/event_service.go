package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fellowship/internal/assistant"
	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/validation"
)

// EventService handles events, meetings and the calendar
type EventService struct {
	repo      *repository.EventRepository
	assistant assistant.Assistant
	now       func() time.Time
}

// NewEventService creates a new event service
func NewEventService(repo *repository.EventRepository, a assistant.Assistant) *EventService {
	return &EventService{repo: repo, assistant: a, now: time.Now}
}

// ListEvents returns every event by start time
func (s *EventService) ListEvents() ([]models.Event, error) {
	return s.repo.ListEvents()
}

// ListMeetings returns every meeting by start time
func (s *EventService) ListMeetings() ([]models.Meeting, error) {
	return s.repo.ListMeetings()
}

// Get returns one event
func (s *EventService) Get(id string) (*models.Event, error) {
	event, err := s.repo.GetEvent(id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrNotFound
	}
	return event, nil
}

// Calendar returns the month grid with events placed on their days.
// A zero year or month selects the current month.
func (s *EventService) Calendar(year, month int) (*models.CalendarMonth, error) {
	today := s.now().UTC()
	if year == 0 || month == 0 {
		year, month = today.Year(), int(today.Month())
	}
	if month < 1 || month > 12 {
		return nil, validation.Errors{{Field: "month", Message: "month must be between 1 and 12"}}
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	events, err := s.repo.ListEventsBetween(first, first.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	return BuildCalendar(year, time.Month(month), events, today), nil
}

// BuildCalendar lays out a month. Offset is the weekday of the 1st with Sunday as 0,
// and events are bucketed by their YYYY-MM-DD date.
func BuildCalendar(year int, month time.Month, events []models.Event, today time.Time) *models.CalendarMonth {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	byDate := make(map[string][]models.Event)
	for _, e := range events {
		key := e.StartsAt.UTC().Format("2006-01-02")
		byDate[key] = append(byDate[key], e)
	}

	todayKey := today.UTC().Format("2006-01-02")
	cal := &models.CalendarMonth{
		Year:   year,
		Month:  int(month),
		Offset: int(first.Weekday()),
		Days:   make([]models.CalendarDay, 0, daysInMonth),
	}
	for day := 1; day <= daysInMonth; day++ {
		key := first.AddDate(0, 0, day-1).Format("2006-01-02")
		dayEvents := byDate[key]
		if dayEvents == nil {
			dayEvents = []models.Event{}
		}
		cal.Days = append(cal.Days, models.CalendarDay{
			Date:    key,
			Day:     day,
			IsToday: key == todayKey,
			Events:  dayEvents,
		})
	}
	return cal
}

// EventInput is the admin form for an event
type EventInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
}

// CreateEvent adds an event
func (s *EventService) CreateEvent(input EventInput) (*models.Event, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	startsAt, err := parseWhen("date", input.Date)
	if err != nil {
		return nil, err
	}
	event := &models.Event{
		Title:       strings.TrimSpace(input.Title),
		StartsAt:    startsAt,
		Location:    strings.TrimSpace(input.Location),
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.repo.CreateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes an event
func (s *EventService) DeleteEvent(id string) error {
	return notFoundIfMissing(s.repo.DeleteEvent(id))
}

// MeetingInput is the admin form for a meeting
type MeetingInput struct {
	Title        string `json:"title" validate:"notblank,max=200"`
	Host         string `json:"host" validate:"notblank,max=100"`
	StartTime    string `json:"start_time" validate:"required"`
	Description  string `json:"description" validate:"max=5000"`
	Participants int    `json:"participants" validate:"min=0"`
}

// CreateMeeting adds a meeting
func (s *EventService) CreateMeeting(input MeetingInput) (*models.Meeting, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	startsAt, err := parseWhen("start_time", input.StartTime)
	if err != nil {
		return nil, err
	}
	meeting := &models.Meeting{
		Title:        strings.TrimSpace(input.Title),
		Host:         strings.TrimSpace(input.Host),
		StartsAt:     startsAt,
		Description:  strings.TrimSpace(input.Description),
		Participants: input.Participants,
	}
	if err := s.repo.CreateMeeting(meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

// DeleteMeeting removes a meeting
func (s *EventService) DeleteMeeting(id string) error {
	return notFoundIfMissing(s.repo.DeleteMeeting(id))
}

// SeedFromAssistant inserts generated upcoming events and returns them
func (s *EventService) SeedFromAssistant(ctx context.Context) ([]models.Event, error) {
	ideas, err := s.assistant.EventIdeas(ctx, seedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate events: %w", err)
	}

	created := make([]models.Event, 0, len(ideas))
	for _, idea := range ideas {
		event := &models.Event{
			Title:       idea.Title,
			StartsAt:    idea.Date,
			Location:    idea.Location,
			Description: idea.Description,
		}
		if err := s.repo.CreateEvent(event); err != nil {
			return created, err
		}
		created = append(created, *event)
	}
	log.Printf("Seeded %d events", len(created))
	return created, nil
}
