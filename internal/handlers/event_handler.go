package handlers

import (
	"net/http"
	"strconv"

	"fellowship/internal/models"
	"fellowship/internal/service"
)

// EventHandler serves events, the calendar and meetings
type EventHandler struct {
	events *service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func newEventViews(events []models.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, EventView{Event: e, MapURL: e.MapURL()})
	}
	return views
}

// List returns events by start time
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents()
	if err != nil {
		handleServiceError(w, "Error listing events", err)
		return
	}
	respondJSON(w, http.StatusOK, newEventViews(events))
}

// Get returns one event
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error loading event", err)
		return
	}
	respondJSON(w, http.StatusOK, EventView{Event: *event, MapURL: event.MapURL()})
}

// Calendar returns a month grid. Without year and month the current month is used.
func (h *EventHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(w, r, "year")
	if !ok {
		return
	}
	month, ok := queryInt(w, r, "month")
	if !ok {
		return
	}

	calendar, err := h.events.Calendar(year, month)
	if err != nil {
		handleServiceError(w, "Error building calendar", err)
		return
	}
	respondJSON(w, http.StatusOK, calendar)
}

// Meetings returns meetings by start time
func (h *EventHandler) Meetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.events.ListMeetings()
	if err != nil {
		handleServiceError(w, "Error listing meetings", err)
		return
	}
	respondJSON(w, http.StatusOK, meetings)
}

// Create adds an event
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.EventInput
	if !decodeJSON(w, r, &input) {
		return
	}

	event, err := h.events.CreateEvent(input)
	if err != nil {
		handleServiceError(w, "Error creating event", err)
		return
	}
	respondJSON(w, http.StatusCreated, EventView{Event: *event, MapURL: event.MapURL()})
}

// Delete removes an event
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting event", err)
		return
	}
	respondNoContent(w)
}

// CreateMeeting adds a meeting
func (h *EventHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var input service.MeetingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	meeting, err := h.events.CreateMeeting(input)
	if err != nil {
		handleServiceError(w, "Error creating meeting", err)
		return
	}
	respondJSON(w, http.StatusCreated, meeting)
}

// DeleteMeeting removes a meeting
func (h *EventHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteMeeting(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting meeting", err)
		return
	}
	respondNoContent(w)
}

// Seed inserts generated events
func (h *EventHandler) Seed(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.SeedFromAssistant(r.Context())
	if err != nil {
		handleServiceError(w, "Error generating events", err)
		return
	}
	respondJSON(w, http.StatusCreated, newEventViews(events))
}

// queryInt reads an optional integer query parameter, answering 400 when it is malformed
func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+key, "", nil)
		return 0, false
	}
	return value, true
}
