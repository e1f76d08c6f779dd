package models

import (
	"net/url"
	"time"
)

// Event is a dated church gathering
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartsAt    time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// MapURL links the event location to a map search
func (e *Event) MapURL() string {
	if e.Location == "" {
		return ""
	}
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(e.Location)
}

// Meeting is an online or in-person meeting with a host
type Meeting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Host         string    `json:"host"`
	StartsAt     time.Time `json:"start_time"`
	Description  string    `json:"description"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// CalendarDay is one cell of a month view
type CalendarDay struct {
	Date    string  `json:"date"`
	Day     int     `json:"day"`
	IsToday bool    `json:"is_today"`
	Events  []Event `json:"events"`
}

// CalendarMonth is a month grid. Offset is the weekday of the 1st with Sunday as 0.
type CalendarMonth struct {
	Year   int           `json:"year"`
	Month  int           `json:"month"`
	Offset int           `json:"offset"`
	Days   []CalendarDay `json:"days"`
}
