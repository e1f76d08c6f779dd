package models

import "time"

// PrayerStatus tracks moderation of a prayer request
type PrayerStatus string

const (
	PrayerPending  PrayerStatus = "PENDING"
	PrayerApproved PrayerStatus = "APPROVED"
)

// Prayer is a request posted to the prayer wall
type Prayer struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Content     string       `json:"content"`
	Status      PrayerStatus `json:"status"`
	AIResponse  string       `json:"ai_response"`
	PrayerCount int          `json:"prayer_count"`
	CreatedAt   time.Time    `json:"date"`
}
