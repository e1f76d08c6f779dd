// Package assistant generates short texts for the church site: the verse of the
// day, seed content for sermons and events, and replies to prayer requests.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"fellowship/internal/models"
)

// Fallback texts used when generation is unavailable
const (
	FallbackVerse       = "The Lord is my shepherd; I shall not want."
	FallbackReference   = "Psalm 23:1"
	DisabledPrayerReply = "Praying for you."
	FallbackPrayerReply = "We are standing with you in prayer."

	// MaxPrayerReplyWords bounds the length of a generated prayer reply
	MaxPrayerReplyWords = 30
)

var (
	ErrDisabled      = errors.New("assistant is not configured")
	ErrEmptyResponse = errors.New("assistant returned an empty response")
)

// FallbackVerseOfDay is shown when no verse can be generated
func FallbackVerseOfDay() models.Verse {
	return models.Verse{Verse: FallbackVerse, Reference: FallbackReference}
}

// SermonIdea is a generated sermon outline
type SermonIdea struct {
	Title       string    `json:"title"`
	Speaker     string    `json:"speaker"`
	Date        time.Time `json:"-"`
	RawDate     string    `json:"date"`
	Description string    `json:"description"`
}

// EventIdea is a generated upcoming event
type EventIdea struct {
	Title       string    `json:"title"`
	Date        time.Time `json:"-"`
	RawDate     string    `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// Assistant is implemented by GeminiClient and Disabled
type Assistant interface {
	Enabled() bool
	VerseOfDay(ctx context.Context) (models.Verse, error)
	SermonIdeas(ctx context.Context, n int) ([]SermonIdea, error)
	EventIdeas(ctx context.Context, n int) ([]EventIdea, error)
	PrayerResponse(ctx context.Context, request string) (string, error)
}

// Disabled is used when no API key is configured
type Disabled struct{}

var _ Assistant = Disabled{}

func (Disabled) Enabled() bool { return false }

func (Disabled) VerseOfDay(context.Context) (models.Verse, error) {
	return models.Verse{}, ErrDisabled
}

func (Disabled) SermonIdeas(context.Context, int) ([]SermonIdea, error) {
	return nil, ErrDisabled
}

func (Disabled) EventIdeas(context.Context, int) ([]EventIdea, error) {
	return nil, ErrDisabled
}

// PrayerResponse returns the short stock reply
func (Disabled) PrayerResponse(context.Context, string) (string, error) {
	return DisabledPrayerReply, nil
}

// limitWords trims text to at most n words
func limitWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}

// cleanJSON strips markdown code fences that models sometimes wrap JSON in
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/2006",
}

// parseDate accepts the common formats a model produces. ok is false when none match.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
