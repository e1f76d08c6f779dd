package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"fellowship/internal/alerts"
	"fellowship/internal/assistant"
	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/validation"
)

// Settings keys for the verse of the day, suffixed with the date
const (
	verseOverrideKey = "verse_override:"
	verseCacheKey    = "verse_cache:"
)

// HomeService assembles the home page and handles connect cards
type HomeService struct {
	settings  *repository.SettingsRepository
	church    *repository.ChurchRepository
	assistant assistant.Assistant
	alerts    alerts.Notifier
	email     *EmailService
	now       func() time.Time
}

// NewHomeService creates a new home service
func NewHomeService(settings *repository.SettingsRepository, church *repository.ChurchRepository, a assistant.Assistant, notifier alerts.Notifier, email *EmailService) *HomeService {
	return &HomeService{
		settings:  settings,
		church:    church,
		assistant: a,
		alerts:    notifier,
		email:     email,
		now:       time.Now,
	}
}

// HomePage is everything the home page shows
type HomePage struct {
	Verse         models.Verse            `json:"verse"`
	Slides        []models.SlideshowImage `json:"slides"`
	Announcements []models.Announcement   `json:"announcements"`
}

// Home returns the verse of the day, slideshow and active announcements
func (s *HomeService) Home(ctx context.Context) (*HomePage, error) {
	slides, err := s.church.ListSlides()
	if err != nil {
		return nil, err
	}
	announcements, err := s.church.ListAnnouncements(true)
	if err != nil {
		return nil, err
	}
	return &HomePage{
		Verse:         s.VerseOfDay(ctx),
		Slides:        slides,
		Announcements: announcements,
	}, nil
}

func (s *HomeService) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// VerseOfDay returns today's override, else today's cached verse, else a newly
// generated one, else the fallback verse. It never fails.
func (s *HomeService) VerseOfDay(ctx context.Context) models.Verse {
	day := s.today()

	for _, key := range []string{verseOverrideKey + day, verseCacheKey + day} {
		if verse, ok := s.loadVerse(key); ok {
			return verse
		}
	}

	if !s.assistant.Enabled() {
		return assistant.FallbackVerseOfDay()
	}

	verse, err := s.assistant.VerseOfDay(ctx)
	if err != nil {
		log.Printf("Failed to generate verse of the day: %v", err)
		return assistant.FallbackVerseOfDay()
	}
	if err := s.storeVerse(verseCacheKey+day, verse); err != nil {
		log.Printf("Failed to cache verse of the day: %v", err)
	}
	return verse
}

func (s *HomeService) loadVerse(key string) (models.Verse, bool) {
	raw, err := s.settings.GetSetting(key)
	if err != nil {
		log.Printf("Failed to read %s: %v", key, err)
		return models.Verse{}, false
	}
	if raw == "" {
		return models.Verse{}, false
	}
	var verse models.Verse
	if err := json.Unmarshal([]byte(raw), &verse); err != nil || verse.Verse == "" {
		return models.Verse{}, false
	}
	return verse, true
}

func (s *HomeService) storeVerse(key string, verse models.Verse) error {
	raw, err := json.Marshal(verse)
	if err != nil {
		return err
	}
	return s.settings.SetSetting(key, string(raw))
}

// SetVerse overrides today's verse
func (s *HomeService) SetVerse(verse, reference string) (models.Verse, error) {
	v := models.Verse{Verse: strings.TrimSpace(verse), Reference: strings.TrimSpace(reference)}
	if err := validation.Struct(verseInput{Verse: v.Verse, Reference: v.Reference}); err != nil {
		return models.Verse{}, err
	}
	if err := s.storeVerse(verseOverrideKey+s.today(), v); err != nil {
		return models.Verse{}, fmt.Errorf("failed to save verse: %w", err)
	}
	return v, nil
}

// ClearVerse removes today's override
func (s *HomeService) ClearVerse() error {
	return s.settings.DeleteSetting(verseOverrideKey + s.today())
}

type verseInput struct {
	Verse     string `json:"verse" validate:"notblank,max=1000"`
	Reference string `json:"reference" validate:"notblank,max=100"`
}

// ConnectCard is a visitor's request to get in touch
type ConnectCard struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=30"`
	Type    string `json:"type" validate:"max=50"`
	Message string `json:"message" validate:"max=2000"`
}

// SubmitConnectCard stores the card, alerts staff and thanks the visitor
func (s *HomeService) SubmitConnectCard(ctx context.Context, card ConnectCard) (*models.ConnectSubmission, error) {
	card.Name = strings.TrimSpace(card.Name)
	card.Email = strings.TrimSpace(card.Email)
	if err := validation.Struct(card); err != nil {
		return nil, err
	}

	submission := &models.ConnectSubmission{
		Name:    card.Name,
		Email:   card.Email,
		Phone:   strings.TrimSpace(card.Phone),
		Type:    strings.TrimSpace(card.Type),
		Message: strings.TrimSpace(card.Message),
	}
	if err := s.church.CreateConnectSubmission(submission); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("%s <%s>", submission.Name, submission.Email)
	if submission.Type != "" {
		body += "\n" + submission.Type
	}
	if submission.Message != "" {
		body += "\n\n" + submission.Message
	}
	if err := s.alerts.Notify(ctx, "New connect card", body); err != nil {
		log.Printf("Failed to alert staff about connect card %s: %v", submission.ID, err)
	}
	if s.email != nil {
		if err := s.email.SendConnectConfirmation(ctx, submission.Email, submission.Name); err != nil {
			log.Printf("Failed to confirm connect card %s: %v", submission.ID, err)
		}
	}
	return submission, nil
}

// ConnectSubmissions lists cards for moderators
func (s *HomeService) ConnectSubmissions() ([]models.ConnectSubmission, error) {
	return s.church.ListConnectSubmissions()
}

// DeleteConnectSubmission removes a handled card
func (s *HomeService) DeleteConnectSubmission(id string) error {
	return notFoundIfMissing(s.church.DeleteConnectSubmission(id))
}

// notFoundIfMissing maps a (deleted, err) repository result to ErrNotFound
func notFoundIfMissing(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
