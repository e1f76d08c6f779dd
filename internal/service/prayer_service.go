package service

import (
	"context"
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

// replyTimeout bounds the wait for a generated prayer reply
const replyTimeout = 20 * time.Second

// PrayerService handles the prayer wall
type PrayerService struct {
	repo      *repository.PrayerRepository
	assistant assistant.Assistant
	alerts    alerts.Notifier
}

// NewPrayerService creates a new prayer service
func NewPrayerService(repo *repository.PrayerRepository, a assistant.Assistant, notifier alerts.Notifier) *PrayerService {
	return &PrayerService{repo: repo, assistant: a, alerts: notifier}
}

// ListApproved returns approved prayers, newest first
func (s *PrayerService) ListApproved() ([]models.Prayer, error) {
	return s.repo.ListByStatus(models.PrayerApproved)
}

// ListPending returns prayers waiting for moderation
func (s *PrayerService) ListPending() ([]models.Prayer, error) {
	return s.repo.ListByStatus(models.PrayerPending)
}

// PrayerRequest is the public submission form
type PrayerRequest struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Content string `json:"content" validate:"notblank,max=2000"`
}

// Submit stores a pending prayer, then asks the assistant for a short reply.
// A failed reply leaves the fallback text in place.
func (s *PrayerService) Submit(ctx context.Context, req PrayerRequest) (*models.Prayer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Content = strings.TrimSpace(req.Content)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	prayer := &models.Prayer{
		Name:    req.Name,
		Content: req.Content,
		Status:  models.PrayerPending,
	}
	if err := s.repo.CreatePrayer(prayer); err != nil {
		return nil, err
	}

	prayer.AIResponse = s.reply(ctx, prayer.Content)
	if err := s.repo.SetAIResponse(prayer.ID, prayer.AIResponse); err != nil {
		log.Printf("Failed to store reply for prayer %s: %v", prayer.ID, err)
	}

	body := fmt.Sprintf("From %s:\n%s", prayer.Name, prayer.Content)
	if err := s.alerts.Notify(ctx, "Prayer request awaiting approval", body); err != nil {
		log.Printf("Failed to alert staff about prayer %s: %v", prayer.ID, err)
	}
	return prayer, nil
}

func (s *PrayerService) reply(ctx context.Context, content string) string {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	text, err := s.assistant.PrayerResponse(ctx, content)
	if err != nil {
		log.Printf("Failed to generate prayer reply: %v", err)
		return assistant.FallbackPrayerReply
	}
	if strings.TrimSpace(text) == "" {
		return assistant.DisabledPrayerReply
	}
	return text
}

// Pray counts one prayer for the request per marker (session or member).
// It returns the prayer with its current count.
func (s *PrayerService) Pray(id, marker string) (*models.Prayer, error) {
	prayer, err := s.repo.GetPrayer(id)
	if err != nil {
		return nil, err
	}
	if prayer == nil || prayer.Status != models.PrayerApproved {
		return nil, ErrNotFound
	}
	counted, err := s.repo.MarkPrayed(id, marker)
	if err != nil {
		return nil, err
	}
	if counted {
		prayer.PrayerCount++
	}
	return prayer, nil
}

// Approve publishes a pending prayer
func (s *PrayerService) Approve(id string) error {
	return notFoundIfMissing(s.repo.SetStatus(id, models.PrayerApproved))
}

// Delete removes a prayer
func (s *PrayerService) Delete(id string) error {
	return notFoundIfMissing(s.repo.DeletePrayer(id))
}
