package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fellowship/internal/assistant"
	"fellowship/internal/feeds"
	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/validation"
)

// seedCount is how many items a seeding request generates
const seedCount = 5

// SermonService handles the sermon library
type SermonService struct {
	repo      *repository.SermonRepository
	assistant assistant.Assistant
	feeds     *feeds.Reader
}

// NewSermonService creates a new sermon service
func NewSermonService(repo *repository.SermonRepository, a assistant.Assistant, reader *feeds.Reader) *SermonService {
	return &SermonService{repo: repo, assistant: a, feeds: reader}
}

// SermonList is a filtered list plus the filter choices
type SermonList struct {
	Sermons  []models.Sermon `json:"sermons"`
	Series   []string        `json:"series"`
	Speakers []string        `json:"speakers"`
}

// List returns sermons newest first, filtered by series and speaker
func (s *SermonService) List(series, speaker string) (*SermonList, error) {
	all, err := s.repo.ListSermons()
	if err != nil {
		return nil, err
	}
	return buildSermonList(all, series, speaker), nil
}

func buildSermonList(all []models.Sermon, series, speaker string) *SermonList {
	list := &SermonList{Sermons: []models.Sermon{}}
	seriesValues := make([]string, 0, len(all))
	speakerValues := make([]string, 0, len(all))

	for _, sermon := range all {
		seriesValues = append(seriesValues, sermon.Series)
		speakerValues = append(speakerValues, sermon.Speaker)

		if !isAll(series) && sermon.Series != series {
			continue
		}
		if !isAll(speaker) && sermon.Speaker != speaker {
			continue
		}
		list.Sermons = append(list.Sermons, sermon)
	}
	list.Series = distinct(seriesValues)
	list.Speakers = distinct(speakerValues)
	return list
}

// Get returns one sermon
func (s *SermonService) Get(id string) (*models.Sermon, error) {
	sermon, err := s.repo.GetSermon(id)
	if err != nil {
		return nil, err
	}
	if sermon == nil {
		return nil, ErrNotFound
	}
	return sermon, nil
}

// SermonInput is the admin form for a sermon
type SermonInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Speaker     string `json:"speaker" validate:"notblank,max=100"`
	Series      string `json:"series" validate:"max=100"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	AudioURL    string `json:"audio_url" validate:"omitempty,url"`
}

// Create adds a sermon
func (s *SermonService) Create(input SermonInput) (*models.Sermon, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	preachedOn, err := parseWhen("date", input.Date)
	if err != nil {
		return nil, err
	}

	sermon := &models.Sermon{
		Title:       strings.TrimSpace(input.Title),
		Speaker:     strings.TrimSpace(input.Speaker),
		Series:      strings.TrimSpace(input.Series),
		PreachedOn:  preachedOn,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    input.ImageURL,
		VideoURL:    input.VideoURL,
		AudioURL:    input.AudioURL,
	}
	if err := s.repo.CreateSermon(sermon); err != nil {
		return nil, err
	}
	return sermon, nil
}

// Delete removes a sermon with its notes and bookmarks
func (s *SermonService) Delete(id string) error {
	return notFoundIfMissing(s.repo.DeleteSermon(id))
}

// ToggleSave bookmarks the sermon or removes the bookmark. It returns the new state.
func (s *SermonService) ToggleSave(userID, sermonID string) (bool, error) {
	if _, err := s.Get(sermonID); err != nil {
		return false, err
	}
	saved, err := s.repo.IsSaved(userID, sermonID)
	if err != nil {
		return false, err
	}
	if saved {
		return false, s.repo.UnsaveSermon(userID, sermonID)
	}
	return true, s.repo.SaveSermon(userID, sermonID)
}

// IsSaved reports whether the member bookmarked the sermon
func (s *SermonService) IsSaved(userID, sermonID string) (bool, error) {
	return s.repo.IsSaved(userID, sermonID)
}

// Saved returns the member's bookmarked sermons
func (s *SermonService) Saved(userID string) ([]models.Sermon, error) {
	return s.repo.ListSavedSermons(userID)
}

// Note returns the member's note on a sermon, empty when none was written
func (s *SermonService) Note(userID, sermonID string) (*models.SermonNote, error) {
	note, err := s.repo.GetNote(userID, sermonID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return &models.SermonNote{SermonID: sermonID, UserID: userID}, nil
	}
	return note, nil
}

// SaveNote creates or replaces the member's note on a sermon
func (s *SermonService) SaveNote(userID, sermonID, content string) (*models.SermonNote, error) {
	if err := validation.Var("content", content, "max=20000"); err != nil {
		return nil, err
	}
	if _, err := s.Get(sermonID); err != nil {
		return nil, err
	}
	return s.repo.UpsertNote(userID, sermonID, content)
}

// SeedFromAssistant inserts generated sermons and returns them
func (s *SermonService) SeedFromAssistant(ctx context.Context) ([]models.Sermon, error) {
	ideas, err := s.assistant.SermonIdeas(ctx, seedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate sermons: %w", err)
	}

	created := make([]models.Sermon, 0, len(ideas))
	for i, idea := range ideas {
		sermon := &models.Sermon{
			Title:       idea.Title,
			Speaker:     idea.Speaker,
			PreachedOn:  idea.Date,
			Description: idea.Description,
			ImageURL:    fmt.Sprintf("https://picsum.photos/400/250?random=%d", i+10),
		}
		if err := s.repo.CreateSermon(sermon); err != nil {
			return created, err
		}
		created = append(created, *sermon)
	}
	log.Printf("Seeded %d sermons", len(created))
	return created, nil
}

// ImportFeed adds the feed's sermons that were not imported before and returns how many were added
func (s *SermonService) ImportFeed(ctx context.Context, url string) (int, error) {
	if err := validation.Var("url", url, "required,url"); err != nil {
		return 0, err
	}
	items, err := s.feeds.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	return s.importItems(items)
}

func (s *SermonService) importItems(items []feeds.Item) (int, error) {
	imported := 0
	for _, item := range items {
		exists, err := s.repo.HasSourceGUID(item.GUID)
		if err != nil {
			return imported, err
		}
		if exists {
			continue
		}

		preachedOn := item.PublishedAt
		if preachedOn.IsZero() {
			preachedOn = time.Now().UTC()
		}
		sermon := &models.Sermon{
			Title:       item.Title,
			Speaker:     item.Speaker,
			Series:      item.Series,
			PreachedOn:  preachedOn,
			Description: item.Description,
			ImageURL:    item.ImageURL,
			VideoURL:    item.VideoURL,
			AudioURL:    item.AudioURL,
			SourceGUID:  item.GUID,
		}
		if err := s.repo.CreateSermon(sermon); err != nil {
			return imported, err
		}
		imported++
	}
	if imported > 0 {
		log.Printf("Imported %d sermons from feed", imported)
	}
	return imported, nil
}
