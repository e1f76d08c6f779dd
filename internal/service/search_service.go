package service

import (
	"sort"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/repository"
)

// SearchService ranks sermons, events and meetings against a query
type SearchService struct {
	sermons *repository.SermonRepository
	events  *repository.EventRepository
}

// NewSearchService creates a new search service
func NewSearchService(sermons *repository.SermonRepository, events *repository.EventRepository) *SearchService {
	return &SearchService{sermons: sermons, events: events}
}

// Search returns matching records, best first. A blank query matches nothing.
func (s *SearchService) Search(query string) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []models.SearchResult{}, nil
	}
	sermons, err := s.sermons.ListSermons()
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListEvents()
	if err != nil {
		return nil, err
	}
	meetings, err := s.events.ListMeetings()
	if err != nil {
		return nil, err
	}
	return Rank(query, sermons, events, meetings), nil
}

// Rank scores every record: a title match is worth 2, a match on the
// secondary field (speaker, location or host) or description 1 each.
// Ties keep sermons, then events, then meetings in their listed order.
func Rank(query string, sermons []models.Sermon, events []models.Event, meetings []models.Meeting) []models.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []models.SearchResult{}
	if q == "" {
		return results
	}

	add := func(id string, kind models.SearchResultType, title, secondary, description, prefix string) {
		score := 0
		if strings.Contains(strings.ToLower(title), q) {
			score += 2
		}
		if strings.Contains(strings.ToLower(secondary), q) {
			score++
		}
		if strings.Contains(strings.ToLower(description), q) {
			score++
		}
		if score == 0 {
			return
		}
		results = append(results, models.SearchResult{
			ID:          id,
			Type:        kind,
			Title:       title,
			Description: prefix + secondary + ": " + description,
			Score:       score,
		})
	}

	for _, s := range sermons {
		add(s.ID, models.SearchSermon, s.Title, s.Speaker, s.Description, "By ")
	}
	for _, e := range events {
		add(e.ID, models.SearchEvent, e.Title, e.Location, e.Description, "At ")
	}
	for _, m := range meetings {
		add(m.ID, models.SearchMeeting, m.Title, m.Host, m.Description, "Hosted by ")
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
