package service

import (
	"sort"
	"strings"
	"time"

	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/validation"
)

// ChurchService handles branches, announcements, resources and giving
type ChurchService struct {
	repo *repository.ChurchRepository
}

// NewChurchService creates a new church service
func NewChurchService(repo *repository.ChurchRepository) *ChurchService {
	return &ChurchService{repo: repo}
}

// Point is a caller location
type Point struct {
	Lat float64
	Lng float64
}

// BranchView is a branch with its distance from the caller, when known
type BranchView struct {
	models.ChurchBranch
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	InsideRadius bool     `json:"inside_radius"`
}

// Branches lists branches. With a caller point they are ordered nearest first.
func (s *ChurchService) Branches(from *Point) ([]BranchView, error) {
	branches, err := s.repo.ListBranches()
	if err != nil {
		return nil, err
	}
	return rankBranches(branches, from), nil
}

func rankBranches(branches []models.ChurchBranch, from *Point) []BranchView {
	views := make([]BranchView, len(branches))
	for i, b := range branches {
		views[i] = BranchView{ChurchBranch: b}
		if from != nil {
			d := models.DistanceKm(from.Lat, from.Lng, b.Lat, b.Lng)
			views[i].DistanceKm = &d
			views[i].InsideRadius = d*1000 <= b.Radius
		}
	}
	if from != nil {
		sort.SliceStable(views, func(i, j int) bool {
			return *views[i].DistanceKm < *views[j].DistanceKm
		})
	}
	return views
}

// BranchInput is the admin form for a branch
type BranchInput struct {
	Name    string  `json:"name" validate:"notblank,max=200"`
	Leader  string  `json:"leader" validate:"max=100"`
	Address string  `json:"address" validate:"max=500"`
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Radius  float64 `json:"radius" validate:"gte=0"`
}

// CreateBranch adds a branch
func (s *ChurchService) CreateBranch(input BranchInput) (*models.ChurchBranch, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	branch := &models.ChurchBranch{
		Name:    strings.TrimSpace(input.Name),
		Leader:  strings.TrimSpace(input.Leader),
		Address: strings.TrimSpace(input.Address),
		Lat:     input.Lat,
		Lng:     input.Lng,
		Radius:  input.Radius,
	}
	if err := s.repo.CreateBranch(branch); err != nil {
		return nil, err
	}
	return branch, nil
}

// DeleteBranch removes a branch
func (s *ChurchService) DeleteBranch(id string) error {
	return notFoundIfMissing(s.repo.DeleteBranch(id))
}

// ActiveAnnouncements returns the banners shown on the site, newest first
func (s *ChurchService) ActiveAnnouncements() ([]models.Announcement, error) {
	return s.repo.ListAnnouncements(true)
}

// AllAnnouncements returns every announcement for the admin screen
func (s *ChurchService) AllAnnouncements() ([]models.Announcement, error) {
	return s.repo.ListAnnouncements(false)
}

// AnnouncementInput is the admin form for an announcement
type AnnouncementInput struct {
	Message string `json:"message" validate:"notblank,max=500"`
	Type    string `json:"type" validate:"omitempty,oneof=INFO ALERT SUCCESS"`
}

// CreateAnnouncement adds an active announcement
func (s *ChurchService) CreateAnnouncement(input AnnouncementInput) (*models.Announcement, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	kind := models.AnnouncementType(input.Type)
	if kind == "" {
		kind = models.AnnouncementInfo
	}
	a := &models.Announcement{Message: strings.TrimSpace(input.Message), Type: kind, IsActive: true}
	if err := s.repo.CreateAnnouncement(a); err != nil {
		return nil, err
	}
	return a, nil
}

// ToggleAnnouncement flips whether an announcement is shown and returns the new state
func (s *ChurchService) ToggleAnnouncement(id string) (bool, error) {
	active, found, err := s.repo.GetAnnouncementActive(id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrNotFound
	}
	if err := notFoundIfMissing(s.repo.SetAnnouncementActive(id, !active)); err != nil {
		return false, err
	}
	return !active, nil
}

// DeleteAnnouncement removes an announcement
func (s *ChurchService) DeleteAnnouncement(id string) error {
	return notFoundIfMissing(s.repo.DeleteAnnouncement(id))
}

// ResourceCategory groups resources for display
type ResourceCategory struct {
	Category  string            `json:"category"`
	Resources []models.Resource `json:"resources"`
}

// Resources returns resources grouped by category in first-seen order
func (s *ChurchService) Resources() ([]ResourceCategory, error) {
	resources, err := s.repo.ListResources()
	if err != nil {
		return nil, err
	}
	return groupResources(resources), nil
}

func groupResources(resources []models.Resource) []ResourceCategory {
	groups := []ResourceCategory{}
	index := map[string]int{}
	for _, r := range resources {
		category := r.Category
		if category == "" {
			category = "General"
		}
		i, ok := index[category]
		if !ok {
			groups = append(groups, ResourceCategory{Category: category})
			i = len(groups) - 1
			index[category] = i
		}
		groups[i].Resources = append(groups[i].Resources, r)
	}
	return groups
}

// ResourceInput is the admin form for a resource
type ResourceInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
	FileURL     string `json:"file_url" validate:"notblank,max=2048"`
}

// CreateResource adds a downloadable resource
func (s *ChurchService) CreateResource(input ResourceInput) (*models.Resource, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	r := &models.Resource{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		FileURL:     strings.TrimSpace(input.FileURL),
	}
	if err := s.repo.CreateResource(r); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteResource removes a resource
func (s *ChurchService) DeleteResource(id string) error {
	return notFoundIfMissing(s.repo.DeleteResource(id))
}

// GivingMethod explains one way to give
type GivingMethod struct {
	Method       string `json:"method"`
	Instructions string `json:"instructions"`
}

// GivingMethods lists the accepted giving methods
func (s *ChurchService) GivingMethods() []GivingMethod {
	return []GivingMethod{
		{Method: models.GivingMobileMoney, Instructions: "Send to the church mobile money number and use your name as the reference."},
		{Method: models.GivingBank, Instructions: "Transfer to the church account and include the giving type in the reference."},
		{Method: models.GivingInPerson, Instructions: "Use the offering envelopes during any service."},
	}
}

// GivingRecords returns the member's contributions, newest first
func (s *ChurchService) GivingRecords(userID string) ([]models.GivingRecord, error) {
	return s.repo.ListGivingRecords(userID)
}

// GivingInput is the admin form for recording a contribution
type GivingInput struct {
	UserID string  `json:"user_id" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Type   string  `json:"type" validate:"oneof='Tithe' 'Offering' 'Special Gift'"`
	Method string  `json:"method" validate:"oneof='Mobile Money' 'Bank' 'In-Person'"`
	Date   string  `json:"date"`
}

// RecordGiving stores a contribution. An empty date means today.
func (s *ChurchService) RecordGiving(input GivingInput) (*models.GivingRecord, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	record := &models.GivingRecord{
		UserID:  input.UserID,
		Amount:  input.Amount,
		Type:    input.Type,
		Method:  input.Method,
		GivenOn: time.Now().UTC(),
	}
	if strings.TrimSpace(input.Date) != "" {
		givenOn, err := parseWhen("date", input.Date)
		if err != nil {
			return nil, err
		}
		record.GivenOn = givenOn
	}
	if err := s.repo.CreateGivingRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}
