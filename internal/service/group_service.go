package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/validation"
)

// GroupService handles small groups and join requests
type GroupService struct {
	repo          *repository.GroupRepository
	notifications *NotificationService
}

// NewGroupService creates a new group service
func NewGroupService(repo *repository.GroupRepository, notifications *NotificationService) *GroupService {
	return &GroupService{repo: repo, notifications: notifications}
}

// GroupList is a filtered group listing with the topic facet
type GroupList struct {
	Groups []models.SmallGroup `json:"groups"`
	Topics []string            `json:"topics"`
}

// List returns groups matching topic and a free-text search.
// An empty or "All" topic matches every group.
func (s *GroupService) List(topic, search string) (*GroupList, error) {
	groups, err := s.repo.ListGroups()
	if err != nil {
		return nil, err
	}
	return filterGroups(groups, topic, search), nil
}

func filterGroups(all []models.SmallGroup, topic, search string) *GroupList {
	list := &GroupList{Groups: []models.SmallGroup{}}
	topics := make([]string, 0, len(all))
	search = strings.ToLower(strings.TrimSpace(search))

	for _, g := range all {
		topics = append(topics, g.Topic)
		if !isAll(topic) && !strings.EqualFold(g.Topic, topic) {
			continue
		}
		if search != "" && !containsFold(search, g.Name, g.Leader, g.Description) {
			continue
		}
		list.Groups = append(list.Groups, g)
	}
	list.Topics = distinct(topics)
	return list
}

// containsFold reports whether any field contains the lowercased needle
func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Get returns one group
func (s *GroupService) Get(id string) (*models.SmallGroup, error) {
	group, err := s.repo.GetGroup(id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNotFound
	}
	return group, nil
}

// GroupInput is the admin form for a group
type GroupInput struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Leader      string `json:"leader" validate:"max=100"`
	Topic       string `json:"topic" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Schedule    string `json:"schedule" validate:"max=200"`
	Location    string `json:"location" validate:"max=200"`
	ImageURL    string `json:"image_url" validate:"max=2048"`
}

// Create adds a group
func (s *GroupService) Create(input GroupInput) (*models.SmallGroup, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	group := &models.SmallGroup{
		Name:        strings.TrimSpace(input.Name),
		Leader:      strings.TrimSpace(input.Leader),
		Topic:       strings.TrimSpace(input.Topic),
		Description: strings.TrimSpace(input.Description),
		Schedule:    strings.TrimSpace(input.Schedule),
		Location:    strings.TrimSpace(input.Location),
		ImageURL:    input.ImageURL,
	}
	if err := s.repo.CreateGroup(group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group
func (s *GroupService) Delete(id string) error {
	return notFoundIfMissing(s.repo.DeleteGroup(id))
}

// JoinRequests lists requests for a group
func (s *GroupService) JoinRequests(groupID string) ([]models.GroupJoinRequest, error) {
	return s.repo.ListJoinRequests(groupID)
}

// RequestToJoin records the member's request and tells staff about it.
// Repeating a request is a no-op and sends nothing.
func (s *GroupService) RequestToJoin(ctx context.Context, user *models.User, groupID, message string) error {
	group, err := s.Get(groupID)
	if err != nil {
		return err
	}
	message = strings.TrimSpace(message)
	if err := validation.Var("message", message, "max=1000"); err != nil {
		return err
	}

	created, err := s.repo.CreateJoinRequest(&models.GroupJoinRequest{
		GroupID: groupID,
		UserID:  user.ID,
		Message: message,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	text := fmt.Sprintf("%s asked to join %s", user.Name, group.Name)
	if _, err := s.notifications.NotifyStaff(ctx, text, models.PageGroups, group.ID); err != nil {
		log.Printf("Failed to notify staff about join request for group %s: %v", group.ID, err)
	}
	return nil
}
