package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/realtime"
	"fellowship/internal/repository"
)

// notificationLimit is how many notifications the bell shows
const notificationLimit = 20

// NotificationService stores in-app notifications and pushes them to connected clients
type NotificationService struct {
	repo   *repository.NotificationRepository
	users  *repository.UserRepository
	broker realtime.Broker
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo *repository.NotificationRepository, users *repository.UserRepository, broker realtime.Broker) *NotificationService {
	return &NotificationService{repo: repo, users: users, broker: broker}
}

// NotificationList is the bell contents for one member
type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// List returns the member's latest notifications and unread count
func (s *NotificationService) List(userID string) (*NotificationList, error) {
	notifications, err := s.repo.ListForUser(userID, notificationLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Notifications: notifications, Unread: unread}, nil
}

// MarkAllRead marks only this member's unread notifications as read
func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	return s.repo.MarkAllRead(userID)
}

// Send stores a notification and publishes it on the member's topic
func (s *NotificationService) Send(ctx context.Context, userID, message, page, linkID string) (*models.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("notification message is required")
	}

	n := &models.Notification{UserID: userID, Message: message, LinkToPage: page, LinkToID: linkID}
	if err := s.repo.Create(n); err != nil {
		return nil, err
	}

	event, err := realtime.NewEvent(EventNotification, n)
	if err == nil {
		err = s.broker.Publish(ctx, realtime.UserTopic(userID), event)
	}
	if err != nil {
		log.Printf("Failed to publish notification %s: %v", n.ID, err)
	}
	return n, nil
}

// NotifyStaff sends the message to every staff member. It returns how many were notified.
func (s *NotificationService) NotifyStaff(ctx context.Context, message, page, linkID string) (int, error) {
	staff, err := s.users.ListStaff()
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(staff))
	for i, u := range staff {
		ids[i] = u.ID
	}
	return s.sendAll(ctx, ids, message, page, linkID)
}

// Broadcast sends the message to every member
func (s *NotificationService) Broadcast(ctx context.Context, message, page string) (int, error) {
	ids, err := s.users.ListUserIDs()
	if err != nil {
		return 0, err
	}
	return s.sendAll(ctx, ids, message, page, "")
}

func (s *NotificationService) sendAll(ctx context.Context, userIDs []string, message, page, linkID string) (int, error) {
	sent := 0
	for _, id := range userIDs {
		if _, err := s.Send(ctx, id, message, page, linkID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Subscribe streams new notifications for the member
func (s *NotificationService) Subscribe(userID string) (<-chan realtime.Event, func()) {
	return s.broker.Subscribe(realtime.UserTopic(userID))
}
