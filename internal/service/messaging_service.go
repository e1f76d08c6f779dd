package service

import (
	"context"
	"log"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/realtime"
	"fellowship/internal/repository"
	"fellowship/internal/validation"
)

// Realtime event types
const (
	EventMessage      = "message"
	EventNotification = "notification"
)

// MessagingService handles private conversations
type MessagingService struct {
	repo   *repository.MessageRepository
	users  *repository.UserRepository
	broker realtime.Broker
}

// NewMessagingService creates a new messaging service
func NewMessagingService(repo *repository.MessageRepository, users *repository.UserRepository, broker realtime.Broker) *MessagingService {
	return &MessagingService{repo: repo, users: users, broker: broker}
}

// Conversations returns the user's conversations, most recently active first
func (s *MessagingService) Conversations(userID string) ([]models.Conversation, error) {
	return s.repo.ListConversations(userID)
}

// Start returns the existing direct conversation between the two users or creates one
func (s *MessagingService) Start(userID, otherID string) (string, error) {
	if userID == otherID {
		return "", ErrSelfConversation
	}
	other, err := s.users.GetUserByID(otherID)
	if err != nil {
		return "", err
	}
	if other == nil {
		return "", ErrNotFound
	}

	id, err := s.repo.FindDirectConversation(userID, otherID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return s.repo.CreateConversation(userID, otherID)
}

func (s *MessagingService) authorize(userID, conversationID string) error {
	ok, err := s.repo.IsParticipant(conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Messages returns a conversation oldest first. Only participants may read it.
func (s *MessagingService) Messages(userID, conversationID string) ([]models.Message, error) {
	if err := s.authorize(userID, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(conversationID)
}

// Send stores a message and publishes it to everyone watching the conversation
func (s *MessagingService) Send(ctx context.Context, userID, conversationID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if err := validation.Var("content", content, "required,max=4000"); err != nil {
		return nil, err
	}
	if err := s.authorize(userID, conversationID); err != nil {
		return nil, err
	}

	msg := &models.Message{ConversationID: conversationID, SenderID: userID, Content: content}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}

	event, err := realtime.NewEvent(EventMessage, msg)
	if err == nil {
		err = s.broker.Publish(ctx, realtime.ConversationTopic(conversationID), event)
	}
	if err != nil {
		log.Printf("Failed to publish message %s: %v", msg.ID, err)
	}
	return msg, nil
}

// Subscribe streams new messages for a conversation the user takes part in
func (s *MessagingService) Subscribe(userID, conversationID string) (<-chan realtime.Event, func(), error) {
	if err := s.authorize(userID, conversationID); err != nil {
		return nil, nil, err
	}
	events, cancel := s.broker.Subscribe(realtime.ConversationTopic(conversationID))
	return events, cancel, nil
}
