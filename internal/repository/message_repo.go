package repository

import (
	"fmt"
	"sort"
	"time"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// MessageRepository handles conversations, participants and messages
type MessageRepository struct {
	db *database.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// FindDirectConversation returns the ID of the two-person conversation between a and b, or ""
func (r *MessageRepository) FindDirectConversation(a, b string) (string, error) {
	rows, err := r.db.Query(`
		SELECT cp.conversation_id
		FROM conversation_participants cp
		JOIN conversation_participants other ON other.conversation_id = cp.conversation_id
		WHERE cp.user_id = ? AND other.user_id = ?
		AND (SELECT COUNT(*) FROM conversation_participants x WHERE x.conversation_id = cp.conversation_id) = 2
	`, a, b)
	if err != nil {
		return "", fmt.Errorf("failed to find conversation: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		return id, nil
	}
	return "", rows.Err()
}

// CreateConversation creates a conversation with the given participants
func (r *MessageRepository) CreateConversation(participantIDs ...string) (string, error) {
	id := newID()
	err := r.db.WithTx(func(tx *database.Tx) error {
		if _, err := tx.Exec("INSERT INTO conversations (id, created_at) VALUES (?, ?)", id, now()); err != nil {
			return err
		}
		for _, userID := range participantIDs {
			if _, err := tx.Exec("INSERT INTO conversation_participants (conversation_id, user_id) VALUES (?, ?)", id, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return id, nil
}

// IsParticipant reports whether userID takes part in the conversation
func (r *MessageRepository) IsParticipant(conversationID, userID string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM conversation_participants WHERE conversation_id = ? AND user_id = ?",
		conversationID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return count > 0, nil
}

// ParticipantIDs returns the members of a conversation
func (r *MessageRepository) ParticipantIDs(conversationID string) ([]string, error) {
	rows, err := r.db.Query("SELECT user_id FROM conversation_participants WHERE conversation_id = ?", conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListConversations returns the user's conversations with participants and the latest message,
// most recently active first
func (r *MessageRepository) ListConversations(userID string) ([]models.Conversation, error) {
	rows, err := r.db.Query(`
		SELECT c.id, c.created_at, u.id, u.name, u.avatar_url
		FROM conversations c
		JOIN conversation_participants mine ON mine.conversation_id = c.id AND mine.user_id = ?
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		JOIN users u ON u.id = cp.user_id
		ORDER BY c.created_at DESC, c.id, u.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	conversations := []models.Conversation{}
	index := map[string]int{}
	for rows.Next() {
		var c models.Conversation
		var p models.Profile
		if err := rows.Scan(&c.ID, &c.CreatedAt, &p.ID, &p.Name, &p.AvatarURL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		i, seen := index[c.ID]
		if !seen {
			conversations = append(conversations, c)
			i = len(conversations) - 1
			index[c.ID] = i
		}
		conversations[i].Participants = append(conversations[i].Participants, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range conversations {
		last, err := r.lastMessage(conversations[i].ID)
		if err != nil {
			return nil, err
		}
		conversations[i].LastMessage = last
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return lastActive(conversations[i]).After(lastActive(conversations[j]))
	})
	return conversations, nil
}

func lastActive(c models.Conversation) time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.CreatedAt
}

func (r *MessageRepository) lastMessage(conversationID string) (*models.Message, error) {
	messages, err := r.query(`
		SELECT id, conversation_id, sender_id, content, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at DESC LIMIT 1
	`, conversationID)
	if err != nil || len(messages) == 0 {
		return nil, err
	}
	return &messages[0], nil
}

// ListMessages returns a conversation's messages, oldest first
func (r *MessageRepository) ListMessages(conversationID string) ([]models.Message, error) {
	return r.query(`
		SELECT id, conversation_id, sender_id, content, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at ASC
	`, conversationID)
}

func (r *MessageRepository) query(query string, args ...interface{}) ([]models.Message, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CreateMessage inserts a message
func (r *MessageRepository) CreateMessage(m *models.Message) error {
	m.ID = newID()
	m.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO messages (id, conversation_id, sender_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.ConversationID, m.SenderID, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}
