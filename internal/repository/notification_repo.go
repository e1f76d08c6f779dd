package repository

import (
	"fmt"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// NotificationRepository handles in-app notifications
type NotificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListForUser returns the user's latest notifications, newest first
func (r *NotificationRepository) ListForUser(userID string, limit int) ([]models.Notification, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, message, link_to_page, link_to_id, is_read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.LinkToPage, &n.LinkToID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread returns how many of the user's notifications are unread
func (r *NotificationRepository) CountUnread(userID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?", userID, false).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// Create inserts a notification
func (r *NotificationRepository) Create(n *models.Notification) error {
	n.ID = newID()
	n.CreatedAt = now()
	_, err := r.db.Exec(`
		INSERT INTO notifications (id, user_id, message, link_to_page, link_to_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Message, n.LinkToPage, n.LinkToID, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// MarkAllRead marks the user's unread notifications as read and returns how many changed
func (r *NotificationRepository) MarkAllRead(userID string) (int64, error) {
	result, err := r.db.Exec("UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?", true, userID, false)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
