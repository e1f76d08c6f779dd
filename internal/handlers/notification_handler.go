package handlers

import (
	"net/http"

	"fellowship/internal/service"
)

// NotificationHandler serves the caller's notifications
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the latest notifications and the unread count
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	list, err := h.notifications.List(user.ID)
	if err != nil {
		handleServiceError(w, "Error listing notifications", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// MarkAllRead clears the caller's unread notifications
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	updated, err := h.notifications.MarkAllRead(user.ID)
	if err != nil {
		handleServiceError(w, "Error marking notifications read", err)
		return
	}
	respondJSON(w, http.StatusOK, countResponse{Count: int(updated)})
}

// Stream pushes new notifications as Server-Sent Events
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	events, unsubscribe := h.notifications.Subscribe(user.ID)
	defer unsubscribe()
	streamEvents(w, r, events)
}
