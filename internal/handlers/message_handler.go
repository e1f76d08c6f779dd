package handlers

import (
	"net/http"

	"fellowship/internal/service"
)

// MessageHandler serves private conversations
type MessageHandler struct {
	messaging *service.MessagingService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messaging *service.MessagingService) *MessageHandler {
	return &MessageHandler{messaging: messaging}
}

// Conversations lists the caller's conversations, most recent first
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	conversations, err := h.messaging.Conversations(user.ID)
	if err != nil {
		handleServiceError(w, "Error listing conversations", err)
		return
	}
	respondJSON(w, http.StatusOK, conversations)
}

// Start opens the conversation with another member, creating it the first time
func (h *MessageHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		UserID string `json:"user_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.messaging.Start(user.ID, req.UserID)
	if err != nil {
		handleServiceError(w, "Error starting conversation", err)
		return
	}
	respondJSON(w, http.StatusOK, idResponse{ID: id})
}

// Messages returns a conversation's messages, oldest first
func (h *MessageHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	messages, err := h.messaging.Messages(user.ID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error listing messages", err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// Send posts a message and pushes it to everyone watching the conversation
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.messaging.Send(r.Context(), user.ID, r.PathValue("id"), req.Content)
	if err != nil {
		handleServiceError(w, "Error sending message", err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// Stream pushes new messages in a conversation as Server-Sent Events
func (h *MessageHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	events, unsubscribe, err := h.messaging.Subscribe(user.ID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error opening message stream", err)
		return
	}
	defer unsubscribe()
	streamEvents(w, r, events)
}
