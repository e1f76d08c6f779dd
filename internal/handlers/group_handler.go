package handlers

import (
	"net/http"

	"fellowship/internal/service"
)

// GroupHandler serves small groups and join requests
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List returns groups filtered by topic and search text
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	list, err := h.groups.List(query.Get("topic"), query.Get("q"))
	if err != nil {
		handleServiceError(w, "Error listing groups", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Get returns one group
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error loading group", err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// Join asks to join a group. Repeating the request is harmless.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Message string `json:"message"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := h.groups.RequestToJoin(r.Context(), user, r.PathValue("id"), req.Message); err != nil {
		handleServiceError(w, "Error requesting to join group", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
}

// Create adds a group
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.GroupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	group, err := h.groups.Create(input)
	if err != nil {
		handleServiceError(w, "Error creating group", err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

// Delete removes a group
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting group", err)
		return
	}
	respondNoContent(w)
}

// JoinRequests lists pending requests for a group
func (h *GroupHandler) JoinRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.groups.JoinRequests(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error listing join requests", err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}
