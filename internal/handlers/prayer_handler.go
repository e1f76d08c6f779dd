package handlers

import (
	"net/http"

	"fellowship/internal/security"
	"fellowship/internal/service"
)

// PrayerHandler serves the prayer wall
type PrayerHandler struct {
	prayers *service.PrayerService
}

// NewPrayerHandler creates a new prayer handler
func NewPrayerHandler(prayers *service.PrayerService) *PrayerHandler {
	return &PrayerHandler{prayers: prayers}
}

// List returns approved prayers, newest first
func (h *PrayerHandler) List(w http.ResponseWriter, r *http.Request) {
	prayers, err := h.prayers.ListApproved()
	if err != nil {
		handleServiceError(w, "Error listing prayers", err)
		return
	}
	respondJSON(w, http.StatusOK, prayers)
}

// Pending returns prayers waiting for approval
func (h *PrayerHandler) Pending(w http.ResponseWriter, r *http.Request) {
	prayers, err := h.prayers.ListPending()
	if err != nil {
		handleServiceError(w, "Error listing pending prayers", err)
		return
	}
	respondJSON(w, http.StatusOK, prayers)
}

// Submit posts a prayer request for moderation
func (h *PrayerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.PrayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	prayer, err := h.prayers.Submit(r.Context(), req)
	if err != nil {
		handleServiceError(w, "Error submitting prayer", err)
		return
	}
	respondJSON(w, http.StatusCreated, prayer)
}

// Pray records that the caller prayed. Each session or anonymous client counts once.
func (h *PrayerHandler) Pray(w http.ResponseWriter, r *http.Request) {
	prayer, err := h.prayers.Pray(r.PathValue("id"), prayerMarker(r))
	if err != nil {
		handleServiceError(w, "Error recording prayer", err)
		return
	}
	respondJSON(w, http.StatusOK, prayer)
}

func prayerMarker(r *http.Request) string {
	if session := getSessionFromContext(r.Context()); session != nil {
		return session.ID
	}
	return "ip:" + security.GetClientIP(r)
}

// Approve publishes a pending prayer
func (h *PrayerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if err := h.prayers.Approve(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error approving prayer", err)
		return
	}
	respondNoContent(w)
}

// Delete removes a prayer
func (h *PrayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.prayers.Delete(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting prayer", err)
		return
	}
	respondNoContent(w)
}
