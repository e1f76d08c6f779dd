package handlers

import (
	"net/http"
	"strconv"

	"fellowship/internal/service"
)

// ChurchHandler serves branches, announcements, resources and giving
type ChurchHandler struct {
	church *service.ChurchService
}

// NewChurchHandler creates a new church handler
func NewChurchHandler(church *service.ChurchService) *ChurchHandler {
	return &ChurchHandler{church: church}
}

// Branches lists branches. With lat and lng the nearest branch comes first.
func (h *ChurchHandler) Branches(w http.ResponseWriter, r *http.Request) {
	var from *service.Point
	query := r.URL.Query()
	if query.Get("lat") != "" || query.Get("lng") != "" {
		lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
		lng, lngErr := strconv.ParseFloat(query.Get("lng"), 64)
		if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			respondWithError(w, http.StatusBadRequest, "Invalid coordinates", "", nil)
			return
		}
		from = &service.Point{Lat: lat, Lng: lng}
	}

	branches, err := h.church.Branches(from)
	if err != nil {
		handleServiceError(w, "Error listing branches", err)
		return
	}
	respondJSON(w, http.StatusOK, branches)
}

// CreateBranch adds a branch
func (h *ChurchHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var input service.BranchInput
	if !decodeJSON(w, r, &input) {
		return
	}

	branch, err := h.church.CreateBranch(input)
	if err != nil {
		handleServiceError(w, "Error creating branch", err)
		return
	}
	respondJSON(w, http.StatusCreated, branch)
}

// DeleteBranch removes a branch
func (h *ChurchHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	if err := h.church.DeleteBranch(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting branch", err)
		return
	}
	respondNoContent(w)
}

// Announcements lists active announcements
func (h *ChurchHandler) Announcements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.church.ActiveAnnouncements()
	if err != nil {
		handleServiceError(w, "Error listing announcements", err)
		return
	}
	respondJSON(w, http.StatusOK, announcements)
}

// AllAnnouncements lists every announcement, active or not
func (h *ChurchHandler) AllAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.church.AllAnnouncements()
	if err != nil {
		handleServiceError(w, "Error listing announcements", err)
		return
	}
	respondJSON(w, http.StatusOK, announcements)
}

// CreateAnnouncement adds an active announcement
func (h *ChurchHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var input service.AnnouncementInput
	if !decodeJSON(w, r, &input) {
		return
	}

	announcement, err := h.church.CreateAnnouncement(input)
	if err != nil {
		handleServiceError(w, "Error creating announcement", err)
		return
	}
	respondJSON(w, http.StatusCreated, announcement)
}

// ToggleAnnouncement flips an announcement between active and hidden
func (h *ChurchHandler) ToggleAnnouncement(w http.ResponseWriter, r *http.Request) {
	active, err := h.church.ToggleAnnouncement(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error toggling announcement", err)
		return
	}
	respondJSON(w, http.StatusOK, toggleResponse{Active: active})
}

// DeleteAnnouncement removes an announcement
func (h *ChurchHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := h.church.DeleteAnnouncement(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting announcement", err)
		return
	}
	respondNoContent(w)
}

// Resources lists downloads grouped by category
func (h *ChurchHandler) Resources(w http.ResponseWriter, r *http.Request) {
	groups, err := h.church.Resources()
	if err != nil {
		handleServiceError(w, "Error listing resources", err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// CreateResource adds a download
func (h *ChurchHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var input service.ResourceInput
	if !decodeJSON(w, r, &input) {
		return
	}

	resource, err := h.church.CreateResource(input)
	if err != nil {
		handleServiceError(w, "Error creating resource", err)
		return
	}
	respondJSON(w, http.StatusCreated, resource)
}

// DeleteResource removes a download
func (h *ChurchHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := h.church.DeleteResource(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting resource", err)
		return
	}
	respondNoContent(w)
}

// GivingMethods returns the ways to give
func (h *ChurchHandler) GivingMethods(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.church.GivingMethods())
}

// MyGiving returns the caller's giving history
func (h *ChurchHandler) MyGiving(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	records, err := h.church.GivingRecords(user.ID)
	if err != nil {
		handleServiceError(w, "Error listing giving records", err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// MemberGiving returns one member's giving history
func (h *ChurchHandler) MemberGiving(w http.ResponseWriter, r *http.Request) {
	records, err := h.church.GivingRecords(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error listing giving records", err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// RecordGiving stores a gift against a member
func (h *ChurchHandler) RecordGiving(w http.ResponseWriter, r *http.Request) {
	var input service.GivingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	record, err := h.church.RecordGiving(input)
	if err != nil {
		handleServiceError(w, "Error recording gift", err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}
