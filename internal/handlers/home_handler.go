package handlers

import (
	"net/http"

	"fellowship/internal/service"
)

// HomeHandler serves the landing page data, the verse of the day and connect cards
type HomeHandler struct {
	home           *service.HomeService
	auth           *AuthHandler
	appName        string
	assistantReady bool
	uploadMaxBytes int64
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(home *service.HomeService, auth *AuthHandler, appName string, assistantReady bool, uploadMaxBytes int64) *HomeHandler {
	return &HomeHandler{
		home:           home,
		auth:           auth,
		appName:        appName,
		assistantReady: assistantReady,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// Config returns what a client needs before rendering its first screen
func (h *HomeHandler) Config(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigView{
		AppName:        h.appName,
		OAuthProviders: h.auth.oauthProviderViews(),
		AssistantReady: h.assistantReady,
		UploadMaxBytes: h.uploadMaxBytes,
		User:           GetUserFromContext(r.Context()),
	})
}

// Home returns the verse, slideshow and active announcements
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.home.Home(r.Context())
	if err != nil {
		handleServiceError(w, "Error loading home page", err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Verse returns the verse of the day
func (h *HomeHandler) Verse(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.home.VerseOfDay(r.Context()))
}

// SetVerse overrides today's verse
func (h *HomeHandler) SetVerse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Verse     string `json:"verse"`
		Reference string `json:"reference"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	verse, err := h.home.SetVerse(req.Verse, req.Reference)
	if err != nil {
		handleServiceError(w, "Error setting verse", err)
		return
	}
	respondJSON(w, http.StatusOK, verse)
}

// ClearVerse removes today's override so the generated verse is shown again
func (h *HomeHandler) ClearVerse(w http.ResponseWriter, r *http.Request) {
	if err := h.home.ClearVerse(); err != nil {
		handleServiceError(w, "Error clearing verse", err)
		return
	}
	respondNoContent(w)
}

// SubmitConnect stores a visitor's connect card
func (h *HomeHandler) SubmitConnect(w http.ResponseWriter, r *http.Request) {
	var card service.ConnectCard
	if !decodeJSON(w, r, &card) {
		return
	}

	submission, err := h.home.SubmitConnectCard(r.Context(), card)
	if err != nil {
		handleServiceError(w, "Error saving connect card", err)
		return
	}
	respondJSON(w, http.StatusCreated, submission)
}

// ConnectSubmissions lists connect cards for follow-up
func (h *HomeHandler) ConnectSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.home.ConnectSubmissions()
	if err != nil {
		handleServiceError(w, "Error listing connect cards", err)
		return
	}
	respondJSON(w, http.StatusOK, submissions)
}

// DeleteConnectSubmission removes a handled connect card
func (h *HomeHandler) DeleteConnectSubmission(w http.ResponseWriter, r *http.Request) {
	if err := h.home.DeleteConnectSubmission(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting connect card", err)
		return
	}
	respondNoContent(w)
}
