package handlers

import (
	"net/http"

	"fellowship/internal/models"
	"fellowship/internal/service"
)

// SearchHandler serves site-wide search
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search ranks sermons, events and meetings matching q
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.search.Search(r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, "Error searching", err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	respondJSON(w, http.StatusOK, results)
}
