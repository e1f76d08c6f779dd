package handlers

import (
	"net/http"

	"fellowship/internal/service"
)

// SermonHandler serves the sermon library, bookmarks and notes
type SermonHandler struct {
	sermons *service.SermonService
}

// NewSermonHandler creates a new sermon handler
func NewSermonHandler(sermons *service.SermonService) *SermonHandler {
	return &SermonHandler{sermons: sermons}
}

// List returns sermons filtered by series and speaker with the filter facets
func (h *SermonHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	list, err := h.sermons.List(query.Get("series"), query.Get("speaker"))
	if err != nil {
		handleServiceError(w, "Error listing sermons", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Get returns one sermon. Signed-in callers also get their bookmark and note.
func (h *SermonHandler) Get(w http.ResponseWriter, r *http.Request) {
	sermon, err := h.sermons.Get(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error loading sermon", err)
		return
	}

	view := SermonDetailView{Sermon: sermon, EmbedURL: sermon.EmbedURL()}
	if user := GetUserFromContext(r.Context()); user != nil {
		if view.Saved, err = h.sermons.IsSaved(user.ID, sermon.ID); err != nil {
			handleServiceError(w, "Error loading bookmark", err)
			return
		}
		if view.Note, err = h.sermons.Note(user.ID, sermon.ID); err != nil {
			handleServiceError(w, "Error loading note", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, view)
}

// Saved lists the caller's bookmarked sermons
func (h *SermonHandler) Saved(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	sermons, err := h.sermons.Saved(user.ID)
	if err != nil {
		handleServiceError(w, "Error listing saved sermons", err)
		return
	}
	respondJSON(w, http.StatusOK, sermons)
}

// ToggleSave bookmarks or un-bookmarks a sermon
func (h *SermonHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	saved, err := h.sermons.ToggleSave(user.ID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error saving sermon", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

// Note returns the caller's note on a sermon
func (h *SermonHandler) Note(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	note, err := h.sermons.Note(user.ID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error loading note", err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// SaveNote writes the caller's note on a sermon
func (h *SermonHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.sermons.SaveNote(user.ID, r.PathValue("id"), req.Content)
	if err != nil {
		handleServiceError(w, "Error saving note", err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// Create adds a sermon
func (h *SermonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.SermonInput
	if !decodeJSON(w, r, &input) {
		return
	}

	sermon, err := h.sermons.Create(input)
	if err != nil {
		handleServiceError(w, "Error creating sermon", err)
		return
	}
	respondJSON(w, http.StatusCreated, sermon)
}

// Delete removes a sermon
func (h *SermonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sermons.Delete(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting sermon", err)
		return
	}
	respondNoContent(w)
}

// Seed inserts generated sermons
func (h *SermonHandler) Seed(w http.ResponseWriter, r *http.Request) {
	sermons, err := h.sermons.SeedFromAssistant(r.Context())
	if err != nil {
		handleServiceError(w, "Error generating sermons", err)
		return
	}
	respondJSON(w, http.StatusCreated, sermons)
}

// ImportFeed pulls sermons from a podcast feed
func (h *SermonHandler) ImportFeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		respondWithError(w, http.StatusBadRequest, "Feed URL is required", "", nil)
		return
	}

	imported, err := h.sermons.ImportFeed(r.Context(), req.URL)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Could not import feed", "Error importing sermon feed", err)
		return
	}
	respondJSON(w, http.StatusOK, countResponse{Count: imported})
}
