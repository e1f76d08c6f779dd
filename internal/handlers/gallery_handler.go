package handlers

import (
	"net/http"

	"fellowship/internal/service"
)

// GalleryHandler serves photo albums and the home slideshow
type GalleryHandler struct {
	gallery *service.GalleryService
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(gallery *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{gallery: gallery}
}

// Albums returns every album with its photos
func (h *GalleryHandler) Albums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.gallery.Albums()
	if err != nil {
		handleServiceError(w, "Error listing albums", err)
		return
	}
	respondJSON(w, http.StatusOK, albums)
}

// Album returns one album
func (h *GalleryHandler) Album(w http.ResponseWriter, r *http.Request) {
	album, err := h.gallery.Album(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error loading album", err)
		return
	}
	respondJSON(w, http.StatusOK, album)
}

// CreateAlbum adds an empty album
func (h *GalleryHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	album, err := h.gallery.CreateAlbum(req.Title)
	if err != nil {
		handleServiceError(w, "Error creating album", err)
		return
	}
	respondJSON(w, http.StatusCreated, album)
}

// DeleteAlbum removes an album and its uploaded photos
func (h *GalleryHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.DeleteAlbum(r.Context(), r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting album", err)
		return
	}
	respondNoContent(w)
}

// AddPhoto attaches an uploaded image to an album
func (h *GalleryHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	var input service.PhotoInput
	if !decodeJSON(w, r, &input) {
		return
	}

	photo, err := h.gallery.AddPhoto(r.PathValue("id"), input)
	if err != nil {
		handleServiceError(w, "Error adding photo", err)
		return
	}
	respondJSON(w, http.StatusCreated, photo)
}

// DeletePhoto removes a photo and its file
func (h *GalleryHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.DeletePhoto(r.Context(), r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting photo", err)
		return
	}
	respondNoContent(w)
}

// Slides returns the home slideshow
func (h *GalleryHandler) Slides(w http.ResponseWriter, r *http.Request) {
	slides, err := h.gallery.Slides()
	if err != nil {
		handleServiceError(w, "Error listing slides", err)
		return
	}
	respondJSON(w, http.StatusOK, slides)
}

// AddSlide adds an image to the home slideshow
func (h *GalleryHandler) AddSlide(w http.ResponseWriter, r *http.Request) {
	var input service.PhotoInput
	if !decodeJSON(w, r, &input) {
		return
	}

	slide, err := h.gallery.AddSlide(input)
	if err != nil {
		handleServiceError(w, "Error adding slide", err)
		return
	}
	respondJSON(w, http.StatusCreated, slide)
}

// DeleteSlide removes a slideshow image
func (h *GalleryHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.DeleteSlide(r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting slide", err)
		return
	}
	respondNoContent(w)
}
