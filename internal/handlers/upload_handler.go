package handlers

import (
	"errors"
	"net/http"

	"fellowship/internal/storage"
)

// multipartOverhead leaves room for form boundaries around the file
const multipartOverhead = 64 << 10

// UploadHandler accepts file uploads and returns their public URL
type UploadHandler struct {
	images    *storage.Uploader
	documents *storage.Uploader
	maxSize   int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploader *storage.Uploader, maxSize int64) *UploadHandler {
	return &UploadHandler{
		images:    uploader,
		documents: uploader.AllowDocuments(),
		maxSize:   maxSize,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload stores the multipart field "file". Content managers may pass kind=document
// to upload PDFs for the resources page.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	uploader := h.images
	if r.URL.Query().Get("kind") == "document" {
		if !user.Role.CanManageContent() {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		uploader = h.documents
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleServiceError(w, "", storage.ErrTooLarge)
			return
		}
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file", "", nil)
		return
	}
	defer file.Close()

	url, err := uploader.Upload(r.Context(), user.ID, header.Filename, file)
	if err != nil {
		handleServiceError(w, "Error storing upload", err)
		return
	}
	respondJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
