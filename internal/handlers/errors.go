package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fellowship/internal/assistant"
	"fellowship/internal/service"
	"fellowship/internal/storage"
	"fellowship/internal/validation"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string             `json:"error"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
		if rec, ok := w.(*statusRecorder); ok {
			rec.err = err
		}
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads the request body into dst and answers 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}

// handleServiceError maps service errors to HTTP responses in one place
func handleServiceError(w http.ResponseWriter, logMsg string, err error) {
	if fields, ok := validation.AsErrors(err); ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: fields.Error(), Fields: fields})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, ErrNotFound, "", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, service.ErrForbidden.Error(), "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, err.Error(), "", nil)
	case errors.Is(err, service.ErrSelfConversation),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrResetTokenUsed),
		errors.Is(err, service.ErrInvalidBackup),
		errors.Is(err, storage.ErrEmptyFile):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, storage.ErrUnsupportedType):
		respondWithError(w, http.StatusUnsupportedMediaType, err.Error(), "", nil)
	case errors.Is(err, storage.ErrTooLarge):
		respondWithError(w, http.StatusRequestEntityTooLarge, err.Error(), "", nil)
	case errors.Is(err, assistant.ErrDisabled):
		respondWithError(w, http.StatusServiceUnavailable, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
