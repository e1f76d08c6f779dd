package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"fellowship/internal/models"
	"fellowship/internal/service"
)

// maxBackupBytes caps uploaded backup files
const maxBackupBytes = 50 << 20

// AdminHandler handles the dashboard, members, broadcasts and backups
type AdminHandler struct {
	authService   *service.AuthService
	dashboard     *service.DashboardService
	notifications *service.NotificationService
	backupService *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, dashboard *service.DashboardService, notifications *service.NotificationService, backupService *service.BackupService) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		dashboard:     dashboard,
		notifications: notifications,
		backupService: backupService,
	}
}

// Dashboard returns the headline counts
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats()
	if err != nil {
		handleServiceError(w, "Error loading dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Users lists every member
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers()
	if err != nil {
		handleServiceError(w, "Error listing users", err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// SetRole changes a member's role
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Role models.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.SetRole(user, r.PathValue("id"), req.Role); err != nil {
		handleServiceError(w, "Error changing role", err)
		return
	}
	respondNoContent(w)
}

// Broadcast sends a notification to every member
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		Page    string `json:"page"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Page == "" {
		req.Page = models.PageHome
	}

	sent, err := h.notifications.Broadcast(r.Context(), req.Message, req.Page)
	if err != nil {
		handleServiceError(w, "Error broadcasting notification", err)
		return
	}
	respondJSON(w, http.StatusOK, countResponse{Count: sent})
}

// TestNotification sends a notification to the caller to check delivery
func (h *AdminHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	notification, err := h.notifications.Send(r.Context(), user.ID, "This is a test notification.", models.PageAdmin, "")
	if err != nil {
		handleServiceError(w, "Error sending test notification", err)
		return
	}
	respondJSON(w, http.StatusCreated, notification)
}

// ExportDatabase streams a JSON backup as a download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("fellowship_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}

	log.Printf("Database exported by admin user %s", user.Email)
}

// ImportDatabase merges an uploaded backup. With clear_data=true existing data is removed first.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Backup file is too large", "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("backup_file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Please select a backup file", "", nil)
		return
	}
	defer file.Close()

	clearData := r.FormValue("clear_data") == "true"
	if clearData {
		log.Printf("Admin %s requested database clear before import", user.Email)
		if err := h.backupService.Clear(); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to clear database", "Error clearing database", err)
			return
		}
	}

	if err := h.backupService.ImportFromReader(file); err != nil {
		handleServiceError(w, "Error importing database", err)
		return
	}

	log.Printf("Database imported successfully by admin user %s (clear_data=%v)", user.Email, clearData)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Database imported successfully"})
}
