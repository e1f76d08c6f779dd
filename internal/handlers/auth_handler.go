package handlers

import (
	"log"
	"net/http"
	"time"

	"fellowship/internal/models"
	"fellowship/internal/security"
	"fellowship/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	appBaseURL           string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, appBaseURL string) *AuthHandler {
	if oauthProviders == nil {
		oauthProviders = map[string]OAuthProvider{}
	}
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appBaseURL:           appBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// startSession sets the session cookie and answers with the user and a CSRF token
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, session *models.Session, user *models.User) {
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))

	csrfToken, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}
	respondJSON(w, status, sessionResponse{User: user, CSRFToken: csrfToken})
}

// Register creates an account and signs the new member in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		handleServiceError(w, "Error registering user", err)
		return
	}

	// Auto-login after registration
	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		handleServiceError(w, "Error signing in new user", err)
		return
	}
	h.startSession(w, r, http.StatusCreated, session, user)
}

// Login handles email and password sign in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		handleServiceError(w, "Error signing in", err)
		return
	}
	h.startSession(w, r, http.StatusOK, session, user)
}

// Token exchanges credentials for a bearer token bound to a new session
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		handleServiceError(w, "Error signing in", err)
		return
	}

	token, err := h.authService.IssueAPIToken(session)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing API token", err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: session.ExpiresAt})
}

// Logout ends the caller's session, whether it came from a cookie or a bearer token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := getSessionFromContext(r.Context()); session != nil {
		if err := h.authService.Logout(session.ID); err != nil {
			log.Printf("Error deleting session: %v", err)
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	respondNoContent(w)
}

// Me returns the signed-in user and a fresh CSRF token for cookie clients
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	resp := sessionResponse{User: user}

	if session := getSessionFromContext(r.Context()); session != nil && session.Source == authCookie {
		token, err := h.csrf.GenerateToken(session.ID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
			return
		}
		resp.CSRFToken = token
	}
	respondJSON(w, http.StatusOK, resp)
}

// ChangePassword sets a new password for the signed-in user
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if !security.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		handleServiceError(w, "", service.ErrInvalidCredentials)
		return
	}
	if err := h.authService.ChangePassword(user.ID, req.NewPassword); err != nil {
		handleServiceError(w, "Error changing password", err)
		return
	}
	respondNoContent(w)
}

// UpdateProfile edits the caller's name, bio, avatar and theme preference
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var update service.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	updated, err := h.authService.UpdateProfile(user.ID, update)
	if err != nil {
		handleServiceError(w, "Error updating profile", err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Profile returns another member's public profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.authService.GetProfile(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error loading profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// ForgotPassword sends a reset link. The answer is the same whether or not the email exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log.Printf("Error requesting password reset: %v", err)
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}

// CheckResetToken reports whether a reset link can still be used
func (h *AuthHandler) CheckResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.authService.ValidatePasswordResetToken(r.PathValue("token"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error validating reset token", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// ResetPassword sets a new password from a reset link
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		handleServiceError(w, "Error resetting password", err)
		return
	}
	respondNoContent(w)
}
