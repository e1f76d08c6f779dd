package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/security"
	"fellowship/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrResetTokenUsed     = errors.New("this reset link has already been used")
)

const passwordResetTTL = time.Hour

// AuthService handles accounts, sessions and API tokens
type AuthService struct {
	userRepo        *repository.UserRepository
	tokens          *security.TokenIssuer
	email           *EmailService
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. email may be nil.
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenIssuer, email *EmailService, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		tokens:          tokens,
		email:           email,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new member account. The first account becomes the super admin.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("Registered user %s (%s) as %s", user.ID, user.Email, user.Role)

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) createSession(userID string) (*models.Session, error) {
	session, err := s.userRepo.CreateSession(security.GenerateSessionID(), userID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// IssueAPIToken returns a bearer token bound to the session
func (s *AuthService) IssueAPIToken(session *models.Session) (string, error) {
	return s.tokens.Issue(session.ID, session.UserID, session.ExpiresAt)
}

// ValidateAPIToken resolves a bearer token to its user and session ID.
// Tokens stop working as soon as their session is deleted.
func (s *AuthService) ValidateAPIToken(token string) (*models.User, string, error) {
	sessionID, err := s.tokens.SessionID(token)
	if err != nil {
		return nil, "", err
	}
	user, err := s.ValidateSession(sessionID)
	if err != nil {
		return nil, "", err
	}
	return user, sessionID, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.userRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// ChangePassword replaces the user's password
func (s *AuthService) ChangePassword(userID, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(userID, passwordHash)
}

// ProfileUpdate holds the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name      *string `json:"name" validate:"omitnil,notblank,min=2,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=2048"`
	DarkMode  *bool   `json:"dark_mode"`
}

// UpdateProfile applies the update to the user's profile and returns the result
func (s *AuthService) UpdateProfile(userID string, update ProfileUpdate) (*models.User, error) {
	if err := validation.Struct(update); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}
	if update.DarkMode != nil {
		user.DarkMode = *update.DarkMode
	}

	if err := s.userRepo.UpdateProfile(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfile returns the public profile of a member
func (s *AuthService) GetProfile(userID string) (*models.Profile, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	profile := user.Profile()
	return &profile, nil
}

// ListUsers returns every member for the admin screen
func (s *AuthService) ListUsers() ([]models.User, error) {
	return s.userRepo.ListUsers()
}

// SetRole changes a member's role. Admins cannot change their own role and only a
// super admin can grant or revoke super admin.
func (s *AuthService) SetRole(actor *models.User, userID string, role models.Role) error {
	if !actor.Role.CanManageUsers() {
		return ErrForbidden
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	if actor.ID == userID {
		return ErrForbidden
	}

	target, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	if (role == models.RoleSuperAdmin || target.Role == models.RoleSuperAdmin) && actor.Role != models.RoleSuperAdmin {
		return ErrForbidden
	}

	if err := s.userRepo.UpdateRole(userID, role); err != nil {
		return err
	}
	log.Printf("User %s changed role of %s from %s to %s", actor.ID, userID, target.Role, role)
	return nil
}

// OAuthLogin authenticates or creates a user using an OAuth provider.
// Accounts are matched by provider subject first, then by email.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		user, err = s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if user != nil {
			if user.OAuthProvider != "" && user.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
		} else {
			if strings.TrimSpace(name) == "" {
				name = strings.Split(email, "@")[0]
			}
			randomPasswordHash, err := security.HashPassword(security.GenerateSessionID())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate oauth password hash: %w", err)
			}
			user, err = s.userRepo.CreateUser(email, randomPasswordHash, name)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
		}
		if err := s.userRepo.LinkOAuthProvider(user.ID, provider, subject); err != nil {
			return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
		}
		user.OAuthProvider = provider
		user.OAuthSubject = subject
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// RequestPasswordReset creates a reset token and emails a link. Unknown emails
// are ignored silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil
	}

	token, err := security.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_ = s.userRepo.DeleteUserPasswordResetTokens(user.ID)

	if err := s.userRepo.CreatePasswordResetToken(token, user.ID, time.Now().Add(passwordResetTTL)); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.email != nil && s.email.IsEnabled() {
		if err := s.email.SendPasswordResetEmail(ctx, user.Email, user.Name, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

// ValidatePasswordResetToken checks if a reset token is valid
func (s *AuthService) ValidatePasswordResetToken(token string) (bool, error) {
	resetToken, err := s.userRepo.GetPasswordResetToken(token)
	if err != nil {
		return false, fmt.Errorf("failed to get reset token: %w", err)
	}
	return resetToken != nil && !resetToken.Used && !resetToken.IsExpired(), nil
}

// ResetPassword sets a new password using a valid token and signs the user out everywhere
func (s *AuthService) ResetPassword(token, newPassword string) error {
	resetToken, err := s.userRepo.GetPasswordResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if resetToken == nil || resetToken.IsExpired() {
		return ErrInvalidResetToken
	}
	if resetToken.Used {
		return ErrResetTokenUsed
	}

	if err := s.ChangePassword(resetToken.UserID, newPassword); err != nil {
		return err
	}

	if err := s.userRepo.MarkPasswordResetTokenAsUsed(token); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}

	if err := s.userRepo.DeleteUserSessions(resetToken.UserID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

// CleanupExpiredPasswordResetTokens removes expired reset tokens
func (s *AuthService) CleanupExpiredPasswordResetTokens() error {
	if err := s.userRepo.DeleteExpiredPasswordResetTokens(); err != nil {
		return fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return nil
}
