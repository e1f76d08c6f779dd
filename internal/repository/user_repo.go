package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// UserRepository handles database operations for users, sessions and reset tokens
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, avatar_url, bio, role, dark_mode,
	COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.AvatarURL,
		&user.Bio,
		&role,
		&user.DarkMode,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func (r *UserRepository) getUser(where string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE "+where, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user. The first account becomes the super admin.
func (r *UserRepository) CreateUser(email, passwordHash, name string) (*models.User, error) {
	var userCount int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	role := models.RoleGuest
	if userCount == 0 {
		role = models.RoleSuperAdmin
	}

	user := &models.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now(),
		UpdatedAt:    now(),
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, avatar_url, bio, role, dark_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', '', ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, user.ID, user.Email, user.PasswordHash, user.Name, string(user.Role), false, user.CreatedAt, user.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.getUser("email = ?", email)
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	return r.getUser("id = ?", id)
}

// GetUserByOAuth retrieves a user linked to an OAuth provider subject
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	return r.getUser("oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// LinkOAuthProvider records the provider identity on an existing user
func (r *UserRepository) LinkOAuthProvider(userID, provider, subject string) error {
	_, err := r.db.Exec("UPDATE users SET oauth_provider = ?, oauth_subject = ?, updated_at = ? WHERE id = ?",
		nullString(provider), nullString(subject), now(), userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	return nil
}

// ListUsers returns every account ordered by name
func (r *UserRepository) ListUsers() ([]models.User, error) {
	return r.listUsers("SELECT " + userColumns + " FROM users ORDER BY name")
}

// ListStaff returns accounts holding any role above guest
func (r *UserRepository) ListStaff() ([]models.User, error) {
	return r.listUsers("SELECT "+userColumns+" FROM users WHERE role <> ? ORDER BY name", string(models.RoleGuest))
}

func (r *UserRepository) listUsers(query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// ListUserIDs returns the ID of every account
func (r *UserRepository) ListUserIDs() ([]string, error) {
	rows, err := r.db.Query("SELECT id FROM users")
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountUsers returns the number of accounts
func (r *UserRepository) CountUsers() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// UpdateProfile saves the editable profile fields
func (r *UserRepository) UpdateProfile(user *models.User) error {
	user.UpdatedAt = now()
	_, err := r.db.Exec(`
		UPDATE users SET name = ?, avatar_url = ?, bio = ?, dark_mode = ?, updated_at = ?
		WHERE id = ?
	`, user.Name, user.AvatarURL, user.Bio, user.DarkMode, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(userID string, role models.Role) error {
	_, err := r.db.Exec("UPDATE users SET role = ?, updated_at = ? WHERE id = ?", string(role), now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(userID, passwordHash string) error {
	_, err := r.db.Exec("UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", passwordHash, now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(sessionID, userID string, expiresAt time.Time) (*models.Session, error) {
	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now(),
	}
	_, err := r.db.Exec("INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.QueryRow("SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?", sessionID).
		Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session
func (r *UserRepository) DeleteSession(sessionID string) error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	return err
}

// DeleteUserSessions removes every session of a user
func (r *UserRepository) DeleteUserSessions(userID string) error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// DeleteExpiredSessions removes all expired sessions
func (r *UserRepository) DeleteExpiredSessions() error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", now())
	return err
}

// CreatePasswordResetToken stores a single-use reset token
func (r *UserRepository) CreatePasswordResetToken(token, userID string, expiresAt time.Time) error {
	_, err := r.db.Exec("INSERT INTO password_reset_tokens (token, user_id, expires_at, used, created_at) VALUES (?, ?, ?, ?, ?)",
		token, userID, expiresAt.UTC(), false, now())
	return err
}

// GetPasswordResetToken retrieves a reset token
func (r *UserRepository) GetPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	t := &models.PasswordResetToken{}
	err := r.db.QueryRow("SELECT token, user_id, expires_at, created_at, used FROM password_reset_tokens WHERE token = ?", token).
		Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.Used)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return t, nil
}

// MarkPasswordResetTokenAsUsed prevents a token from being reused
func (r *UserRepository) MarkPasswordResetTokenAsUsed(token string) error {
	_, err := r.db.Exec("UPDATE password_reset_tokens SET used = ? WHERE token = ?", true, token)
	return err
}

// DeleteUserPasswordResetTokens removes outstanding tokens of a user
func (r *UserRepository) DeleteUserPasswordResetTokens(userID string) error {
	_, err := r.db.Exec("DELETE FROM password_reset_tokens WHERE user_id = ?", userID)
	return err
}

// DeleteExpiredPasswordResetTokens removes expired tokens
func (r *UserRepository) DeleteExpiredPasswordResetTokens() error {
	_, err := r.db.Exec("DELETE FROM password_reset_tokens WHERE expires_at < ?", now())
	return err
}
