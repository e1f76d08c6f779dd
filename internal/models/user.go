package models

import "time"

// Role is a member's permission level
type Role string

const (
	RoleSuperAdmin     Role = "SUPER_ADMIN"
	RoleAdmin          Role = "ADMIN"
	RoleContentManager Role = "CONTENT_MANAGER"
	RoleModerator      Role = "MODERATOR"
	RoleGuest          Role = "GUEST"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleContentManager, RoleModerator, RoleGuest:
		return true
	}
	return false
}

// IsStaff is true for every role above guest
func (r Role) IsStaff() bool {
	return r.Valid() && r != RoleGuest
}

// CanManageContent covers sermons, events, galleries and the other published content
func (r Role) CanManageContent() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleContentManager
}

// CanModerate covers prayer approval and removing other members' posts
func (r Role) CanModerate() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleModerator
}

// CanManageUsers covers role changes and giving records
func (r Role) CanManageUsers() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// User is a member account together with its public profile
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatar_url"`
	Bio           string    `json:"bio"`
	Role          Role      `json:"role"`
	DarkMode      bool      `json:"dark_mode"`
	OAuthProvider string    `json:"oauth_provider,omitempty"`
	OAuthSubject  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Profile returns the public view of the user
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL, Bio: u.Bio, Role: u.Role}
}

// Profile is the subset of a user shown to other members
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordResetToken represents a token for password reset
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the reset token has expired
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
