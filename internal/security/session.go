package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the browser cookie for a signed-in member. API clients
// send the same session as a bearer token instead.
const SessionCookieName = "session_id"

// GenerateSessionID returns a random session ID. OAuth reuses it for state
// values and for the throwaway password of accounts it creates.
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest decides whether cookies get the Secure flag. A spoofed
// X-Forwarded-Proto can only tighten the caller's own cookie.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateSessionCookie sets the member session cookie. SameSite=Lax keeps it on
// the top-level redirect back from an OAuth provider.
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie clears a cookie, e.g. after logout or an expired session
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	}
}
