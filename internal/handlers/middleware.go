package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"fellowship/internal/models"
	"fellowship/internal/reporting"
	"fellowship/internal/security"
	"fellowship/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
)

// authSource records how the caller authenticated
type authSource int

const (
	authCookie authSource = iota + 1
	authBearer
)

type sessionInfo struct {
	ID     string
	Source authSource
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
	}
}

// authenticate resolves the caller from a bearer token or the session cookie
func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) (*models.User, *sessionInfo) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		user, sessionID, err := m.authService.ValidateAPIToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return nil, nil
		}
		return user, &sessionInfo{ID: sessionID, Source: authBearer}
	}

	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	user, err := m.authService.ValidateSession(cookie.Value)
	if err != nil {
		// Clear invalid cookie
		http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
		return nil, nil
	}
	return user, &sessionInfo{ID: cookie.Value, Source: authCookie}
}

func withUser(w http.ResponseWriter, r *http.Request, user *models.User, session *sessionInfo) *http.Request {
	if rec, ok := w.(*statusRecorder); ok {
		rec.userID = user.ID
	}
	ctx := context.WithValue(r.Context(), UserContextKey, user)
	ctx = context.WithValue(ctx, SessionContextKey, session)
	return r.WithContext(ctx)
}

// OptionalAuth attaches the user to the context when the caller is signed in
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user, session := m.authenticate(w, r); user != nil {
			r = withUser(w, r, user, session)
		}
		next(w, r)
	}
}

// RequireAuth is middleware that requires a valid session or bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, session := m.authenticate(w, r)
		if user == nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}
		next(w, withUser(w, r, user, session))
	}
}

// RequireRole requires a signed-in user whose role passes allowed
func (m *Middleware) RequireRole(allowed func(models.Role) bool, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if !allowed(user.Role) {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	})
}

// RequireStaff allows any non-guest role
func (m *Middleware) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(models.Role.IsStaff, next)
}

// RequireContentManager guards sermons, events, gallery and other content
func (m *Middleware) RequireContentManager(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(models.Role.CanManageContent, next)
}

// RequireModerator guards prayer approval and connect cards
func (m *Middleware) RequireModerator(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(models.Role.CanModerate, next)
}

// RequireAdmin guards user management and backups
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(models.Role.CanManageUsers, next)
}

// CSRFProtect checks the CSRF header on unsafe requests authenticated by cookie.
// Bearer-token clients are not exposed to CSRF and skip the check.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}
		session := getSessionFromContext(r.Context())
		if session != nil && session.Source == authCookie {
			if !m.csrf.ValidateToken(session.ID, r.Header.Get(security.CSRFHeader)) {
				respondWithError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
				return
			}
		}
		next(w, r)
	}
}

// Protect combines RequireAuth and CSRFProtect for signed-in writes
func (m *Middleware) Protect(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(m.CSRFProtect(next))
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the response status and any error passed to respondWithError
type statusRecorder struct {
	http.ResponseWriter
	status int
	err    error
	userID string
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer for flushing
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Logging logs HTTP requests, recovers panics and reports server errors
func Logging(reporter reporting.Reporter, next http.Handler) http.Handler {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				rec.err = fmt.Errorf("panic: %v", p)
				log.Printf("Panic serving %s %s: %v", r.Method, r.URL.Path, p)
				if rec.status == 0 {
					respondWithError(rec, http.StatusInternalServerError, ErrInternalServerError, "", nil)
				}
				rec.status = http.StatusInternalServerError
			}

			log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))

			if rec.status >= http.StatusInternalServerError {
				err := rec.err
				if err == nil {
					err = fmt.Errorf("%s %s returned %d", r.Method, r.URL.Path, rec.status)
				}
				extras := map[string]interface{}{"status": rec.status}
				if rec.userID != "" {
					extras["user_id"] = rec.userID
				}
				reporter.Error(err, r, extras)
			}
		}()

		next.ServeHTTP(rec, r)
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func getSessionFromContext(ctx context.Context) *sessionInfo {
	session, ok := ctx.Value(SessionContextKey).(*sessionInfo)
	if !ok {
		return nil
	}
	return session
}
