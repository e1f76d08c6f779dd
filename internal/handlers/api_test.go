package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fellowship/internal/alerts"
	"fellowship/internal/assistant"
	"fellowship/internal/database"
	"fellowship/internal/models"
	"fellowship/internal/realtime"
	"fellowship/internal/repository"
	"fellowship/internal/security"
	"fellowship/internal/service"
	"fellowship/internal/storage"
)

// testAPI wires the real services over a temporary SQLite database
type testAPI struct {
	t       *testing.T
	handler http.Handler
	users   *repository.UserRepository
	prayers *service.PrayerService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewLocalStore() failed: %v", err)
	}
	uploader := storage.NewUploader(store, 1<<20)
	broker := realtime.NewHub()
	t.Cleanup(func() { broker.Close() })
	limiter := security.NewRateLimiter(1000, time.Minute)
	t.Cleanup(limiter.Stop)

	users := repository.NewUserRepository(db)
	authService := service.NewAuthService(users, security.NewTokenIssuer("test-token-secret"), nil, time.Hour)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), users, broker)
	prayers := service.NewPrayerService(repository.NewPrayerRepository(db), assistant.Disabled{}, alerts.Nop{})
	community := service.NewCommunityService(repository.NewCommunityRepository(db), notifications, uploader)

	csrf := security.NewCSRFGenerator("test-csrf-secret")
	m := NewMiddleware(authService, csrf, limiter)
	auth := NewAuthHandler(authService, csrf, nil, "", "http://localhost")
	prayerHandler := NewPrayerHandler(prayers)
	communityHandler := NewCommunityHandler(community)
	notificationHandler := NewNotificationHandler(notifications)
	uploadHandler := NewUploadHandler(uploader, 1<<20)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(auth.Login))
	mux.HandleFunc("POST /api/auth/token", auth.Token)
	mux.HandleFunc("POST /api/auth/logout", m.Protect(auth.Logout))
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(auth.Me))
	mux.HandleFunc("PATCH /api/profile", m.Protect(auth.UpdateProfile))
	mux.HandleFunc("POST /api/prayers", prayerHandler.Submit)
	mux.HandleFunc("POST /api/prayers/{id}/pray", m.OptionalAuth(prayerHandler.Pray))
	mux.HandleFunc("GET /api/posts", m.OptionalAuth(communityHandler.Feed))
	mux.HandleFunc("POST /api/posts", m.Protect(communityHandler.CreatePost))
	mux.HandleFunc("DELETE /api/posts/{id}", m.Protect(communityHandler.DeletePost))
	mux.HandleFunc("GET /api/notifications", m.RequireAuth(notificationHandler.List))
	mux.HandleFunc("POST /api/uploads", m.Protect(uploadHandler.Upload))
	mux.HandleFunc("GET /api/admin/users", m.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		respondNoContent(w)
	}))

	proxies := &security.TrustedProxies{}
	return &testAPI{t: t, handler: Logging(nil, proxies.RealIP(mux)), users: users, prayers: prayers}
}

// client is a signed-in browser session
type client struct {
	cookie *http.Cookie
	csrf   string
	bearer string
	user   models.User
}

func (c *client) apply(req *http.Request) {
	if c == nil {
		return
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.csrf != "" {
		req.Header.Set(security.CSRFHeader, c.csrf)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
}

func (a *testAPI) do(c *client, method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	c.apply(req)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func (a *testAPI) register(email, name string) *client {
	a.t.Helper()
	rec := a.do(nil, http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "password": "correct-horse", "name": name,
	})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register %s: status %d: %s", email, rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	decode(a.t, rec, &resp)
	c := &client{csrf: resp.CSRFToken, user: *resp.User}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == security.SessionCookieName {
			c.cookie = cookie
		}
	}
	if c.cookie == nil || c.csrf == "" {
		a.t.Fatalf("register %s: missing session cookie or csrf token", email)
	}
	return c
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	first := api.register("pastor@example.com", "Pastor Ann")
	if first.user.Role != models.RoleSuperAdmin {
		t.Errorf("first user role = %s, want SUPER_ADMIN", first.user.Role)
	}
	second := api.register("member@example.com", "Member Ben")
	if second.user.Role != models.RoleGuest {
		t.Errorf("second user role = %s, want GUEST", second.user.Role)
	}

	t.Run("duplicate email", func(t *testing.T) {
		rec := api.do(nil, http.MethodPost, "/api/auth/register", map[string]string{
			"email": "PASTOR@example.com", "password": "correct-horse", "name": "Someone",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := api.do(nil, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "member@example.com", "password": "wrong-horse",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("anonymous access", func(t *testing.T) {
		if rec := api.do(nil, http.MethodGet, "/api/notifications", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("role checks", func(t *testing.T) {
		if rec := api.do(second, http.MethodGet, "/api/admin/users", nil); rec.Code != http.StatusForbidden {
			t.Errorf("guest status = %d, want 403", rec.Code)
		}
		if rec := api.do(first, http.MethodGet, "/api/admin/users", nil); rec.Code != http.StatusNoContent {
			t.Errorf("admin status = %d, want 204", rec.Code)
		}
	})

	t.Run("csrf required for cookie writes", func(t *testing.T) {
		noToken := &client{cookie: second.cookie}
		rec := api.do(noToken, http.MethodPost, "/api/posts", map[string]string{"content": "Hello"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status without csrf = %d, want 403", rec.Code)
		}
		rec = api.do(second, http.MethodPost, "/api/posts", map[string]string{"content": "Hello"})
		if rec.Code != http.StatusCreated {
			t.Errorf("status with csrf = %d, want 201: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		rec := api.do(nil, http.MethodPost, "/api/auth/token", map[string]string{
			"email": "member@example.com", "password": "correct-horse",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("token status = %d: %s", rec.Code, rec.Body.String())
		}
		var token tokenResponse
		decode(t, rec, &token)

		bearer := &client{bearer: token.Token}
		if rec := api.do(bearer, http.MethodPost, "/api/posts", map[string]string{"content": "From the app"}); rec.Code != http.StatusCreated {
			t.Errorf("bearer post status = %d, want 201", rec.Code)
		}

		if rec := api.do(bearer, http.MethodPost, "/api/auth/logout", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("logout status = %d, want 204", rec.Code)
		}
		if rec := api.do(bearer, http.MethodGet, "/api/auth/me", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("revoked token status = %d, want 401", rec.Code)
		}
	})
}

func TestProfileDarkMode(t *testing.T) {
	api := newTestAPI(t)
	c := api.register("grace@example.com", "Grace")

	rec := api.do(c, http.MethodPatch, "/api/profile", map[string]interface{}{"dark_mode": true, "bio": "Choir"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = api.do(c, http.MethodGet, "/api/auth/me", nil)
	var me sessionResponse
	decode(t, rec, &me)
	if !me.User.DarkMode || me.User.Bio != "Choir" {
		t.Errorf("me = %+v, want dark mode and bio saved", me.User)
	}
	if me.CSRFToken == "" {
		t.Error("me should return a csrf token for cookie sessions")
	}

	t.Run("invalid name", func(t *testing.T) {
		rec := api.do(c, http.MethodPatch, "/api/profile", map[string]interface{}{"name": " "})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestPrayerValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
		wantField  string
	}{
		{"empty content", map[string]string{"name": "Ruth", "content": "   "}, http.StatusBadRequest, "content"},
		{"missing name", map[string]string{"content": "Healing for my mother"}, http.StatusBadRequest, "name"},
		{"valid", map[string]string{"name": "Ruth", "content": "Healing for my mother"}, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(nil, http.MethodPost, "/api/prayers", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantField == "" {
				var prayer models.Prayer
				decode(t, rec, &prayer)
				if prayer.Status != models.PrayerPending {
					t.Errorf("status = %s, want PENDING", prayer.Status)
				}
				return
			}
			var resp errorResponse
			decode(t, rec, &resp)
			if len(resp.Fields) == 0 || resp.Fields[0].Field != tt.wantField {
				t.Errorf("fields = %+v, want an error on %s", resp.Fields, tt.wantField)
			}
		})
	}
}

func (a *testAPI) upload(c *client, filename string, data []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		a.t.Fatalf("CreateFormFile() failed: %v", err)
	}
	part.Write(data)
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.apply(req)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestAnonymousPrayCountsOncePerClient(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(nil, http.MethodPost, "/api/prayers", map[string]string{"name": "Ruth", "content": "Healing for my mother"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	var submitted models.Prayer
	decode(t, rec, &submitted)
	if err := api.prayers.Approve(submitted.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	pray := func(forwardedFor string) models.Prayer {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/prayers/"+submitted.ID+"/pray", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
			req.Header.Set("X-Real-IP", forwardedFor)
		}
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("pray status = %d: %s", rec.Code, rec.Body.String())
		}
		var prayer models.Prayer
		decode(t, rec, &prayer)
		return prayer
	}

	if got := pray("").PrayerCount; got != 1 {
		t.Fatalf("first pray count = %d, want 1", got)
	}
	for _, spoofed := range []string{"10.0.0.1", "10.0.0.2", "198.51.100.7"} {
		if got := pray(spoofed).PrayerCount; got != 1 {
			t.Errorf("pray with X-Forwarded-For %s: count = %d, want 1", spoofed, got)
		}
	}
}

func TestUploadedImageAttachedToPost(t *testing.T) {
	api := newTestAPI(t)
	api.register("admin@example.com", "Admin")
	author := api.register("author@example.com", "Author")
	other := api.register("other@example.com", "Other")

	t.Run("rejects non-images", func(t *testing.T) {
		rec := api.upload(author, "notes.txt", []byte("just some text"))
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", rec.Code)
		}
	})

	rec := api.upload(author, "sunday.png", pngHeader)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var uploaded uploadResponse
	decode(t, rec, &uploaded)
	if !strings.HasPrefix(uploaded.URL, "/media/"+author.user.ID+"/") || !strings.HasSuffix(uploaded.URL, ".png") {
		t.Errorf("upload url = %q", uploaded.URL)
	}

	rec = api.do(author, http.MethodPost, "/api/posts", map[string]string{
		"content": "Sunday service photos", "image_url": uploaded.URL,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post status = %d: %s", rec.Code, rec.Body.String())
	}
	var post PostView
	decode(t, rec, &post)
	if post.ImageURL != uploaded.URL {
		t.Errorf("post image = %q, want %q", post.ImageURL, uploaded.URL)
	}

	rec = api.do(other, http.MethodGet, "/api/posts", nil)
	var feed []PostView
	decode(t, rec, &feed)
	if len(feed) != 1 || feed[0].CanDelete {
		t.Fatalf("feed for other member = %+v, want one post they cannot delete", feed)
	}

	if rec := api.do(other, http.MethodDelete, "/api/posts/"+post.ID, nil); rec.Code != http.StatusForbidden {
		t.Errorf("other member delete status = %d, want 403", rec.Code)
	}
	if rec := api.do(author, http.MethodDelete, "/api/posts/"+post.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("author delete status = %d, want 204", rec.Code)
	}
	if rec := api.do(author, http.MethodDelete, "/api/posts/"+post.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
