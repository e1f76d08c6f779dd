package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fellowship/internal/alerts"
	"fellowship/internal/assistant"
	"fellowship/internal/database"
	"fellowship/internal/feeds"
	"fellowship/internal/models"
	"fellowship/internal/realtime"
	"fellowship/internal/repository"
	"fellowship/internal/storage"
	"fellowship/internal/validation"
)

func setupTestDB(t *testing.T) *database.DB {
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
	return db
}

func createUser(t *testing.T, users *repository.UserRepository, email string, role models.Role) *models.User {
	t.Helper()
	user, err := users.CreateUser(email, "hash", "Member "+strings.Split(email, "@")[0])
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	if user.Role != role {
		if err := users.UpdateRole(user.ID, role); err != nil {
			t.Fatalf("UpdateRole failed: %v", err)
		}
		user.Role = role
	}
	return user
}

type fakeAssistant struct {
	reply      string
	err        error
	calls      int
	verseCalls int
}

func (f *fakeAssistant) Enabled() bool { return true }

func (f *fakeAssistant) VerseOfDay(context.Context) (models.Verse, error) {
	f.verseCalls++
	return models.Verse{Verse: "Rejoice always.", Reference: "1 Thessalonians 5:16"}, f.err
}

func (f *fakeAssistant) SermonIdeas(context.Context, int) ([]assistant.SermonIdea, error) {
	return nil, f.err
}

func (f *fakeAssistant) EventIdeas(context.Context, int) ([]assistant.EventIdea, error) {
	return nil, f.err
}

func (f *fakeAssistant) PrayerResponse(context.Context, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestPrayerSubmit(t *testing.T) {
	db := setupTestDB(t)
	ai := &fakeAssistant{reply: "May peace fill your home."}
	svc := NewPrayerService(repository.NewPrayerRepository(db), ai, alerts.Nop{})
	ctx := context.Background()

	invalid := []struct {
		name string
		req  PrayerRequest
	}{
		{"empty content", PrayerRequest{Name: "Ama", Content: ""}},
		{"blank content", PrayerRequest{Name: "Ama", Content: "   \n"}},
		{"missing name", PrayerRequest{Name: " ", Content: "Healing for my mother"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			prayer, err := svc.Submit(ctx, tt.req)
			if _, ok := validation.AsErrors(err); !ok {
				t.Fatalf("Submit() error = %v, want validation error", err)
			}
			if prayer != nil {
				t.Error("no prayer should be created")
			}
		})
	}
	if ai.calls != 0 {
		t.Errorf("assistant called %d times for invalid requests", ai.calls)
	}

	prayer, err := svc.Submit(ctx, PrayerRequest{Name: " Ama ", Content: "Healing for my mother"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if prayer.Name != "Ama" || prayer.Status != models.PrayerPending || prayer.PrayerCount != 0 {
		t.Errorf("unexpected prayer: %+v", prayer)
	}
	if prayer.AIResponse != ai.reply {
		t.Errorf("AIResponse = %q, want %q", prayer.AIResponse, ai.reply)
	}

	pending, err := svc.ListPending()
	if err != nil || len(pending) != 1 || pending[0].AIResponse != ai.reply {
		t.Fatalf("ListPending() = %+v, %v", pending, err)
	}

	if _, err := svc.Pray(prayer.ID, "session-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Pray() on a pending prayer error = %v, want ErrNotFound", err)
	}
	if err := svc.Approve(prayer.ID); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Pray(prayer.ID, "session-1"); err != nil {
			t.Fatalf("Pray() failed: %v", err)
		}
	}
	updated, err := svc.Pray(prayer.ID, "session-2")
	if err != nil {
		t.Fatalf("Pray() failed: %v", err)
	}
	if updated.PrayerCount != 2 {
		t.Errorf("PrayerCount = %d, want 2", updated.PrayerCount)
	}

	t.Run("assistant failure keeps fallback", func(t *testing.T) {
		ai.err = errors.New("503 unavailable")
		prayer, err := svc.Submit(ctx, PrayerRequest{Name: "Kofi", Content: "Guidance at work"})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if prayer.AIResponse != assistant.FallbackPrayerReply {
			t.Errorf("AIResponse = %q, want fallback", prayer.AIResponse)
		}
	})

	if err := svc.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestCommunityPosts(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	hub := realtime.NewHub()
	defer hub.Close()

	notifications := NewNotificationService(repository.NewNotificationRepository(db), users, hub)
	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir, "/media")
	if err != nil {
		t.Fatalf("NewLocalStore() failed: %v", err)
	}
	uploader := storage.NewUploader(store, 1024*1024)
	svc := NewCommunityService(repository.NewCommunityRepository(db), notifications, uploader)
	ctx := context.Background()

	createUser(t, users, "admin@example.com", models.RoleSuperAdmin)
	author := createUser(t, users, "author@example.com", models.RoleGuest)
	other := createUser(t, users, "other@example.com", models.RoleGuest)
	moderator := createUser(t, users, "mod@example.com", models.RoleModerator)

	if _, err := svc.CreatePost(author, PostInput{Content: "  "}); err == nil {
		t.Error("CreatePost() with blank content should fail")
	}

	url, err := uploader.Upload(ctx, author.ID, "sunday.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	post, err := svc.CreatePost(author, PostInput{Content: "Great service today!", ImageURL: url})
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}

	feed, err := svc.Feed()
	if err != nil || len(feed) != 1 {
		t.Fatalf("Feed() = %+v, %v", feed, err)
	}
	if feed[0].ImageURL != url {
		t.Errorf("post image = %q, want uploaded url %q", feed[0].ImageURL, url)
	}
	if feed[0].Author.Name != author.Name {
		t.Errorf("author = %+v", feed[0].Author)
	}

	liked, err := svc.ToggleLike(ctx, other, post.ID)
	if err != nil || !liked {
		t.Fatalf("ToggleLike() = %v, %v", liked, err)
	}
	if _, err := svc.ToggleLike(ctx, author, post.ID); err != nil {
		t.Fatalf("self ToggleLike() failed: %v", err)
	}
	if _, err := svc.AddComment(ctx, other, post.ID, "Amen"); err != nil {
		t.Fatalf("AddComment() failed: %v", err)
	}
	list, err := notifications.List(author.ID)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if list.Unread != 2 {
		t.Errorf("author has %d unread notifications, want 2 (like and comment, not the self-like)", list.Unread)
	}

	if err := svc.DeletePost(ctx, other, post.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeletePost() by other member error = %v, want ErrForbidden", err)
	}
	if err := svc.DeletePost(ctx, moderator, post.ID); err != nil {
		t.Fatalf("DeletePost() by moderator failed: %v", err)
	}
	key, _ := store.KeyForURL(url)
	if _, err := os.Stat(filepath.Join(uploadDir, filepath.FromSlash(key))); !os.IsNotExist(err) {
		t.Errorf("uploaded image should be removed, stat error = %v", err)
	}
	if err := svc.DeletePost(ctx, author, post.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeletePost() twice error = %v, want ErrNotFound", err)
	}
}

func TestProfileDarkModePersists(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	auth := NewAuthService(users, nil, nil, time.Hour)

	user, err := auth.Register(context.Background(), "Grace@Example.com", "password123", "Grace")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}

	dark := true
	if _, err := auth.UpdateProfile(user.ID, ProfileUpdate{DarkMode: &dark}); err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	reloaded, err := users.GetUserByID(user.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("GetUserByID() = %v, %v", reloaded, err)
	}
	if !reloaded.DarkMode {
		t.Error("dark mode should persist")
	}
	if reloaded.Name != "Grace" {
		t.Errorf("name changed to %q", reloaded.Name)
	}

	empty := ""
	if _, err := auth.UpdateProfile(user.ID, ProfileUpdate{Name: &empty}); err == nil {
		t.Error("UpdateProfile() with empty name should fail")
	}
}

func TestMessaging(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	hub := realtime.NewHub()
	defer hub.Close()
	svc := NewMessagingService(repository.NewMessageRepository(db), users, hub)
	ctx := context.Background()

	a := createUser(t, users, "a@example.com", models.RoleSuperAdmin)
	b := createUser(t, users, "b@example.com", models.RoleGuest)
	c := createUser(t, users, "c@example.com", models.RoleGuest)

	if _, err := svc.Start(a.ID, a.ID); !errors.Is(err, ErrSelfConversation) {
		t.Errorf("Start(self) error = %v, want ErrSelfConversation", err)
	}
	id, err := svc.Start(a.ID, b.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	again, err := svc.Start(b.ID, a.ID)
	if err != nil || again != id {
		t.Errorf("Start() again = %q, %v, want %q", again, err, id)
	}

	events, cancel, err := svc.Subscribe(b.ID, id)
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer cancel()

	msg, err := svc.Send(ctx, a.ID, id, "  See you Sunday  ")
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if msg.Content != "See you Sunday" {
		t.Errorf("content = %q", msg.Content)
	}

	select {
	case event := <-events:
		if event.Type != EventMessage {
			t.Errorf("event type = %q, want %q", event.Type, EventMessage)
		}
	case <-time.After(time.Second):
		t.Fatal("no message event published")
	}

	if _, err := svc.Messages(c.ID, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Messages() by outsider error = %v, want ErrNotFound", err)
	}
	if _, _, err := svc.Subscribe(c.ID, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Subscribe() by outsider error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Send(ctx, b.ID, id, ""); err == nil {
		t.Error("Send() with empty content should fail")
	}

	messages, err := svc.Messages(b.ID, id)
	if err != nil || len(messages) != 1 {
		t.Fatalf("Messages() = %+v, %v", messages, err)
	}

	convs, err := svc.Conversations(b.ID)
	if err != nil || len(convs) != 1 || convs[0].LastMessage == nil {
		t.Fatalf("Conversations() = %+v, %v", convs, err)
	}
}

func TestGroupJoinNotifiesStaff(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	hub := realtime.NewHub()
	defer hub.Close()
	notifications := NewNotificationService(repository.NewNotificationRepository(db), users, hub)
	svc := NewGroupService(repository.NewGroupRepository(db), notifications)
	ctx := context.Background()

	admin := createUser(t, users, "admin@example.com", models.RoleSuperAdmin)
	moderator := createUser(t, users, "mod@example.com", models.RoleModerator)
	member := createUser(t, users, "member@example.com", models.RoleGuest)

	group, err := svc.Create(GroupInput{Name: "Young Adults", Topic: "Fellowship"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.RequestToJoin(ctx, member, group.ID, "Hi!"); err != nil {
			t.Fatalf("RequestToJoin() failed: %v", err)
		}
	}

	for _, staff := range []*models.User{admin, moderator} {
		list, err := notifications.List(staff.ID)
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(list.Notifications) != 1 || list.Notifications[0].LinkToPage != models.PageGroups {
			t.Errorf("%s notifications = %+v", staff.Email, list.Notifications)
		}
	}
	if list, _ := notifications.List(member.ID); len(list.Notifications) != 0 {
		t.Errorf("member should not be notified: %+v", list.Notifications)
	}

	if err := svc.RequestToJoin(ctx, member, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("RequestToJoin(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	source := setupTestDB(t)
	users := repository.NewUserRepository(source)
	author := createUser(t, users, "author@example.com", models.RoleSuperAdmin)

	sermons := repository.NewSermonRepository(source)
	sermon := &models.Sermon{Title: "Hope", Speaker: "John", PreachedOn: time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)}
	if err := sermons.CreateSermon(sermon); err != nil {
		t.Fatalf("CreateSermon() failed: %v", err)
	}
	if err := repository.NewCommunityRepository(source).CreatePost(&models.Post{UserID: author.ID, Content: "Hello"}); err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}
	if err := repository.NewSettingsRepository(source).SetSetting("verse_override:2024-05-05", `{"verse":"v","reference":"r"}`); err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := NewBackupService(source).ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() failed: %v", err)
	}

	target := setupTestDB(t)
	restore := NewBackupService(target)
	data := buf.Bytes()
	for i := 0; i < 2; i++ {
		if err := restore.ImportFromReader(bytes.NewReader(data)); err != nil {
			t.Fatalf("ImportFromReader() pass %d failed: %v", i+1, err)
		}
	}

	restored, err := repository.NewSermonRepository(target).GetSermon(sermon.ID)
	if err != nil || restored == nil {
		t.Fatalf("GetSermon() = %v, %v", restored, err)
	}
	if !restored.PreachedOn.Equal(sermon.PreachedOn) {
		t.Errorf("PreachedOn = %v, want %v", restored.PreachedOn, sermon.PreachedOn)
	}
	user, err := repository.NewUserRepository(target).GetUserByEmail("author@example.com")
	if err != nil || user == nil || user.Role != models.RoleSuperAdmin {
		t.Errorf("restored user = %+v, %v", user, err)
	}
	posts, err := repository.NewCommunityRepository(target).ListPosts(10)
	if err != nil || len(posts) != 1 {
		t.Errorf("restored posts = %d, %v", len(posts), err)
	}
	value, err := repository.NewSettingsRepository(target).GetSetting("verse_override:2024-05-05")
	if err != nil || value == "" {
		t.Errorf("restored setting = %q, %v", value, err)
	}

	if err := restore.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	count, err := repository.NewUserRepository(target).CountUsers()
	if err != nil || count != 0 {
		t.Errorf("users after Clear() = %d, %v", count, err)
	}

	t.Run("rejects old format", func(t *testing.T) {
		err := restore.ImportFromReader(strings.NewReader(`{"version":"1.0","users":[]}`))
		if !errors.Is(err, ErrInvalidBackup) {
			t.Errorf("ImportFromReader() error = %v, want ErrInvalidBackup", err)
		}
	})
}

func TestVerseOfDayPriority(t *testing.T) {
	db := setupTestDB(t)
	ai := &fakeAssistant{}
	svc := NewHomeService(repository.NewSettingsRepository(db), repository.NewChurchRepository(db), ai, alerts.Nop{}, nil)
	day := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	ctx := context.Background()
	generated := models.Verse{Verse: "Rejoice always.", Reference: "1 Thessalonians 5:16"}

	if got := svc.VerseOfDay(ctx); got != generated {
		t.Fatalf("first call = %+v, want generated verse", got)
	}
	if got := svc.VerseOfDay(ctx); got != generated || ai.verseCalls != 1 {
		t.Errorf("second call = %+v after %d generations, want the cached verse", got, ai.verseCalls)
	}
	cached, err := repository.NewSettingsRepository(db).GetSetting("verse_cache:2024-06-02")
	if err != nil || cached == "" {
		t.Fatalf("verse cache entry = %q, %v", cached, err)
	}

	override, err := svc.SetVerse(" Be still, and know that I am God. ", "Psalm 46:10")
	if err != nil {
		t.Fatalf("SetVerse() failed: %v", err)
	}
	if got := svc.VerseOfDay(ctx); got != override {
		t.Errorf("with override = %+v, want %+v", got, override)
	}
	if err := svc.ClearVerse(); err != nil {
		t.Fatalf("ClearVerse() failed: %v", err)
	}
	if got := svc.VerseOfDay(ctx); got != generated {
		t.Errorf("after clearing override = %+v, want cached verse", got)
	}

	t.Run("override applies to its day only", func(t *testing.T) {
		if _, err := svc.SetVerse("Pray without ceasing.", "1 Thessalonians 5:17"); err != nil {
			t.Fatalf("SetVerse() failed: %v", err)
		}
		svc.now = func() time.Time { return day.Add(24 * time.Hour) }
		if got := svc.VerseOfDay(ctx); got != generated || ai.verseCalls != 2 {
			t.Errorf("next day = %+v after %d generations, want a fresh generated verse", got, ai.verseCalls)
		}
	})

	t.Run("assistant failure falls back", func(t *testing.T) {
		ai.err = errors.New("RESOURCE_EXHAUSTED")
		svc.now = func() time.Time { return day.Add(48 * time.Hour) }
		if got := svc.VerseOfDay(ctx); got != assistant.FallbackVerseOfDay() {
			t.Errorf("failed generation = %+v, want fallback", got)
		}
		if value, _ := repository.NewSettingsRepository(db).GetSetting("verse_cache:2024-06-04"); value != "" {
			t.Errorf("fallback should not be cached, got %q", value)
		}
	})

	t.Run("disabled assistant falls back", func(t *testing.T) {
		disabled := NewHomeService(repository.NewSettingsRepository(db), repository.NewChurchRepository(db), assistant.Disabled{}, alerts.Nop{}, nil)
		disabled.now = func() time.Time { return day.Add(72 * time.Hour) }
		want := assistant.FallbackVerseOfDay()
		if got := disabled.VerseOfDay(ctx); got != want {
			t.Errorf("disabled = %+v, want fallback", got)
		}
		if want.Reference != "Psalm 23:1" {
			t.Errorf("fallback reference = %q, want Psalm 23:1", want.Reference)
		}
	})
}

func TestResetPassword(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	auth := NewAuthService(users, nil, nil, time.Hour)
	ctx := context.Background()

	user, err := auth.Register(ctx, "esther@example.com", "oldpassword1", "Esther")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	var sessions []*models.Session
	for i := 0; i < 2; i++ {
		session, _, err := auth.Login("esther@example.com", "oldpassword1")
		if err != nil {
			t.Fatalf("Login() failed: %v", err)
		}
		sessions = append(sessions, session)
	}

	if err := auth.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Errorf("RequestPasswordReset(unknown) error = %v, want silent success", err)
	}
	if err := users.CreatePasswordResetToken("valid-token", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreatePasswordResetToken() failed: %v", err)
	}
	if err := users.CreatePasswordResetToken("stale-token", user.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("CreatePasswordResetToken() failed: %v", err)
	}

	tests := []struct {
		name     string
		token    string
		password string
		wantErr  error
	}{
		{name: "unknown token", token: "missing", password: "newpassword1", wantErr: ErrInvalidResetToken},
		{name: "expired token", token: "stale-token", password: "newpassword1", wantErr: ErrInvalidResetToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := auth.ResetPassword(tt.token, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("ResetPassword() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := auth.ResetPassword("valid-token", "short"); err == nil {
		t.Fatal("ResetPassword() with a short password should fail")
	}
	if ok, err := auth.ValidatePasswordResetToken("valid-token"); err != nil || !ok {
		t.Fatalf("token should survive a rejected password, got %v, %v", ok, err)
	}

	if err := auth.ResetPassword("valid-token", "newpassword1"); err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}
	for _, session := range sessions {
		if _, err := auth.ValidateSession(session.ID); err == nil {
			t.Errorf("session %s should be revoked after a reset", session.ID)
		}
	}
	if _, _, err := auth.Login("esther@example.com", "oldpassword1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with old password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := auth.Login("esther@example.com", "newpassword1"); err != nil {
		t.Errorf("Login() with new password failed: %v", err)
	}

	if err := auth.ResetPassword("valid-token", "anotherpass1"); !errors.Is(err, ErrResetTokenUsed) {
		t.Errorf("reusing the token error = %v, want ErrResetTokenUsed", err)
	}
	if ok, _ := auth.ValidatePasswordResetToken("valid-token"); ok {
		t.Error("used token should no longer validate")
	}
}

func TestOAuthLogin(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	auth := NewAuthService(users, nil, nil, time.Hour)

	existing, err := auth.Register(context.Background(), "ama@example.com", "password123", "Ama")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	session, linked, err := auth.OAuthLogin("google", "g-100", "AMA@example.com", "Ama Mensah")
	if err != nil {
		t.Fatalf("OAuthLogin() by email failed: %v", err)
	}
	if linked.ID != existing.ID {
		t.Errorf("email match should link the existing account, got %s want %s", linked.ID, existing.ID)
	}
	if user, err := auth.ValidateSession(session.ID); err != nil || user.ID != existing.ID {
		t.Errorf("ValidateSession() = %+v, %v", user, err)
	}
	reloaded, err := users.GetUserByID(existing.ID)
	if err != nil || reloaded.OAuthProvider != "google" || reloaded.OAuthSubject != "g-100" {
		t.Fatalf("linked user = %+v, %v", reloaded, err)
	}

	_, bySubject, err := auth.OAuthLogin("google", "g-100", "ama.new@example.com", "")
	if err != nil {
		t.Fatalf("OAuthLogin() by subject failed: %v", err)
	}
	if bySubject.ID != existing.ID {
		t.Errorf("subject match should win over email, got %s", bySubject.ID)
	}

	if _, _, err := auth.OAuthLogin("facebook", "f-7", "ama@example.com", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("email linked to another provider error = %v, want ErrEmailTaken", err)
	}

	_, created, err := auth.OAuthLogin("facebook", "f-8", "kofi@example.com", " ")
	if err != nil {
		t.Fatalf("OAuthLogin() create failed: %v", err)
	}
	if created.ID == existing.ID || created.Name != "kofi" || created.Role != models.RoleGuest {
		t.Errorf("created user = %+v, want a new guest named from the email", created)
	}
	count, err := users.CountUsers()
	if err != nil || count != 2 {
		t.Errorf("CountUsers() = %d, %v, want 2", count, err)
	}

	if _, _, err := auth.OAuthLogin("", "x", "x@example.com", ""); err == nil {
		t.Error("OAuthLogin() without a provider should fail")
	}
}

const sermonFeedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sunday Messages</title>
    %s
  </channel>
</rss>`

func feedItem(guid, title string) string {
	return fmt.Sprintf(`<item><guid>%s</guid><title>%s</title><pubDate>Sun, 10 Mar 2024 10:00:00 +0000</pubDate></item>`, guid, title)
}

func TestImportFeedSkipsKnownItems(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewSermonRepository(db)
	svc := NewSermonService(repo, &fakeAssistant{}, feeds.NewReader())
	ctx := context.Background()

	body := fmt.Sprintf(sermonFeedTemplate, feedItem("s-1", "Walking in Faith")+feedItem("s-2", "Hope Renewed"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	imported, err := svc.ImportFeed(ctx, server.URL)
	if err != nil || imported != 2 {
		t.Fatalf("first ImportFeed() = %d, %v, want 2", imported, err)
	}

	body = fmt.Sprintf(sermonFeedTemplate,
		feedItem("s-3", "Living Water")+feedItem("s-3", "Living Water (repost)")+feedItem("s-2", "Hope Renewed")+feedItem("s-1", "Walking in Faith"))
	imported, err = svc.ImportFeed(ctx, server.URL)
	if err != nil || imported != 1 {
		t.Fatalf("second ImportFeed() = %d, %v, want only the new item", imported, err)
	}

	imported, err = svc.ImportFeed(ctx, server.URL)
	if err != nil || imported != 0 {
		t.Errorf("repeat ImportFeed() = %d, %v, want 0", imported, err)
	}

	list, err := svc.List("", "")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list.Sermons) != 3 {
		t.Errorf("stored %d sermons, want 3", len(list.Sermons))
	}

	if _, err := svc.ImportFeed(ctx, "not a url"); err == nil {
		t.Error("ImportFeed() with an invalid url should fail")
	}
}
