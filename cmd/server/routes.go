package main

import (
	"net/http"

	"fellowship/internal/handlers"
)

type router struct {
	mux *http.ServeMux
	m   *handlers.Middleware

	auth          *handlers.AuthHandler
	home          *handlers.HomeHandler
	sermons       *handlers.SermonHandler
	events        *handlers.EventHandler
	prayers       *handlers.PrayerHandler
	gallery       *handlers.GalleryHandler
	church        *handlers.ChurchHandler
	groups        *handlers.GroupHandler
	community     *handlers.CommunityHandler
	notifications *handlers.NotificationHandler
	messages      *handlers.MessageHandler
	search        *handlers.SearchHandler
	uploads       *handlers.UploadHandler
	admin         *handlers.AdminHandler
}

// content guards content-manager writes
func (rt *router) content(h http.HandlerFunc) http.HandlerFunc {
	return rt.m.RequireContentManager(rt.m.CSRFProtect(h))
}

// moderate guards moderator writes
func (rt *router) moderate(h http.HandlerFunc) http.HandlerFunc {
	return rt.m.RequireModerator(rt.m.CSRFProtect(h))
}

// manage guards admin writes
func (rt *router) manage(h http.HandlerFunc) http.HandlerFunc {
	return rt.m.RequireAdmin(rt.m.CSRFProtect(h))
}

func (rt *router) register() {
	mux, m := rt.mux, rt.m

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(rt.auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(rt.auth.Login))
	mux.HandleFunc("POST /api/auth/token", m.RateLimit(rt.auth.Token))
	mux.HandleFunc("POST /api/auth/logout", m.Protect(rt.auth.Logout))
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(rt.auth.Me))
	mux.HandleFunc("GET /api/auth/providers", rt.auth.Providers)
	mux.HandleFunc("GET /api/auth/oauth/{provider}/start", rt.auth.StartOAuth)
	mux.HandleFunc("GET /api/auth/oauth/{provider}/callback", rt.auth.OAuthCallback)
	mux.HandleFunc("POST /api/auth/forgot-password", m.RateLimit(rt.auth.ForgotPassword))
	mux.HandleFunc("GET /api/auth/reset-password/{token}", rt.auth.CheckResetToken)
	mux.HandleFunc("POST /api/auth/reset-password", m.RateLimit(rt.auth.ResetPassword))
	mux.HandleFunc("PUT /api/auth/password", m.Protect(rt.auth.ChangePassword))
	mux.HandleFunc("PATCH /api/profile", m.Protect(rt.auth.UpdateProfile))
	mux.HandleFunc("GET /api/profiles/{id}", rt.auth.Profile)

	// Home
	mux.HandleFunc("GET /api/config", m.OptionalAuth(rt.home.Config))
	mux.HandleFunc("GET /api/home", rt.home.Home)
	mux.HandleFunc("GET /api/verse", rt.home.Verse)
	mux.HandleFunc("POST /api/connect", m.RateLimit(rt.home.SubmitConnect))

	// Sermons
	mux.HandleFunc("GET /api/sermons", rt.sermons.List)
	mux.HandleFunc("GET /api/sermons/saved", m.RequireAuth(rt.sermons.Saved))
	mux.HandleFunc("GET /api/sermons/{id}", m.OptionalAuth(rt.sermons.Get))
	mux.HandleFunc("POST /api/sermons/{id}/save", m.Protect(rt.sermons.ToggleSave))
	mux.HandleFunc("GET /api/sermons/{id}/note", m.RequireAuth(rt.sermons.Note))
	mux.HandleFunc("PUT /api/sermons/{id}/note", m.Protect(rt.sermons.SaveNote))

	// Events and meetings
	mux.HandleFunc("GET /api/events", rt.events.List)
	mux.HandleFunc("GET /api/events/calendar", rt.events.Calendar)
	mux.HandleFunc("GET /api/events/{id}", rt.events.Get)
	mux.HandleFunc("GET /api/meetings", rt.events.Meetings)

	// Prayer wall
	mux.HandleFunc("GET /api/prayers", rt.prayers.List)
	mux.HandleFunc("POST /api/prayers", m.RateLimit(rt.prayers.Submit))
	mux.HandleFunc("POST /api/prayers/{id}/pray", m.OptionalAuth(rt.prayers.Pray))

	// Church
	mux.HandleFunc("GET /api/branches", rt.church.Branches)
	mux.HandleFunc("GET /api/announcements", rt.church.Announcements)
	mux.HandleFunc("GET /api/resources", rt.church.Resources)
	mux.HandleFunc("GET /api/giving/methods", rt.church.GivingMethods)
	mux.HandleFunc("GET /api/giving", m.RequireAuth(rt.church.MyGiving))

	// Gallery
	mux.HandleFunc("GET /api/albums", rt.gallery.Albums)
	mux.HandleFunc("GET /api/albums/{id}", rt.gallery.Album)
	mux.HandleFunc("GET /api/slides", rt.gallery.Slides)

	// Groups
	mux.HandleFunc("GET /api/groups", rt.groups.List)
	mux.HandleFunc("GET /api/groups/{id}", rt.groups.Get)
	mux.HandleFunc("POST /api/groups/{id}/join", m.Protect(rt.groups.Join))

	// Community
	mux.HandleFunc("GET /api/posts", m.OptionalAuth(rt.community.Feed))
	mux.HandleFunc("POST /api/posts", m.Protect(rt.community.CreatePost))
	mux.HandleFunc("DELETE /api/posts/{id}", m.Protect(rt.community.DeletePost))
	mux.HandleFunc("POST /api/posts/{id}/like", m.Protect(rt.community.ToggleLike))
	mux.HandleFunc("POST /api/posts/{id}/comments", m.Protect(rt.community.AddComment))
	mux.HandleFunc("DELETE /api/comments/{id}", m.Protect(rt.community.DeleteComment))

	// Notifications
	mux.HandleFunc("GET /api/notifications", m.RequireAuth(rt.notifications.List))
	mux.HandleFunc("POST /api/notifications/read", m.Protect(rt.notifications.MarkAllRead))
	mux.HandleFunc("GET /api/notifications/stream", m.RequireAuth(rt.notifications.Stream))

	// Messaging
	mux.HandleFunc("GET /api/conversations", m.RequireAuth(rt.messages.Conversations))
	mux.HandleFunc("POST /api/conversations", m.Protect(rt.messages.Start))
	mux.HandleFunc("GET /api/conversations/{id}/messages", m.RequireAuth(rt.messages.Messages))
	mux.HandleFunc("POST /api/conversations/{id}/messages", m.Protect(rt.messages.Send))
	mux.HandleFunc("GET /api/conversations/{id}/stream", m.RequireAuth(rt.messages.Stream))

	// Search and uploads
	mux.HandleFunc("GET /api/search", rt.search.Search)
	mux.HandleFunc("POST /api/uploads", m.Protect(rt.uploads.Upload))

	// Admin: dashboard and members
	mux.HandleFunc("GET /api/admin/dashboard", m.RequireStaff(rt.admin.Dashboard))
	mux.HandleFunc("GET /api/admin/users", m.RequireAdmin(rt.admin.Users))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", rt.manage(rt.admin.SetRole))
	mux.HandleFunc("GET /api/admin/users/{id}/giving", m.RequireAdmin(rt.church.MemberGiving))
	mux.HandleFunc("POST /api/admin/giving", rt.manage(rt.church.RecordGiving))
	mux.HandleFunc("POST /api/admin/notifications/broadcast", rt.manage(rt.admin.Broadcast))
	mux.HandleFunc("POST /api/admin/notifications/test", m.RequireStaff(m.CSRFProtect(rt.admin.TestNotification)))

	// Admin: backups
	mux.HandleFunc("GET /api/admin/backup", m.RequireAdmin(rt.admin.ExportDatabase))
	mux.HandleFunc("POST /api/admin/backup", rt.manage(rt.admin.ImportDatabase))

	// Admin: home page content
	mux.HandleFunc("PUT /api/admin/verse", rt.content(rt.home.SetVerse))
	mux.HandleFunc("DELETE /api/admin/verse", rt.content(rt.home.ClearVerse))
	mux.HandleFunc("GET /api/admin/connect", m.RequireModerator(rt.home.ConnectSubmissions))
	mux.HandleFunc("DELETE /api/admin/connect/{id}", rt.moderate(rt.home.DeleteConnectSubmission))
	mux.HandleFunc("GET /api/admin/announcements", m.RequireContentManager(rt.church.AllAnnouncements))
	mux.HandleFunc("POST /api/admin/announcements", rt.content(rt.church.CreateAnnouncement))
	mux.HandleFunc("POST /api/admin/announcements/{id}/toggle", rt.content(rt.church.ToggleAnnouncement))
	mux.HandleFunc("DELETE /api/admin/announcements/{id}", rt.content(rt.church.DeleteAnnouncement))
	mux.HandleFunc("POST /api/admin/slides", rt.content(rt.gallery.AddSlide))
	mux.HandleFunc("DELETE /api/admin/slides/{id}", rt.content(rt.gallery.DeleteSlide))

	// Admin: sermons, events, meetings
	mux.HandleFunc("POST /api/admin/sermons", rt.content(rt.sermons.Create))
	mux.HandleFunc("DELETE /api/admin/sermons/{id}", rt.content(rt.sermons.Delete))
	mux.HandleFunc("POST /api/admin/sermons/seed", rt.content(rt.sermons.Seed))
	mux.HandleFunc("POST /api/admin/sermons/import", rt.content(rt.sermons.ImportFeed))
	mux.HandleFunc("POST /api/admin/events", rt.content(rt.events.Create))
	mux.HandleFunc("DELETE /api/admin/events/{id}", rt.content(rt.events.Delete))
	mux.HandleFunc("POST /api/admin/events/seed", rt.content(rt.events.Seed))
	mux.HandleFunc("POST /api/admin/meetings", rt.content(rt.events.CreateMeeting))
	mux.HandleFunc("DELETE /api/admin/meetings/{id}", rt.content(rt.events.DeleteMeeting))

	// Admin: prayer moderation
	mux.HandleFunc("GET /api/admin/prayers/pending", m.RequireModerator(rt.prayers.Pending))
	mux.HandleFunc("POST /api/admin/prayers/{id}/approve", rt.moderate(rt.prayers.Approve))
	mux.HandleFunc("DELETE /api/admin/prayers/{id}", rt.moderate(rt.prayers.Delete))

	// Admin: gallery, branches, resources, groups
	mux.HandleFunc("POST /api/admin/albums", rt.content(rt.gallery.CreateAlbum))
	mux.HandleFunc("DELETE /api/admin/albums/{id}", rt.content(rt.gallery.DeleteAlbum))
	mux.HandleFunc("POST /api/admin/albums/{id}/photos", rt.content(rt.gallery.AddPhoto))
	mux.HandleFunc("DELETE /api/admin/photos/{id}", rt.content(rt.gallery.DeletePhoto))
	mux.HandleFunc("POST /api/admin/branches", rt.content(rt.church.CreateBranch))
	mux.HandleFunc("DELETE /api/admin/branches/{id}", rt.content(rt.church.DeleteBranch))
	mux.HandleFunc("POST /api/admin/resources", rt.content(rt.church.CreateResource))
	mux.HandleFunc("DELETE /api/admin/resources/{id}", rt.content(rt.church.DeleteResource))
	mux.HandleFunc("POST /api/admin/groups", rt.content(rt.groups.Create))
	mux.HandleFunc("DELETE /api/admin/groups/{id}", rt.content(rt.groups.Delete))
	mux.HandleFunc("GET /api/admin/groups/{id}/requests", m.RequireStaff(rt.groups.JoinRequests))
}
