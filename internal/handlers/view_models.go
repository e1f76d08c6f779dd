package handlers

import (
	"time"

	"fellowship/internal/models"
	"fellowship/internal/service"
)

// ConfigView is the client bootstrap returned by GET /api/config
type ConfigView struct {
	AppName        string              `json:"app_name"`
	OAuthProviders []OAuthProviderView `json:"oauth_providers"`
	AssistantReady bool                `json:"assistant_ready"`
	UploadMaxBytes int64               `json:"upload_max_bytes"`
	User           *models.User        `json:"user,omitempty"`
}

// CommentView is a comment as seen by the caller
type CommentView struct {
	models.Comment
	CanDelete bool `json:"can_delete"`
}

// PostView is a feed entry as seen by the caller
type PostView struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Content   string         `json:"content"`
	ImageURL  string         `json:"image_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Author    models.Profile `json:"author"`
	LikeCount int            `json:"like_count"`
	LikedByMe bool           `json:"liked_by_me"`
	CanDelete bool           `json:"can_delete"`
	Comments  []CommentView  `json:"comments"`
}

func newPostView(post models.Post, viewer *models.User) PostView {
	view := PostView{
		ID:        post.ID,
		UserID:    post.UserID,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		CreatedAt: post.CreatedAt,
		Author:    post.Author,
		LikeCount: len(post.Likes),
		CanDelete: service.CanDelete(viewer, post.UserID),
		Comments:  make([]CommentView, 0, len(post.Comments)),
	}
	if viewer != nil {
		view.LikedByMe = post.LikedBy(viewer.ID)
	}
	for _, c := range post.Comments {
		view.Comments = append(view.Comments, CommentView{Comment: c, CanDelete: service.CanDelete(viewer, c.UserID)})
	}
	return view
}

func newPostViews(posts []models.Post, viewer *models.User) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p, viewer))
	}
	return views
}

// SermonDetailView adds the caller's saved flag and note to a sermon
type SermonDetailView struct {
	*models.Sermon
	EmbedURL string             `json:"embed_url,omitempty"`
	Saved    bool               `json:"saved"`
	Note     *models.SermonNote `json:"note,omitempty"`
}

// EventView adds a map link to an event
type EventView struct {
	models.Event
	MapURL string `json:"map_url,omitempty"`
}

type toggleResponse struct {
	Active bool `json:"active"`
}

type idResponse struct {
	ID string `json:"id"`
}

type countResponse struct {
	Count int `json:"count"`
}
