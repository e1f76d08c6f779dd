package models

import (
	"net/url"
	"strings"
	"time"
)

// Sermon is a recorded message with optional media links
type Sermon struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Speaker     string    `json:"speaker"`
	Series      string    `json:"series"`
	PreachedOn  time.Time `json:"date"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	VideoURL    string    `json:"video_url"`
	AudioURL    string    `json:"audio_url"`
	SourceGUID  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmbedURL returns the player URL for the sermon video
func (s *Sermon) EmbedURL() string {
	return YouTubeEmbedURL(s.VideoURL)
}

// SermonNote is a member's private note on a sermon
type SermonNote struct {
	ID        string    `json:"id"`
	SermonID  string    `json:"sermon_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// YouTubeEmbedURL converts youtu.be and youtube.com/watch links into embed links.
// Other URLs are returned unchanged.
func YouTubeEmbedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var videoID string
	switch host {
	case "youtu.be":
		videoID = strings.Trim(u.Path, "/")
	case "youtube.com":
		switch {
		case u.Path == "/watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			return raw
		case strings.HasPrefix(u.Path, "/shorts/"):
			videoID = strings.TrimPrefix(u.Path, "/shorts/")
		}
	}

	if videoID == "" {
		return raw
	}
	return "https://www.youtube.com/embed/" + videoID
}
