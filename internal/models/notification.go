package models

import "time"

// Page names used as notification link targets
const (
	PageHome      = "HOME"
	PageSermons   = "SERMONS"
	PageEvents    = "EVENTS"
	PagePrayer    = "PRAYER"
	PageGallery   = "GALLERY"
	PageGroups    = "GROUPS"
	PageCommunity = "COMMUNITY"
	PageMessages  = "MESSAGES"
	PageProfile   = "PROFILE"
	PageAdmin     = "ADMIN"
)

// Notification is an in-app message for one member
type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Message    string    `json:"message"`
	LinkToPage string    `json:"link_to_page"`
	LinkToID   string    `json:"link_to_id"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
