package models

import "time"

// SmallGroup is a recurring fellowship group
type SmallGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Leader      string    `json:"leader"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupJoinRequest records a member asking to join a group
type GroupJoinRequest struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
