package models

import "time"

// PhotoAlbum groups photos from one occasion
type PhotoAlbum struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Photos    []Photo   `json:"photos"`
}

// CoverURL is the first photo of the album, if any
func (a *PhotoAlbum) CoverURL() string {
	if len(a.Photos) == 0 {
		return ""
	}
	return a.Photos[0].URL
}

// Photo belongs to exactly one album
type Photo struct {
	ID        string    `json:"id"`
	AlbumID   string    `json:"album_id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}
