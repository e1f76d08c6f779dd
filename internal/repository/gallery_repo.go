package repository

import (
	"database/sql"
	"fmt"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// GalleryRepository handles photo albums and photos
type GalleryRepository struct {
	db *database.DB
}

// NewGalleryRepository creates a new gallery repository
func NewGalleryRepository(db *database.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// ListAlbums returns every album, newest first, with its photos in upload order
func (r *GalleryRepository) ListAlbums() ([]models.PhotoAlbum, error) {
	return r.albums("")
}

// GetAlbum returns one album with its photos, or nil
func (r *GalleryRepository) GetAlbum(id string) (*models.PhotoAlbum, error) {
	albums, err := r.albums(id)
	if err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return nil, nil
	}
	return &albums[0], nil
}

func (r *GalleryRepository) albums(id string) ([]models.PhotoAlbum, error) {
	query := `
		SELECT a.id, a.title, a.created_at, p.id, p.url, p.caption, p.created_at
		FROM photo_albums a
		LEFT JOIN photos p ON p.album_id = a.id
	`
	var args []interface{}
	if id != "" {
		query += " WHERE a.id = ?"
		args = append(args, id)
	}
	query += " ORDER BY a.created_at DESC, a.id, p.created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	albums := []models.PhotoAlbum{}
	index := map[string]int{}
	for rows.Next() {
		var album models.PhotoAlbum
		var photoID, photoURL, caption sql.NullString
		var photoCreated sql.NullTime
		if err := rows.Scan(&album.ID, &album.Title, &album.CreatedAt, &photoID, &photoURL, &caption, &photoCreated); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}

		i, seen := index[album.ID]
		if !seen {
			album.Photos = []models.Photo{}
			albums = append(albums, album)
			i = len(albums) - 1
			index[album.ID] = i
		}
		if photoID.Valid {
			albums[i].Photos = append(albums[i].Photos, models.Photo{
				ID:        photoID.String,
				AlbumID:   album.ID,
				URL:       photoURL.String,
				Caption:   caption.String,
				CreatedAt: photoCreated.Time,
			})
		}
	}
	return albums, rows.Err()
}

// CreateAlbum inserts an empty album
func (r *GalleryRepository) CreateAlbum(a *models.PhotoAlbum) error {
	a.ID = newID()
	a.CreatedAt = now()
	a.Photos = []models.Photo{}
	if _, err := r.db.Exec("INSERT INTO photo_albums (id, title, created_at) VALUES (?, ?, ?)", a.ID, a.Title, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}

// DeleteAlbum removes an album and its photos
func (r *GalleryRepository) DeleteAlbum(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM photo_albums WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete album: %w", err)
	}
	return rowsAffected(result)
}

// AddPhoto inserts a photo into an album
func (r *GalleryRepository) AddPhoto(p *models.Photo) error {
	p.ID = newID()
	p.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO photos (id, album_id, url, caption, created_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.AlbumID, p.URL, p.Caption, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add photo: %w", err)
	}
	return nil
}

// GetPhoto retrieves a photo by ID
func (r *GalleryRepository) GetPhoto(id string) (*models.Photo, error) {
	p := &models.Photo{}
	err := r.db.QueryRow("SELECT id, album_id, url, caption, created_at FROM photos WHERE id = ?", id).
		Scan(&p.ID, &p.AlbumID, &p.URL, &p.Caption, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return p, nil
}

// DeletePhoto removes a photo
func (r *GalleryRepository) DeletePhoto(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM photos WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete photo: %w", err)
	}
	return rowsAffected(result)
}
