package repository

import (
	"database/sql"
	"fmt"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// SermonRepository handles sermons, saved sermons and sermon notes
type SermonRepository struct {
	db *database.DB
}

// NewSermonRepository creates a new sermon repository
func NewSermonRepository(db *database.DB) *SermonRepository {
	return &SermonRepository{db: db}
}

const sermonColumns = `id, title, speaker, series, preached_on, description, image_url, video_url, audio_url,
	COALESCE(source_guid, ''), created_at`

func scanSermon(row scanner) (*models.Sermon, error) {
	s := &models.Sermon{}
	err := row.Scan(&s.ID, &s.Title, &s.Speaker, &s.Series, &s.PreachedOn, &s.Description,
		&s.ImageURL, &s.VideoURL, &s.AudioURL, &s.SourceGUID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SermonRepository) list(query string, args ...interface{}) ([]models.Sermon, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}
	defer rows.Close()

	sermons := []models.Sermon{}
	for rows.Next() {
		s, err := scanSermon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sermon: %w", err)
		}
		sermons = append(sermons, *s)
	}
	return sermons, rows.Err()
}

// ListSermons returns all sermons, newest first
func (r *SermonRepository) ListSermons() ([]models.Sermon, error) {
	return r.list("SELECT " + sermonColumns + " FROM sermons ORDER BY preached_on DESC, created_at DESC")
}

// GetSermon retrieves a sermon by ID
func (r *SermonRepository) GetSermon(id string) (*models.Sermon, error) {
	s, err := scanSermon(r.db.QueryRow("SELECT "+sermonColumns+" FROM sermons WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sermon: %w", err)
	}
	return s, nil
}

// CreateSermon inserts a sermon, assigning its ID
func (r *SermonRepository) CreateSermon(s *models.Sermon) error {
	s.ID = newID()
	s.CreatedAt = now()
	_, err := r.db.Exec(`
		INSERT INTO sermons (id, title, speaker, series, preached_on, description, image_url, video_url, audio_url, source_guid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Title, s.Speaker, s.Series, s.PreachedOn.UTC(), s.Description, s.ImageURL, s.VideoURL, s.AudioURL,
		nullString(s.SourceGUID), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sermon: %w", err)
	}
	return nil
}

// HasSourceGUID reports whether a sermon was already imported from a feed item
func (r *SermonRepository) HasSourceGUID(guid string) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM sermons WHERE source_guid = ?", guid).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check sermon source: %w", err)
	}
	return count > 0, nil
}

// DeleteSermon removes a sermon and its notes and saves
func (r *SermonRepository) DeleteSermon(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM sermons WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete sermon: %w", err)
	}
	return rowsAffected(result)
}

// CountSermons returns the number of sermons
func (r *SermonRepository) CountSermons() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sermons").Scan(&count)
	return count, err
}

// IsSaved reports whether the user bookmarked the sermon
func (r *SermonRepository) IsSaved(userID, sermonID string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM saved_sermons WHERE user_id = ? AND sermon_id = ?", userID, sermonID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check saved sermon: %w", err)
	}
	return count > 0, nil
}

// SaveSermon bookmarks a sermon; saving twice is a no-op
func (r *SermonRepository) SaveSermon(userID, sermonID string) error {
	query := r.db.Dialect.UpsertQuery("saved_sermons",
		[]string{"user_id", "sermon_id", "created_at"},
		[]string{"user_id", "sermon_id"}, nil)
	if _, err := r.db.Exec(query, userID, sermonID, now()); err != nil {
		return fmt.Errorf("failed to save sermon: %w", err)
	}
	return nil
}

// UnsaveSermon removes a bookmark
func (r *SermonRepository) UnsaveSermon(userID, sermonID string) error {
	if _, err := r.db.Exec("DELETE FROM saved_sermons WHERE user_id = ? AND sermon_id = ?", userID, sermonID); err != nil {
		return fmt.Errorf("failed to unsave sermon: %w", err)
	}
	return nil
}

// ListSavedSermons returns the user's bookmarked sermons, most recently saved first
func (r *SermonRepository) ListSavedSermons(userID string) ([]models.Sermon, error) {
	return r.list(`
		SELECT s.id, s.title, s.speaker, s.series, s.preached_on, s.description, s.image_url, s.video_url, s.audio_url,
			COALESCE(s.source_guid, ''), s.created_at
		FROM saved_sermons ss
		JOIN sermons s ON s.id = ss.sermon_id
		WHERE ss.user_id = ?
		ORDER BY ss.created_at DESC
	`, userID)
}

// GetNote returns the user's note on a sermon, or nil
func (r *SermonRepository) GetNote(userID, sermonID string) (*models.SermonNote, error) {
	n := &models.SermonNote{}
	err := r.db.QueryRow("SELECT id, sermon_id, user_id, content, updated_at FROM sermon_notes WHERE user_id = ? AND sermon_id = ?",
		userID, sermonID).Scan(&n.ID, &n.SermonID, &n.UserID, &n.Content, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

// UpsertNote creates or replaces the user's note on a sermon
func (r *SermonRepository) UpsertNote(userID, sermonID, content string) (*models.SermonNote, error) {
	query := r.db.Dialect.UpsertQuery("sermon_notes",
		[]string{"id", "sermon_id", "user_id", "content", "updated_at"},
		[]string{"user_id", "sermon_id"},
		[]string{"content", "updated_at"})
	if _, err := r.db.Exec(query, newID(), sermonID, userID, content, now()); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return r.GetNote(userID, sermonID)
}
