package repository

import (
	"database/sql"
	"fmt"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// PrayerRepository handles prayer requests and prayer marks
type PrayerRepository struct {
	db *database.DB
}

// NewPrayerRepository creates a new prayer repository
func NewPrayerRepository(db *database.DB) *PrayerRepository {
	return &PrayerRepository{db: db}
}

const prayerColumns = "id, name, content, status, ai_response, prayer_count, created_at"

func scanPrayer(row scanner) (*models.Prayer, error) {
	p := &models.Prayer{}
	var status string
	if err := row.Scan(&p.ID, &p.Name, &p.Content, &status, &p.AIResponse, &p.PrayerCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Status = models.PrayerStatus(status)
	return p, nil
}

// ListByStatus returns prayers with the given status, newest first
func (r *PrayerRepository) ListByStatus(status models.PrayerStatus) ([]models.Prayer, error) {
	rows, err := r.db.Query("SELECT "+prayerColumns+" FROM prayers WHERE status = ? ORDER BY created_at DESC", string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list prayers: %w", err)
	}
	defer rows.Close()

	prayers := []models.Prayer{}
	for rows.Next() {
		p, err := scanPrayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prayer: %w", err)
		}
		prayers = append(prayers, *p)
	}
	return prayers, rows.Err()
}

// GetPrayer retrieves a prayer by ID
func (r *PrayerRepository) GetPrayer(id string) (*models.Prayer, error) {
	p, err := scanPrayer(r.db.QueryRow("SELECT "+prayerColumns+" FROM prayers WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prayer: %w", err)
	}
	return p, nil
}

// CreatePrayer inserts a prayer request
func (r *PrayerRepository) CreatePrayer(p *models.Prayer) error {
	p.ID = newID()
	p.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO prayers ("+prayerColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Name, p.Content, string(p.Status), p.AIResponse, p.PrayerCount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prayer: %w", err)
	}
	return nil
}

// SetAIResponse stores the generated encouragement for a prayer
func (r *PrayerRepository) SetAIResponse(id, response string) error {
	_, err := r.db.Exec("UPDATE prayers SET ai_response = ? WHERE id = ?", response, id)
	if err != nil {
		return fmt.Errorf("failed to save prayer response: %w", err)
	}
	return nil
}

// SetStatus changes a prayer's moderation status
func (r *PrayerRepository) SetStatus(id string, status models.PrayerStatus) (bool, error) {
	result, err := r.db.Exec("UPDATE prayers SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return false, fmt.Errorf("failed to update prayer status: %w", err)
	}
	return rowsAffected(result)
}

// DeletePrayer removes a prayer
func (r *PrayerRepository) DeletePrayer(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM prayers WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete prayer: %w", err)
	}
	return rowsAffected(result)
}

// CountByStatus returns the number of prayers with status
func (r *PrayerRepository) CountByStatus(status models.PrayerStatus) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM prayers WHERE status = ?", string(status)).Scan(&count)
	return count, err
}

// MarkPrayed records that marker prayed for the request and bumps the count.
// It returns false without changing the count if marker already prayed.
func (r *PrayerRepository) MarkPrayed(prayerID, marker string) (bool, error) {
	var counted bool
	err := r.db.WithTx(func(tx *database.Tx) error {
		query := tx.GetDialect().UpsertQuery("prayer_marks",
			[]string{"prayer_id", "marker", "created_at"},
			[]string{"prayer_id", "marker"}, nil)
		result, err := tx.Exec(query, prayerID, marker, now())
		if err != nil {
			return err
		}
		inserted, err := rowsAffected(result)
		if err != nil || !inserted {
			return err
		}
		if _, err := tx.Exec("UPDATE prayers SET prayer_count = prayer_count + 1 WHERE id = ?", prayerID); err != nil {
			return err
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to record prayer: %w", err)
	}
	return counted, nil
}
