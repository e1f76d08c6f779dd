package repository

import (
	"database/sql"
	"fmt"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// ChurchRepository handles the church information tables: slideshow, branches,
// announcements, resources, connect cards and giving records
type ChurchRepository struct {
	db *database.DB
}

// NewChurchRepository creates a new church repository
func NewChurchRepository(db *database.DB) *ChurchRepository {
	return &ChurchRepository{db: db}
}

func (r *ChurchRepository) deleteByID(table, id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return rowsAffected(result)
}

// ListSlides returns slideshow images, newest first
func (r *ChurchRepository) ListSlides() ([]models.SlideshowImage, error) {
	rows, err := r.db.Query("SELECT id, url, caption, created_at FROM slideshow_images ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list slides: %w", err)
	}
	defer rows.Close()

	slides := []models.SlideshowImage{}
	for rows.Next() {
		var s models.SlideshowImage
		if err := rows.Scan(&s.ID, &s.URL, &s.Caption, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slide: %w", err)
		}
		slides = append(slides, s)
	}
	return slides, rows.Err()
}

// CreateSlide inserts a slideshow image
func (r *ChurchRepository) CreateSlide(s *models.SlideshowImage) error {
	s.ID = newID()
	s.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO slideshow_images (id, url, caption, created_at) VALUES (?, ?, ?, ?)",
		s.ID, s.URL, s.Caption, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create slide: %w", err)
	}
	return nil
}

// DeleteSlide removes a slideshow image
func (r *ChurchRepository) DeleteSlide(id string) (bool, error) {
	return r.deleteByID("slideshow_images", id)
}

// ListBranches returns church branches by name
func (r *ChurchRepository) ListBranches() ([]models.ChurchBranch, error) {
	rows, err := r.db.Query("SELECT id, name, leader, address, lat, lng, radius, created_at FROM church_branches ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()

	branches := []models.ChurchBranch{}
	for rows.Next() {
		var b models.ChurchBranch
		if err := rows.Scan(&b.ID, &b.Name, &b.Leader, &b.Address, &b.Lat, &b.Lng, &b.Radius, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// CreateBranch inserts a church branch
func (r *ChurchRepository) CreateBranch(b *models.ChurchBranch) error {
	b.ID = newID()
	b.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO church_branches (id, name, leader, address, lat, lng, radius, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.Name, b.Leader, b.Address, b.Lat, b.Lng, b.Radius, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	return nil
}

// DeleteBranch removes a church branch
func (r *ChurchRepository) DeleteBranch(id string) (bool, error) {
	return r.deleteByID("church_branches", id)
}

// ListAnnouncements returns announcements, newest first. activeOnly hides inactive ones.
func (r *ChurchRepository) ListAnnouncements(activeOnly bool) ([]models.Announcement, error) {
	query := "SELECT id, message, type, is_active, created_at FROM announcements"
	var args []interface{}
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	announcements := []models.Announcement{}
	for rows.Next() {
		var a models.Announcement
		var kind string
		if err := rows.Scan(&a.ID, &a.Message, &kind, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		a.Type = models.AnnouncementType(kind)
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

// CreateAnnouncement inserts an announcement
func (r *ChurchRepository) CreateAnnouncement(a *models.Announcement) error {
	a.ID = newID()
	a.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO announcements (id, message, type, is_active, created_at) VALUES (?, ?, ?, ?, ?)",
		a.ID, a.Message, string(a.Type), a.IsActive, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

// SetAnnouncementActive shows or hides an announcement
func (r *ChurchRepository) SetAnnouncementActive(id string, active bool) (bool, error) {
	result, err := r.db.Exec("UPDATE announcements SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return false, fmt.Errorf("failed to update announcement: %w", err)
	}
	return rowsAffected(result)
}

// GetAnnouncementActive returns whether the announcement is active and whether it exists
func (r *ChurchRepository) GetAnnouncementActive(id string) (active bool, found bool, err error) {
	err = r.db.QueryRow("SELECT is_active FROM announcements WHERE id = ?", id).Scan(&active)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get announcement: %w", err)
	}
	return active, true, nil
}

// DeleteAnnouncement removes an announcement
func (r *ChurchRepository) DeleteAnnouncement(id string) (bool, error) {
	return r.deleteByID("announcements", id)
}

// ListResources returns resources by category then title
func (r *ChurchRepository) ListResources() ([]models.Resource, error) {
	rows, err := r.db.Query("SELECT id, title, description, category, file_url, created_at FROM resources ORDER BY category, title")
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	resources := []models.Resource{}
	for rows.Next() {
		var res models.Resource
		if err := rows.Scan(&res.ID, &res.Title, &res.Description, &res.Category, &res.FileURL, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// CreateResource inserts a resource
func (r *ChurchRepository) CreateResource(res *models.Resource) error {
	res.ID = newID()
	res.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO resources (id, title, description, category, file_url, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		res.ID, res.Title, res.Description, res.Category, res.FileURL, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

// DeleteResource removes a resource
func (r *ChurchRepository) DeleteResource(id string) (bool, error) {
	return r.deleteByID("resources", id)
}

// ListConnectSubmissions returns connect cards, newest first
func (r *ChurchRepository) ListConnectSubmissions() ([]models.ConnectSubmission, error) {
	rows, err := r.db.Query("SELECT id, name, email, phone, type, message, created_at FROM connect_submissions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list connect submissions: %w", err)
	}
	defer rows.Close()

	submissions := []models.ConnectSubmission{}
	for rows.Next() {
		var c models.ConnectSubmission
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Type, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan connect submission: %w", err)
		}
		submissions = append(submissions, c)
	}
	return submissions, rows.Err()
}

// CreateConnectSubmission stores a connect card
func (r *ChurchRepository) CreateConnectSubmission(c *models.ConnectSubmission) error {
	c.ID = newID()
	c.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO connect_submissions (id, name, email, phone, type, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Email, c.Phone, c.Type, c.Message, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create connect submission: %w", err)
	}
	return nil
}

// DeleteConnectSubmission removes a connect card
func (r *ChurchRepository) DeleteConnectSubmission(id string) (bool, error) {
	return r.deleteByID("connect_submissions", id)
}

// ListGivingRecords returns a member's giving, newest first
func (r *ChurchRepository) ListGivingRecords(userID string) ([]models.GivingRecord, error) {
	rows, err := r.db.Query("SELECT id, user_id, amount, type, method, given_on, created_at FROM giving_records WHERE user_id = ? ORDER BY given_on DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list giving records: %w", err)
	}
	defer rows.Close()

	records := []models.GivingRecord{}
	for rows.Next() {
		var g models.GivingRecord
		if err := rows.Scan(&g.ID, &g.UserID, &g.Amount, &g.Type, &g.Method, &g.GivenOn, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan giving record: %w", err)
		}
		records = append(records, g)
	}
	return records, rows.Err()
}

// CreateGivingRecord stores a contribution
func (r *ChurchRepository) CreateGivingRecord(g *models.GivingRecord) error {
	g.ID = newID()
	g.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO giving_records (id, user_id, amount, type, method, given_on, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.UserID, g.Amount, g.Type, g.Method, g.GivenOn.UTC(), g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create giving record: %w", err)
	}
	return nil
}
