package repository

import (
	"database/sql"
	"fmt"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// GroupRepository handles small groups and join requests
type GroupRepository struct {
	db *database.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupColumns = "id, name, leader, topic, description, schedule, location, image_url, created_at"

func scanGroup(row scanner) (*models.SmallGroup, error) {
	g := &models.SmallGroup{}
	err := row.Scan(&g.ID, &g.Name, &g.Leader, &g.Topic, &g.Description, &g.Schedule, &g.Location, &g.ImageURL, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGroups returns every group by name
func (r *GroupRepository) ListGroups() ([]models.SmallGroup, error) {
	rows, err := r.db.Query("SELECT " + groupColumns + " FROM small_groups ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.SmallGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// GetGroup retrieves a group by ID
func (r *GroupRepository) GetGroup(id string) (*models.SmallGroup, error) {
	g, err := scanGroup(r.db.QueryRow("SELECT "+groupColumns+" FROM small_groups WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// CreateGroup inserts a group
func (r *GroupRepository) CreateGroup(g *models.SmallGroup) error {
	g.ID = newID()
	g.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO small_groups ("+groupColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.Name, g.Leader, g.Topic, g.Description, g.Schedule, g.Location, g.ImageURL, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// DeleteGroup removes a group
func (r *GroupRepository) DeleteGroup(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM small_groups WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete group: %w", err)
	}
	return rowsAffected(result)
}

// CreateJoinRequest records a join request. It returns false if the user already asked.
func (r *GroupRepository) CreateJoinRequest(req *models.GroupJoinRequest) (bool, error) {
	req.ID = newID()
	req.CreatedAt = now()
	query := r.db.Dialect.UpsertQuery("group_join_requests",
		[]string{"id", "group_id", "user_id", "message", "created_at"},
		[]string{"group_id", "user_id"}, nil)
	result, err := r.db.Exec(query, req.ID, req.GroupID, req.UserID, req.Message, req.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create join request: %w", err)
	}
	return rowsAffected(result)
}

// ListJoinRequests returns the join requests for a group
func (r *GroupRepository) ListJoinRequests(groupID string) ([]models.GroupJoinRequest, error) {
	rows, err := r.db.Query("SELECT id, group_id, user_id, message, created_at FROM group_join_requests WHERE group_id = ? ORDER BY created_at", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	requests := []models.GroupJoinRequest{}
	for rows.Next() {
		var req models.GroupJoinRequest
		if err := rows.Scan(&req.ID, &req.GroupID, &req.UserID, &req.Message, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
