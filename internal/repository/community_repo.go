package repository

import (
	"database/sql"
	"fmt"

	"fellowship/internal/database"
	"fellowship/internal/models"
)

// CommunityRepository handles posts, comments and likes
type CommunityRepository struct {
	db *database.DB
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db *database.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

const postSelect = `
	SELECT p.id, p.user_id, p.content, p.image_url, p.created_at, u.name, u.avatar_url
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

func scanPost(row scanner) (*models.Post, error) {
	p := &models.Post{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.ImageURL, &p.CreatedAt, &p.Author.Name, &p.Author.AvatarURL); err != nil {
		return nil, err
	}
	p.Author.ID = p.UserID
	p.Likes = []models.Like{}
	p.Comments = []models.Comment{}
	return p, nil
}

// ListPosts returns up to limit posts, newest first, with their likes and comments
func (r *CommunityRepository) ListPosts(limit int) ([]models.Post, error) {
	rows, err := r.db.Query(postSelect+" ORDER BY p.created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachChildren(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost retrieves a post with its likes and comments, or nil
func (r *CommunityRepository) GetPost(id string) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRow(postSelect+" WHERE p.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	posts := []models.Post{*p}
	if err := r.attachChildren(posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// attachChildren loads likes and comments for posts in two queries
func (r *CommunityRepository) attachChildren(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
	}
	in := "(" + placeholders(len(ids)) + ")"

	likeRows, err := r.db.Query("SELECT id, post_id, user_id, created_at FROM likes WHERE post_id IN "+in+" ORDER BY created_at", stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	for likeRows.Next() {
		var l models.Like
		if err := likeRows.Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt); err != nil {
			likeRows.Close()
			return fmt.Errorf("failed to scan like: %w", err)
		}
		posts[index[l.PostID]].Likes = append(posts[index[l.PostID]].Likes, l)
	}
	likeRows.Close()
	if err := likeRows.Err(); err != nil {
		return err
	}

	commentRows, err := r.db.Query(`
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at, u.name, u.avatar_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id IN `+in+`
		ORDER BY c.created_at ASC
	`, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		c, err := scanComment(commentRows)
		if err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		posts[index[c.PostID]].Comments = append(posts[index[c.PostID]].Comments, *c)
	}
	return commentRows.Err()
}

func scanComment(row scanner) (*models.Comment, error) {
	c := &models.Comment{}
	if err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.Author.Name, &c.Author.AvatarURL); err != nil {
		return nil, err
	}
	c.Author.ID = c.UserID
	return c, nil
}

// CreatePost inserts a post
func (r *CommunityRepository) CreatePost(p *models.Post) error {
	p.ID = newID()
	p.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO posts (id, user_id, content, image_url, created_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.UserID, p.Content, p.ImageURL, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// DeletePost removes a post with its comments and likes
func (r *CommunityRepository) DeletePost(id string) error {
	if _, err := r.db.Exec("DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// ToggleLike adds the user's like or removes it if present. It returns the new state.
func (r *CommunityRepository) ToggleLike(postID, userID string) (bool, error) {
	var liked bool
	err := r.db.WithTx(func(tx *database.Tx) error {
		result, err := tx.Exec("DELETE FROM likes WHERE post_id = ? AND user_id = ?", postID, userID)
		if err != nil {
			return err
		}
		removed, err := rowsAffected(result)
		if err != nil || removed {
			return err
		}
		if _, err := tx.Exec("INSERT INTO likes (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?)",
			newID(), postID, userID, now()); err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}
	return liked, nil
}

// CreateComment inserts a comment
func (r *CommunityRepository) CreateComment(c *models.Comment) error {
	c.ID = newID()
	c.CreatedAt = now()
	_, err := r.db.Exec("INSERT INTO comments (id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.PostID, c.UserID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetComment retrieves a comment with its author, or nil
func (r *CommunityRepository) GetComment(id string) (*models.Comment, error) {
	c, err := scanComment(r.db.QueryRow(`
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at, u.name, u.avatar_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// DeleteComment removes a comment
func (r *CommunityRepository) DeleteComment(id string) error {
	if _, err := r.db.Exec("DELETE FROM comments WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
