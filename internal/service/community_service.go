package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/storage"
	"fellowship/internal/validation"
)

const feedLimit = 50

// CommunityService handles the member feed
type CommunityService struct {
	repo          *repository.CommunityRepository
	notifications *NotificationService
	uploader      *storage.Uploader
}

// NewCommunityService creates a new community service
func NewCommunityService(repo *repository.CommunityRepository, notifications *NotificationService, uploader *storage.Uploader) *CommunityService {
	return &CommunityService{repo: repo, notifications: notifications, uploader: uploader}
}

// CanDelete reports whether user may remove content written by authorID
func CanDelete(user *models.User, authorID string) bool {
	if user == nil {
		return false
	}
	return user.ID == authorID || user.Role.CanModerate()
}

// Feed returns the newest posts with their authors, likes and comments
func (s *CommunityService) Feed() ([]models.Post, error) {
	return s.repo.ListPosts(feedLimit)
}

// PostInput is a new feed entry
type PostInput struct {
	Content  string `json:"content" validate:"notblank,max=5000"`
	ImageURL string `json:"image_url" validate:"max=2048"`
}

// CreatePost adds a post authored by user
func (s *CommunityService) CreatePost(user *models.User, input PostInput) (*models.Post, error) {
	input.Content = strings.TrimSpace(input.Content)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	post := &models.Post{
		UserID:   user.ID,
		Content:  input.Content,
		ImageURL: input.ImageURL,
		Author:   user.Profile(),
		Likes:    []models.Like{},
		Comments: []models.Comment{},
	}
	if err := s.repo.CreatePost(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *CommunityService) getPost(id string) (*models.Post, error) {
	post, err := s.repo.GetPost(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// DeletePost removes a post and its uploaded image
func (s *CommunityService) DeletePost(ctx context.Context, user *models.User, postID string) error {
	post, err := s.getPost(postID)
	if err != nil {
		return err
	}
	if !CanDelete(user, post.UserID) {
		return ErrForbidden
	}
	if err := s.repo.DeletePost(postID); err != nil {
		return err
	}
	if post.ImageURL != "" && s.uploader != nil {
		if err := s.uploader.Remove(ctx, post.ImageURL); err != nil {
			log.Printf("Failed to remove image for post %s: %v", postID, err)
		}
	}
	return nil
}

// ToggleLike likes or unlikes a post and returns whether it is now liked
func (s *CommunityService) ToggleLike(ctx context.Context, user *models.User, postID string) (bool, error) {
	post, err := s.getPost(postID)
	if err != nil {
		return false, err
	}
	liked, err := s.repo.ToggleLike(postID, user.ID)
	if err != nil {
		return false, err
	}
	if liked && post.UserID != user.ID {
		s.notify(ctx, post.UserID, fmt.Sprintf("%s liked your post", user.Name), postID)
	}
	return liked, nil
}

// AddComment replies to a post and tells its author
func (s *CommunityService) AddComment(ctx context.Context, user *models.User, postID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validation.Var("content", content, "required,max=2000"); err != nil {
		return nil, err
	}
	post, err := s.getPost(postID)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{
		PostID:  postID,
		UserID:  user.ID,
		Content: content,
		Author:  user.Profile(),
	}
	if err := s.repo.CreateComment(comment); err != nil {
		return nil, err
	}
	if post.UserID != user.ID {
		s.notify(ctx, post.UserID, fmt.Sprintf("%s commented on your post", user.Name), postID)
	}
	return comment, nil
}

// DeleteComment removes a comment written by user, or any comment for moderators
func (s *CommunityService) DeleteComment(user *models.User, commentID string) error {
	comment, err := s.repo.GetComment(commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrNotFound
	}
	if !CanDelete(user, comment.UserID) {
		return ErrForbidden
	}
	return s.repo.DeleteComment(commentID)
}

func (s *CommunityService) notify(ctx context.Context, userID, message, postID string) {
	if _, err := s.notifications.Send(ctx, userID, message, models.PageCommunity, postID); err != nil {
		log.Printf("Failed to notify %s: %v", userID, err)
	}
}
