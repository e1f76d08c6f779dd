package service

import (
	"context"
	"log"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/storage"
	"fellowship/internal/validation"
)

// GalleryService handles photo albums and the home slideshow
type GalleryService struct {
	repo     *repository.GalleryRepository
	church   *repository.ChurchRepository
	uploader *storage.Uploader
}

// NewGalleryService creates a new gallery service
func NewGalleryService(repo *repository.GalleryRepository, church *repository.ChurchRepository, uploader *storage.Uploader) *GalleryService {
	return &GalleryService{repo: repo, church: church, uploader: uploader}
}

// Albums returns every album with its photos
func (s *GalleryService) Albums() ([]models.PhotoAlbum, error) {
	return s.repo.ListAlbums()
}

// Album returns one album with its photos
func (s *GalleryService) Album(id string) (*models.PhotoAlbum, error) {
	album, err := s.repo.GetAlbum(id)
	if err != nil {
		return nil, err
	}
	if album == nil {
		return nil, ErrNotFound
	}
	return album, nil
}

// CreateAlbum adds an empty album
func (s *GalleryService) CreateAlbum(title string) (*models.PhotoAlbum, error) {
	title = strings.TrimSpace(title)
	if err := validation.Var("title", title, "required,max=200"); err != nil {
		return nil, err
	}
	album := &models.PhotoAlbum{Title: title}
	if err := s.repo.CreateAlbum(album); err != nil {
		return nil, err
	}
	return album, nil
}

// DeleteAlbum removes an album, its photos and their uploaded files
func (s *GalleryService) DeleteAlbum(ctx context.Context, id string) error {
	album, err := s.Album(id)
	if err != nil {
		return err
	}
	if err := notFoundIfMissing(s.repo.DeleteAlbum(id)); err != nil {
		return err
	}
	for _, photo := range album.Photos {
		s.removeFile(ctx, photo.URL)
	}
	return nil
}

// PhotoInput attaches an uploaded image to an album
type PhotoInput struct {
	URL     string `json:"url" validate:"notblank,max=2048"`
	Caption string `json:"caption" validate:"max=500"`
}

// AddPhoto adds an uploaded image to an album
func (s *GalleryService) AddPhoto(albumID string, input PhotoInput) (*models.Photo, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.Album(albumID); err != nil {
		return nil, err
	}
	photo := &models.Photo{AlbumID: albumID, URL: input.URL, Caption: strings.TrimSpace(input.Caption)}
	if err := s.repo.AddPhoto(photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// DeletePhoto removes a photo and its file
func (s *GalleryService) DeletePhoto(ctx context.Context, id string) error {
	photo, err := s.repo.GetPhoto(id)
	if err != nil {
		return err
	}
	if photo == nil {
		return ErrNotFound
	}
	if err := notFoundIfMissing(s.repo.DeletePhoto(id)); err != nil {
		return err
	}
	s.removeFile(ctx, photo.URL)
	return nil
}

// Slides returns the home slideshow
func (s *GalleryService) Slides() ([]models.SlideshowImage, error) {
	return s.church.ListSlides()
}

// AddSlide adds an uploaded image to the slideshow
func (s *GalleryService) AddSlide(input PhotoInput) (*models.SlideshowImage, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	slide := &models.SlideshowImage{URL: input.URL, Caption: strings.TrimSpace(input.Caption)}
	if err := s.church.CreateSlide(slide); err != nil {
		return nil, err
	}
	return slide, nil
}

// DeleteSlide removes a slide. The image file is kept since it may be reused.
func (s *GalleryService) DeleteSlide(id string) error {
	return notFoundIfMissing(s.church.DeleteSlide(id))
}

func (s *GalleryService) removeFile(ctx context.Context, url string) {
	if s.uploader == nil || url == "" {
		return
	}
	if err := s.uploader.Remove(ctx, url); err != nil {
		log.Printf("Failed to remove file %s: %v", url, err)
	}
}
