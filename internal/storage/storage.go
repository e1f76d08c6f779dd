// Package storage keeps uploaded files and hands out their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

var (
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// Store saves objects under a key and resolves them to public URLs
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyForURL returns the key of an object this store published, or false
	KeyForURL(url string) (string, bool)
}

// Sniffed content types accepted for upload and the extension each is stored with
var (
	imageTypes = map[string]string{
		"image/jpeg": "jpg",
		"image/png":  "png",
		"image/gif":  "gif",
		"image/webp": "webp",
	}
	documentTypes = map[string]string{
		"application/pdf": "pdf",
	}
)

// Uploader validates files and writes them to a Store
type Uploader struct {
	store   Store
	maxSize int64
	allowed map[string]string
	now     func() time.Time
}

// NewUploader accepts images up to maxSize bytes
func NewUploader(store Store, maxSize int64) *Uploader {
	return &Uploader{
		store:   store,
		maxSize: maxSize,
		allowed: imageTypes,
		now:     time.Now,
	}
}

// AllowDocuments also accepts PDFs, used for downloadable resources
func (u *Uploader) AllowDocuments() *Uploader {
	clone := *u
	clone.allowed = make(map[string]string, len(u.allowed)+len(documentTypes))
	for _, types := range []map[string]string{u.allowed, documentTypes} {
		for contentType, ext := range types {
			clone.allowed[contentType] = ext
		}
	}
	return &clone
}

// Upload stores the file as <userID>/<unix millis>.<ext> and returns its public URL.
// The extension follows the sniffed content type; the client filename is only logged.
func (u *Uploader) Upload(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > u.maxSize {
		return "", ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := u.allowed[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	key := ObjectKey(userID, ext, u.now())
	url, err := u.store.Put(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	log.Printf("Stored upload %s from %q (%d bytes, %s)", key, filename, len(data), contentType)
	return url, nil
}

// Remove deletes the object behind url if this store owns it. Foreign URLs are ignored.
func (u *Uploader) Remove(ctx context.Context, url string) error {
	key, ok := u.store.KeyForURL(url)
	if !ok {
		return nil
	}
	if err := u.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// ObjectKey builds the storage key for a user's upload
func ObjectKey(userID, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), ext)
}

// readerOf is used by stores whose SDKs want an io.Reader
func readerOf(data []byte) io.Reader {
	return bytes.NewReader(data)
}
