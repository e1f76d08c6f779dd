package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func newTestUploader(t *testing.T, maxSize int64) (*Uploader, *LocalStore) {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	u := NewUploader(store, maxSize)
	u.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return u, store
}

func TestObjectKey(t *testing.T) {
	got := ObjectKey("user-1", "png", time.UnixMilli(42))
	if got != "user-1/42.png" {
		t.Errorf("ObjectKey() = %q, want user-1/42.png", got)
	}
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		maxSize  int64
		wantURL  string
		wantErr  error
	}{
		{
			name:     "png stored under user folder",
			filename: "photo.PNG",
			data:     pngBytes,
			maxSize:  1024,
			wantURL:  "/media/user-1/1700000000123.png",
		},
		{
			name:     "extension taken from content when missing",
			filename: "blob",
			data:     pngBytes,
			maxSize:  1024,
			wantURL:  "/media/user-1/1700000000123.png",
		},
		{
			name:     "html filename with png content stored as png",
			filename: "evil.html",
			data:     append(append([]byte{}, pngBytes[:8]...), []byte("<script>alert(1)</script>")...),
			maxSize:  1024,
			wantURL:  "/media/user-1/1700000000123.png",
		},
		{
			name:     "pdf rejected without documents",
			filename: "report.pdf",
			data:     []byte("%PDF-1.4\n1 0 obj\n"),
			maxSize:  1024,
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "svg rejected",
			filename: "logo.svg",
			data:     []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`),
			maxSize:  1024,
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "text rejected",
			filename: "notes.txt",
			data:     []byte("hello there, this is plain text"),
			maxSize:  1024,
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "too large",
			filename: "big.png",
			data:     pngBytes,
			maxSize:  10,
			wantErr:  ErrTooLarge,
		},
		{
			name:     "empty",
			filename: "x.png",
			data:     nil,
			maxSize:  10,
			wantErr:  ErrEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, store := newTestUploader(t, tt.maxSize)
			url, err := u.Upload(context.Background(), "user-1", tt.filename, bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Upload() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upload() error = %v", err)
			}
			if url != tt.wantURL {
				t.Errorf("Upload() = %q, want %q", url, tt.wantURL)
			}
			key := strings.TrimPrefix(url, "/media/")
			if _, err := os.Stat(filepath.Join(store.Dir(), key)); err != nil {
				t.Errorf("stored file missing: %v", err)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	u, store := newTestUploader(t, 1024)
	url, err := u.Upload(context.Background(), "user-1", "a.png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if err := u.Remove(context.Background(), "https://elsewhere.example.com/a.png"); err != nil {
		t.Errorf("Remove(foreign) error = %v", err)
	}
	if err := u.Remove(context.Background(), url); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "user-1", "1700000000123.png")); !os.IsNotExist(err) {
		t.Errorf("file should be gone, stat err = %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir(), "/media")
	url, err := store.Put(context.Background(), "../../escape.png", "image/png", pngBytes)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "escape.png")); err != nil {
		t.Errorf("traversal key should be confined to the upload dir: %v (url %s)", err, url)
	}
}

func TestAllowDocuments(t *testing.T) {
	u, _ := newTestUploader(t, 1024)
	docs := u.AllowDocuments()

	url, err := docs.Upload(context.Background(), "user-1", "sermon-notes.exe", bytes.NewReader([]byte("%PDF-1.4\n1 0 obj\n")))
	if err != nil {
		t.Fatalf("Upload(pdf) error = %v", err)
	}
	if url != "/media/user-1/1700000000123.pdf" {
		t.Errorf("Upload(pdf) = %q, want .pdf key", url)
	}
	if _, err := u.Upload(context.Background(), "user-1", "a.pdf", bytes.NewReader([]byte("%PDF-1.4\n"))); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("image uploader should still reject pdf, got %v", err)
	}
}

func TestLocalStoreHandlerServesUploadsInert(t *testing.T) {
	u, store := newTestUploader(t, 1024)
	payload := append(append([]byte{}, pngBytes[:8]...), []byte("<script>alert(1)</script>")...)
	url, err := u.Upload(context.Background(), "user-1", "evil.html", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	server := httptest.NewServer(http.StripPrefix("/media/", store.Handler()))
	defer server.Close()

	resp, err := http.Get(server.URL + url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := resp.Header.Get("Content-Security-Policy"); !strings.Contains(got, "sandbox") {
		t.Errorf("Content-Security-Policy = %q, want sandbox", got)
	}
}
