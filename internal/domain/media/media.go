// Package media handles image uploads for the catalog.
package media

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// MaxSize is the upload size ceiling in bytes.
const MaxSize = 5 << 20

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var (
	// ErrFileTooLarge is returned when an upload exceeds MaxSize.
	ErrFileTooLarge = errors.New("file exceeds 5MB limit")
	// ErrUnsupportedFileType is returned for extensions outside the allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrNotFound is returned when a media record does not exist.
	ErrNotFound = errors.New("media not found")
)

// Media is an uploaded file record.
type Media struct {
	ID        int64
	Filename  string
	URL       string
	Size      int64
	CreatedAt time.Time
}

// Repository defines persistence operations for media records.
type Repository interface {
	Create(ctx context.Context, m *Media) error
	List(ctx context.Context) ([]Media, error)
	Delete(ctx context.Context, id int64) error
}

// Storage stores file contents under key and returns the public URL.
type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
