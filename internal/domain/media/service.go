package media

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service validates uploads and records them.
type Service struct {
	repo    Repository
	storage Storage
}

// NewService creates a media Service writing to storage.
func NewService(repo Repository, storage Storage) *Service {
	return &Service{repo: repo, storage: storage}
}

// Upload stores the file read from r under a random key and records it.
// filename is the client-supplied name and only its extension is trusted.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*Media, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFileType, "%q", ext)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	if n > MaxSize {
		return nil, ErrFileTooLarge
	}

	key := uuid.NewString() + ext
	url, err := s.storage.Put(ctx, key, contentType, buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "store upload")
	}

	m := &Media{
		Filename: filepath.Base(filename),
		URL:      url,
		Size:     n,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		// The object is already stored; nothing references it now.
		zctx.From(ctx).Error("Upload stored but not recorded",
			zap.String("key", key),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "record upload")
	}
	return m, nil
}

// List returns all media records, newest first.
func (s *Service) List(ctx context.Context) ([]Media, error) {
	return s.repo.List(ctx)
}

// Delete removes a media record. The stored file is kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
