package filemanager

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"gather/internal/scoped"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	"gather/pkg/requestcontext"
)

// MaxUploadSize bounds a single file at 25 MiB.
const MaxUploadSize = 25 << 20

// Service manages file uploads. Metadata rows are ownership-scoped like any
// other entity; the bytes live behind the backend.
type Service struct {
	uploads *scoped.Repository[*Upload]
	backend Backend
	log     *slog.Logger
}

func NewService(uploads *scoped.Repository[*Upload], backend Backend, log *slog.Logger) *Service {
	return &Service{uploads: uploads, backend: backend, log: log}
}

// UploadInput is one incoming file.
type UploadInput struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Upload stores the bytes and records the metadata row. An oversized body
// aborts before any row is written.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Upload, error) {
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file name is required")
	}
	if strings.ContainsAny(name, "/\\") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file name cannot contain path separators")
	}
	if in.Body == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file body is required")
	}

	key := NewStorageKey()
	size, err := s.backend.Save(ctx, key, io.LimitReader(in.Body, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if size > MaxUploadSize {
		s.discard(ctx, key)
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file exceeds the upload size limit")
	}

	upload := &Upload{
		FileName:    name,
		ContentType: in.ContentType,
		Size:        size,
		StorageKey:  key,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.uploads.Save(ctx, upload); err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	s.log.InfoContext(ctx, "file uploaded", "upload_id", upload.ID, "size", size)
	return upload, nil
}

// Get returns the metadata for one owned upload.
func (s *Service) Get(ctx context.Context, id domain.UploadID) (*Upload, error) {
	upload, err := s.uploads.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(id)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "file not found")
	}
	return upload, err
}

// Open returns the metadata and a reader over the stored bytes. The caller
// closes the reader.
func (s *Service) Open(ctx context.Context, id domain.UploadID) (*Upload, io.ReadCloser, error) {
	upload, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.backend.Open(ctx, upload.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return upload, body, nil
}

// List returns the caller's uploads with the total count, newest first.
func (s *Service) List(ctx context.Context, skip, take int) ([]*Upload, int, error) {
	return s.uploads.FindAndCount(ctx, scoped.FindOptions{
		OrderBy: []scoped.Order{{Attribute: "createdAt", Desc: true}},
		Skip:    skip,
		Take:    take,
	})
}

// Delete removes one owned upload, row first so a backend failure never
// leaves a dangling metadata row.
func (s *Service) Delete(ctx context.Context, id domain.UploadID) error {
	upload, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.uploads.Remove(ctx, upload); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, upload.StorageKey); err != nil {
		s.log.WarnContext(ctx, "orphaned upload bytes", "upload_id", upload.ID, "error", err)
	}
	return nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		s.log.WarnContext(ctx, "discarding rejected upload failed", "key", key, "error", err)
	}
}
