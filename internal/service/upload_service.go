package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/storage"
)

type objectPresigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (storage.PresignedURL, error)
	PresignDownload(ctx context.Context, key string) (storage.PresignedURL, error)
	Delete(ctx context.Context, key string) error
}

// UploadService hands out presigned upload URLs for course media.
type UploadService struct {
	store     objectPresigner
	validator *validator.Validate
	logger    *zap.Logger
	newID     func() string
}

// NewUploadService constructs an UploadService.
func NewUploadService(store objectPresigner, validate *validator.Validate, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{store: store, validator: defaultValidator(validate), logger: logger, newID: uuid.NewString}
}

// PresignUpload reserves a unique key and returns a PUT URL bound to the content type.
func (s *UploadService) PresignUpload(ctx context.Context, req models.UploadRequest) (*models.UploadResponse, error) {
	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "Invalid Request Body")
	}
	if req.IsImage && !strings.HasPrefix(strings.ToLower(req.ContentType), "image/") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "contentType must be an image type")
	}

	key := s.newID() + "-" + baseFileName(req.FileName)
	presigned, err := s.store.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageProvider.Code, appErrors.ErrStorageProvider.Status, "Failed to generate upload URL")
	}

	s.logger.Info("upload url issued", zap.String("key", key), zap.String("content_type", req.ContentType), zap.Int64("size", req.Size))
	return &models.UploadResponse{
		URL:       presigned.URL,
		Key:       key,
		Method:    presigned.Method,
		ExpiresAt: presigned.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// DownloadURL returns a short-lived GET URL for a stored object.
func (s *UploadService) DownloadURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", appErrors.Clone(appErrors.ErrBadRequest, "Missing or Invalid Object Key")
	}
	presigned, err := s.store.PresignDownload(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return "", appErrors.Clone(appErrors.ErrBadRequest, "Missing or Invalid Object Key")
		}
		return "", appErrors.Wrap(err, appErrors.ErrStorageProvider.Code, appErrors.ErrStorageProvider.Status, "Failed to generate download URL")
	}
	return presigned.URL, nil
}

// Delete removes an object. Deleting a missing object succeeds.
func (s *UploadService) Delete(ctx context.Context, req models.DeleteObjectRequest) error {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return appErrors.Clone(appErrors.ErrBadRequest, "Missing or Invalid Object Key")
	}
	err := s.store.Delete(ctx, key)
	switch {
	case err == nil, errors.Is(err, storage.ErrObjectNotFound):
		s.logger.Info("object deleted", zap.String("key", key))
		return nil
	case errors.Is(err, storage.ErrInvalidKey):
		return appErrors.Clone(appErrors.ErrBadRequest, "Missing or Invalid Object Key")
	}
	return appErrors.Wrap(err, appErrors.ErrStorageProvider.Code, appErrors.ErrStorageProvider.Status, "Failed to delete file")
}

// baseFileName strips any directory part a client sent with the file name.
func baseFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return "file"
	}
	return base
}
