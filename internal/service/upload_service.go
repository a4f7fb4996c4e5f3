package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UploadService mints short-lived attachment upload credentials.
type UploadService struct {
	uploader storage.Uploader
	ttl      time.Duration
	logger   *zap.Logger
	now      Clock
}

// UploadInput describes the file the client intends to upload.
type UploadInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// NewUploadService constructs the service. A nil uploader makes every
// request fail with INTERNAL_ERROR.
func NewUploadService(uploader storage.Uploader, ttl time.Duration, logger *zap.Logger, clock Clock) *UploadService {
	if ttl <= 0 || ttl > time.Hour {
		ttl = time.Hour
	}
	return &UploadService{
		uploader: uploader,
		ttl:      ttl,
		logger:   loggerOrNop(logger),
		now:      resolveClock(clock),
	}
}

// CreateUploadURL validates the declared file and returns a presigned PUT.
func (s *UploadService) CreateUploadURL(ctx context.Context, actor domain.Actor, input UploadInput) (*storage.UploadGrant, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	fileName := strings.TrimSpace(input.FileName)
	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	switch {
	case fileName == "":
		return nil, apperrors.NewValidationError("file_name is required", map[string]any{"field": "file_name"})
	case contentType == "":
		return nil, apperrors.NewValidationError("content_type is required", map[string]any{"field": "content_type"})
	}
	if err := storage.ValidateUpload(fileName, contentType, input.SizeBytes); err != nil {
		return nil, uploadValidationError(err, contentType)
	}
	if s.uploader == nil {
		return nil, apperrors.NewInternalError(errors.New("object storage is not configured"))
	}

	key := storage.ObjectKey(actor.OrgID, s.now(), fileName)
	grant, err := s.uploader.PresignUpload(ctx, storage.UploadRequest{
		Key:         key,
		ContentType: contentType,
		SizeBytes:   input.SizeBytes,
		TTL:         s.ttl,
	})
	if err != nil {
		s.logger.Error("presign upload failed", zap.String("key", key), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return grant, nil
}

func uploadValidationError(err error, contentType string) error {
	switch {
	case errors.Is(err, storage.ErrContentTypeNotAllowed):
		allowed := make([]string, 0, len(storage.AllowedUploadTypes))
		for ct := range storage.AllowedUploadTypes {
			allowed = append(allowed, ct)
		}
		sort.Strings(allowed)
		return apperrors.NewValidationError("content type not allowed", map[string]any{"field": "content_type", "value": contentType, "allowed": allowed})
	case errors.Is(err, storage.ErrExtensionMismatch):
		return apperrors.NewValidationError("file extension does not match content type", map[string]any{"field": "file_name"})
	case errors.Is(err, storage.ErrTooLarge):
		return apperrors.NewValidationError("file exceeds maximum upload size", map[string]any{"field": "size_bytes", "max": storage.MaxUploadBytes})
	case errors.Is(err, storage.ErrEmptyFile):
		return apperrors.NewValidationError("size_bytes must be positive", map[string]any{"field": "size_bytes"})
	}
	return apperrors.NewValidationError(err.Error(), nil)
}
