package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/storage"
)

// UploadURLRequest payload.
type UploadURLRequest struct {
	FileName    string `json:"file_name" validate:"required,notblank,max=255"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,gt=0"`
}

// UploadURLResponse carries the presigned request the client must replay.
type UploadURLResponse struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	FileURL   string            `json:"file_url"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// NewUploadURLResponse maps an upload grant.
func NewUploadURLResponse(grant *storage.UploadGrant) UploadURLResponse {
	headers := make(map[string]string, len(grant.Headers))
	for name, values := range grant.Headers {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	return UploadURLResponse{
		UploadURL: grant.URL,
		Method:    grant.Method,
		Headers:   headers,
		FileURL:   grant.FileURL,
		ExpiresAt: grant.ExpiresAt,
	}
}
