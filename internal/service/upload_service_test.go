package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type fakeUploader struct {
	last storage.UploadRequest
	err  error
}

func (f *fakeUploader) PresignUpload(_ context.Context, req storage.UploadRequest) (*storage.UploadGrant, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &storage.UploadGrant{
		URL:       "https://bucket.example.com/" + req.Key + "?X-Amz-Signature=abc",
		Method:    "PUT",
		FileURL:   "https://bucket.example.com/" + req.Key,
		ExpiresAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

func TestCreateUploadURL(t *testing.T) {
	uploader := &fakeUploader{}
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewUploadService(uploader, 2*time.Hour, nil, func() time.Time { return now })

	grant, err := svc.CreateUploadURL(context.Background(), customer, UploadInput{
		FileName:    "screen shot.PNG",
		ContentType: "image/png",
		SizeBytes:   2048,
	})
	require.NoError(t, err)
	assert.Equal(t, "PUT", grant.Method)
	assert.True(t, strings.HasPrefix(uploader.last.Key, "tickets/org-1/2024-03-01/"), uploader.last.Key)
	assert.Equal(t, "image/png", uploader.last.ContentType)
	assert.EqualValues(t, 2048, uploader.last.SizeBytes)
	assert.Equal(t, time.Hour, uploader.last.TTL, "ttl is capped at one hour")

	_, err = svc.CreateUploadURL(context.Background(), platformAdmin, UploadInput{FileName: "a.pdf", ContentType: "application/pdf", SizeBytes: 1})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uploader.last.Key, "tickets/platform/"), uploader.last.Key)
}

func TestCreateUploadURLValidation(t *testing.T) {
	svc := NewUploadService(&fakeUploader{}, time.Hour, nil, nil)

	tests := []struct {
		name  string
		input UploadInput
	}{
		{"missing name", UploadInput{ContentType: "image/png", SizeBytes: 1}},
		{"missing type", UploadInput{FileName: "a.png", SizeBytes: 1}},
		{"type not allowed", UploadInput{FileName: "a.exe", ContentType: "application/x-msdownload", SizeBytes: 1}},
		{"extension mismatch", UploadInput{FileName: "a.gif", ContentType: "image/png", SizeBytes: 1}},
		{"too large", UploadInput{FileName: "a.pdf", ContentType: "application/pdf", SizeBytes: storage.MaxUploadBytes + 1}},
		{"empty", UploadInput{FileName: "a.pdf", ContentType: "application/pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUploadURL(context.Background(), customer, tt.input)
			requireCode(t, err, apperrors.CodeValidationFailed)
		})
	}
}

func TestCreateUploadURLStorageFailures(t *testing.T) {
	input := UploadInput{FileName: "a.jpg", ContentType: "image/jpeg", SizeBytes: 10}

	_, err := NewUploadService(nil, time.Hour, nil, nil).CreateUploadURL(context.Background(), customer, input)
	requireCode(t, err, apperrors.CodeInternal)

	failing := &fakeUploader{err: errors.New("signing failed")}
	_, err = NewUploadService(failing, time.Hour, nil, nil).CreateUploadURL(context.Background(), customer, input)
	requireCode(t, err, apperrors.CodeInternal)
	assert.NotContains(t, apperrors.ToDomainError(err).Message, "signing failed")
}
