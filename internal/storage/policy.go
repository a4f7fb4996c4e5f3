package storage

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadBytes caps a single attachment.
const MaxUploadBytes int64 = 5 * 1024 * 1024

// AllowedUploadTypes maps accepted content types to their file extensions.
var AllowedUploadTypes = map[string][]string{
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
	"image/gif":       {".gif"},
	"application/pdf": {".pdf"},
}

var (
	ErrContentTypeNotAllowed = errors.New("content type not allowed")
	ErrExtensionMismatch     = errors.New("file extension does not match content type")
	ErrTooLarge              = errors.New("file exceeds maximum upload size")
	ErrEmptyFile             = errors.New("file size must be positive")
)

// ValidateUpload checks a declared upload against the allow-list and size cap.
func ValidateUpload(fileName, contentType string, sizeBytes int64) error {
	extensions, ok := AllowedUploadTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return ErrContentTypeNotAllowed
	}
	ext := strings.ToLower(path.Ext(fileName))
	matched := false
	for _, allowed := range extensions {
		if ext == allowed {
			matched = true
			break
		}
	}
	if !matched {
		return ErrExtensionMismatch
	}
	if sizeBytes <= 0 {
		return ErrEmptyFile
	}
	if sizeBytes > MaxUploadBytes {
		return ErrTooLarge
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with a hyphen.
func SanitizeFilename(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	cleaned := strings.Trim(unsafeFileChars.ReplaceAllString(base, "-"), "-.")
	if cleaned == "" {
		return "file"
	}
	if len(cleaned) > 128 {
		cleaned = cleaned[len(cleaned)-128:]
	}
	return cleaned
}

// ObjectKey places an upload under its tenant and day.
// Keys look like tickets/<org|platform>/<yyyy-mm-dd>/<id8>-<name>.
func ObjectKey(orgID string, now time.Time, fileName string) string {
	scope := orgID
	if scope == "" {
		scope = "platform"
	}
	return fmt.Sprintf("tickets/%s/%s/%s-%s",
		scope,
		now.UTC().Format("2006-01-02"),
		uuid.NewString()[:8],
		SanitizeFilename(fileName),
	)
}
