package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// UploadRequest describes an object the client is about to PUT.
type UploadRequest struct {
	Key         string
	ContentType string
	SizeBytes   int64
	TTL         time.Duration
}

// UploadGrant is a short-lived credential for a single PUT.
type UploadGrant struct {
	URL       string
	Method    string
	Headers   http.Header
	FileURL   string
	ExpiresAt time.Time
}

// Uploader mints upload credentials.
type Uploader interface {
	PresignUpload(ctx context.Context, req UploadRequest) (*UploadGrant, error)
}

type putPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Uploader presigns PUT requests against an S3 compatible bucket.
type S3Uploader struct {
	presigner putPresigner
	bucket    string
	region    string
	endpoint  string
	pathStyle bool
}

// NewS3Uploader loads AWS credentials from the default chain.
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3UploaderFromConfig(awsCfg, cfg), nil
}

// NewS3UploaderFromConfig builds the uploader from an explicit AWS config.
func NewS3UploaderFromConfig(awsCfg aws.Config, cfg config.StorageConfig) *S3Uploader {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Uploader{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		pathStyle: cfg.UsePathStyle,
	}
}

// PresignUpload signs content type and length into the URL so the store
// rejects a different payload.
func (u *S3Uploader) PresignUpload(ctx context.Context, req UploadRequest) (*UploadGrant, error) {
	request, err := u.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(req.Key),
		ContentType:   aws.String(req.ContentType),
		ContentLength: aws.Int64(req.SizeBytes),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = req.TTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create presigned URL: %w", err)
	}

	return &UploadGrant{
		URL:       request.URL,
		Method:    request.Method,
		Headers:   request.SignedHeader,
		FileURL:   u.FileURL(req.Key),
		ExpiresAt: time.Now().Add(req.TTL),
	}, nil
}

// FileURL is the address the object will be readable at once uploaded.
func (u *S3Uploader) FileURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case u.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, escaped)
	case u.pathStyle:
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", u.region, u.bucket, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, escaped)
	}
}
