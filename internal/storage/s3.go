package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"chatline-platform/internal/config"
)

// SpacesUploader stores objects in an S3-compatible bucket (DigitalOcean
// Spaces in production) and returns public URLs, rewritten onto the CDN
// endpoint when one is configured.
type SpacesUploader struct {
	uploader *s3manager.Uploader
	bucket   string
	endpoint string
	cdn      string
}

func NewSpacesUploader(cfg config.StorageConfig) (*SpacesUploader, error) {
	sess, err := awssession.NewSession(&aws.Config{
		Endpoint:    aws.String(cfg.Endpoint),
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open session: %w", err)
	}
	return &SpacesUploader{
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
		cdn:      cfg.CDNEndpoint,
	}, nil
}

func (s *SpacesUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return s.publicURL(out.Location), nil
}

// publicURL swaps the origin endpoint for the CDN endpoint so clients fetch
// media through the edge rather than the bucket directly.
func (s *SpacesUploader) publicURL(location string) string {
	if s.cdn == "" {
		return location
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.endpoint, "https://"), "http://")
	cdn := strings.TrimPrefix(strings.TrimPrefix(s.cdn, "https://"), "http://")
	if host == "" || cdn == "" {
		return location
	}
	return strings.Replace(location, host, cdn, 1)
}
