package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	coreconfig "github.com/m3rciful/feedbackbot/core/config"
)

// s3Store uploads media to an S3 bucket.
type s3Store struct {
	client  *s3.Client
	bucket  string
	region  string
	prefix  string
	baseURL string
}

// NewS3Store builds an S3-backed Store from configuration. Credentials are
// resolved through the default AWS chain (env, shared config, instance role).
func NewS3Store(ctx context.Context, cfg coreconfig.S3Config) (Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("blob: load aws config: %w", err)
	}
	return &s3Store{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *s3Store) key(path string) string {
	path = strings.TrimLeft(path, "/")
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

// Upload puts the object and returns its public URI.
func (s *s3Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	key := s.key(path)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("blob: s3 put %s: %w", key, err)
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Remove deletes the object; missing objects are not an error on S3.
func (s *s3Store) Remove(ctx context.Context, path string) error {
	key := s.key(path)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("blob: s3 delete %s: %w", key, err)
	}
	return nil
}
