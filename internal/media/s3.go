package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedRequest is a signed request the client performs itself.
type PresignedRequest struct {
	URL     string
	Method  string
	Headers http.Header
}

// S3Storage signs uploads to and deletes objects from one bucket
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
}

// NewS3Storage creates a new S3 storage handler using the default AWS credential chain
func NewS3Storage(ctx context.Context, bucket, region string) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StorageFromConfig(awsCfg, bucket), nil
}

func NewS3StorageFromConfig(awsCfg aws.Config, bucket string) *S3Storage {
	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		region:  awsCfg.Region,
	}
}

// PresignPut signs a PUT of exactly size bytes of contentType to key.
func (s *S3Storage) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*PresignedRequest, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload of %s: %w", key, err)
	}
	return &PresignedRequest{URL: req.URL, Method: req.Method, Headers: req.SignedHeader}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// BucketURL is the virtual-hosted base URL objects are served from when no
// CDN is configured.
func (s *S3Storage) BucketURL() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region)
}
