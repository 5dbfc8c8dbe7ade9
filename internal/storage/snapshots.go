package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// SnapshotStore issues presigned download URLs for pod camera snapshots.
// Pods upload snapshots to the bucket out of band; the portal only ever
// hands out read links, it never proxies image bytes.
type SnapshotStore struct {
	logger  zerolog.Logger
	bucket  string
	ttl     time.Duration
	presign *s3.PresignClient
}

// NewSnapshotStore creates a store against an S3-compatible endpoint.
func NewSnapshotStore(logger zerolog.Logger, bucket, endpoint, region, accessKey, secretKey string, ttl time.Duration) *SnapshotStore {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &SnapshotStore{
		logger:  logger.With().Str("component", "snapshot-store").Logger(),
		bucket:  bucket,
		ttl:     ttl,
		presign: s3.NewPresignClient(client),
	}
}

// PresignGet returns a time-limited download URL for one snapshot key.
func (s *SnapshotStore) PresignGet(ctx context.Context, key string) (string, time.Time, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign snapshot %s: %w", key, err)
	}

	return req.URL, time.Now().Add(s.ttl), nil
}
