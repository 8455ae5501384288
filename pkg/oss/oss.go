// Package oss is the boundary to the media object store. The core never
// moves bytes itself: publishing hands out presigned PUT URLs, playback
// hands out presigned GET URLs, and deletes remove the referenced objects.
package oss

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	logrus.Infof("Connected to object store at %s, bucket %s", endpoint, bucket)
	return &Store{client: client, bucket: bucket}, nil
}

func VideoKey(videoID string) string     { return fmt.Sprintf("videos/%s", videoID) }
func ThumbnailKey(videoID string) string { return fmt.Sprintf("thumbnails/%s", videoID) }

// UploadURL returns a presigned PUT URL the client uploads directly to.
func (s *Store) UploadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", objectKey, err)
	}
	return u.String(), nil
}

// PlaybackURL returns a presigned GET URL for a stored object.
func (s *Store) PlaybackURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign playback for %s: %w", objectKey, err)
	}
	return u.String(), nil
}

func (s *Store) Remove(ctx context.Context, objectKey string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}
