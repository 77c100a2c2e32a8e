package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore stores report images in an S3-compatible bucket.
type MinIOStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinIOStore connects to the object storage endpoint and makes sure the
// bucket exists with public read access. publicEndpoint is the host used in
// returned URLs; it falls back to endpoint when empty.
func NewMinIOStore(endpoint, publicEndpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	if publicEndpoint == "" {
		publicEndpoint = endpoint
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	publicBase := fmt.Sprintf("%s://%s", scheme, strings.TrimSuffix(strings.TrimSpace(publicEndpoint), "/"))

	store := &MinIOStore{
		client:     client,
		bucket:     bucket,
		publicBase: publicBase,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		log.Warnf("Failed to check bucket %q, continuing anyway: %v", bucket, err)
		return store, nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", bucket, err)
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Action":["s3:GetObject"],"Effect":"Allow","Principal":{"AWS":["*"]},"Resource":["arn:aws:s3:::%s/*"],"Sid":""}]}`, bucket)
		if err := client.SetBucketPolicy(ctx, bucket, policy); err != nil {
			log.Warnf("Failed to set public read policy on bucket %q: %v", bucket, err)
		}
		log.Infof("Bucket %q created", bucket)
	}

	return store, nil
}

// Put uploads the payload under key. Overwrite is disabled: a stat round-trip
// detects an existing object before the upload and reports it as a collision.
func (s *MinIOStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("%w: %s", ErrObjectExists, key)
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "" && resp.Code != "NoSuchKey" {
		return categorize(err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return categorize(err)
	}
	return nil
}

// PublicURL builds the publicly resolvable URL for key.
func (s *MinIOStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, key)
}

// Remove deletes the object, ignoring already-gone keys.
func (s *MinIOStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil
		}
		return categorize(err)
	}
	return nil
}

// categorize collapses low-level transport and storage errors into the small
// closed error set understood by the upload coordinator.
func categorize(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	switch minio.ToErrorResponse(err).Code {
	case "AccessDenied", "NoSuchBucket", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
		return fmt.Errorf("%w: %v", ErrStorageAccess, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "no such host") {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return err
}
