package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// uriScheme prefixes object URIs handed out by the upload endpoint.
const uriScheme = "s3://"

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	log        *zap.Logger
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, log *zap.Logger) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{client: cli, bucketName: bucket, region: region, log: log.With(zap.String("component", "minio"))}, nil
}

// Open implements media.Source. The asset URI is either s3://bucket/key or
// a bare key in the configured bucket; only keys under the tenant's media
// prefix can be read.
func (s *Store) Open(ctx context.Context, tenant string, asset store.MediaAsset) (io.ReadCloser, error) {
	key, err := TenantObjectKey(asset.URI, s.bucketName, tenant)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", asset.ID, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing object now
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, nil
}

// Put streams r into the bucket and returns the object URI.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return s.URI(key), nil
}

// Upload copies a local file into the bucket and returns its public URL.
func (s *Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: ContentTypeFor(localPath),
	})
	if err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// UploadAndCleanup uploads the file and removes the local copy afterwards.
func (s *Store) UploadAndCleanup(ctx context.Context, localPath, key string) (string, error) {
	url, err := s.Upload(ctx, localPath, key)
	if err != nil {
		return "", err
	}

	// the upload already succeeded, a leftover file is only logged
	if removeErr := os.Remove(localPath); removeErr != nil {
		s.log.Warn("failed to remove local file", zap.String("path", localPath), zap.Error(removeErr))
	}
	return url, nil
}

// URI of an object in this store, as stored in MediaAsset.URI.
func (s *Store) URI(key string) string {
	return uriScheme + s.bucketName + "/" + key
}

// URL is the public address of an object (when the bucket is public; a
// private bucket needs a presigned URL instead).
func (s *Store) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucketName, key)
}

// Ping for the readiness check
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

// ParseURI splits an object URI into bucket and key.
func ParseURI(uri, defaultBucket string) (bucket, key string) {
	uri = strings.TrimSpace(uri)
	if rest, ok := strings.CutPrefix(uri, uriScheme); ok {
		bucket, key, _ = strings.Cut(rest, "/")
		return bucket, key
	}
	return defaultBucket, strings.TrimPrefix(uri, "/")
}

// ErrForeignObject is returned for object URIs outside the caller's bucket
// or media prefix.
var ErrForeignObject = errors.New("object not accessible to tenant")

// MediaKey is where uploaded media of a tenant is stored.
func MediaKey(tenant, name string) string {
	return MediaPrefix(tenant) + name
}

// MediaPrefix of a tenant's uploads.
func MediaPrefix(tenant string) string {
	return "media/" + tenant + "/"
}

// TenantObjectKey resolves uri to a key in bucket and checks that it lies
// under the tenant's media prefix.
func TenantObjectKey(uri, bucket, tenant string) (string, error) {
	b, key := ParseURI(uri, bucket)
	if key == "" {
		return "", errors.New("empty object key")
	}
	if b != bucket || strings.TrimSpace(tenant) == "" {
		return "", ErrForeignObject
	}
	rest, ok := strings.CutPrefix(key, MediaPrefix(tenant))
	if !ok || rest == "" || path.Clean(key) != key || strings.Contains(rest, "..") {
		return "", ErrForeignObject
	}
	return key, nil
}

// ContentTypeFor guesses a content type from the file extension.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	}
	return "application/octet-stream"
}
