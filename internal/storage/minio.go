package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"alcyxob/photo-portfolio/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// minioStorage implements ObjectStorage on top of the MinIO client,
// used for self-hosted deployments.
type minioStorage struct {
	client     *minio.Client
	bucketName string
	log        *logrus.Entry
}

// NewMinIOStorage creates a MinIO backed storage and makes sure the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig, log *logrus.Logger) (ObjectStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &minioStorage{
		client:     client,
		bucketName: cfg.BucketName,
		log:        log.WithField("component", "minio"),
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	log.WithFields(logrus.Fields{"endpoint": cfg.Endpoint, "bucket": cfg.BucketName}).Info("MinIO storage initialized")
	return s, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *minioStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *minioStorage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *minioStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, s.mapErr("get", key, err)
	}
	// GetObject is lazy; Stat performs the request and surfaces NoSuchKey
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, s.mapErr("get", key, err)
	}
	return obj, toObjectInfo(stat), nil
}

func (s *minioStorage) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, s.mapErr("stat", key, err)
	}
	return toObjectInfo(stat), nil
}

func (s *minioStorage) DeleteObject(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	s.log.WithField("key", key).Debug("deleted object")
	return nil
}

func (s *minioStorage) DeleteObjects(ctx context.Context, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, key := range keys {
			select {
			case objectsCh <- minio.ObjectInfo{Key: key}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var failed int
	var firstErr error
	for rerr := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("delete object %q: %w", rerr.ObjectName, rerr.Err)
		}
	}
	if firstErr != nil {
		return fmt.Errorf("delete objects: %d failed: %w", failed, firstErr)
	}
	return ctx.Err()
}

func (s *minioStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	objectsCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectsCh {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, object.Err)
		}
		objects = append(objects, *toObjectInfo(object))
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *minioStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expires, nil)
	if err != nil {
		return "", fmt.Errorf("presign GET %q: %w", key, err)
	}
	return u.String(), nil
}

func (s *minioStorage) mapErr(op, key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound
	}
	return fmt.Errorf("%s object %q: %w", op, key, err)
}

func toObjectInfo(o minio.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:          o.Key,
		Size:         o.Size,
		ContentType:  o.ContentType,
		LastModified: o.LastModified,
		ETag:         o.ETag,
	}
}
