package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/krishkalaria12/snap-tiers/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// S3Backend stores objects in any S3 compatible bucket through minio-go.
type S3Backend struct {
	client     *minio.Client
	bucketName string
	log        zerolog.Logger
}

func NewS3Backend(cfg config.S3Config, log zerolog.Logger) (*S3Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create s3 client: %w", err)
	}

	return &S3Backend{
		client:     client,
		bucketName: cfg.Bucket,
		log:        log.With().Str("component", "s3").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

func (s *S3Backend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucketName, cleanKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put: %w", err)
	}

	s.log.Debug().Str("key", cleanKey).Int("bytes", len(data)).Msg("object uploaded")
	return cleanKey, nil
}

func (s *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, cleanKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(err, "get")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(err, "read")
	}
	return data, nil
}

func (s *S3Backend) Delete(ctx context.Context, key string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, cleanKey, minio.RemoveObjectOptions{}); err != nil {
		return s.translate(err, "remove")
	}
	s.log.Debug().Str("key", cleanKey).Msg("object removed")
	return nil
}

func (s *S3Backend) translate(err error, op string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound
	}
	return fmt.Errorf("storage: s3 %s: %w", op, err)
}
