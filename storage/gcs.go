package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/krishkalaria12/snap-tiers/config"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GCSBackend stores objects in a Google Cloud Storage bucket.
type GCSBackend struct {
	cl         *storage.Client
	bucketName string
	log        zerolog.Logger
}

func NewGCSBackend(ctx context.Context, cfg config.GCSConfig, log zerolog.Logger) (*GCSBackend, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}

	return &GCSBackend{
		cl:         client,
		bucketName: cfg.Bucket,
		log:        log.With().Str("component", "gcs").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

func (g *GCSBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}

	wc := g.cl.Bucket(g.bucketName).Object(cleanKey).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("storage: gcs write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("storage: gcs writer close: %w", err)
	}

	g.log.Debug().Str("key", cleanKey).Int("bytes", len(data)).Msg("object uploaded")
	return cleanKey, nil
}

func (g *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}

	rc, err := g.cl.Bucket(g.bucketName).Object(cleanKey).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: gcs open: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs read: %w", err)
	}
	return data, nil
}

func (g *GCSBackend) Delete(ctx context.Context, key string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}

	err = g.cl.Bucket(g.bucketName).Object(cleanKey).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete: %w", err)
	}
	g.log.Debug().Str("key", cleanKey).Msg("object removed")
	return nil
}

func (g *GCSBackend) Close() error {
	return g.cl.Close()
}
