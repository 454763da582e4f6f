// Package media turns uploaded pictures into bounded JPEGs and writes them
// to the configured object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/config"
	"masterboxer.com/project-instaclone/logger"
)

// Uploader stores an object under key and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// NewUploader builds the uploader selected by cfg.StorageBackend
func NewUploader(ctx context.Context, cfg *config.Config) (Uploader, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalUploader(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	case config.StorageGCS:
		return NewGCSUploader(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	case config.StorageS3:
		return NewS3Uploader(cfg.S3Region, cfg.S3Bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// LocalUploader writes objects below a directory served at baseURL
type LocalUploader struct {
	basePath string
	baseURL  string
}

func NewLocalUploader(basePath, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalUploader{basePath: basePath, baseURL: baseURL}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	fullPath := filepath.Join(u.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Debug("Stored upload", zap.String("path", fullPath))
	return u.baseURL + "/" + key, nil
}
