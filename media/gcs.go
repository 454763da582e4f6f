package media

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSUploader struct {
	client     *storage.Client
	bucketName string
}

// NewGCSUploader uses application default credentials when credentialsFile is empty
func NewGCSUploader(ctx context.Context, bucketName, credentialsFile string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	return &GCSUploader{client: client, bucketName: bucketName}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	writer := u.client.Bucket(u.bucketName).Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, body); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", key, err)
	}

	return gcsURL(u.bucketName, key), nil
}

func gcsURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
