// Package upload publishes finished videos to Supabase Storage.
package upload

import (
	"context"
	"fmt"
	"os"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/sirupsen/logrus"
)

// SupabaseUploader implements pipeline.Uploader against a storage bucket.
type SupabaseUploader struct {
	client *storage_go.Client
	bucket string
	// baseURL is the project URL, used to derive the public object URL.
	baseURL string
	logger  *logrus.Entry
}

func NewSupabaseUploader(supabaseURL, serviceKey, bucket string, logger *logrus.Logger) *SupabaseUploader {
	client := storage_go.NewClient(supabaseURL+"/storage/v1", serviceKey, nil)
	return &SupabaseUploader{
		client:  client,
		bucket:  bucket,
		baseURL: supabaseURL,
		logger:  logger.WithField("component", "uploader"),
	}
}

// Upload pushes the local file into the bucket under name and returns the
// public object URL.
func (u *SupabaseUploader) Upload(ctx context.Context, localPath, name string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	contentType := "video/mp4"
	_, err = u.client.UploadFile(u.bucket, name, file, storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", name, u.bucket, err)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, u.bucket, name)
	u.logger.WithFields(logrus.Fields{"name": name, "url": publicURL}).Info("uploaded video")
	return publicURL, nil
}
