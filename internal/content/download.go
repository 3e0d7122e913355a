package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// AssetDownloader transfers remote media to local files with a bounded
// attempt budget and linear backoff between attempts.
type AssetDownloader struct {
	client   *http.Client
	attempts int
	logger   *logrus.Entry
}

func NewAssetDownloader(attempts int, logger *logrus.Logger) *AssetDownloader {
	if attempts < 1 {
		attempts = 1
	}
	return &AssetDownloader{
		client:   &http.Client{Timeout: 5 * time.Minute},
		attempts: attempts,
		logger:   logger.WithField("component", "downloader"),
	}
}

func (d *AssetDownloader) Download(ctx context.Context, url, destPath string) error {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		err = d.fetch(ctx, url, destPath)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.logger.WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt,
			"error":   err,
		}).Warn("download attempt failed")
		select {
		case <-time.After(time.Duration(attempt) * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("download %s failed after %d attempts: %w", url, d.attempts, err)
}

func (d *AssetDownloader) fetch(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}
