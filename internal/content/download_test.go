package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDownloadWritesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("clip-bytes"))
	}))
	defer server.Close()

	d := NewAssetDownloader(3, logrus.New())
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	if err := d.Download(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "clip-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestDownloadRetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	d := NewAssetDownloader(3, logrus.New())
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	if err := d.Download(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("download should succeed on third attempt: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestDownloadExhaustsAttemptBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := NewAssetDownloader(2, logrus.New())
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	if err := d.Download(context.Background(), server.URL, dest); err == nil {
		t.Fatalf("expected failure after exhausting attempts")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}
