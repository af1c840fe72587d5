// Package artifacts ships run outputs to object storage once a run ends.
package artifacts

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/specialistvlad/vitlaunch/internal/ctxlog"
)

// Uploader PUTs files to pre-signed object storage URLs.
type Uploader struct {
	Client *http.Client
}

// NewUploader returns an uploader using a client shared across uploads so
// TCP connections are reused.
func NewUploader() *Uploader {
	return &Uploader{Client: &http.Client{}}
}

// Upload sends the file at sourcePath to uploadURL with an HTTP PUT.
func (u *Uploader) Upload(ctx context.Context, sourcePath, uploadURL string) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file '%s': %w", sourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats for '%s': %w", sourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(sourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading run artifact", "source", sourcePath, "size", stat.Size(), "contentType", contentType)

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded run artifact", "status", resp.Status)
	return nil
}
