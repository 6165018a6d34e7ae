package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultUploadTimeout = 60 * time.Second

// SignedURLUploader загружает снимок по предподписанному URL одним HTTP PUT
type SignedURLUploader struct {
	client *http.Client
}

// NewSignedURLUploader создает загрузчик. timeout ограничивает одну загрузку целиком.
func NewSignedURLUploader(timeout time.Duration) *SignedURLUploader {
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	return &SignedURLUploader{client: &http.Client{Timeout: timeout}}
}

func (u *SignedURLUploader) Put(ctx context.Context, signedURL, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
