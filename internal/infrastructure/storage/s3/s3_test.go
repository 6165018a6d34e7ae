package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSignedURLUploader_Put(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewSignedURLUploader(time.Second).Put(context.Background(), server.URL+"/key.jpg?X-Amz-Signature=abc", "image/jpeg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotContentType != "image/jpeg" || gotBody != "jpeg-bytes" {
		t.Fatalf("unexpected request %s %s %q", gotMethod, gotContentType, gotBody)
	}
}

func TestSignedURLUploader_RejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<Error><Code>SignatureDoesNotMatch</Code></Error>"))
	}))
	defer server.Close()

	err := NewSignedURLUploader(time.Second).Put(context.Background(), server.URL, "image/jpeg", []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "SignatureDoesNotMatch") {
		t.Fatalf("Put() error = %v", err)
	}
}

func TestURLIssuer_IssueUploadURLs(t *testing.T) {
	issuer, err := NewURLIssuer(context.Background(), Config{
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		KeyPrefix:       "captures",
	})
	if err != nil {
		t.Fatalf("NewURLIssuer() error = %v", err)
	}

	urls, err := issuer.IssueUploadURLs(context.Background(), "camera-images", 3)
	if err != nil {
		t.Fatalf("IssueUploadURLs() error = %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 urls, got %d", len(urls))
	}

	seen := make(map[string]bool)
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("invalid url %q: %v", raw, err)
		}
		if !strings.HasPrefix(u.Path, "/captures/") || !strings.HasSuffix(u.Path, ".jpg") {
			t.Fatalf("unexpected key path %q", u.Path)
		}
		if !strings.Contains(u.Host, "camera-images") {
			t.Fatalf("unexpected host %q", u.Host)
		}
		if got := u.Query().Get("X-Amz-Expires"); got != "300" {
			t.Fatalf("X-Amz-Expires = %q, want 300", got)
		}
		if seen[u.Path] {
			t.Fatalf("duplicate key %q", u.Path)
		}
		seen[u.Path] = true
	}
}

func TestURLIssuer_RequiresBucket(t *testing.T) {
	issuer, err := NewURLIssuer(context.Background(), Config{Region: "us-east-1", AccessKeyID: "a", SecretAccessKey: "b"})
	if err != nil {
		t.Fatalf("NewURLIssuer() error = %v", err)
	}
	if _, err := issuer.IssueUploadURLs(context.Background(), " ", 1); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}
