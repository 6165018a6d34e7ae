package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/dreschagin/motion-camera/pkg/logger"
)

type mockIssuer struct {
	bucket string
	count  int
	err    error
}

func (m *mockIssuer) IssueUploadURLs(_ context.Context, bucket string, count int) ([]string, error) {
	m.bucket, m.count = bucket, count
	if m.err != nil {
		return nil, m.err
	}
	urls := make([]string, count)
	for i := range urls {
		urls[i] = "https://" + bucket + ".s3.amazonaws.com/x.jpg"
	}
	return urls, nil
}

func TestSubjectFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"iot/service/s3SignedUrlRequests", "iot.service.s3SignedUrlRequests"},
		{"iot/camera/camera-1234/SignedUrlResponses", "iot.camera.camera-1234.SignedUrlResponses"},
		{"/leading/and/trailing/", "leading.and.trailing"},
		{"already.a.subject", "already.a.subject"},
	}

	for _, tt := range tests {
		if got := SubjectFromTopic(tt.topic); got != tt.want {
			t.Errorf("SubjectFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestIssuerResponder_RejectsInvalidRequests(t *testing.T) {
	issuer := &mockIssuer{}
	r := NewIssuerResponder(nil, "iot/service/s3SignedUrlRequests", issuer, logger.New("error"))

	for _, payload := range []string{`not json`, `{"bucket":"b","urlCount":3}`, `{"replyTo":"x","urlCount":3}`} {
		if err := r.respond(context.Background(), []byte(payload)); err == nil {
			t.Errorf("respond(%s) expected error", payload)
		}
	}
	if issuer.count != 0 {
		t.Fatalf("issuer must not be called for invalid requests")
	}
}

func TestIssuerResponder_ClampsCount(t *testing.T) {
	tests := []struct {
		name      string
		urlCount  string
		wantCount int
	}{
		{"zero", "0", 1},
		{"normal", "10", 10},
		{"too many", "5000", maxURLsPerRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := &mockIssuer{}
			r := NewIssuerResponder(nil, "iot/service/s3SignedUrlRequests", issuer, logger.New("error"))

			// без соединения публикация ответа завершается ошибкой, но выпуск URL уже произошел
			_ = r.respond(context.Background(), []byte(`{"bucket":"camera-images","replyTo":"reply","urlCount":`+tt.urlCount+`}`))

			if issuer.count != tt.wantCount || issuer.bucket != "camera-images" {
				t.Fatalf("issuer called with %q, %d", issuer.bucket, issuer.count)
			}
		})
	}
}

func TestIssuerResponder_IssuerError(t *testing.T) {
	issuer := &mockIssuer{err: errors.New("access denied")}
	r := NewIssuerResponder(nil, "requests", issuer, logger.New("error"))

	err := r.respond(context.Background(), []byte(`{"bucket":"b","replyTo":"reply","urlCount":2}`))
	if !errors.Is(err, issuer.err) {
		t.Fatalf("respond() error = %v, want issuer error", err)
	}
}
