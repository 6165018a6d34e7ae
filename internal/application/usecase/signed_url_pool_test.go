package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

type mockRequester struct {
	mu        sync.Mutex
	requests  []dto.SignedURLRequest
	err       error
	onRequest func(dto.SignedURLRequest)
}

func (m *mockRequester) RequestSignedURLs(_ context.Context, request dto.SignedURLRequest) error {
	m.mu.Lock()
	m.requests = append(m.requests, request)
	err, hook := m.err, m.onRequest
	m.mu.Unlock()

	if err == nil && hook != nil {
		hook(request)
	}
	return err
}

func (m *mockRequester) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func testPoolConfig() SignedURLPoolConfig {
	return SignedURLPoolConfig{
		IoTEndpoint:  "abc-ats.iot.us-east-1.amazonaws.com",
		Bucket:       "camera-images",
		BatchSize:    10,
		LowWaterMark: 5,
		PollInterval: time.Millisecond,
		ForceEvery:   10,
		RetryBackoff: time.Hour,
		ExpiryMargin: 5 * time.Second,
		DefaultTTL:   290 * time.Second,
	}
}

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://camera-images.s3.amazonaws.com/%d.jpg", i)
	}
	return out
}

func TestSignedURLPool_AcquireFIFO(t *testing.T) {
	pool := NewSignedURLPool(&mockRequester{}, "reply", testPoolConfig(), nil, logger.New("error"))
	pool.Receive(urls(2))

	for _, want := range urls(2) {
		got, err := pool.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if got != want {
			t.Fatalf("Acquire() = %q, want %q", got, want)
		}
	}
	if pool.Available() != 0 {
		t.Fatalf("entries must not be reused")
	}
}

func TestSignedURLPool_DiscardsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pool := NewSignedURLPool(&mockRequester{}, "reply", testPoolConfig(), nil, logger.New("error"))
	pool.now = func() time.Time { return now }

	pool.entries = append(pool.entries,
		valueobject.NewSignedURL("https://bucket/old.jpg", now.Add(-time.Second)),
		valueobject.NewSignedURL("https://bucket/new.jpg", now.Add(time.Minute)),
	)

	if got := pool.Available(); got != 1 {
		t.Fatalf("Available() = %d, want 1", got)
	}

	got, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got != "https://bucket/new.jpg" {
		t.Fatalf("Acquire() = %q", got)
	}
}

func TestSignedURLPool_ReceiveAppliesExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pool := NewSignedURLPool(&mockRequester{}, "reply", testPoolConfig(), nil, logger.New("error"))
	pool.now = func() time.Time { return now }

	pool.Receive([]string{
		"not a url",
		fmt.Sprintf("https://bucket/a.jpg?Expires=%d", now.Add(3*time.Second).Unix()),
		fmt.Sprintf("https://bucket/b.jpg?Expires=%d", now.Add(300*time.Second).Unix()),
		"https://bucket/c.jpg",
	})

	if got := pool.Available(); got != 2 {
		t.Fatalf("Available() = %d, want 2", got)
	}
	if !pool.entries[0].ExpiresAt().Equal(now.Add(295 * time.Second)) {
		t.Fatalf("unexpected expiry %v", pool.entries[0].ExpiresAt())
	}
	if !pool.entries[1].ExpiresAt().Equal(now.Add(290 * time.Second)) {
		t.Fatalf("unexpected fallback expiry %v", pool.entries[1].ExpiresAt())
	}
}

func TestSignedURLPool_TopOffAtLowWaterMark(t *testing.T) {
	tests := []struct {
		name         string
		size         int
		wantRequests int
	}{
		{"below low-water mark", 4, 0},
		{"at low-water mark", 5, 1},
		{"above low-water mark", 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester := &mockRequester{}
			pool := NewSignedURLPool(requester, "iot/camera/c1/SignedUrlResponses", testPoolConfig(), nil, logger.New("error"))
			pool.Receive(urls(tt.size))

			if _, err := pool.Acquire(context.Background()); err != nil {
				t.Fatalf("Acquire() error = %v", err)
			}

			if got := requester.count(); got != tt.wantRequests {
				t.Fatalf("requests = %d, want %d", got, tt.wantRequests)
			}
			if tt.wantRequests == 1 {
				request := requester.requests[0]
				if request.URLCount != 10 || request.ReplyTo != "iot/camera/c1/SignedUrlResponses" || request.Bucket != "camera-images" {
					t.Fatalf("unexpected request %+v", request)
				}
			}
		})
	}
}

func TestSignedURLPool_CoalescesPendingRequests(t *testing.T) {
	requester := &mockRequester{}
	cfg := testPoolConfig()
	cfg.RetryBackoff = 20 * time.Millisecond
	pool := NewSignedURLPool(requester, "reply", cfg, nil, logger.New("error"))
	defer pool.Close()

	pool.Replenish(context.Background(), false)
	pool.Replenish(context.Background(), false)
	pool.Replenish(context.Background(), false)

	if got := requester.count(); got != 1 {
		t.Fatalf("requests = %d, want 1 while pending", got)
	}
	if !pool.Pending() {
		t.Fatalf("pool must report pending request")
	}

	deadline := time.Now().Add(2 * time.Second)
	for requester.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("deferred retry was not sent")
		}
		time.Sleep(5 * time.Millisecond)
	}

	pool.Receive(urls(1))
	if pool.Pending() {
		t.Fatalf("response must clear pending flag")
	}

	time.Sleep(50 * time.Millisecond)
	if got := requester.count(); got != 2 {
		t.Fatalf("requests = %d, want exactly one deferred retry", got)
	}
}

func TestSignedURLPool_ForcedRequestBypassesPending(t *testing.T) {
	requester := &mockRequester{}
	pool := NewSignedURLPool(requester, "reply", testPoolConfig(), nil, logger.New("error"))
	defer pool.Close()

	pool.Replenish(context.Background(), false)
	pool.Replenish(context.Background(), true)

	if got := requester.count(); got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
}

func TestSignedURLPool_AcquireEscalatesAfterPolls(t *testing.T) {
	requester := &mockRequester{}
	cfg := testPoolConfig()
	cfg.ForceEvery = 3
	pool := NewSignedURLPool(requester, "reply", cfg, nil, logger.New("error"))
	requester.onRequest = func(dto.SignedURLRequest) {
		pool.Receive(urls(1))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got != urls(1)[0] {
		t.Fatalf("Acquire() = %q", got)
	}
	if requester.count() != 1 {
		t.Fatalf("requests = %d, want 1 forced request", requester.count())
	}
}

func TestSignedURLPool_AcquireHonoursContext(t *testing.T) {
	pool := NewSignedURLPool(&mockRequester{}, "reply", testPoolConfig(), nil, logger.New("error"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire() error = %v, want deadline exceeded", err)
	}
}

func TestSignedURLPool_FailedRequestClearsPending(t *testing.T) {
	requester := &mockRequester{err: errors.New("mqtt not connected")}
	pool := NewSignedURLPool(requester, "reply", testPoolConfig(), nil, logger.New("error"))

	pool.Replenish(context.Background(), false)
	if pool.Pending() {
		t.Fatalf("failed request must not leave pool pending")
	}

	pool.Replenish(context.Background(), false)
	if got := requester.count(); got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
}
