package valueobject

import (
	"testing"
	"time"
)

func TestPercentToPixels(t *testing.T) {
	tests := []struct {
		percent float64
		total   int
		want    int
	}{
		{100, 30, 30},
		{50, 30, 15},
		{10, 30, 3},
		{0, 30, 0},
		{25, 20, 5},
		// 12.5% от 20 = 2.5, половина округляется от нуля
		{12.5, 20, 3},
	}

	for _, tt := range tests {
		if got := PercentToPixels(tt.percent, tt.total); got != tt.want {
			t.Errorf("PercentToPixels(%v, %d) = %d, want %d", tt.percent, tt.total, got, tt.want)
		}
	}
}

func TestHotspotRegion_Valid(t *testing.T) {
	tests := []struct {
		name   string
		region HotspotRegion
		want   bool
	}{
		{"bottom right corner", HotspotRegion{Top: 90, Left: 90, Width: 10, Height: 10}, true},
		{"full frame", HotspotRegion{Top: 0, Left: 0, Width: 100, Height: 100}, true},
		{"too wide", HotspotRegion{Top: 90, Left: 90, Width: 101, Height: 10}, false},
		{"overflows right edge", HotspotRegion{Top: 0, Left: 25, Width: 80, Height: 10}, false},
		{"overflows bottom edge", HotspotRegion{Top: 85, Left: 0, Width: 15, Height: 100}, false},
		{"zero width", HotspotRegion{Top: 0, Left: 0, Width: 0, Height: 10}, false},
		{"negative top", HotspotRegion{Top: -1, Left: 0, Width: 10, Height: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.region.Valid(100, 100); got != tt.want {
				t.Errorf("Valid() = %v, want %v for %s", got, tt.want, tt.region)
			}
		})
	}
}

func TestParseSignedURL(t *testing.T) {
	receivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	margin := 5 * time.Second
	fallback := 290 * time.Second

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "sigv2 expires epoch",
			raw:  "https://bucket.s3.amazonaws.com/a.jpg?AWSAccessKeyId=AKIA&Expires=1772366700&Signature=x",
			want: time.Unix(1772366700, 0).Add(-margin),
		},
		{
			name: "sigv4 date and ttl",
			raw:  "https://bucket.s3.amazonaws.com/a.jpg?X-Amz-Date=20260301T120000Z&X-Amz-Expires=300&X-Amz-Signature=x",
			want: receivedAt.Add(300*time.Second - margin),
		},
		{
			name: "no expiry in url",
			raw:  "https://uploads.example.com/a.jpg?token=abc",
			want: receivedAt.Add(fallback),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedURL(tt.raw, receivedAt, margin, fallback)
			if err != nil {
				t.Fatalf("ParseSignedURL() error = %v", err)
			}
			if !got.ExpiresAt().Equal(tt.want) {
				t.Fatalf("ExpiresAt() = %v, want %v", got.ExpiresAt(), tt.want)
			}
			if got.URL() != tt.raw {
				t.Fatalf("URL() = %q", got.URL())
			}
		})
	}
}

func TestParseSignedURL_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://host/a.jpg", "://broken"} {
		if _, err := ParseSignedURL(raw, time.Now(), 0, time.Minute); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestSignedURL_Expired(t *testing.T) {
	expiresAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := NewSignedURL("https://bucket/a.jpg", expiresAt)

	if u.Expired(expiresAt.Add(-time.Second)) {
		t.Errorf("url must be valid before expiry")
	}
	if !u.Expired(expiresAt) {
		t.Errorf("url must be expired at expiry instant")
	}
	if !u.Expired(expiresAt.Add(time.Second)) {
		t.Errorf("url must be expired after expiry")
	}
}

func TestSignedURL_ObjectKey(t *testing.T) {
	u := NewSignedURL("https://bucket.s3.amazonaws.com/images/4f1c.jpg?Expires=1", time.Now())
	if got := u.ObjectKey(); got != "4f1c.jpg" {
		t.Fatalf("ObjectKey() = %q", got)
	}
}
