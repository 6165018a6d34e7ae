package valueobject

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const amzDateLayout = "20060102T150405Z"

// SignedURL предподписанный URL для однократной загрузки объекта (Value Object).
// Запись не переиспользуется: она либо выдается загрузчику, либо отбрасывается после ExpiresAt.
type SignedURL struct {
	url       string
	expiresAt time.Time
}

// ParseSignedURL вычисляет срок жизни URL.
// Срок берется из самого URL (Expires для SigV2, X-Amz-Date + X-Amz-Expires для SigV4)
// за вычетом margin. Если срок в URL не найден, запись живет fallbackTTL с момента получения.
func ParseSignedURL(raw string, receivedAt time.Time, margin, fallbackTTL time.Duration) (SignedURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SignedURL{}, errors.New("signed url is empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return SignedURL{}, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return SignedURL{}, errors.New("signed url must be http(s)")
	}

	if advertised, ok := advertisedExpiry(parsed.Query()); ok {
		return SignedURL{url: raw, expiresAt: advertised.Add(-margin)}, nil
	}

	return SignedURL{url: raw, expiresAt: receivedAt.Add(fallbackTTL)}, nil
}

// NewSignedURL создает запись с явно заданным сроком
func NewSignedURL(raw string, expiresAt time.Time) SignedURL {
	return SignedURL{url: raw, expiresAt: expiresAt}
}

func advertisedExpiry(query url.Values) (time.Time, bool) {
	if v := query.Get("Expires"); v != "" {
		epoch, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return time.Unix(epoch, 0), true
		}
	}

	date, ttl := query.Get("X-Amz-Date"), query.Get("X-Amz-Expires")
	if date == "" || ttl == "" {
		return time.Time{}, false
	}

	signedAt, err := time.Parse(amzDateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	seconds, err := strconv.Atoi(ttl)
	if err != nil {
		return time.Time{}, false
	}

	return signedAt.Add(time.Duration(seconds) * time.Second), true
}

func (s SignedURL) URL() string {
	return s.url
}

func (s SignedURL) ExpiresAt() time.Time {
	return s.expiresAt
}

// Expired истинно, когда now >= ExpiresAt
func (s SignedURL) Expired(now time.Time) bool {
	return !now.Before(s.expiresAt)
}

// ObjectKey возвращает последний сегмент пути URL (ключ объекта в бакете)
func (s SignedURL) ObjectKey() string {
	parsed, err := url.Parse(s.url)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(parsed.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
