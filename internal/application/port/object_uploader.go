package port

import "context"

// ObjectUploader загружает тело объекта по предподписанному URL (HTTP PUT)
type ObjectUploader interface {
	Put(ctx context.Context, signedURL, contentType string, body []byte) error
}
