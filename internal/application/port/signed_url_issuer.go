package port

import "context"

// SignedURLIssuer выпускает предподписанные URL для загрузки снимков (сторона сервиса)
type SignedURLIssuer interface {
	IssueUploadURLs(ctx context.Context, bucket string, count int) ([]string, error)
}
