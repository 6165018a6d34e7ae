package dto

import "time"

// UploadEvent публикуется в брокер после каждой попытки выгрузки
type UploadEvent struct {
	ClientID   string    `json:"client_id"`
	FileName   string    `json:"file_name"`
	ObjectKey  string    `json:"object_key,omitempty"`
	SizeBytes  int       `json:"size_bytes"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	UploadedAt time.Time `json:"uploaded_at"`
}
