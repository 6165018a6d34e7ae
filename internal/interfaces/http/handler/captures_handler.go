package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dreschagin/motion-camera/internal/domain/repository"
	"github.com/dreschagin/motion-camera/internal/interfaces/http/middleware"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

const (
	defaultCapturesLimit = 24
	maxCapturesLimit     = 100
)

// CaptureResponse запись о выгруженном снимке
type CaptureResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	ObjectKey  string    `json:"object_key"`
	SizeBytes  int64     `json:"size_bytes"`
	CapturedAt time.Time `json:"captured_at"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CapturesHandler отдает последние выгруженные снимки устройства
type CapturesHandler struct {
	records  repository.CaptureRecordRepository
	deviceID string
	logger   *logger.Logger
}

func NewCapturesHandler(records repository.CaptureRecordRepository, deviceID string, logger *logger.Logger) *CapturesHandler {
	return &CapturesHandler{
		records:  records,
		deviceID: deviceID,
		logger:   logger,
	}
}

// ListRecent GET /api/v1/captures?limit=N
func (h *CapturesHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultCapturesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxCapturesLimit {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.records.ListRecent(r.Context(), h.deviceID, limit)
	if err != nil {
		h.logger.Error("Failed to list capture records", err, "limit", limit)
		http.Error(w, "Failed to fetch captures", http.StatusInternalServerError)
		return
	}

	items := make([]CaptureResponse, 0, len(records))
	for _, record := range records {
		items = append(items, CaptureResponse{
			ID:         record.ID(),
			FileName:   record.FileName(),
			ObjectKey:  record.ObjectKey(),
			SizeBytes:  record.SizeBytes(),
			CapturedAt: record.CapturedAt(),
			UploadedAt: record.UploadedAt(),
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"device_id": h.deviceID,
		"count":     len(items),
		"items":     items,
	})
}
