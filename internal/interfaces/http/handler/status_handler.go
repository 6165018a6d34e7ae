package handler

import (
	"net/http"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/interfaces/http/middleware"
)

// StatusSource отдает текущее состояние конвейера
type StatusSource interface {
	Snapshot() dto.PipelineStatus
}

// StatusHandler отдает снимок состояния конвейера
type StatusHandler struct {
	source StatusSource
}

func NewStatusHandler(source StatusSource) *StatusHandler {
	return &StatusHandler{source: source}
}

// GetStatus GET /api/v1/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.source.Snapshot())
}
