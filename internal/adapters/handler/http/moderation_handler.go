package http

import (
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type ModerationHandler struct {
	service ports.ModerationService
	logger  *slog.Logger
}

func NewModerationHandler(service ports.ModerationService, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ModerationHandler) Flag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	question, err := h.service.Flag(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *ModerationHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	settlement, err := h.service.RefundFlagged(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settlement)
}
