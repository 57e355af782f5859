package http

import (
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

const defaultLeaderboardLimit = 50

type LeaderboardHandler struct {
	service ports.LeaderboardService
	logger  *slog.Logger
}

func NewLeaderboardHandler(service ports.LeaderboardService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		logger:  logger,
	}
}

func (h *LeaderboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultLeaderboardLimit)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "validation", "invalid limit")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "validation", "invalid offset")
		return
	}

	entries, err := h.service.Leaderboard(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *LeaderboardHandler) Politician(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.service.Politician(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *LeaderboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
