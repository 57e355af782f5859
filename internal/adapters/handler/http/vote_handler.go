package http

import (
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	logger  *slog.Logger
}

func NewVoteHandler(service ports.VoteService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{
		service: service,
		logger:  logger,
	}
}

type voteRequest struct {
	IsHelpful *bool `json:"is_helpful"`
}

func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	answerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.IsHelpful == nil {
		writeProblem(w, http.StatusBadRequest, "validation", "is_helpful is required")
		return
	}

	answer, err := h.service.Vote(r.Context(), ports.VoteInput{
		AnswerID:  answerID,
		VoterID:   callerID(r),
		IsHelpful: *req.IsHelpful,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// Votes is public; the caller's own vote is included when a token is sent.
func (h *VoteHandler) Votes(w http.ResponseWriter, r *http.Request) {
	answerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	votes, err := h.service.Votes(r.Context(), answerID, callerID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}
