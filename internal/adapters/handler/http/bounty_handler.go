package http

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type BountyHandler struct {
	service ports.BountyService
	logger  *slog.Logger
}

func NewBountyHandler(service ports.BountyService, logger *slog.Logger) *BountyHandler {
	return &BountyHandler{
		service: service,
		logger:  logger,
	}
}

type stakeRequest struct {
	Amount int64 `json:"amount"`
}

type stakeResponse struct {
	QuestionID  uuid.UUID `json:"question_id"`
	TotalBounty int64     `json:"total_bounty"`
	StakerCount int       `json:"staker_count"`
}

func (h *BountyHandler) Stake(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req stakeRequest
	if !decode(w, r, &req) {
		return
	}

	escrow, err := h.service.Stake(r.Context(), ports.StakeInput{
		QuestionID: questionID,
		CitizenID:  callerID(r),
		Amount:     req.Amount,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stakeResponse{
		QuestionID:  escrow.QuestionID,
		TotalBounty: escrow.TotalBounty,
		StakerCount: escrow.StakerCount(),
	})
}

func (h *BountyHandler) Details(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.service.Details(r.Context(), questionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}
