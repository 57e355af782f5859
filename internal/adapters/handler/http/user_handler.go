package http

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
	ledger  ports.LedgerService
	logger  *slog.Logger
}

func NewUserHandler(service ports.UserService, ledger ports.LedgerService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		ledger:  ledger,
		logger:  logger,
	}
}

type registerRequest struct {
	DisplayName string `json:"display_name"`
}

// Register creates the caller's profile and wallet. Id and role come from the
// identity token, never from the body.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	role, _ := r.Context().Value(RoleKey).(domain.Role)
	user, err := h.service.Register(r.Context(), ports.RegisterInput{
		UserID:      callerID(r),
		DisplayName: req.DisplayName,
		Role:        role,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Wallet reads a user's balances. user_id defaults to the caller.
func (h *UserHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if r.URL.Query().Has("user_id") {
		id, err := uuid.Parse(r.URL.Query().Get("user_id"))
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "validation", "invalid user_id")
			return
		}
		userID = id
	}

	wallet, err := h.ledger.Wallet(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

type purchaseRequest struct {
	Amount int64 `json:"amount"`
}

func (h *UserHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decode(w, r, &req) {
		return
	}

	wallet, err := h.ledger.Purchase(r.Context(), callerID(r), req.Amount)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}
