package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

var statusByCode = map[string]int{
	"validation":         http.StatusBadRequest,
	"invalid_amount":     http.StatusBadRequest,
	"forbidden":          http.StatusForbidden,
	"not_eligible":       http.StatusForbidden,
	"unknown_question":   http.StatusNotFound,
	"unknown_answer":     http.StatusNotFound,
	"unknown_user":       http.StatusNotFound,
	"unknown_politician": http.StatusNotFound,
	"insufficient_funds": http.StatusUnprocessableEntity,
	"question_not_open":  http.StatusConflict,
	"already_answered":   http.StatusConflict,
	"already_finalized":  http.StatusConflict,
	"already_settled":    http.StatusConflict,
	"invalid_transition": http.StatusConflict,
	"voting_closed":      http.StatusConflict,
	"already_registered": http.StatusConflict,
}

type problem struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, problem{Code: code, Detail: detail})
}

// writeError renders a service error. Internal errors never leak their
// message; they were already logged by the service layer.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeProblem(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	writeProblem(w, status, code, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation", "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "validation", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
