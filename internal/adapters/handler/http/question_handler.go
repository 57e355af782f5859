package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type QuestionHandler struct {
	service ports.QuestionService
	logger  *slog.Logger
}

func NewQuestionHandler(service ports.QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		logger:  logger,
	}
}

type createQuestionRequest struct {
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	TargetPoliticianID uuid.UUID  `json:"target_politician_id"`
	InitialStake       int64      `json:"initial_stake"`
	Deadline           *time.Time `json:"deadline,omitempty"`
}

func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if !decode(w, r, &req) {
		return
	}

	question, err := h.service.Create(r.Context(), ports.CreateQuestionInput{
		AskerID:      callerID(r),
		PoliticianID: req.TargetPoliticianID,
		Title:        req.Title,
		Body:         req.Body,
		InitialStake: req.InitialStake,
		Deadline:     req.Deadline,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "validation", "invalid limit")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "validation", "invalid offset")
		return
	}

	q := r.URL.Query()
	questions, err := h.service.List(r.Context(), ports.ListQuestionsInput{
		Status:       q.Get("status"),
		PoliticianID: q.Get("politician_id"),
		SortBy:       q.Get("sort_by"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	question, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

type submitAnswerRequest struct {
	Content string `json:"content"`
}

type submitAnswerResponse struct {
	AnswerID        uuid.UUID `json:"answer_id"`
	QuestionID      uuid.UUID `json:"question_id"`
	DirectnessScore *int      `json:"ai_directness_score,omitempty"`
}

func (h *QuestionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req submitAnswerRequest
	if !decode(w, r, &req) {
		return
	}

	answer, err := h.service.SubmitAnswer(r.Context(), ports.SubmitAnswerInput{
		QuestionID:   questionID,
		PoliticianID: callerID(r),
		Content:      req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitAnswerResponse{
		AnswerID:        answer.ID,
		QuestionID:      answer.QuestionID,
		DirectnessScore: answer.DirectnessScore,
	})
}

func (h *QuestionHandler) GetAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	answer, err := h.service.GetAnswer(r.Context(), questionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// Finalize resolves a question whose deadline or voting window passed. The
// sweeper does the same on a schedule; calling it early is rejected.
func (h *QuestionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	settlement, err := h.service.Finalize(r.Context(), questionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settlement)
}
