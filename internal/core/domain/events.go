package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventStakePlaced       EventType = "stake.placed"
	EventAnswerSubmitted   EventType = "answer.submitted"
	EventAnswerScored      EventType = "answer.scored"
	EventVoteCast          EventType = "vote.cast"
	EventQuestionFinalized EventType = "question.finalized"
	EventQuestionFlagged   EventType = "question.flagged"
)

// Event is a change notification emitted after a mutation commits.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       EventType  `json:"type"`
	QuestionID uuid.UUID  `json:"question_id"`
	AnswerID   *uuid.UUID `json:"answer_id,omitempty"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Amount     int64      `json:"amount,omitempty"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
