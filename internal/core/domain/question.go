package domain

import (
	"time"

	"github.com/google/uuid"
)

type QuestionStatus string

const (
	StatusOpen     QuestionStatus = "open"
	StatusAnswered QuestionStatus = "answered"
	StatusExpired  QuestionStatus = "expired"
	StatusFlagged  QuestionStatus = "flagged"
)

func (s QuestionStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusAnswered, StatusExpired, StatusFlagged:
		return true
	}
	return false
}

var transitions = map[QuestionStatus][]QuestionStatus{
	StatusOpen:     {StatusAnswered, StatusExpired, StatusFlagged},
	StatusAnswered: {StatusFlagged},
}

type Question struct {
	ID             uuid.UUID      `json:"id"`
	AskerID        uuid.UUID      `json:"asker_id"`
	PoliticianID   uuid.UUID      `json:"target_politician_id"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Deadline       time.Time      `json:"deadline"`
	Status         QuestionStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	VotingClosesAt *time.Time     `json:"voting_closes_at,omitempty"`
	FinalizedAt    *time.Time     `json:"finalized_at,omitempty"`
}

// Transition moves the question to the next status. A finalized answered
// question can no longer be flagged.
func (q *Question) Transition(to QuestionStatus) error {
	if q.FinalizedAt != nil {
		return E("question.transition", q.ID, ErrInvalidTransition)
	}
	for _, next := range transitions[q.Status] {
		if next == to {
			q.Status = to
			return nil
		}
	}
	return E("question.transition", q.ID, ErrInvalidTransition)
}

// AcceptsStakes is true while the question is open and its deadline has not passed.
func (q *Question) AcceptsStakes(now time.Time) bool {
	return q.Status == StatusOpen && !now.After(q.Deadline)
}

// Overdue reports an open question whose deadline passed without an answer.
func (q *Question) Overdue(now time.Time) bool {
	return q.Status == StatusOpen && now.After(q.Deadline)
}

func (q *Question) VotingOpen(now time.Time) bool {
	return q.Status == StatusAnswered && q.FinalizedAt == nil &&
		q.VotingClosesAt != nil && now.Before(*q.VotingClosesAt)
}

// VotingDue reports an answered question whose voting window has closed but
// which has not been finalized yet.
func (q *Question) VotingDue(now time.Time) bool {
	return q.Status == StatusAnswered && q.FinalizedAt == nil &&
		q.VotingClosesAt != nil && !now.Before(*q.VotingClosesAt)
}

// OpenVoting records the answer and sets the voting window, which closes after
// window or at the deadline, whichever comes first.
func (q *Question) OpenVoting(now time.Time, window time.Duration) error {
	if err := q.Transition(StatusAnswered); err != nil {
		return err
	}
	closes := now.Add(window)
	if q.Deadline.Before(closes) {
		closes = q.Deadline
	}
	q.VotingClosesAt = &closes
	return nil
}

func (q *Question) Finalize(now time.Time) {
	q.FinalizedAt = &now
}

type QuestionSort string

const (
	SortByBounty   QuestionSort = "bounty"
	SortByRecent   QuestionSort = "recent"
	SortByDeadline QuestionSort = "deadline"
)

func (s QuestionSort) Valid() bool {
	return s == SortByBounty || s == SortByRecent || s == SortByDeadline
}
