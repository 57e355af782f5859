package domain

import (
	"time"

	"github.com/google/uuid"
)

type Answer struct {
	ID              uuid.UUID `json:"id"`
	QuestionID      uuid.UUID `json:"question_id"`
	PoliticianID    uuid.UUID `json:"politician_id"`
	Content         string    `json:"content"`
	SubmittedAt     time.Time `json:"submitted_at"`
	DirectnessScore *int      `json:"ai_directness_score,omitempty"`
	HelpfulCount    int64     `json:"helpful_votes"`
	EvasiveCount    int64     `json:"evasive_votes"`
}

func (a *Answer) Clone() Answer {
	c := *a
	if a.DirectnessScore != nil {
		s := *a.DirectnessScore
		c.DirectnessScore = &s
	}
	return c
}

func (a *Answer) TotalVotes() int64 {
	return a.HelpfulCount + a.EvasiveCount
}

// ApplyVote adjusts the tally for a voter choosing helpful. prev is the voter's
// earlier vote on this answer, if any; a changed vote moves one count from the
// old side to the new side.
func (a *Answer) ApplyVote(prev *Vote, helpful bool) {
	if prev != nil {
		if prev.IsHelpful == helpful {
			return
		}
		if prev.IsHelpful {
			a.HelpfulCount--
		} else {
			a.EvasiveCount--
		}
	}
	if helpful {
		a.HelpfulCount++
	} else {
		a.EvasiveCount++
	}
}

func (a *Answer) Check() error {
	if a.HelpfulCount < 0 || a.EvasiveCount < 0 {
		return E("answer.check", a.ID, ErrInvariantViolation)
	}
	if a.DirectnessScore != nil && (*a.DirectnessScore < 0 || *a.DirectnessScore > 100) {
		return E("answer.check", a.ID, ErrInvariantViolation)
	}
	return nil
}

// Satisfaction is the answer's signal in [0,1].
func (a *Answer) Satisfaction() float64 {
	return Satisfaction(a.HelpfulCount, a.EvasiveCount, a.DirectnessScore)
}

// Satisfaction blends the helpful share of votes with the directness score.
// Both present: simple average. Votes only: helpful share. Directness only:
// score/100. Neither: 0.5.
func Satisfaction(helpful, evasive int64, directness *int) float64 {
	total := helpful + evasive
	switch {
	case total > 0 && directness != nil:
		return (float64(helpful)/float64(total) + clampScore(*directness)) / 2
	case total > 0:
		return float64(helpful) / float64(total)
	case directness != nil:
		return clampScore(*directness)
	default:
		return 0.5
	}
}

func clampScore(score int) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 1
	}
	return float64(score) / 100
}

type Vote struct {
	AnswerID  uuid.UUID `json:"answer_id"`
	VoterID   uuid.UUID `json:"voter_id"`
	IsHelpful bool      `json:"is_helpful"`
	CastAt    time.Time `json:"cast_at"`
}
