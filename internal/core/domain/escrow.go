package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeReleased Outcome = "released"
	OutcomeRefunded Outcome = "refunded"
)

type Contribution struct {
	Seq       int       `json:"seq"`
	CitizenID uuid.UUID `json:"citizen_id"`
	Amount    int64     `json:"amount"`
	At        time.Time `json:"timestamp"`
}

// Escrow is the bounty pool of a single question. Contributions keep insertion
// order. Finalized flips once and never back, whatever the outcome.
type Escrow struct {
	QuestionID    uuid.UUID      `json:"question_id"`
	Contributions []Contribution `json:"contributions"`
	TotalBounty   int64          `json:"total_bounty"`
	Finalized     bool           `json:"finalized"`
	Outcome       Outcome        `json:"outcome,omitempty"`
	FinalizedAt   *time.Time     `json:"finalized_at,omitempty"`
}

func (e *Escrow) Clone() Escrow {
	c := *e
	c.Contributions = append([]Contribution(nil), e.Contributions...)
	if e.FinalizedAt != nil {
		at := *e.FinalizedAt
		c.FinalizedAt = &at
	}
	return c
}

// Add appends a contribution and returns it with its sequence number set.
func (e *Escrow) Add(citizenID uuid.UUID, amount int64, at time.Time) Contribution {
	c := Contribution{
		Seq:       len(e.Contributions) + 1,
		CitizenID: citizenID,
		Amount:    amount,
		At:        at,
	}
	e.Contributions = append(e.Contributions, c)
	e.TotalBounty += amount
	return c
}

func (e *Escrow) MarkFinalized(outcome Outcome, at time.Time) {
	e.Finalized = true
	e.Outcome = outcome
	e.FinalizedAt = &at
}

// Check verifies the pool total matches its contributions.
func (e *Escrow) Check() error {
	var sum int64
	for _, c := range e.Contributions {
		if c.Amount <= 0 {
			return E("escrow.check", e.QuestionID, ErrInvariantViolation)
		}
		sum += c.Amount
	}
	if sum != e.TotalBounty {
		return E("escrow.check", e.QuestionID, ErrInvariantViolation)
	}
	return nil
}

func (e *Escrow) ContributedBy(citizenID uuid.UUID) int64 {
	var sum int64
	for _, c := range e.Contributions {
		if c.CitizenID == citizenID {
			sum += c.Amount
		}
	}
	return sum
}

type StakerTotal struct {
	CitizenID uuid.UUID `json:"citizen_id"`
	Amount    int64     `json:"amount"`
}

// PerContributor folds contributions per citizen, ordered by each citizen's
// first contribution.
func (e *Escrow) PerContributor() []StakerTotal {
	index := make(map[uuid.UUID]int)
	totals := make([]StakerTotal, 0, len(e.Contributions))
	for _, c := range e.Contributions {
		i, ok := index[c.CitizenID]
		if !ok {
			i = len(totals)
			index[c.CitizenID] = i
			totals = append(totals, StakerTotal{CitizenID: c.CitizenID})
		}
		totals[i].Amount += c.Amount
	}
	return totals
}

// TopStakers ranks citizens by staked amount; insertion order breaks ties.
func (e *Escrow) TopStakers(n int) []StakerTotal {
	totals := e.PerContributor()
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount > totals[j].Amount
	})
	if n > 0 && len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

func (e *Escrow) StakerCount() int {
	return len(e.PerContributor())
}

type CharityPayout struct {
	ID           uuid.UUID  `json:"id"`
	QuestionID   uuid.UUID  `json:"question_id"`
	PoliticianID uuid.UUID  `json:"politician_id"`
	Amount       int64      `json:"amount"`
	CreatedAt    time.Time  `json:"created_at"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
}

// Settlement summarizes a finalized escrow for callers and event consumers.
type Settlement struct {
	QuestionID uuid.UUID     `json:"question_id"`
	Outcome    Outcome       `json:"outcome"`
	Total      int64         `json:"total"`
	Transfers  []StakerTotal `json:"transfers,omitempty"`
	PayoutID   *uuid.UUID    `json:"payout_id,omitempty"`
}
