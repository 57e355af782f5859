package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type userRepo struct{ t *tx }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	if _, ok := r.t.users.get(user.ID); ok {
		return domain.E("user.create", user.ID, domain.ErrAlreadyRegistered)
	}
	r.t.users.put(user.ID, *user)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.t.users.get(id)
	if !ok {
		return nil, domain.E("user.get", id, domain.ErrUserNotFound)
	}
	return &u, nil
}

type walletRepo struct{ t *tx }

func (r walletRepo) Create(_ context.Context, wallet *domain.Wallet) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	if _, ok := r.t.wallets.get(wallet.UserID); ok {
		return domain.E("wallet.create", wallet.UserID, domain.ErrAlreadyRegistered)
	}
	r.t.wallets.put(wallet.UserID, *wallet)
	return nil
}

func (r walletRepo) Get(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	w, ok := r.t.wallets.get(userID)
	if !ok {
		return nil, domain.E("wallet.get", userID, domain.ErrUserNotFound)
	}
	return &w, nil
}

func (r walletRepo) Save(_ context.Context, wallet *domain.Wallet) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	r.t.wallets.put(wallet.UserID, *wallet)
	return nil
}

type questionRepo struct{ t *tx }

func (r questionRepo) Create(_ context.Context, question *domain.Question) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	r.t.questions.put(question.ID, *question)
	return nil
}

func (r questionRepo) Get(_ context.Context, id uuid.UUID) (*domain.Question, error) {
	q, ok := r.t.questions.get(id)
	if !ok {
		return nil, domain.E("question.get", id, domain.ErrQuestionNotFound)
	}
	return &q, nil
}

func (r questionRepo) Save(_ context.Context, question *domain.Question) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	if _, ok := r.t.questions.get(question.ID); !ok {
		return domain.E("question.save", question.ID, domain.ErrQuestionNotFound)
	}
	r.t.questions.put(question.ID, *question)
	return nil
}

func (r questionRepo) List(_ context.Context, filter ports.QuestionFilter) ([]*domain.Question, error) {
	var out []*domain.Question
	r.t.questions.each(func(_ uuid.UUID, q domain.Question) {
		if filter.Status != "" && q.Status != filter.Status {
			return
		}
		if filter.PoliticianID != nil && q.PoliticianID != *filter.PoliticianID {
			return
		}
		out = append(out, &q)
	})

	bounty := func(id uuid.UUID) int64 {
		e, _ := r.t.escrows.get(id)
		return e.TotalBounty
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch filter.SortBy {
		case domain.SortByBounty:
			if ba, bb := bounty(a.ID), bounty(b.ID); ba != bb {
				return ba > bb
			}
		case domain.SortByDeadline:
			if !a.Deadline.Equal(b.Deadline) {
				return a.Deadline.Before(b.Deadline)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	return page(out, filter.Limit, filter.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (r questionRepo) ListDue(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	var due []*domain.Question
	r.t.questions.each(func(_ uuid.UUID, q domain.Question) {
		if q.Overdue(now) || q.VotingDue(now) {
			due = append(due, &q)
		}
	})
	sort.Slice(due, func(i, j int) bool {
		return due[i].Deadline.Before(due[j].Deadline)
	})

	ids := make([]uuid.UUID, 0, len(due))
	for _, q := range due {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

type escrowRepo struct{ t *tx }

func (r escrowRepo) Create(_ context.Context, escrow *domain.Escrow) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	if _, ok := r.t.escrows.get(escrow.QuestionID); ok {
		return fmt.Errorf("escrow for question %s already exists", escrow.QuestionID)
	}
	r.t.escrows.put(escrow.QuestionID, *escrow)
	return nil
}

func (r escrowRepo) Get(_ context.Context, questionID uuid.UUID) (*domain.Escrow, error) {
	e, ok := r.t.escrows.get(questionID)
	if !ok {
		return nil, domain.E("escrow.get", questionID, domain.ErrQuestionNotFound)
	}
	return &e, nil
}

func (r escrowRepo) AddContribution(_ context.Context, escrow *domain.Escrow, _ domain.Contribution) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	r.t.escrows.put(escrow.QuestionID, *escrow)
	return nil
}

func (r escrowRepo) MarkFinalized(_ context.Context, escrow *domain.Escrow) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	stored, ok := r.t.escrows.get(escrow.QuestionID)
	if !ok {
		return domain.E("escrow.finalize", escrow.QuestionID, domain.ErrQuestionNotFound)
	}
	if stored.Finalized {
		return domain.E("escrow.finalize", escrow.QuestionID, domain.ErrAlreadySettled)
	}
	r.t.escrows.put(escrow.QuestionID, *escrow)
	return nil
}

type answerRepo struct{ t *tx }

func (r answerRepo) Create(_ context.Context, answer *domain.Answer) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	if _, ok := r.t.answerByQuestion.get(answer.QuestionID); ok {
		return domain.E("answer.create", answer.QuestionID, domain.ErrAlreadyAnswered)
	}
	r.t.answers.put(answer.ID, *answer)
	r.t.answerByQuestion.put(answer.QuestionID, answer.ID)
	return nil
}

func (r answerRepo) Get(_ context.Context, id uuid.UUID) (*domain.Answer, error) {
	a, ok := r.t.answers.get(id)
	if !ok {
		return nil, domain.E("answer.get", id, domain.ErrAnswerNotFound)
	}
	return &a, nil
}

func (r answerRepo) GetByQuestion(ctx context.Context, questionID uuid.UUID) (*domain.Answer, error) {
	id, ok := r.t.answerByQuestion.get(questionID)
	if !ok {
		return nil, nil
	}
	return r.Get(ctx, id)
}

func (r answerRepo) Save(_ context.Context, answer *domain.Answer) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	r.t.answers.put(answer.ID, *answer)
	return nil
}

type voteRepo struct{ t *tx }

func (r voteRepo) Get(_ context.Context, answerID, voterID uuid.UUID) (*domain.Vote, error) {
	v, ok := r.t.votes.get(voteKey{answerID: answerID, voterID: voterID})
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r voteRepo) Upsert(_ context.Context, vote *domain.Vote) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	r.t.votes.put(voteKey{answerID: vote.AnswerID, voterID: vote.VoterID}, *vote)
	return nil
}

type ratingRepo struct{ t *tx }

func (r ratingRepo) Create(_ context.Context, rating *domain.PoliticianRating) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	if _, ok := r.t.ratings.get(rating.PoliticianID); ok {
		return domain.E("rating.create", rating.PoliticianID, domain.ErrAlreadyRegistered)
	}
	r.t.ratings.put(rating.PoliticianID, *rating)
	return nil
}

func (r ratingRepo) Get(_ context.Context, politicianID uuid.UUID) (*domain.PoliticianRating, error) {
	rating, ok := r.t.ratings.get(politicianID)
	if !ok {
		return nil, domain.E("rating.get", politicianID, domain.ErrUnknownPolitician)
	}
	return &rating, nil
}

func (r ratingRepo) Save(_ context.Context, rating *domain.PoliticianRating) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	r.t.ratings.put(rating.PoliticianID, *rating)
	return nil
}

func (r ratingRepo) List(_ context.Context) ([]domain.PoliticianRating, error) {
	var out []domain.PoliticianRating
	r.t.ratings.each(func(_ uuid.UUID, rating domain.PoliticianRating) {
		out = append(out, rating)
	})
	return out, nil
}

func (r ratingRepo) AppendHistory(_ context.Context, change *domain.RatingChange) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	h, _ := r.t.history.get(change.PoliticianID)
	r.t.history.put(change.PoliticianID, append(h, *change))
	return nil
}

func (r ratingRepo) History(_ context.Context, politicianID uuid.UUID) ([]domain.RatingChange, error) {
	h, _ := r.t.history.get(politicianID)
	if h == nil {
		h = []domain.RatingChange{}
	}
	return h, nil
}

type payoutRepo struct{ t *tx }

func (r payoutRepo) Create(_ context.Context, payout *domain.CharityPayout) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	var dup bool
	r.t.payouts.each(func(_ uuid.UUID, p domain.CharityPayout) {
		dup = dup || p.QuestionID == payout.QuestionID
	})
	if dup {
		return domain.E("payout.create", payout.QuestionID, domain.ErrAlreadySettled)
	}
	r.t.payouts.put(payout.ID, *payout)
	return nil
}

func (r payoutRepo) ListPending(_ context.Context, limit int) ([]*domain.CharityPayout, error) {
	var out []*domain.CharityPayout
	r.t.payouts.each(func(_ uuid.UUID, p domain.CharityPayout) {
		if p.DeliveredAt == nil {
			out = append(out, &p)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, limit, 0), nil
}

func (r payoutRepo) MarkDelivered(_ context.Context, id uuid.UUID, at time.Time) error {
	if err := r.t.guard(); err != nil {
		return err
	}
	p, ok := r.t.payouts.get(id)
	if !ok {
		return fmt.Errorf("payout %s not found", id)
	}
	p.DeliveredAt = &at
	r.t.payouts.put(id, p)
	return nil
}

func (r payoutRepo) Total(_ context.Context) (int64, error) {
	var total int64
	r.t.payouts.each(func(_ uuid.UUID, p domain.CharityPayout) {
		total += p.Amount
	})
	return total, nil
}

func (r payoutRepo) TotalByPolitician(_ context.Context, politicianID uuid.UUID) (int64, error) {
	var total int64
	r.t.payouts.each(func(_ uuid.UUID, p domain.CharityPayout) {
		if p.PoliticianID == politicianID {
			total += p.Amount
		}
	})
	return total, nil
}
