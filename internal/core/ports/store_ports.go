package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

// Store is the transactional boundary. RunInTx serializes mutations that touch
// the same wallet, question or escrow and commits only when fn returns nil.
// View runs fn against a consistent read-only snapshot.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the repositories bound to one transaction. Implementations lock
// rows on read inside RunInTx; callers lock question, escrow, answer, rating
// and wallets (ordered by id) in that order.
type Tx interface {
	Users() UserRepository
	Wallets() WalletRepository
	Questions() QuestionRepository
	Escrows() EscrowRepository
	Answers() AnswerRepository
	Votes() VoteRepository
	Ratings() RatingRepository
	Payouts() PayoutRepository
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Save(ctx context.Context, wallet *domain.Wallet) error
}

type QuestionFilter struct {
	Status       domain.QuestionStatus
	PoliticianID *uuid.UUID
	SortBy       domain.QuestionSort
	Limit        int
	Offset       int
}

type QuestionRepository interface {
	Create(ctx context.Context, question *domain.Question) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	Save(ctx context.Context, question *domain.Question) error
	List(ctx context.Context, filter QuestionFilter) ([]*domain.Question, error)
	// ListDue returns questions whose deadline or voting window passed at now
	// and which still need an automatic transition. Flagged questions are skipped.
	ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type EscrowRepository interface {
	Create(ctx context.Context, escrow *domain.Escrow) error
	Get(ctx context.Context, questionID uuid.UUID) (*domain.Escrow, error)
	// AddContribution persists c, which the caller already appended to escrow.
	AddContribution(ctx context.Context, escrow *domain.Escrow, c domain.Contribution) error
	MarkFinalized(ctx context.Context, escrow *domain.Escrow) error
}

type AnswerRepository interface {
	Create(ctx context.Context, answer *domain.Answer) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Answer, error)
	// GetByQuestion returns nil, nil when the question has no answer.
	GetByQuestion(ctx context.Context, questionID uuid.UUID) (*domain.Answer, error)
	Save(ctx context.Context, answer *domain.Answer) error
}

type VoteRepository interface {
	// Get returns nil, nil when the voter has not voted on the answer.
	Get(ctx context.Context, answerID, voterID uuid.UUID) (*domain.Vote, error)
	Upsert(ctx context.Context, vote *domain.Vote) error
}

type RatingRepository interface {
	Create(ctx context.Context, rating *domain.PoliticianRating) error
	Get(ctx context.Context, politicianID uuid.UUID) (*domain.PoliticianRating, error)
	Save(ctx context.Context, rating *domain.PoliticianRating) error
	List(ctx context.Context) ([]domain.PoliticianRating, error)
	AppendHistory(ctx context.Context, change *domain.RatingChange) error
	History(ctx context.Context, politicianID uuid.UUID) ([]domain.RatingChange, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, payout *domain.CharityPayout) error
	ListPending(ctx context.Context, limit int) ([]*domain.CharityPayout, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	Total(ctx context.Context) (int64, error)
	TotalByPolitician(ctx context.Context, politicianID uuid.UUID) (int64, error)
}
