// Package memory is an in-process store used by the default server setup and
// by service tests. A single writer lock serializes transactions; each
// transaction writes into an overlay that is merged only on commit, so a
// failed transaction leaves no partial state behind.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

var errReadOnly = errors.New("memory store: write in read-only transaction")

type voteKey struct {
	answerID uuid.UUID
	voterID  uuid.UUID
}

type state struct {
	users            map[uuid.UUID]domain.User
	wallets          map[uuid.UUID]domain.Wallet
	questions        map[uuid.UUID]domain.Question
	escrows          map[uuid.UUID]domain.Escrow
	answers          map[uuid.UUID]domain.Answer
	answerByQuestion map[uuid.UUID]uuid.UUID
	votes            map[voteKey]domain.Vote
	ratings          map[uuid.UUID]domain.PoliticianRating
	history          map[uuid.UUID][]domain.RatingChange
	payouts          map[uuid.UUID]domain.CharityPayout
}

type Store struct {
	mu sync.RWMutex
	st state
}

func NewStore() *Store {
	return &Store{st: state{
		users:            make(map[uuid.UUID]domain.User),
		wallets:          make(map[uuid.UUID]domain.Wallet),
		questions:        make(map[uuid.UUID]domain.Question),
		escrows:          make(map[uuid.UUID]domain.Escrow),
		answers:          make(map[uuid.UUID]domain.Answer),
		answerByQuestion: make(map[uuid.UUID]uuid.UUID),
		votes:            make(map[voteKey]domain.Vote),
		ratings:          make(map[uuid.UUID]domain.PoliticianRating),
		history:          make(map[uuid.UUID][]domain.RatingChange),
		payouts:          make(map[uuid.UUID]domain.CharityPayout),
	}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.begin(true)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(s.begin(false))
}

type tx struct {
	writable         bool
	users            *table[uuid.UUID, domain.User]
	wallets          *table[uuid.UUID, domain.Wallet]
	questions        *table[uuid.UUID, domain.Question]
	escrows          *table[uuid.UUID, domain.Escrow]
	answers          *table[uuid.UUID, domain.Answer]
	answerByQuestion *table[uuid.UUID, uuid.UUID]
	votes            *table[voteKey, domain.Vote]
	ratings          *table[uuid.UUID, domain.PoliticianRating]
	history          *table[uuid.UUID, []domain.RatingChange]
	payouts          *table[uuid.UUID, domain.CharityPayout]
}

func (s *Store) begin(writable bool) *tx {
	return &tx{
		writable:         writable,
		users:            newTable(s.st.users, nil),
		wallets:          newTable(s.st.wallets, nil),
		questions:        newTable(s.st.questions, cloneQuestion),
		escrows:          newTable(s.st.escrows, func(e domain.Escrow) domain.Escrow { return e.Clone() }),
		answers:          newTable(s.st.answers, func(a domain.Answer) domain.Answer { return a.Clone() }),
		answerByQuestion: newTable(s.st.answerByQuestion, nil),
		votes:            newTable(s.st.votes, nil),
		ratings:          newTable(s.st.ratings, nil),
		history:          newTable(s.st.history, cloneHistory),
		payouts:          newTable(s.st.payouts, clonePayout),
	}
}

func (t *tx) commit() {
	t.users.commit()
	t.wallets.commit()
	t.questions.commit()
	t.escrows.commit()
	t.answers.commit()
	t.answerByQuestion.commit()
	t.votes.commit()
	t.ratings.commit()
	t.history.commit()
	t.payouts.commit()
}

func (t *tx) guard() error {
	if !t.writable {
		return errReadOnly
	}
	return nil
}

func (t *tx) Users() ports.UserRepository { return userRepo{t} }
func (t *tx) Wallets() ports.WalletRepository { return walletRepo{t} }
func (t *tx) Questions() ports.QuestionRepository { return questionRepo{t} }
func (t *tx) Escrows() ports.EscrowRepository { return escrowRepo{t} }
func (t *tx) Answers() ports.AnswerRepository { return answerRepo{t} }
func (t *tx) Votes() ports.VoteRepository { return voteRepo{t} }
func (t *tx) Ratings() ports.RatingRepository { return ratingRepo{t} }
func (t *tx) Payouts() ports.PayoutRepository { return payoutRepo{t} }

// table overlays uncommitted writes on top of the committed map. Reads return
// copies, so callers can mutate what they get without touching shared state.
type table[K comparable, V any] struct {
	base  map[K]V
	dirty map[K]V
	clone func(V) V
}

func newTable[K comparable, V any](base map[K]V, clone func(V) V) *table[K, V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	return &table[K, V]{base: base, dirty: make(map[K]V), clone: clone}
}

func (t *table[K, V]) get(k K) (V, bool) {
	if v, ok := t.dirty[k]; ok {
		return t.clone(v), true
	}
	v, ok := t.base[k]
	if !ok {
		return v, false
	}
	return t.clone(v), true
}

func (t *table[K, V]) put(k K, v V) {
	t.dirty[k] = t.clone(v)
}

func (t *table[K, V]) each(fn func(k K, v V)) {
	for k, v := range t.dirty {
		fn(k, t.clone(v))
	}
	for k, v := range t.base {
		if _, shadowed := t.dirty[k]; !shadowed {
			fn(k, t.clone(v))
		}
	}
}

func (t *table[K, V]) commit() {
	for k, v := range t.dirty {
		t.base[k] = v
	}
}

func cloneQuestion(q domain.Question) domain.Question {
	if q.VotingClosesAt != nil {
		at := *q.VotingClosesAt
		q.VotingClosesAt = &at
	}
	if q.FinalizedAt != nil {
		at := *q.FinalizedAt
		q.FinalizedAt = &at
	}
	return q
}

func cloneHistory(h []domain.RatingChange) []domain.RatingChange {
	return append([]domain.RatingChange(nil), h...)
}

func clonePayout(p domain.CharityPayout) domain.CharityPayout {
	if p.DeliveredAt != nil {
		at := *p.DeliveredAt
		p.DeliveredAt = &at
	}
	return p
}
