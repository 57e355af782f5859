package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

const defaultTxTimeout = 5 * time.Second

// Store runs every mutation in a database transaction. Rows read inside
// RunInTx are locked with SELECT ... FOR UPDATE until commit, so callers that
// follow the lock order in ports.Tx never deadlock.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, timeout: defaultTxTimeout}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	return s.run(ctx, nil, forUpdate, fn)
}

func (s *Store) View(ctx context.Context, fn func(tx ports.Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, "", fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, lock string, fn func(tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(&tx{q: sqlTx, lock: lock}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const forUpdate = " FOR UPDATE"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tx binds the repositories to one *sql.Tx. lock is appended to single-row
// reads and is empty for read-only views.
type tx struct {
	q    querier
	lock string
}

func (t *tx) Users() ports.UserRepository         { return userRepository{t} }
func (t *tx) Wallets() ports.WalletRepository     { return walletRepository{t} }
func (t *tx) Questions() ports.QuestionRepository { return questionRepository{t} }
func (t *tx) Escrows() ports.EscrowRepository     { return escrowRepository{t} }
func (t *tx) Answers() ports.AnswerRepository     { return answerRepository{t} }
func (t *tx) Votes() ports.VoteRepository         { return voteRepository{t} }
func (t *tx) Ratings() ports.RatingRepository     { return ratingRepository{t} }
func (t *tx) Payouts() ports.PayoutRepository     { return payoutRepository{t} }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

var errNoRowsAffected = errors.New("no rows affected")

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoRowsAffected
	}
	return nil
}

func notFound(err error, op string, id any, kind error) error {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, errNoRowsAffected) {
		return domain.E(op, id, kind)
	}
	return fmt.Errorf("%s: %w", op, err)
}
