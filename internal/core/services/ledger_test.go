package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/civicstake/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
	"github.com/vncsmyrnk/civicstake/internal/platform/logger"
	"github.com/vncsmyrnk/civicstake/internal/platform/metrics"
)

// These tests go around the services and drive the ledger directly, trying
// to reach states the locking discipline normally rules out.

func seedWallet(t *testing.T, store ports.Store, available int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := store.RunInTx(context.Background(), func(tx ports.Tx) error {
		return tx.Wallets().Create(context.Background(), &domain.Wallet{
			UserID:    id,
			Available: available,
			Purchased: available,
		})
	})
	require.NoError(t, err)
	return id
}

func TestSettleTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := &Ledger{purchaseCap: 1000}
	citizen := seedWallet(t, store, 100)
	politician := seedWallet(t, store, 0)
	questionID := uuid.New()
	now := time.Now()

	err := store.RunInTx(ctx, func(tx ports.Tx) error {
		escrow := &domain.Escrow{QuestionID: questionID}
		if err := tx.Escrows().Create(ctx, escrow); err != nil {
			return err
		}
		if _, err := ledger.Reserve(ctx, tx, citizen, escrow, 40, now); err != nil {
			return err
		}
		_, err := ledger.Settle(ctx, tx, escrow, domain.OutcomeReleased, politician, now)
		return err
	})
	require.NoError(t, err)

	err = store.RunInTx(ctx, func(tx ports.Tx) error {
		escrow, err := tx.Escrows().Get(ctx, questionID)
		if err != nil {
			return err
		}
		_, err = ledger.Settle(ctx, tx, escrow, domain.OutcomeRefunded, politician, now)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)

	err = store.View(ctx, func(tx ports.Tx) error {
		w, err := tx.Wallets().Get(ctx, citizen)
		require.NoError(t, err)
		assert.Equal(t, int64(60), w.Available)
		assert.Equal(t, int64(0), w.Staked)

		p, err := tx.Wallets().Get(ctx, politician)
		require.NoError(t, err)
		assert.Equal(t, int64(40), p.EarnedOrReleased)
		return nil
	})
	require.NoError(t, err)
}

func TestSettleDetectsTamperedEscrow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := &Ledger{purchaseCap: 1000}
	citizen := seedWallet(t, store, 100)
	politician := seedWallet(t, store, 0)

	err := store.RunInTx(ctx, func(tx ports.Tx) error {
		escrow := &domain.Escrow{QuestionID: uuid.New()}
		if err := tx.Escrows().Create(ctx, escrow); err != nil {
			return err
		}
		if _, err := ledger.Reserve(ctx, tx, citizen, escrow, 40, time.Now()); err != nil {
			return err
		}
		// a double-release attempt: the pool claims more than was contributed.
		escrow.TotalBounty += 40
		_, err := ledger.Settle(ctx, tx, escrow, domain.OutcomeReleased, politician, time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	err = store.View(ctx, func(tx ports.Tx) error {
		w, err := tx.Wallets().Get(ctx, citizen)
		require.NoError(t, err)
		assert.Equal(t, int64(100), w.Available, "rolled back transaction must not leak")
		return nil
	})
	require.NoError(t, err)
}

func TestSettleDetectsNegativeStake(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := &Ledger{purchaseCap: 1000}
	citizen := seedWallet(t, store, 100)

	err := store.RunInTx(ctx, func(tx ports.Tx) error {
		// contribution recorded without the matching reserve.
		escrow := &domain.Escrow{QuestionID: uuid.New()}
		escrow.Add(citizen, 30, time.Now())
		_, err := ledger.Settle(ctx, tx, escrow, domain.OutcomeRefunded, uuid.New(), time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestFinishHidesInvariantViolations(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	core := NewCore(memory.NewStore(), DefaultConfig(),
		WithLogger(logger.NewWithWriter(&buf, "info", "json")),
		WithMetrics(m),
	)

	ctx, span := core.startSpan(context.Background(), "test.op")
	entity := uuid.New()
	err := core.finish(ctx, span, "test.op", entity, domain.E("wallet.check", entity, domain.ErrInvariantViolation))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.NotErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Equal(t, "internal", domain.Code(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvariantViolations))
	assert.Contains(t, buf.String(), `"severity":"fatal"`)
	assert.Contains(t, buf.String(), entity.String())

	ctx, span = core.startSpan(context.Background(), "test.op")
	err = core.finish(ctx, span, "test.op", entity, domain.E("escrow.stake", entity, domain.ErrQuestionNotOpen))
	assert.ErrorIs(t, err, domain.ErrQuestionNotOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvariantViolations))
}

func TestUnknownPoliticianIsAnInvariantViolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	engine := &RatingEngine{params: domain.DefaultRatingParams(), logger: logger.Discard()}

	err := store.RunInTx(ctx, func(tx ports.Tx) error {
		_, err := engine.Update(ctx, tx, uuid.New(), uuid.New(), 1, time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.ErrorIs(t, err, domain.ErrUnknownPolitician)
}
