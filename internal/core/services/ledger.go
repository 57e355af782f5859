package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

// Ledger owns wallet balances. Every method runs inside the caller's
// transaction and checks wallet invariants before saving.
type Ledger struct {
	purchaseCap int64
}

func (l *Ledger) Purchase(ctx context.Context, tx ports.Tx, userID uuid.UUID, amount int64) (*domain.Wallet, error) {
	if amount <= 0 || amount > l.purchaseCap {
		return nil, domain.E("ledger.purchase", userID, domain.ErrInvalidAmount)
	}

	w, err := tx.Wallets().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	w.Available += amount
	w.Purchased += amount
	if err := w.Check(); err != nil {
		return nil, err
	}
	if err := tx.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Reserve moves amount from the citizen's available points into escrow.
func (l *Ledger) Reserve(ctx context.Context, tx ports.Tx, citizenID uuid.UUID, escrow *domain.Escrow, amount int64, at time.Time) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, domain.E("ledger.reserve", citizenID, domain.ErrInvalidAmount)
	}

	w, err := tx.Wallets().Get(ctx, citizenID)
	if err != nil {
		return nil, err
	}
	if amount > w.Available {
		return nil, domain.E("ledger.reserve", citizenID, domain.ErrInsufficientFunds)
	}
	w.Available -= amount
	w.Staked += amount
	if err := w.Check(); err != nil {
		return nil, err
	}

	c := escrow.Add(citizenID, amount, at)
	if err := escrow.Check(); err != nil {
		return nil, err
	}

	if err := tx.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}
	if err := tx.Escrows().AddContribution(ctx, escrow, c); err != nil {
		return nil, err
	}
	return w, nil
}

// Settle moves the whole escrow to its terminal destination. Released funds
// leave every contributor's staked points and are credited to the politician's
// released total plus a pending charity payout. Refunds return exactly what each
// contributor staked. A settled escrow is never settled again.
func (l *Ledger) Settle(ctx context.Context, tx ports.Tx, escrow *domain.Escrow, outcome domain.Outcome, politicianID uuid.UUID, at time.Time) (*domain.Settlement, error) {
	if escrow.Finalized {
		return nil, domain.E("ledger.settle", escrow.QuestionID, domain.ErrAlreadySettled)
	}
	if err := escrow.Check(); err != nil {
		return nil, err
	}

	transfers := escrow.PerContributor()
	ids := make([]uuid.UUID, 0, len(transfers)+1)
	for _, t := range transfers {
		ids = append(ids, t.CitizenID)
	}
	if outcome == domain.OutcomeReleased && escrow.TotalBounty > 0 {
		ids = append(ids, politicianID)
	}
	wallets, err := lockWallets(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	settlement := &domain.Settlement{
		QuestionID: escrow.QuestionID,
		Outcome:    outcome,
		Total:      escrow.TotalBounty,
		Transfers:  transfers,
	}

	var moved int64
	for _, t := range transfers {
		w := wallets[t.CitizenID]
		w.Staked -= t.Amount
		if outcome == domain.OutcomeRefunded {
			w.Available += t.Amount
		}
		moved += t.Amount
	}
	if moved != escrow.TotalBounty {
		return nil, domain.E("ledger.settle", escrow.QuestionID, domain.ErrInvariantViolation)
	}

	if outcome == domain.OutcomeReleased && escrow.TotalBounty > 0 {
		wallets[politicianID].EarnedOrReleased += escrow.TotalBounty
		payout := &domain.CharityPayout{
			ID:           uuid.New(),
			QuestionID:   escrow.QuestionID,
			PoliticianID: politicianID,
			Amount:       escrow.TotalBounty,
			CreatedAt:    at,
		}
		if err := tx.Payouts().Create(ctx, payout); err != nil {
			return nil, err
		}
		settlement.PayoutID = &payout.ID
	}

	for _, id := range sortedIDs(wallets) {
		w := wallets[id]
		if err := w.Check(); err != nil {
			return nil, err
		}
		if err := tx.Wallets().Save(ctx, w); err != nil {
			return nil, err
		}
	}

	escrow.MarkFinalized(outcome, at)
	if err := tx.Escrows().MarkFinalized(ctx, escrow); err != nil {
		return nil, err
	}
	return settlement, nil
}

// lockWallets loads each distinct wallet once, in id order.
func lockWallets(ctx context.Context, tx ports.Tx, ids []uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	wallets := make(map[uuid.UUID]*domain.Wallet, len(ids))
	for _, id := range ids {
		wallets[id] = nil
	}
	for _, id := range sortedIDs(wallets) {
		w, err := tx.Wallets().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		wallets[id] = w
	}
	return wallets, nil
}

func sortedIDs(wallets map[uuid.UUID]*domain.Wallet) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(wallets))
	for id := range wallets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
