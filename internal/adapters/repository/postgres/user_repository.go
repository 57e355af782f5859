package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type userRepository struct{ t *tx }

func (r userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, display_name, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.t.q.ExecContext(ctx, query, user.ID, user.DisplayName, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.E("user.create", user.ID, domain.ErrAlreadyRegistered)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, display_name, role, created_at FROM users WHERE id = $1`
	user := &domain.User{}
	err := r.t.q.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.DisplayName, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err, "user.get", id, domain.ErrUserNotFound)
	}
	return user, nil
}

type walletRepository struct{ t *tx }

func (r walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, available, staked, earned_or_released, purchased)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.t.q.ExecContext(ctx, query,
		wallet.UserID, wallet.Available, wallet.Staked, wallet.EarnedOrReleased, wallet.Purchased,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.E("wallet.create", wallet.UserID, domain.ErrAlreadyRegistered)
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

func (r walletRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `
		SELECT user_id, available, staked, earned_or_released, purchased
		FROM wallets
		WHERE user_id = $1` + r.t.lock

	w := &domain.Wallet{}
	err := r.t.q.QueryRowContext(ctx, query, userID).Scan(
		&w.UserID, &w.Available, &w.Staked, &w.EarnedOrReleased, &w.Purchased,
	)
	if err != nil {
		return nil, notFound(err, "wallet.get", userID, domain.ErrUserNotFound)
	}
	return w, nil
}

func (r walletRepository) Save(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		UPDATE wallets
		SET available = $2, staked = $3, earned_or_released = $4, purchased = $5
		WHERE user_id = $1
	`
	res, err := r.t.q.ExecContext(ctx, query,
		wallet.UserID, wallet.Available, wallet.Staked, wallet.EarnedOrReleased, wallet.Purchased,
	)
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		return notFound(err, "wallet.save", wallet.UserID, domain.ErrUserNotFound)
	}
	return nil
}
