package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type userService struct {
	core *Core
}

func NewUserService(core *Core) ports.UserService {
	return &userService{core: core}
}

// Register creates the user with an empty wallet. Politicians also receive
// their prior rating here, so the rating engine never sees an unknown one.
func (s *userService) Register(ctx context.Context, input ports.RegisterInput) (user *domain.User, err error) {
	const op = "user.register"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, input.UserID, err) }()

	name := strings.TrimSpace(input.DisplayName)
	if input.UserID == uuid.Nil || name == "" || !input.Role.Valid() {
		return nil, domain.E(op, input.UserID, domain.ErrValidation)
	}

	user = &domain.User{
		ID:          input.UserID,
		DisplayName: name,
		Role:        input.Role,
		CreatedAt:   s.core.now(),
	}
	err = s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := tx.Wallets().Create(ctx, &domain.Wallet{UserID: user.ID}); err != nil {
			return err
		}
		if user.Role == domain.RolePolitician {
			if _, err := s.core.rating.Register(ctx, tx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.core.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"role", user.Role,
	)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (user *domain.User, err error) {
	const op = "user.get"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, id, err) }()

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		user, err = tx.Users().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
