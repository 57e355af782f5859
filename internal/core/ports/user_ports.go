package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type RegisterInput struct {
	UserID      uuid.UUID
	DisplayName string
	Role        domain.Role
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
