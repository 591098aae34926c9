package repository

import (
	"context"

	"github.com/dom/course-catalog/internal/domain"
	"github.com/google/uuid"
)

// UserRepository is the authoritative user directory. Implementations map
// their storage errors onto domain.ErrUserNotFound, domain.ErrDuplicateEmail
// and domain.ErrUpstreamUnavailable.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.User, error)
}
