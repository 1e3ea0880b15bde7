package ports

import (
	"context"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// UserDirectory persists user records. Implementations must enforce username
// and email uniqueness atomically and report violations as
// domain.ErrUsernameTaken or domain.ErrEmailTaken.
type UserDirectory interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// RoleCatalog resolves role names against the fixed catalog.
type RoleCatalog interface {
	// Seed inserts names when the catalog is empty and returns how many
	// roles were created.
	Seed(ctx context.Context, names []string) (int, error)
	// FindByNames returns the roles matching names. Unknown names are
	// silently absent from the result.
	FindByNames(ctx context.Context, names []string) ([]domain.Role, error)
}
