package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/streampulse/account-service/internal/domain/account/model"
)

// UserRepo is the storage port for credential records. Any concrete store
// implements it; the service layer never sees the driver.
type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	GetUserByHandle(ctx context.Context, handle string) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	// GetUserByHandleOrEmail matches the identifier against either unique
	// column. Identifiers are lowercased before matching.
	GetUserByHandleOrEmail(ctx context.Context, identifier string) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	// SetRefreshToken unconditionally overwrites the stored refresh token.
	// An empty value clears the slot (logout).
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error

	// RotateRefreshToken replaces the stored refresh token only if it still
	// equals old (compare-and-swap). Returns ErrTokenReuse when the stored
	// value changed underneath, ErrNotFound when the user is gone.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}
