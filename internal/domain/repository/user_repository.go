package repository

import (
	"context"
	"errors"

	"github.com/shresth2708/edu-api/internal/domain/entity"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint (email, phone,
// referral code) would be violated.
var ErrDuplicate = errors.New("duplicate")

// UserRepository defines user persistence. Register creates the user, its
// role-specific profile and the initial refresh token in one transaction so
// a partial failure cannot leave a user without a profile or token.
type UserRepository interface {
	Register(ctx context.Context, u *entity.User, rt *entity.RefreshToken) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	Update(ctx context.Context, u *entity.User) error
	UpdateLastLogin(ctx context.Context, id string) error
	SetEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// RefreshTokenRepository defines refresh token persistence.
type RefreshTokenRepository interface {
	Create(ctx context.Context, rt *entity.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	DeleteByUser(ctx context.Context, userID string) error
}
