package repository

import (
	"context"

	"artshare/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Create inserts the user together with its default profile; either both
// rows land or neither does.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User, profile *domain.Profile) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// ProfileRepository manages the one-to-one profile rows.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}
