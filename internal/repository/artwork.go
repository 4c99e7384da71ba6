package repository

import (
	"context"

	"artshare/internal/domain"
)

// ArtworkFilter narrows and pages a listing. A nil UserID means all users.
type ArtworkFilter struct {
	UserID *int64
	Limit  int
	Offset int
}

// ArtworkRepository exposes persistence operations for Artwork aggregates.
// Create stores the artwork and its ordered tag rows in one transaction.
type ArtworkRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, artwork *domain.Artwork) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Artwork, error)
	List(ctx context.Context, filter ArtworkFilter) ([]domain.Artwork, error)
}

// LikeRepository manages like edges and the denormalized artwork counter.
type LikeRepository interface {
	Init(ctx context.Context) error
	// Toggle flips the edge for (userID, artworkID) and adjusts the
	// artwork counter in the same transaction. It reports whether the
	// edge exists after the call and the counter value committed with
	// it. Returns ErrNotFound when the artwork does not exist.
	Toggle(ctx context.Context, userID, artworkID int64) (bool, int64, error)
	Has(ctx context.Context, userID, artworkID int64) (bool, error)
	// LikedSet reports which of the given artworks the user has liked.
	LikedSet(ctx context.Context, userID int64, artworkIDs []int64) (map[int64]bool, error)
}
