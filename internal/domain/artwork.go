package domain

import "time"

// Artwork is a user-submitted piece: an image reference plus metadata.
// LikesCount is denormalized and mutated only by the like toggle, inside
// the same transaction that flips the like edge.
type Artwork struct {
	ID          int64
	UserID      int64
	Title       string
	ImageURL    string
	Description string
	Tags        []string
	Category    string
	LikesCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Author fields joined in by listing queries.
	Username    string
	DisplayName string

	// Liked is set only when a listing is annotated for an authenticated
	// viewer; it is never persisted.
	Liked bool
}

// Like records one user's endorsement of one artwork. At most one edge
// exists per (user, artwork) pair.
type Like struct {
	UserID    int64
	ArtworkID int64
	CreatedAt time.Time
}
