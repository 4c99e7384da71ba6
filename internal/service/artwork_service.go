package service

import (
	"context"
	"fmt"
	"strings"

	"artshare/internal/domain"
	"artshare/internal/repository"
)

const (
	// DefaultListLimit applies when the caller does not page explicitly.
	DefaultListLimit = 10
)

// CreateArtworkInput carries the caller-supplied artwork fields.
type CreateArtworkInput struct {
	Title       string
	ImageURL    string
	Description string
	Tags        []string
	Category    string
}

// ListArtworksInput narrows and pages a listing; ViewerID, when set,
// requests liked-annotation for that user.
type ListArtworksInput struct {
	UserID   *int64
	Limit    int
	Offset   int
	ViewerID *int64
}

// ArtworkService coordinates artwork and like operations backed by repositories.
type ArtworkService interface {
	Create(ctx context.Context, ownerID int64, input CreateArtworkInput) (*domain.Artwork, error)
	Get(ctx context.Context, id int64) (*domain.Artwork, error)
	List(ctx context.Context, input ListArtworksInput) ([]domain.Artwork, error)
	ToggleLike(ctx context.Context, userID, artworkID int64) (bool, int64, error)
	HasLiked(ctx context.Context, userID, artworkID int64) (bool, error)
}

type artworkService struct {
	artworks repository.ArtworkRepository
	likes    repository.LikeRepository
}

func NewArtworkService(artworks repository.ArtworkRepository, likes repository.LikeRepository) ArtworkService {
	return &artworkService{
		artworks: artworks,
		likes:    likes,
	}
}

func (s *artworkService) Create(ctx context.Context, ownerID int64, input CreateArtworkInput) (*domain.Artwork, error) {
	title := strings.TrimSpace(input.Title)
	imageURL := strings.TrimSpace(input.ImageURL)

	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image url is required", ErrValidation)
	}

	artwork := &domain.Artwork{
		UserID:      ownerID,
		Title:       title,
		ImageURL:    imageURL,
		Description: input.Description,
		Tags:        input.Tags,
		Category:    input.Category,
	}

	if _, err := s.artworks.Create(ctx, artwork); err != nil {
		return nil, err
	}
	return artwork, nil
}

func (s *artworkService) Get(ctx context.Context, id int64) (*domain.Artwork, error) {
	return s.artworks.Get(ctx, id)
}

// List returns the page newest-first. Limit is taken as given, so an
// explicit zero yields an empty page; defaulting is the caller's concern.
// When ViewerID is set each artwork is annotated with whether that viewer
// has liked it.
func (s *artworkService) List(ctx context.Context, input ListArtworksInput) ([]domain.Artwork, error) {
	if input.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrValidation)
	}
	if input.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrValidation)
	}

	artworks, err := s.artworks.List(ctx, repository.ArtworkFilter{
		UserID: input.UserID,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}

	if input.ViewerID != nil && len(artworks) > 0 {
		ids := make([]int64, len(artworks))
		for i := range artworks {
			ids[i] = artworks[i].ID
		}
		liked, err := s.likes.LikedSet(ctx, *input.ViewerID, ids)
		if err != nil {
			return nil, err
		}
		for i := range artworks {
			artworks[i].Liked = liked[artworks[i].ID]
		}
	}

	return artworks, nil
}

func (s *artworkService) ToggleLike(ctx context.Context, userID, artworkID int64) (bool, int64, error) {
	return s.likes.Toggle(ctx, userID, artworkID)
}

func (s *artworkService) HasLiked(ctx context.Context, userID, artworkID int64) (bool, error) {
	return s.likes.Has(ctx, userID, artworkID)
}
