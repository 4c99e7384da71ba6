package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"artshare/internal/domain"
	"artshare/internal/repository"
)

const (
	createArtworksTable = `
CREATE TABLE IF NOT EXISTS artworks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	image_url TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	likes_count INTEGER NOT NULL DEFAULT 0 CHECK (likes_count >= 0),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

	createArtworkTagsTable = `
CREATE TABLE IF NOT EXISTS artwork_tags (
	artwork_id INTEGER NOT NULL REFERENCES artworks(id),
	position INTEGER NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (artwork_id, position)
);
`
)

type ArtworkRepository struct {
	db *sql.DB
}

func NewArtworkRepository(db *sql.DB) *ArtworkRepository {
	return &ArtworkRepository{db: db}
}

func (r *ArtworkRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createArtworksTable); err != nil {
		return fmt.Errorf("create artworks table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createArtworkTagsTable); err != nil {
		return fmt.Errorf("create artwork_tags table: %w", err)
	}
	return nil
}

// Create inserts the artwork row and its tag rows in one transaction.
// Tag order is preserved through the position column.
func (r *ArtworkRepository) Create(ctx context.Context, artwork *domain.Artwork) (int64, error) {
	now := time.Now().UTC()
	artwork.CreatedAt = now
	artwork.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
INSERT INTO artworks (user_id, title, image_url, description, category, likes_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		artwork.UserID,
		artwork.Title,
		artwork.ImageURL,
		artwork.Description,
		artwork.Category,
		artwork.CreatedAt,
		artwork.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert artwork: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("artwork last insert id: %w", err)
	}

	for i, tag := range artwork.Tags {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO artwork_tags (artwork_id, position, tag)
VALUES (?, ?, ?)`,
			id, i, tag,
		); err != nil {
			return 0, fmt.Errorf("insert artwork tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit artwork create: %w", err)
	}
	artwork.ID = id
	return id, nil
}

func (r *ArtworkRepository) Get(ctx context.Context, id int64) (*domain.Artwork, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT a.id, a.user_id, a.title, a.image_url, a.description, a.category, a.likes_count, a.created_at, a.updated_at, u.username, COALESCE(p.display_name, u.username)
FROM artworks a
JOIN users u ON a.user_id = u.id
LEFT JOIN profiles p ON u.id = p.user_id
WHERE a.id = ?`,
		id,
	)

	artwork, err := scanArtwork(row)
	if err != nil {
		return nil, err
	}

	tags, err := r.tagsFor(ctx, []int64{artwork.ID})
	if err != nil {
		return nil, err
	}
	artwork.Tags = tags[artwork.ID]
	return artwork, nil
}

// List returns artworks newest-first with id as the tie-break, paged by
// filter.Limit/Offset.
func (r *ArtworkRepository) List(ctx context.Context, filter repository.ArtworkFilter) ([]domain.Artwork, error) {
	query := `
SELECT a.id, a.user_id, a.title, a.image_url, a.description, a.category, a.likes_count, a.created_at, a.updated_at, u.username, COALESCE(p.display_name, u.username)
FROM artworks a
JOIN users u ON a.user_id = u.id
LEFT JOIN profiles p ON u.id = p.user_id`

	var args []any
	if filter.UserID != nil {
		query += `
WHERE a.user_id = ?`
		args = append(args, *filter.UserID)
	}
	query += `
ORDER BY a.created_at DESC, a.id DESC
LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artworks: %w", err)
	}
	defer rows.Close()

	var artworks []domain.Artwork
	var ids []int64
	for rows.Next() {
		artwork, err := scanArtwork(rows)
		if err != nil {
			return nil, err
		}
		artworks = append(artworks, *artwork)
		ids = append(ids, artwork.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artworks: %w", err)
	}

	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range artworks {
		artworks[i].Tags = tags[artworks[i].ID]
	}

	return artworks, nil
}

func (r *ArtworkRepository) tagsFor(ctx context.Context, artworkIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(artworkIDs))
	if len(artworkIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(artworkIDs))
	args := make([]any, len(artworkIDs))
	for i, id := range artworkIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT artwork_id, tag
FROM artwork_tags
WHERE artwork_id IN (%s)
ORDER BY artwork_id, position`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artwork tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var artworkID int64
		var tag string
		if err := rows.Scan(&artworkID, &tag); err != nil {
			return nil, fmt.Errorf("scan artwork tag: %w", err)
		}
		result[artworkID] = append(result[artworkID], tag)
	}
	return result, rows.Err()
}

func scanArtwork(scanner interface {
	Scan(dest ...any) error
}) (*domain.Artwork, error) {
	var artwork domain.Artwork
	if err := scanner.Scan(
		&artwork.ID,
		&artwork.UserID,
		&artwork.Title,
		&artwork.ImageURL,
		&artwork.Description,
		&artwork.Category,
		&artwork.LikesCount,
		&artwork.CreatedAt,
		&artwork.UpdatedAt,
		&artwork.Username,
		&artwork.DisplayName,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan artwork: %w", err)
	}
	return &artwork, nil
}

var _ repository.ArtworkRepository = (*ArtworkRepository)(nil)
