package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"artshare/internal/repository"
)

const createLikesTable = `
CREATE TABLE IF NOT EXISTS likes (
	user_id INTEGER NOT NULL REFERENCES users(id),
	artwork_id INTEGER NOT NULL REFERENCES artworks(id),
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, artwork_id)
);
`

type LikeRepository struct {
	db *sql.DB
}

func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLikesTable); err != nil {
		return fmt.Errorf("create likes table: %w", err)
	}
	return nil
}

// Toggle flips the like edge for (userID, artworkID). The existence check,
// the edge mutation, the counter adjustment, and the counter read run in a
// single transaction; no caller can observe an edge without its counter
// change, and the returned count is the one committed by this call.
func (r *LikeRepository) Toggle(ctx context.Context, userID, artworkID int64) (bool, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM artworks WHERE id=?`, artworkID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, 0, repository.ErrNotFound
		}
		return false, 0, fmt.Errorf("check artwork: %w", err)
	}

	var liked bool
	err = tx.QueryRowContext(ctx, `
SELECT 1 FROM likes WHERE user_id=? AND artwork_id=?`,
		userID, artworkID,
	).Scan(&exists)
	switch {
	case err == nil:
		liked = true
	case errors.Is(err, sql.ErrNoRows):
		liked = false
	default:
		return false, 0, fmt.Errorf("check like: %w", err)
	}

	if liked {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM likes WHERE user_id=? AND artwork_id=?`,
			userID, artworkID,
		); err != nil {
			return false, 0, fmt.Errorf("delete like: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE artworks SET likes_count = likes_count - 1, updated_at=? WHERE id=? AND likes_count > 0`,
			time.Now().UTC(), artworkID,
		); err != nil {
			return false, 0, fmt.Errorf("decrement likes: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO likes (user_id, artwork_id, created_at)
VALUES (?, ?, ?)`,
			userID, artworkID, time.Now().UTC(),
		); err != nil {
			return false, 0, fmt.Errorf("insert like: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE artworks SET likes_count = likes_count + 1, updated_at=? WHERE id=?`,
			time.Now().UTC(), artworkID,
		); err != nil {
			return false, 0, fmt.Errorf("increment likes: %w", err)
		}
	}

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT likes_count FROM artworks WHERE id=?`, artworkID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("read likes count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit like toggle: %w", err)
	}
	return !liked, count, nil
}

func (r *LikeRepository) Has(ctx context.Context, userID, artworkID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
SELECT 1 FROM likes WHERE user_id=? AND artwork_id=?`,
		userID, artworkID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return true, nil
}

func (r *LikeRepository) LikedSet(ctx context.Context, userID int64, artworkIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(artworkIDs))
	if len(artworkIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(artworkIDs))
	args := make([]any, 0, len(artworkIDs)+1)
	args = append(args, userID)
	for i, id := range artworkIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
SELECT artwork_id
FROM likes
WHERE user_id = ? AND artwork_id IN (%s)`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query liked set: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var artworkID int64
		if err := rows.Scan(&artworkID); err != nil {
			return nil, fmt.Errorf("scan liked artwork id: %w", err)
		}
		result[artworkID] = true
	}
	return result, rows.Err()
}

var _ repository.LikeRepository = (*LikeRepository)(nil)
