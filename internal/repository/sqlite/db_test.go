package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"artshare/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewArtworkRepository(db).Init(ctx))
	require.NoError(t, NewLikeRepository(db).Init(ctx))
	return db
}

func createTestUser(t *testing.T, db *sql.DB, username string) *domain.User {
	t.Helper()

	user := &domain.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "digest",
	}
	_, err := NewUserRepository(db).Create(context.Background(), user, &domain.Profile{})
	require.NoError(t, err)
	return user
}

func createTestArtwork(t *testing.T, db *sql.DB, ownerID int64, title string) *domain.Artwork {
	t.Helper()

	artwork := &domain.Artwork{
		UserID:   ownerID,
		Title:    title,
		ImageURL: "http://x/" + title + ".png",
	}
	_, err := NewArtworkRepository(db).Create(context.Background(), artwork)
	require.NoError(t, err)
	return artwork
}
