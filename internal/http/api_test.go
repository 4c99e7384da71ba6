package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artshare/internal/repository/sqlite"
	"artshare/internal/service"
	"artshare/internal/session"
	"artshare/internal/storage"
)

// fakeStorage implements storage.Service with overridable behavior per test.
type fakeStorage struct {
	uploadFn func(ctx context.Context, input storage.UploadInput) (string, error)
	listFn   func(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error)
	deleteFn func(ctx context.Context, bucket, key string) error
	urlFn    func(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

func (f *fakeStorage) Upload(ctx context.Context, input storage.UploadInput) (string, error) {
	if f.uploadFn == nil {
		return input.Key, nil
	}
	return f.uploadFn(ctx, input)
}

func (f *fakeStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, bucket, prefix)
}

func (f *fakeStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, bucket, key)
}

func (f *fakeStorage) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if f.urlFn == nil {
		return "https://cdn.example.com/" + key, nil
	}
	return f.urlFn(ctx, bucket, key, expires)
}

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterWithStorage(t, nil, "")
}

func newTestRouterWithStorage(t *testing.T, store storage.Service, bucket string) *gin.Engine {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	artworks := sqlite.NewArtworkRepository(db)
	likes := sqlite.NewLikeRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, artworks.Init(ctx))
	require.NoError(t, likes.Init(ctx))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		service.NewUserService(users, sqlite.NewProfileRepository(db)),
		service.NewArtworkService(artworks, likes),
		session.NewManager(time.Hour),
		store,
		bucket,
		"media",
		logger,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, target, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestAPI_RegisterLoginLikeScenario(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), resp["user_id"])
	require.NotEmpty(t, resp["token"])

	rec, resp = doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "pw2",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_exists", resp["kind"])

	rec, resp = doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "alice",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := resp["token"].(string)
	require.NotEmpty(t, token)

	rec, resp = doJSON(t, router, http.MethodPost, "/api/artworks", token, gin.H{
		"title":     "Sunset",
		"image_url": "http://x/1.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), resp["artwork_id"])

	rec, resp = doJSON(t, router, http.MethodGet, "/api/artworks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	artworks := resp["artworks"].([]any)
	require.Len(t, artworks, 1)
	first := artworks[0].(map[string]any)
	assert.Equal(t, float64(0), first["likes_count"])
	assert.Equal(t, false, first["liked"])

	rec, resp = doJSON(t, router, http.MethodPost, "/api/artworks/1/like", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["liked"])
	assert.Equal(t, float64(1), resp["likes_count"])

	rec, resp = doJSON(t, router, http.MethodGet, "/api/artworks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first = resp["artworks"].([]any)[0].(map[string]any)
	assert.Equal(t, true, first["liked"])

	rec, resp = doJSON(t, router, http.MethodPost, "/api/artworks/1/like", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["liked"])
	assert.Equal(t, float64(0), resp["likes_count"])
}

func TestAPI_RegisterMissingFields(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "bob",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_fields", resp["kind"])
}

func TestAPI_LoginFailuresShareShape(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	_, _ = doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "right",
	})

	recBadPass, badPass := doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "carol",
		"password": "wrong",
	})
	recUnknown, unknown := doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "nobody",
		"password": "whatever",
	})

	assert.Equal(t, http.StatusUnauthorized, recBadPass.Code)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, badPass, unknown)
}

func TestAPI_AuthGates(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/artworks", "", gin.H{
		"title":     "x",
		"image_url": "http://x/x.png",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", resp["kind"])

	rec, resp = doJSON(t, router, http.MethodPost, "/api/artworks/1/like", "stale-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", resp["kind"])
}

func TestAPI_LogoutRevokesSession(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/check-auth", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["authenticated"])

	rec, _ = doJSON(t, router, http.MethodGet, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// logout of an already-revoked token still succeeds
	rec, _ = doJSON(t, router, http.MethodGet, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = doJSON(t, router, http.MethodGet, "/api/check-auth", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["authenticated"])

	rec, _ = doJSON(t, router, http.MethodPost, "/api/artworks", token, gin.H{
		"title":     "x",
		"image_url": "http://x/x.png",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_ToggleLikeMissingArtwork(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "erin",
		"email":    "erin@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/artworks/99/like", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", resp["kind"])
}

func TestAPI_ListAnonymousOmitsLiked(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "frank",
		"email":    "frank@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)
	_, _ = doJSON(t, router, http.MethodPost, "/api/artworks", token, gin.H{
		"title":     "public",
		"image_url": "http://x/p.png",
	})

	rec, resp := doJSON(t, router, http.MethodGet, "/api/artworks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), resp["count"])

	first := resp["artworks"].([]any)[0].(map[string]any)
	_, hasLiked := first["liked"]
	assert.False(t, hasLiked)
}

func TestAPI_ListRejectsNegativePaging(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/artworks?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_fields", resp["kind"])

	rec, _ = doJSON(t, router, http.MethodGet, "/api/artworks?offset=-5", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// An absent limit falls back to the default page size, but an explicit
// limit=0 is passed through and yields an empty page.
func TestAPI_ListLimitDefaultsOnlyWhenAbsent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "hank",
		"email":    "hank@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)

	for i := 0; i < service.DefaultListLimit+2; i++ {
		rec, _ := doJSON(t, router, http.MethodPost, "/api/artworks", token, gin.H{
			"title":     "t",
			"image_url": "http://x/i.png",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, resp := doJSON(t, router, http.MethodGet, "/api/artworks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(service.DefaultListLimit), resp["count"])

	rec, resp = doJSON(t, router, http.MethodGet, "/api/artworks?limit=0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), resp["count"])

	rec, resp = doJSON(t, router, http.MethodGet, "/api/artworks?limit=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), resp["count"])
}

func TestAPI_GetArtwork(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "kate",
		"email":    "kate@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)

	_, _ = doJSON(t, router, http.MethodPost, "/api/artworks", token, gin.H{
		"title":     "Harbor",
		"image_url": "http://x/h.png",
		"tags":      []string{"sea", "oil"},
	})
	_, _ = doJSON(t, router, http.MethodPost, "/api/artworks/1/like", token, nil)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/artworks/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Harbor", resp["title"])
	assert.Equal(t, "kate", resp["username"])
	assert.Equal(t, float64(1), resp["likes_count"])
	assert.Equal(t, true, resp["liked"])
	assert.Equal(t, []any{"sea", "oil"}, resp["tags"])

	// anonymous readers get the artwork without the liked annotation
	rec, resp = doJSON(t, router, http.MethodGet, "/api/artworks/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, hasLiked := resp["liked"]
	assert.False(t, hasLiked)

	rec, resp = doJSON(t, router, http.MethodGet, "/api/artworks/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", resp["kind"])
}

func TestAPI_ProfileRoundTrip(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "iris",
		"email":    "iris@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)

	rec, resp = doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "iris", resp["username"])
	assert.Equal(t, "iris@example.com", resp["email"])
	// display name defaults to the username at registration
	assert.Equal(t, "iris", resp["display_name"])

	rec, _ = doJSON(t, router, http.MethodPut, "/api/profile", token, gin.H{
		"display_name": "Iris W.",
		"bio":          "painter",
		"avatar_url":   "http://x/iris.png",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Iris W.", resp["display_name"])
	assert.Equal(t, "painter", resp["bio"])
	assert.Equal(t, "http://x/iris.png", resp["avatar_url"])

	rec, resp = doJSON(t, router, http.MethodPut, "/api/profile", token, gin.H{
		"display_name": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_fields", resp["kind"])
}

func TestAPI_MediaListAndDelete(t *testing.T) {
	t.Parallel()

	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var deletedBucket, deletedKey string
	store := &fakeStorage{
		listFn: func(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
			assert.Equal(t, "artshare-test", bucket)
			assert.Equal(t, "media", prefix)
			return []storage.ObjectInfo{
				{Key: "media/a.png", Size: 1024, LastModified: &modified},
				{Key: "media/b.png", Size: 2048},
			}, nil
		},
		deleteFn: func(_ context.Context, bucket, key string) error {
			deletedBucket, deletedKey = bucket, key
			return nil
		},
	}
	router := newTestRouterWithStorage(t, store, "artshare-test")

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "judy",
		"email":    "judy@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/media", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp = doJSON(t, router, http.MethodGet, "/api/media", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), resp["count"])
	objects := resp["objects"].([]any)
	first := objects[0].(map[string]any)
	assert.Equal(t, "media/a.png", first["key"])
	assert.Equal(t, float64(1024), first["size"])
	assert.Equal(t, "2026-03-01T12:00:00Z", first["last_modified"])
	second := objects[1].(map[string]any)
	_, hasModified := second["last_modified"]
	assert.False(t, hasModified)

	rec, resp = doJSON(t, router, http.MethodDelete, "/api/media", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_fields", resp["kind"])

	rec, resp = doJSON(t, router, http.MethodDelete, "/api/media?key=media/a.png", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "media/a.png", resp["key"])
	assert.Equal(t, "artshare-test", deletedBucket)
	assert.Equal(t, "media/a.png", deletedKey)
}

func TestAPI_MediaUnconfigured(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	_, resp := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username": "gina",
		"email":    "gina@example.com",
		"password": "pw",
	})
	token := resp["token"].(string)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/media", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/media", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/media?key=x", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
