package http

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"artshare/internal/domain"
	"artshare/internal/repository"
	"artshare/internal/service"
	"artshare/internal/session"
	"artshare/internal/storage"
)

// Error kinds sent to clients alongside the human-readable message.
const (
	kindMissingFields      = "missing_fields"
	kindAlreadyExists      = "already_exists"
	kindInvalidCredentials = "invalid_credentials"
	kindUnauthorized       = "unauthorized"
	kindNotFound           = "not_found"
	kindInternal           = "internal_error"
)

const ctxUserIDKey = "authUserID"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	artworks service.ArtworkService
	sessions *session.Manager
	storage  storage.Service
	bucket   string
	prefix   string
	logger   *logrus.Logger
}

func NewHandler(users service.UserService, artworks service.ArtworkService, sessions *session.Manager, store storage.Service, bucket, keyPrefix string, logger *logrus.Logger) *Handler {
	return &Handler{
		users:    users,
		artworks: artworks,
		sessions: sessions,
		storage:  store,
		bucket:   bucket,
		prefix:   keyPrefix,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.GET("/logout", h.logout)
		api.GET("/check-auth", h.checkAuth)
		api.POST("/artworks", h.requireAuth, h.createArtwork)
		api.GET("/artworks", h.listArtworks)
		api.GET("/artworks/:id", h.getArtwork)
		api.POST("/artworks/:id/like", h.requireAuth, h.toggleLike)
		api.GET("/profile", h.requireAuth, h.getProfile)
		api.PUT("/profile", h.requireAuth, h.updateProfile)
		api.POST("/media", h.requireAuth, h.uploadMedia)
		api.GET("/media", h.requireAuth, h.listMedia)
		api.DELETE("/media", h.requireAuth, h.deleteMedia)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// sessionToken extracts the opaque token the caller presented, if any.
func sessionToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// requireAuth rejects requests without a live session and stores the
// resolved user id on the request context.
func (h *Handler) requireAuth(c *gin.Context) {
	userID, ok := h.sessions.Resolve(sessionToken(c))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("authentication required", kindUnauthorized))
		return
	}
	c.Set(ctxUserIDKey, userID)
	c.Next()
}

// viewerID resolves the caller's session without requiring one.
func (h *Handler) viewerID(c *gin.Context) (int64, bool) {
	if v, exists := c.Get(ctxUserIDKey); exists {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	return h.sessions.Resolve(sessionToken(c))
}

func errorBody(msg, kind string) gin.H {
	return gin.H{"error": msg, "kind": kind}
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.WithError(err).Errorf("%s failed", op)
	c.JSON(http.StatusInternalServerError, errorBody("internal error", kindInternal))
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("missing required fields", kindMissingFields))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, errorBody("missing required fields", kindMissingFields))
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusBadRequest, errorBody("username or email already exists", kindAlreadyExists))
		default:
			h.internalError(c, "register", err)
		}
		return
	}

	token := h.sessions.Open(user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"user_id": user.ID,
		"token":   token,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("missing required fields", kindMissingFields))
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, errorBody("missing required fields", kindMissingFields))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// unknown username and wrong password produce the same body
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorBody("invalid credentials", kindInvalidCredentials))
			return
		}
		h.internalError(c, "login", err)
		return
	}

	token := h.sessions.Open(user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user_id": user.ID,
		"token":   token,
	})
}

func (h *Handler) logout(c *gin.Context) {
	h.sessions.Revoke(sessionToken(c))
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (h *Handler) checkAuth(c *gin.Context) {
	if userID, ok := h.viewerID(c); ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "user_id": userID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

type createArtworkRequest struct {
	Title       string   `json:"title"`
	ImageURL    string   `json:"image_url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
}

func (h *Handler) createArtwork(c *gin.Context) {
	var req createArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("missing required fields", kindMissingFields))
		return
	}

	ownerID := c.GetInt64(ctxUserIDKey)
	artwork, err := h.artworks.Create(c.Request.Context(), ownerID, service.CreateArtworkInput{
		Title:       req.Title,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Tags:        req.Tags,
		Category:    req.Category,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorBody("missing required fields", kindMissingFields))
			return
		}
		h.internalError(c, "create artwork", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "artwork created successfully",
		"artwork_id": artwork.ID,
	})
}

func (h *Handler) listArtworks(c *gin.Context) {
	// An absent limit pages by the default; an explicit limit, zero
	// included, is passed through as given.
	limit := service.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid limit", kindMissingFields))
			return
		}
		limit = parsed
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid offset", kindMissingFields))
		return
	}

	input := service.ListArtworksInput{
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid user_id", kindMissingFields))
			return
		}
		input.UserID = &userID
	}

	viewer, authenticated := h.viewerID(c)
	if authenticated {
		input.ViewerID = &viewer
	}

	artworks, err := h.artworks.List(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorBody(err.Error(), kindMissingFields))
			return
		}
		h.internalError(c, "list artworks", err)
		return
	}

	resp := make([]ArtworkResponse, len(artworks))
	for i := range artworks {
		resp[i] = artworkToResponse(artworks[i], authenticated)
	}
	c.JSON(http.StatusOK, gin.H{
		"artworks": resp,
		"count":    len(resp),
	})
}

func (h *Handler) getArtwork(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody("invalid artwork id", kindMissingFields))
		return
	}

	artwork, err := h.artworks.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("artwork not found", kindNotFound))
			return
		}
		h.internalError(c, "load artwork", err)
		return
	}

	viewer, authenticated := h.viewerID(c)
	if authenticated {
		liked, err := h.artworks.HasLiked(c.Request.Context(), viewer, id)
		if err != nil {
			h.internalError(c, "annotate artwork", err)
			return
		}
		artwork.Liked = liked
	}

	c.JSON(http.StatusOK, artworkToResponse(*artwork, authenticated))
}

func (h *Handler) toggleLike(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody("invalid artwork id", kindMissingFields))
		return
	}

	userID := c.GetInt64(ctxUserIDKey)
	liked, count, err := h.artworks.ToggleLike(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("artwork not found", kindNotFound))
			return
		}
		h.internalError(c, "toggle like", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "like toggled successfully",
		"liked":       liked,
		"likes_count": count,
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt64(ctxUserIDKey)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("user not found", kindNotFound))
			return
		}
		h.internalError(c, "load user", err)
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("profile not found", kindNotFound))
			return
		}
		h.internalError(c, "load profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"display_name": profile.DisplayName,
		"bio":          profile.Bio,
		"avatar_url":   profile.AvatarURL,
	})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("missing required fields", kindMissingFields))
		return
	}

	userID := c.GetInt64(ctxUserIDKey)
	err := h.users.UpdateProfile(c.Request.Context(), &domain.Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, errorBody("display name is required", kindMissingFields))
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, errorBody("profile not found", kindNotFound))
		default:
			h.internalError(c, "update profile", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully"})
}

func (h *Handler) uploadMedia(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusServiceUnavailable, errorBody("storage service not configured", kindInternal))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("file is required", kindMissingFields))
		return
	}

	src, err := file.Open()
	if err != nil {
		h.internalError(c, "open upload", err)
		return
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s%s", strings.Trim(h.prefix, "/"), uuid.NewString(), path.Ext(file.Filename))
	if _, err := h.storage.Upload(c.Request.Context(), storage.UploadInput{
		Bucket:      h.bucket,
		Key:         key,
		ContentType: file.Header.Get("Content-Type"),
		Body:        src,
	}); err != nil {
		h.internalError(c, "upload media", err)
		return
	}

	url, err := h.storage.GetObjectURL(c.Request.Context(), h.bucket, key, 7*24*time.Hour)
	if err != nil {
		h.internalError(c, "presign media", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url, "key": key})
}

func (h *Handler) listMedia(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusServiceUnavailable, errorBody("storage service not configured", kindInternal))
		return
	}

	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, strings.Trim(h.prefix, "/"))
	if err != nil {
		h.internalError(c, "list media", err)
		return
	}

	resp := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		item := gin.H{"key": obj.Key, "size": obj.Size}
		if obj.LastModified != nil {
			item["last_modified"] = obj.LastModified.Format(time.RFC3339)
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, gin.H{
		"objects": resp,
		"count":   len(resp),
	})
}

func (h *Handler) deleteMedia(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusServiceUnavailable, errorBody("storage service not configured", kindInternal))
		return
	}

	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, errorBody("key is required", kindMissingFields))
		return
	}

	if err := h.storage.DeleteObject(c.Request.Context(), h.bucket, key); err != nil {
		h.internalError(c, "delete media", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "object deleted successfully", "key": key})
}

type ArtworkResponse struct {
	ID          int64    `json:"id"`
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Title       string   `json:"title"`
	ImageURL    string   `json:"image_url"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	LikesCount  int64    `json:"likes_count"`
	CreatedAt   string   `json:"created_at"`
	Liked       *bool    `json:"liked,omitempty"`
}

func artworkToResponse(artwork domain.Artwork, annotated bool) ArtworkResponse {
	resp := ArtworkResponse{
		ID:          artwork.ID,
		UserID:      artwork.UserID,
		Username:    artwork.Username,
		DisplayName: artwork.DisplayName,
		Title:       artwork.Title,
		ImageURL:    artwork.ImageURL,
		Description: artwork.Description,
		Tags:        artwork.Tags,
		Category:    artwork.Category,
		LikesCount:  artwork.LikesCount,
		CreatedAt:   artwork.CreatedAt.Format(time.RFC3339),
	}
	if annotated {
		liked := artwork.Liked
		resp.Liked = &liked
	}
	return resp
}
