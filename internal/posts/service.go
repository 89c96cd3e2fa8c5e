package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/auth"
	"github.com/chirpd/microblog/internal/httpx"
	"github.com/chirpd/microblog/internal/models"
)

// PostsApp defines what the service layer needs from the posts application.
type PostsApp interface {
	Create(ctx context.Context, ownerID int64, req CreatePostRequest) (*models.Post, error)
	Get(ctx context.Context, postID int64) (*models.Post, error)
	Update(ctx context.Context, actorID, postID int64, req UpdatePostRequest) (*models.Post, error)
	Delete(ctx context.Context, actorID, postID int64) error
	List(ctx context.Context, skip, limit int) ([]models.Post, error)
	ListWithCounts(ctx context.Context, skip, limit int) ([]models.PostWithCounts, error)
	Like(ctx context.Context, actorID, postID int64) error
	Unlike(ctx context.Context, actorID, postID int64) error
	Retweet(ctx context.Context, actorID, postID int64) error
	Unretweet(ctx context.Context, actorID, postID int64) error
}

// Service exposes the post store over HTTP.
type Service struct {
	app PostsApp
}

// NewService creates a new posts HTTP service.
func NewService(app PostsApp) *Service {
	return &Service{app: app}
}

// List handles GET /posts/?skip=&limit=.
func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	list, err := s.app.List(r.Context(), skip, limit)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// ListWithCounts handles GET /posts/with_counts/.
func (s *Service) ListWithCounts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	list, err := s.app.ListWithCounts(r.Context(), skip, limit)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Get handles GET /posts/{id}.
func (s *Service) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := postIDVar(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	post, err := s.app.Get(r.Context(), postID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

// Create handles POST /posts/.
func (s *Service) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperrors.Unauthorized("could not validate credentials"))
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, apperrors.BadRequest("invalid request body"))
		return
	}

	post, err := s.app.Create(r.Context(), identity.UserID, req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

// Update handles PUT /posts/{id}.
func (s *Service) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperrors.Unauthorized("could not validate credentials"))
		return
	}
	postID, err := postIDVar(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, apperrors.BadRequest("invalid request body"))
		return
	}

	post, err := s.app.Update(r.Context(), identity.UserID, postID, req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}.
func (s *Service) Delete(w http.ResponseWriter, r *http.Request) {
	s.engagementAction(w, r, s.app.Delete)
}

// Like handles POST /posts/{id}/like.
func (s *Service) Like(w http.ResponseWriter, r *http.Request) {
	s.engagementAction(w, r, s.app.Like)
}

// Unlike handles POST /posts/{id}/unlike.
func (s *Service) Unlike(w http.ResponseWriter, r *http.Request) {
	s.engagementAction(w, r, s.app.Unlike)
}

// Retweet handles POST /posts/{id}/retweet.
func (s *Service) Retweet(w http.ResponseWriter, r *http.Request) {
	s.engagementAction(w, r, s.app.Retweet)
}

// Unretweet handles POST /posts/{id}/unretweet.
func (s *Service) Unretweet(w http.ResponseWriter, r *http.Request) {
	s.engagementAction(w, r, s.app.Unretweet)
}

// engagementAction runs an (actor, post) operation shared by delete and the
// four like/retweet handlers: authenticated actor, {id} path var, 204 reply.
func (s *Service) engagementAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, actorID, postID int64) error,
) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperrors.Unauthorized("could not validate credentials"))
		return
	}
	postID, err := postIDVar(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := action(r.Context(), identity.UserID, postID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

func postIDVar(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, apperrors.BadRequest("invalid post id")
	}
	return id, nil
}

func pageParams(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return skip, limit
}
