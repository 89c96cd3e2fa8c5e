package social

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/auth"
	"github.com/chirpd/microblog/internal/httpx"
	"github.com/chirpd/microblog/internal/models"
)

// SocialApp defines what the service layer needs from the social application.
type SocialApp interface {
	Follow(ctx context.Context, actorID, targetID int64) error
	Unfollow(ctx context.Context, actorID, targetID int64) error
	Followers(ctx context.Context, userID int64) ([]models.UserSummary, error)
	Following(ctx context.Context, userID int64) ([]models.UserSummary, error)
}

// Service exposes the follow graph over HTTP.
type Service struct {
	app SocialApp
}

// NewService creates a new social HTTP service.
func NewService(app SocialApp) *Service {
	return &Service{app: app}
}

// Follow handles POST /users/{id}/follow.
func (s *Service) Follow(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperrors.Unauthorized("could not validate credentials"))
		return
	}
	targetID, err := userIDVar(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := s.app.Follow(r.Context(), identity.UserID, targetID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// Unfollow handles POST /users/{id}/unfollow.
func (s *Service) Unfollow(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperrors.Unauthorized("could not validate credentials"))
		return
	}
	targetID, err := userIDVar(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := s.app.Unfollow(r.Context(), identity.UserID, targetID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// Followers handles GET /users/{id}/followers.
func (s *Service) Followers(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDVar(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	followers, err := s.app.Followers(r.Context(), userID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, followers)
}

// Following handles GET /users/{id}/following.
func (s *Service) Following(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDVar(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	following, err := s.app.Following(r.Context(), userID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, following)
}

func userIDVar(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, apperrors.BadRequest("invalid user id")
	}
	return id, nil
}
