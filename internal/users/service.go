package users

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/auth"
	"github.com/chirpd/microblog/internal/httpx"
	"github.com/chirpd/microblog/internal/models"
)

// UsersApp defines what the service layer needs from the users application.
type UsersApp interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// Service exposes registration and login over HTTP.
type Service struct {
	app    UsersApp
	tokens *auth.TokenService
}

// NewService creates a new users HTTP service.
func NewService(app UsersApp, tokens *auth.TokenService) *Service {
	return &Service{app: app, tokens: tokens}
}

// Register handles POST /users/.
func (s *Service) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, apperrors.BadRequest("invalid request body"))
		return
	}

	user, err := s.app.Register(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, user)
}

// Login handles POST /token. Credentials arrive as form fields, the response
// is a bearer token valid for the login TTL.
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Error(w, apperrors.BadRequest("invalid form body"))
		return
	}

	user, err := s.app.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		httpx.Error(w, err)
		return
	}

	token, err := s.tokens.Issue(user.Username, auth.LoginTokenTTL)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
