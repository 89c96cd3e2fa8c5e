package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/models"
	"github.com/chirpd/microblog/internal/monitoring"
)

const maxUsernameLen = 50

// UsersRepository defines what the app layer needs from the repository.
type UsersRepository interface {
	Tx(ctx context.Context, fn func(UsersRepository) error) error
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// App handles credential-store business logic.
type App struct {
	repo UsersRepository
}

// NewApp creates a new users App.
func NewApp(repo UsersRepository) *App {
	return &App{repo: repo}
}

// Register creates a new account. The plaintext password is hashed before it
// reaches the repository and is never stored or logged.
func (a *App) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *models.User
	err = a.repo.Tx(ctx, func(r UsersRepository) error {
		created, err := r.CreateUser(ctx, req.Username, req.Email, string(hash))
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.Registrations.Inc()
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords return the identical error so callers cannot probe for
// registered usernames.
func (a *App) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			monitoring.LoginFailure.WithLabelValues("unknown_user").Inc()
			return nil, incorrectCredentials()
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		monitoring.LoginFailure.WithLabelValues("wrong_password").Inc()
		return nil, incorrectCredentials()
	}

	monitoring.LoginSuccess.Inc()
	return user, nil
}

// GetByID retrieves a user by id.
func (a *App) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return a.repo.GetByID(ctx, id)
}

// GetByUsername retrieves a user by username.
func (a *App) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return a.repo.GetByUsername(ctx, username)
}

func incorrectCredentials() error {
	return apperrors.Unauthorized("incorrect username or password")
}

func validateRegisterRequest(req RegisterRequest) error {
	if req.Username == "" {
		return apperrors.BadRequest("username is required")
	}
	if utf8.RuneCountInString(req.Username) > maxUsernameLen {
		return apperrors.BadRequest(fmt.Sprintf("username must be at most %d characters", maxUsernameLen))
	}
	if req.Email == "" {
		return apperrors.BadRequest("email is required")
	}
	if !strings.Contains(req.Email, "@") || !strings.Contains(req.Email, ".") {
		return apperrors.BadRequest("email format is invalid")
	}
	if req.Password == "" {
		return apperrors.BadRequest("password is required")
	}
	return nil
}
