package social

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/models"
)

// SocialRepository defines what the app layer needs from the repository.
type SocialRepository interface {
	Tx(ctx context.Context, fn func(SocialRepository) error) error
	CreateFollow(ctx context.Context, followerID, followeeID int64) error
	DeleteFollow(ctx context.Context, followerID, followeeID int64) error
	Followers(ctx context.Context, userID int64) ([]models.UserSummary, error)
	Following(ctx context.Context, userID int64) ([]models.UserSummary, error)
}

// UserGetter is the slice of the users app the social graph depends on.
type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// App handles follow-graph business logic.
type App struct {
	repo  SocialRepository
	users UserGetter
}

// NewApp creates a new social App.
func NewApp(repo SocialRepository, users UserGetter) *App {
	return &App{repo: repo, users: users}
}

// Follow creates the actor->target edge. Self-follows and duplicate edges
// are rejected; the duplicate check is ultimately the composite key, so two
// concurrent follows of the same pair produce exactly one edge.
func (a *App) Follow(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return apperrors.BadRequest("cannot follow yourself")
	}
	if _, err := a.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	err := a.repo.Tx(ctx, func(r SocialRepository) error {
		return r.CreateFollow(ctx, actorID, targetID)
	})
	if err != nil {
		return err
	}

	log.Info().Int64("follower_id", actorID).Int64("followee_id", targetID).Msg("follow created")
	return nil
}

// Unfollow removes the actor->target edge.
func (a *App) Unfollow(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return apperrors.BadRequest("cannot unfollow yourself")
	}
	if _, err := a.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	err := a.repo.Tx(ctx, func(r SocialRepository) error {
		return r.DeleteFollow(ctx, actorID, targetID)
	})
	if err != nil {
		return err
	}

	log.Info().Int64("follower_id", actorID).Int64("followee_id", targetID).Msg("follow removed")
	return nil
}

// Followers lists the users following userID.
func (a *App) Followers(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	if _, err := a.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return a.repo.Followers(ctx, userID)
}

// Following lists the users that userID follows.
func (a *App) Following(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	if _, err := a.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return a.repo.Following(ctx, userID)
}
