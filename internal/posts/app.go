package posts

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/models"
	"github.com/chirpd/microblog/internal/monitoring"
)

const (
	// editWindow is how long after creation a post's content may change.
	editWindow = 10 * time.Minute

	maxContentLen    = 280
	defaultListLimit = 10
	maxListLimit     = 100
)

// PostsRepository defines what the app layer needs from the repository.
type PostsRepository interface {
	Tx(ctx context.Context, fn func(PostsRepository) error) error
	CreatePost(ctx context.Context, ownerID int64, content string, createdAt time.Time) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	UpdateContent(ctx context.Context, id int64, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context, skip, limit int) ([]models.Post, error)
	ListWithCounts(ctx context.Context, skip, limit int) ([]models.PostWithCounts, error)
	CreateLike(ctx context.Context, userID, postID int64) error
	DeleteLike(ctx context.Context, userID, postID int64) error
	CreateRetweet(ctx context.Context, userID, postID int64, createdAt time.Time) error
	DeleteRetweet(ctx context.Context, userID, postID int64) error
}

// App handles post-store business logic: ownership, the edit window and the
// engagement rules.
type App struct {
	repo  PostsRepository
	clock clockwork.Clock
}

// NewApp creates a new posts App.
func NewApp(repo PostsRepository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// Create stores a new post owned by ownerID.
func (a *App) Create(ctx context.Context, ownerID int64, req CreatePostRequest) (*models.Post, error) {
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	var post *models.Post
	err := a.repo.Tx(ctx, func(r PostsRepository) error {
		created, err := r.CreatePost(ctx, ownerID, req.Content, a.clock.Now().UTC())
		if err != nil {
			return err
		}
		post = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.PostsCreated.Inc()
	log.Info().Int64("post_id", post.ID).Int64("owner_id", ownerID).Msg("post created")
	return post, nil
}

// Get retrieves a single post.
func (a *App) Get(ctx context.Context, postID int64) (*models.Post, error) {
	return a.repo.GetPost(ctx, postID)
}

// Update edits a post's content. Only the owner may edit, and only while the
// edit window is open; at or past ten minutes after creation the edit is
// rejected.
func (a *App) Update(ctx context.Context, actorID, postID int64, req UpdatePostRequest) (*models.Post, error) {
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	var post *models.Post
	err := a.repo.Tx(ctx, func(r PostsRepository) error {
		existing, err := r.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if existing.OwnerID != actorID {
			return apperrors.Forbidden("not authorized to edit this post")
		}
		if a.clock.Now().Sub(existing.Timestamp) >= editWindow {
			return apperrors.Forbidden("edit window expired")
		}

		updated, err := r.UpdateContent(ctx, postID, req.Content)
		if err != nil {
			return err
		}
		post = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("post_id", postID).Msg("post updated")
	return post, nil
}

// Delete removes a post the actor owns. A post that is absent and a post
// owned by someone else report the same error, so ownership is never
// disclosed to non-owners.
func (a *App) Delete(ctx context.Context, actorID, postID int64) error {
	err := a.repo.Tx(ctx, func(r PostsRepository) error {
		existing, err := r.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if existing.OwnerID != actorID {
			return apperrors.NotFound("post not found")
		}
		return r.DeletePost(ctx, postID)
	})
	if err != nil {
		return err
	}

	log.Info().Int64("post_id", postID).Msg("post deleted")
	return nil
}

// List returns posts newest first, paginated by skip/limit.
func (a *App) List(ctx context.Context, skip, limit int) ([]models.Post, error) {
	skip, limit = normalizePage(skip, limit)
	return a.repo.ListPosts(ctx, skip, limit)
}

// ListWithCounts returns posts newest first with engagement counts.
func (a *App) ListWithCounts(ctx context.Context, skip, limit int) ([]models.PostWithCounts, error) {
	skip, limit = normalizePage(skip, limit)
	return a.repo.ListWithCounts(ctx, skip, limit)
}

// Like records that the actor liked a post. Liking twice is an error, not a
// no-op.
func (a *App) Like(ctx context.Context, actorID, postID int64) error {
	err := a.repo.Tx(ctx, func(r PostsRepository) error {
		if _, err := r.GetPost(ctx, postID); err != nil {
			return err
		}
		return r.CreateLike(ctx, actorID, postID)
	})
	if err != nil {
		return err
	}

	monitoring.Engagements.WithLabelValues("like").Inc()
	return nil
}

// Unlike removes the actor's like from a post.
func (a *App) Unlike(ctx context.Context, actorID, postID int64) error {
	err := a.repo.Tx(ctx, func(r PostsRepository) error {
		if _, err := r.GetPost(ctx, postID); err != nil {
			return err
		}
		return r.DeleteLike(ctx, actorID, postID)
	})
	if err != nil {
		return err
	}

	monitoring.Engagements.WithLabelValues("unlike").Inc()
	return nil
}

// Retweet records that the actor retweeted a post.
func (a *App) Retweet(ctx context.Context, actorID, postID int64) error {
	err := a.repo.Tx(ctx, func(r PostsRepository) error {
		if _, err := r.GetPost(ctx, postID); err != nil {
			return err
		}
		return r.CreateRetweet(ctx, actorID, postID, a.clock.Now().UTC())
	})
	if err != nil {
		return err
	}

	monitoring.Engagements.WithLabelValues("retweet").Inc()
	return nil
}

// Unretweet removes the actor's retweet from a post.
func (a *App) Unretweet(ctx context.Context, actorID, postID int64) error {
	err := a.repo.Tx(ctx, func(r PostsRepository) error {
		if _, err := r.GetPost(ctx, postID); err != nil {
			return err
		}
		return r.DeleteRetweet(ctx, actorID, postID)
	})
	if err != nil {
		return err
	}

	monitoring.Engagements.WithLabelValues("unretweet").Inc()
	return nil
}

func validateContent(content string) error {
	if content == "" {
		return apperrors.BadRequest("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return apperrors.BadRequest(fmt.Sprintf("content must be at most %d characters", maxContentLen))
	}
	return nil
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return skip, limit
}
