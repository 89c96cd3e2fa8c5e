// Package posts owns user posts, their like/retweet engagement and the
// aggregated feed.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/models"
	"github.com/chirpd/microblog/internal/sqlutil"
)

// Repository implements post and engagement data access over Postgres.
type Repository struct {
	db *sql.DB
	q  sqlutil.DBTX
}

// NewRepository creates a new posts repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

func (r *Repository) withTx(tx *sql.Tx) *Repository {
	return &Repository{db: r.db, q: tx}
}

// Tx runs fn against a repository bound to a single transaction.
func (r *Repository) Tx(ctx context.Context, fn func(PostsRepository) error) error {
	return sqlutil.RunTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(r.withTx(tx))
	})
}

// CreatePost inserts a new post with the given creation time.
func (r *Repository) CreatePost(ctx context.Context, ownerID int64, content string, createdAt time.Time) (*models.Post, error) {
	const q = `
		INSERT INTO posts (content, owner_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, content, owner_id, created_at`

	var p models.Post
	err := r.q.QueryRowContext(ctx, q, content, ownerID, createdAt).
		Scan(&p.ID, &p.Content, &p.OwnerID, &p.Timestamp)
	if err != nil {
		if sqlutil.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &p, nil
}

// GetPost retrieves a post by id.
func (r *Repository) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	const q = `SELECT id, content, owner_id, created_at FROM posts WHERE id = $1`

	var p models.Post
	err := r.q.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Content, &p.OwnerID, &p.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// UpdateContent replaces a post's content.
func (r *Repository) UpdateContent(ctx context.Context, id int64, content string) (*models.Post, error) {
	const q = `
		UPDATE posts
		SET content = $2
		WHERE id = $1
		RETURNING id, content, owner_id, created_at`

	var p models.Post
	err := r.q.QueryRowContext(ctx, q, id, content).
		Scan(&p.ID, &p.Content, &p.OwnerID, &p.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &p, nil
}

// DeletePost removes a post. Its likes and retweets go with it via the
// storage-level cascade.
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	const q = `DELETE FROM posts WHERE id = $1`

	res, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// ListPosts returns posts newest first, paginated by offset and limit.
func (r *Repository) ListPosts(ctx context.Context, skip, limit int) ([]models.Post, error) {
	const q = `
		SELECT id, content, owner_id, created_at
		FROM posts
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`

	rows, err := r.q.QueryContext(ctx, q, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	list := make([]models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Content, &p.OwnerID, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return list, nil
}

// ListWithCounts returns posts newest first with per-post engagement counts
// and the owner's username. Likes and retweets are grouped by post in two
// independent subqueries, then left-joined onto the post set with the counts
// coalesced to zero, so posts with no engagement are never dropped.
func (r *Repository) ListWithCounts(ctx context.Context, skip, limit int) ([]models.PostWithCounts, error) {
	const q = `
		SELECT p.id, p.content, p.owner_id, p.created_at,
		       u.username AS owner_username,
		       COALESCE(l.likes_count, 0) AS likes_count,
		       COALESCE(rt.retweets_count, 0) AS retweets_count
		FROM posts p
		JOIN users u ON u.id = p.owner_id
		LEFT JOIN (
			SELECT post_id, COUNT(user_id) AS likes_count
			FROM likes
			GROUP BY post_id
		) l ON l.post_id = p.id
		LEFT JOIN (
			SELECT post_id, COUNT(user_id) AS retweets_count
			FROM retweets
			GROUP BY post_id
		) rt ON rt.post_id = p.id
		ORDER BY p.created_at DESC, p.id DESC
		OFFSET $1 LIMIT $2`

	rows, err := r.q.QueryContext(ctx, q, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts with counts: %w", err)
	}
	defer rows.Close()

	list := make([]models.PostWithCounts, 0)
	for rows.Next() {
		var p models.PostWithCounts
		err := rows.Scan(&p.ID, &p.Content, &p.OwnerID, &p.Timestamp,
			&p.OwnerUsername, &p.LikesCount, &p.RetweetsCount)
		if err != nil {
			return nil, fmt.Errorf("scan post with counts: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts with counts: %w", err)
	}
	return list, nil
}

// CreateLike records that a user liked a post. The composite key rejects
// duplicates so two concurrent likes of the same pair store exactly one row.
func (r *Repository) CreateLike(ctx context.Context, userID, postID int64) error {
	const q = `INSERT INTO likes (user_id, post_id) VALUES ($1, $2)`

	if _, err := r.q.ExecContext(ctx, q, userID, postID); err != nil {
		switch {
		case sqlutil.IsUniqueViolation(err):
			return apperrors.BadRequest("already liked")
		case sqlutil.IsForeignKeyViolation(err):
			return apperrors.NotFound("post not found")
		}
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

// DeleteLike removes a like.
func (r *Repository) DeleteLike(ctx context.Context, userID, postID int64) error {
	const q = `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`

	res, err := r.q.ExecContext(ctx, q, userID, postID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if affected == 0 {
		return apperrors.BadRequest("not liked yet")
	}
	return nil
}

// CreateRetweet records that a user retweeted a post at the given time.
func (r *Repository) CreateRetweet(ctx context.Context, userID, postID int64, createdAt time.Time) error {
	const q = `INSERT INTO retweets (user_id, post_id, created_at) VALUES ($1, $2, $3)`

	if _, err := r.q.ExecContext(ctx, q, userID, postID, createdAt); err != nil {
		switch {
		case sqlutil.IsUniqueViolation(err):
			return apperrors.BadRequest("already retweeted")
		case sqlutil.IsForeignKeyViolation(err):
			return apperrors.NotFound("post not found")
		}
		return fmt.Errorf("create retweet: %w", err)
	}
	return nil
}

// DeleteRetweet removes a retweet.
func (r *Repository) DeleteRetweet(ctx context.Context, userID, postID int64) error {
	const q = `DELETE FROM retweets WHERE user_id = $1 AND post_id = $2`

	res, err := r.q.ExecContext(ctx, q, userID, postID)
	if err != nil {
		return fmt.Errorf("delete retweet: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete retweet: %w", err)
	}
	if affected == 0 {
		return apperrors.BadRequest("not retweeted yet")
	}
	return nil
}
