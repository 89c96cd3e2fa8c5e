// Package social owns the directed follow graph between users.
package social

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/models"
	"github.com/chirpd/microblog/internal/sqlutil"
)

// Repository implements follow-edge data access. The edge set is a composite
// primary key table, so existence checks and duplicate detection are index
// lookups, and the database arbitrates concurrent duplicate inserts.
type Repository struct {
	db *sql.DB
	q  sqlutil.DBTX
}

// NewRepository creates a new social graph repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

func (r *Repository) withTx(tx *sql.Tx) *Repository {
	return &Repository{db: r.db, q: tx}
}

// Tx runs fn against a repository bound to a single transaction.
func (r *Repository) Tx(ctx context.Context, fn func(SocialRepository) error) error {
	return sqlutil.RunTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(r.withTx(tx))
	})
}

// CreateFollow inserts a follow edge. Constraint failures map to the domain
// errors the operation contract promises: a duplicate edge and a self-follow
// are business-rule violations, an unknown user is absent.
func (r *Repository) CreateFollow(ctx context.Context, followerID, followeeID int64) error {
	const q = `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)`

	if _, err := r.q.ExecContext(ctx, q, followerID, followeeID); err != nil {
		switch {
		case sqlutil.IsUniqueViolation(err):
			return apperrors.BadRequest("already following this user")
		case sqlutil.IsCheckViolation(err):
			return apperrors.BadRequest("cannot follow yourself")
		case sqlutil.IsForeignKeyViolation(err):
			return apperrors.NotFound("user not found")
		}
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

// DeleteFollow removes a follow edge. Removing an absent edge is a
// business-rule violation, not a no-op.
func (r *Repository) DeleteFollow(ctx context.Context, followerID, followeeID int64) error {
	const q = `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`

	res, err := r.q.ExecContext(ctx, q, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if affected == 0 {
		return apperrors.BadRequest("not following this user")
	}
	return nil
}

// Followers returns the users following userID.
func (r *Repository) Followers(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	const q = `
		SELECT u.id, u.username
		FROM users u
		JOIN follows f ON f.follower_id = u.id
		WHERE f.followee_id = $1
		ORDER BY u.username`

	return r.queryUserSummaries(ctx, q, userID)
}

// Following returns the users that userID follows.
func (r *Repository) Following(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	const q = `
		SELECT u.id, u.username
		FROM users u
		JOIN follows f ON f.followee_id = u.id
		WHERE f.follower_id = $1
		ORDER BY u.username`

	return r.queryUserSummaries(ctx, q, userID)
}

func (r *Repository) queryUserSummaries(ctx context.Context, query string, userID int64) ([]models.UserSummary, error) {
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer rows.Close()

	neighbors := make([]models.UserSummary, 0)
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		neighbors = append(neighbors, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return neighbors, nil
}
