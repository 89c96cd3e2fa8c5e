package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/models"
	"github.com/chirpd/microblog/internal/sqlutil"
)

// Repository implements user data access over Postgres. Constraint failures
// are translated into domain errors here so the app layer never inspects
// driver errors.
type Repository struct {
	db *sql.DB
	q  sqlutil.DBTX
}

// NewRepository creates a new users repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

func (r *Repository) withTx(tx *sql.Tx) *Repository {
	return &Repository{db: r.db, q: tx}
}

// Tx runs fn against a repository bound to a single transaction.
func (r *Repository) Tx(ctx context.Context, fn func(UsersRepository) error) error {
	return sqlutil.RunTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(r.withTx(tx))
	})
}

// CreateUser inserts a new user. A uniqueness violation on username or
// email surfaces as Conflict, so exactly one of two concurrent duplicate
// registrations succeeds.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, password_hash, created_at`

	var u models.User
	err := r.q.QueryRowContext(ctx, q, username, email, passwordHash).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("username already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1`

	var u models.User
	err := r.q.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	const q = `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1`

	var u models.User
	err := r.q.QueryRowContext(ctx, q, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}
