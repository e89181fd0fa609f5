package admin

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

// Repository handles admin account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an admin repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByUsername returns the admin with the given username, or nil.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	const q = `SELECT id, username, password_hash, role, created_at FROM admins WHERE username = $1`
	var a models.Admin
	err := r.pool.QueryRow(ctx, q, username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an admin account (used by the seed command).
func (r *Repository) Create(ctx context.Context, a *models.Admin) error {
	const q = `INSERT INTO admins (id, username, password_hash, role)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, a.Username, a.PasswordHash, a.Role).
		Scan(&a.ID, &a.CreatedAt)
}
