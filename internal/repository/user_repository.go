package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// UserRepository defines persistence access for user accounts.
// Lookups of missing rows return pgx.ErrNoRows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetProfile(ctx context.Context, id string) (*domain.UserProfile, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, role, active, created_by, updated_by, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return insertUser(ctx, r.db, user)
}

// insertUser is shared with the student and teacher repositories, which
// create the account and its role record in one transaction.
func insertUser(ctx context.Context, db DBTX, user *domain.User) error {
	const query = `
        INSERT INTO users (id, first_name, last_name, email, password_hash, role, active, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := db.QueryRow(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Active,
		user.CreatedBy,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapWriteError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validIDs(id) {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	const query = `
        SELECT u.id, u.first_name, u.last_name, u.email, u.password_hash, u.role, u.active,
               u.created_by, u.updated_by, u.created_at, u.updated_at,
               c.last_name || ' ' || c.first_name
        FROM users u
        LEFT JOIN users c ON c.id = u.created_by
        WHERE u.id=$1`

	if !validIDs(id) {
		return nil, pgx.ErrNoRows
	}
	var profile domain.UserProfile
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Email,
		&profile.PasswordHash,
		&profile.Role,
		&profile.Active,
		&profile.CreatedBy,
		&profile.UpdatedBy,
		&profile.CreatedAt,
		&profile.UpdatedAt,
		&profile.CreatedByName,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.CreatedBy,
		&user.UpdatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
