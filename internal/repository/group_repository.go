package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// GroupRepository persists student groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	Update(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context, offset, limit int) ([]domain.Group, int, error)
}

type groupRepository struct {
	db DBTX
}

// NewGroupRepository returns a Postgres-backed implementation.
func NewGroupRepository(db DBTX) GroupRepository {
	return &groupRepository{db: db}
}

const groupColumns = `id, name, description, parent_id, active, created_by, updated_by, created_at, updated_at`

func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	const query = `
        INSERT INTO groups (id, name, description, parent_id, active, created_by)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.ParentID,
		group.Active,
		group.CreatedBy,
	).Scan(&group.CreatedAt, &group.UpdatedAt)
	return mapWriteError(err)
}

func (r *groupRepository) Update(ctx context.Context, group *domain.Group) error {
	if !validIDs(group.ID) {
		return pgx.ErrNoRows
	}
	const query = `
        UPDATE groups SET name=$1, description=$2, parent_id=$3, active=$4, updated_by=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		group.Name,
		group.Description,
		group.ParentID,
		group.Active,
		group.UpdatedBy,
		group.ID,
	).Scan(&group.UpdatedAt)
	return mapWriteError(err)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if !validIDs(id) {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id=$1`
	return scanGroup(r.db.QueryRow(ctx, query, id))
}

func (r *groupRepository) List(ctx context.Context, offset, limit int) ([]domain.Group, int, error) {
	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM groups`)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + groupColumns + ` FROM groups ORDER BY name OFFSET $1 LIMIT $2`
	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	groups, err := collect(rows, limit, scanGroup)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var group domain.Group
	if err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.ParentID,
		&group.Active,
		&group.CreatedBy,
		&group.UpdatedBy,
		&group.CreatedAt,
		&group.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &group, nil
}
