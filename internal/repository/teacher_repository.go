package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// TeacherRepository persists teacher records.
type TeacherRepository interface {
	// CreateWithUser inserts the account and the teacher record atomically.
	CreateWithUser(ctx context.Context, user *domain.User, teacher *domain.Teacher) error
	GetByID(ctx context.Context, id string) (*domain.TeacherView, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Teacher, error)
	List(ctx context.Context, offset, limit int) ([]domain.TeacherView, int, error)
	AttendanceStats(ctx context.Context, teacherID string) (domain.AttendanceStats, error)
}

type teacherRepository struct {
	db DBTX
}

// NewTeacherRepository returns a Postgres-backed implementation.
func NewTeacherRepository(db DBTX) TeacherRepository {
	return &teacherRepository{db: db}
}

const teacherViewQuery = `
        SELECT t.id, t.user_id, t.specialty, t.created_by, t.created_at, t.updated_at,
               u.first_name, u.last_name, u.email, u.active
        FROM teachers t
        JOIN users u ON u.id = t.user_id`

func (r *teacherRepository) CreateWithUser(ctx context.Context, user *domain.User, teacher *domain.Teacher) error {
	const query = `
        INSERT INTO teachers (id, user_id, specialty, created_by)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		if teacher.ID == "" {
			teacher.ID = uuid.NewString()
		}
		teacher.UserID = user.ID
		err := tx.QueryRow(ctx, query, teacher.ID, teacher.UserID, teacher.Specialty, teacher.CreatedBy).
			Scan(&teacher.CreatedAt, &teacher.UpdatedAt)
		return mapWriteError(err)
	})
}

func (r *teacherRepository) GetByID(ctx context.Context, id string) (*domain.TeacherView, error) {
	if !validIDs(id) {
		return nil, pgx.ErrNoRows
	}
	return scanTeacherView(r.db.QueryRow(ctx, teacherViewQuery+` WHERE t.id=$1`, id))
}

func (r *teacherRepository) GetByUserID(ctx context.Context, userID string) (*domain.Teacher, error) {
	if !validIDs(userID) {
		return nil, pgx.ErrNoRows
	}
	view, err := scanTeacherView(r.db.QueryRow(ctx, teacherViewQuery+` WHERE t.user_id=$1`, userID))
	if err != nil {
		return nil, err
	}
	return &view.Teacher, nil
}

func (r *teacherRepository) List(ctx context.Context, offset, limit int) ([]domain.TeacherView, int, error) {
	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM teachers`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, teacherViewQuery+` ORDER BY u.last_name, u.first_name, t.id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	teachers, err := collect(rows, limit, scanTeacherView)
	if err != nil {
		return nil, 0, err
	}
	return teachers, total, nil
}

func (r *teacherRepository) AttendanceStats(ctx context.Context, teacherID string) (domain.AttendanceStats, error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE present),
               COUNT(*) FILTER (WHERE NOT present AND NOT justified),
               COUNT(*) FILTER (WHERE NOT present AND justified)
        FROM teacher_attendance
        WHERE teacher_id=$1`

	return scanAttendanceStats(r.db.QueryRow(ctx, query, teacherID))
}

func scanTeacherView(row pgx.Row) (*domain.TeacherView, error) {
	var view domain.TeacherView
	if err := row.Scan(
		&view.ID,
		&view.UserID,
		&view.Specialty,
		&view.CreatedBy,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.Member.FirstName,
		&view.Member.LastName,
		&view.Member.Email,
		&view.Member.Active,
	); err != nil {
		return nil, err
	}
	view.Member.UserID = view.UserID
	return &view, nil
}
