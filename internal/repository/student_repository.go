package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// StudentRepository persists student records and their group memberships.
// Lookups of missing rows return pgx.ErrNoRows; writes naming an unknown
// group return ErrMissingReference.
type StudentRepository interface {
	// CreateWithUser inserts the account and the student record atomically.
	CreateWithUser(ctx context.Context, user *domain.User, student *domain.Student) error
	Create(ctx context.Context, student *domain.Student) error
	GetByID(ctx context.Context, id string) (*domain.StudentView, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Student, error)
	List(ctx context.Context, offset, limit int) ([]domain.StudentView, int, error)
	ListGroups(ctx context.Context, studentID string, offset, limit int) ([]domain.Group, int, error)
	AddGroups(ctx context.Context, studentID string, groupIDs []string) error
	RemoveGroups(ctx context.Context, studentID string, groupIDs []string) error
	// JoinGroup adds every listed student to groupID and returns how many
	// memberships were new.
	JoinGroup(ctx context.Context, groupID string, studentIDs []string) (int, error)
	IDsInGroups(ctx context.Context, groupIDs []string) ([]string, error)
	AttendanceStats(ctx context.Context, studentID string) (domain.AttendanceStats, error)
}

type studentRepository struct {
	db DBTX
}

// NewStudentRepository returns a Postgres-backed implementation.
func NewStudentRepository(db DBTX) StudentRepository {
	return &studentRepository{db: db}
}

const studentViewQuery = `
        SELECT s.id, s.user_id, s.created_at,
               ARRAY(SELECT sg.group_id::text FROM student_groups sg WHERE sg.student_id = s.id ORDER BY sg.group_id),
               u.first_name, u.last_name, u.email, u.active
        FROM students s
        JOIN users u ON u.id = s.user_id`

func (r *studentRepository) CreateWithUser(ctx context.Context, user *domain.User, student *domain.Student) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		student.UserID = user.ID
		return insertStudent(ctx, tx, student)
	})
}

func (r *studentRepository) Create(ctx context.Context, student *domain.Student) error {
	if !validIDs(student.UserID) {
		return ErrMissingReference
	}
	return insertStudent(ctx, r.db, student)
}

func insertStudent(ctx context.Context, db DBTX, student *domain.Student) error {
	const query = `INSERT INTO students (id, user_id) VALUES ($1, $2) RETURNING created_at`

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	err := db.QueryRow(ctx, query, student.ID, student.UserID).Scan(&student.CreatedAt)
	return mapWriteError(err)
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.StudentView, error) {
	if !validIDs(id) {
		return nil, pgx.ErrNoRows
	}
	return scanStudentView(r.db.QueryRow(ctx, studentViewQuery+` WHERE s.id=$1`, id))
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID string) (*domain.Student, error) {
	if !validIDs(userID) {
		return nil, pgx.ErrNoRows
	}
	view, err := scanStudentView(r.db.QueryRow(ctx, studentViewQuery+` WHERE s.user_id=$1`, userID))
	if err != nil {
		return nil, err
	}
	return &view.Student, nil
}

func (r *studentRepository) List(ctx context.Context, offset, limit int) ([]domain.StudentView, int, error) {
	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM students`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, studentViewQuery+` ORDER BY u.last_name, u.first_name, s.id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	students, err := collect(rows, limit, scanStudentView)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (r *studentRepository) ListGroups(ctx context.Context, studentID string, offset, limit int) ([]domain.Group, int, error) {
	const query = `
        SELECT g.id, g.name, g.description, g.parent_id, g.active, g.created_by, g.updated_by, g.created_at, g.updated_at
        FROM groups g
        JOIN student_groups sg ON sg.group_id = g.id
        WHERE sg.student_id=$1
        ORDER BY g.name
        OFFSET $2 LIMIT $3`

	if !validIDs(studentID) {
		return nil, 0, pgx.ErrNoRows
	}
	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM student_groups WHERE student_id=$1`, studentID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, query, studentID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	groups, err := collect(rows, limit, scanGroup)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r *studentRepository) AddGroups(ctx context.Context, studentID string, groupIDs []string) error {
	const query = `
        INSERT INTO student_groups (student_id, group_id)
        SELECT $1, unnest($2::text[])::uuid
        ON CONFLICT DO NOTHING`

	if !validIDs(studentID) {
		return pgx.ErrNoRows
	}
	if !validIDs(groupIDs...) {
		return ErrMissingReference
	}
	_, err := r.db.Exec(ctx, query, studentID, groupIDs)
	return mapWriteError(err)
}

func (r *studentRepository) RemoveGroups(ctx context.Context, studentID string, groupIDs []string) error {
	const query = `DELETE FROM student_groups WHERE student_id=$1 AND group_id::text = ANY($2::text[])`

	if !validIDs(studentID) {
		return pgx.ErrNoRows
	}
	_, err := r.db.Exec(ctx, query, studentID, groupIDs)
	return err
}

func (r *studentRepository) JoinGroup(ctx context.Context, groupID string, studentIDs []string) (int, error) {
	const query = `
        INSERT INTO student_groups (student_id, group_id)
        SELECT unnest($2::text[])::uuid, $1
        ON CONFLICT DO NOTHING`

	if !validIDs(groupID) {
		return 0, pgx.ErrNoRows
	}
	if !validIDs(studentIDs...) {
		return 0, ErrMissingReference
	}
	tag, err := r.db.Exec(ctx, query, groupID, studentIDs)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *studentRepository) IDsInGroups(ctx context.Context, groupIDs []string) ([]string, error) {
	const query = `
        SELECT DISTINCT student_id::text
        FROM student_groups
        WHERE group_id::text = ANY($1::text[])
        ORDER BY 1`

	rows, err := r.db.Query(ctx, query, groupIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *studentRepository) AttendanceStats(ctx context.Context, studentID string) (domain.AttendanceStats, error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE present),
               COUNT(*) FILTER (WHERE NOT present AND NOT justified),
               COUNT(*) FILTER (WHERE NOT present AND justified)
        FROM student_attendance
        WHERE student_id=$1`

	return scanAttendanceStats(r.db.QueryRow(ctx, query, studentID))
}

func scanAttendanceStats(row pgx.Row) (domain.AttendanceStats, error) {
	var stats domain.AttendanceStats
	err := row.Scan(&stats.Present, &stats.Absent, &stats.Justified)
	return stats, err
}

func scanStudentView(row pgx.Row) (*domain.StudentView, error) {
	var view domain.StudentView
	if err := row.Scan(
		&view.ID,
		&view.UserID,
		&view.CreatedAt,
		&view.GroupIDs,
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
