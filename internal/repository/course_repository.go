package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// ErrAlreadySigned is returned when attendance is recorded twice for the
// same course.
var ErrAlreadySigned = errors.New("course attendance already signed")

// CourseRepository persists courses and the attendance taken in them.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	List(ctx context.Context, offset, limit int) ([]domain.Course, int, error)
	// ListForTeacherBetween returns the teacher's courses starting in
	// [from, to], earliest first.
	ListForTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) ([]domain.Course, error)
	// RecordAttendance signs the course and stores one row per mark plus a
	// presence row for the teacher.
	RecordAttendance(ctx context.Context, courseID, teacherID string, marks []domain.AttendanceMark) error
}

type courseRepository struct {
	db DBTX
}

// NewCourseRepository returns a Postgres-backed implementation.
func NewCourseRepository(db DBTX) CourseRepository {
	return &courseRepository{db: db}
}

const courseQuery = `
        SELECT c.id, c.name, c.description, c.starts_at, c.ends_at, c.class_room, c.teacher_id, c.signed,
               c.created_by, c.created_at, c.updated_at,
               ARRAY(SELECT cg.group_id::text FROM course_groups cg WHERE cg.course_id = c.id ORDER BY cg.group_id),
               ARRAY(SELECT cs.student_id::text FROM course_students cs WHERE cs.course_id = c.id ORDER BY cs.student_id)
        FROM courses c`

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) error {
	const (
		insertCourse = `
        INSERT INTO courses (id, name, description, starts_at, ends_at, class_room, teacher_id, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`
		insertGroups   = `INSERT INTO course_groups (course_id, group_id) SELECT $1, unnest($2::text[])::uuid`
		insertStudents = `INSERT INTO course_students (course_id, student_id) SELECT $1, unnest($2::text[])::uuid`
	)

	if !validIDs(course.TeacherID) || !validIDs(course.GroupIDs...) || !validIDs(course.StudentIDs...) {
		return ErrMissingReference
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertCourse,
			course.ID,
			course.Name,
			course.Description,
			course.Start,
			course.End,
			course.ClassRoom,
			course.TeacherID,
			course.CreatedBy,
		).Scan(&course.CreatedAt, &course.UpdatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		if _, err := tx.Exec(ctx, insertGroups, course.ID, course.GroupIDs); err != nil {
			return mapWriteError(err)
		}
		if _, err := tx.Exec(ctx, insertStudents, course.ID, course.StudentIDs); err != nil {
			return mapWriteError(err)
		}
		return nil
	})
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	if !validIDs(id) {
		return nil, pgx.ErrNoRows
	}
	return scanCourse(r.db.QueryRow(ctx, courseQuery+` WHERE c.id=$1`, id))
}

func (r *courseRepository) List(ctx context.Context, offset, limit int) ([]domain.Course, int, error) {
	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM courses`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, courseQuery+` ORDER BY c.starts_at DESC, c.id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	courses, err := collect(rows, limit, scanCourse)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *courseRepository) ListForTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) ([]domain.Course, error) {
	if !validIDs(teacherID) {
		return []domain.Course{}, nil
	}
	rows, err := r.db.Query(ctx,
		courseQuery+` WHERE c.teacher_id=$1 AND c.starts_at BETWEEN $2 AND $3 ORDER BY c.starts_at`,
		teacherID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, 8, scanCourse)
}

func (r *courseRepository) RecordAttendance(ctx context.Context, courseID, teacherID string, marks []domain.AttendanceMark) error {
	const (
		signCourse    = `UPDATE courses SET signed=TRUE, updated_at=NOW() WHERE id=$1 AND signed=FALSE`
		insertStudent = `
        INSERT INTO student_attendance (student_id, course_id, present, justified, description)
        VALUES ($1, $2, $3, $4, $5)`
		insertTeacher = `INSERT INTO teacher_attendance (teacher_id, course_id, present) VALUES ($1, $2, TRUE)`
	)

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, signCourse, courseID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadySigned
		}
		for _, mark := range marks {
			if _, err := tx.Exec(ctx, insertStudent,
				mark.StudentID, courseID, mark.Present, mark.Justified, mark.Description); err != nil {
				return mapWriteError(err)
			}
		}
		_, err = tx.Exec(ctx, insertTeacher, teacherID, courseID)
		return mapWriteError(err)
	})
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var course domain.Course
	if err := row.Scan(
		&course.ID,
		&course.Name,
		&course.Description,
		&course.Start,
		&course.End,
		&course.ClassRoom,
		&course.TeacherID,
		&course.Signed,
		&course.CreatedBy,
		&course.CreatedAt,
		&course.UpdatedAt,
		&course.GroupIDs,
		&course.StudentIDs,
	); err != nil {
		return nil, err
	}
	return &course, nil
}
