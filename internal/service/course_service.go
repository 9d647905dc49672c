package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/events"
	"github.com/scoo-app/scoo-api/internal/repository"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// CreateCourseInput carries a new course. Its students are every student
// of the listed groups at creation time.
type CreateCourseInput struct {
	Name        string
	Description string
	ClassRoom   string
	TeacherID   string
	Start       time.Time
	End         time.Time
	GroupIDs    []string
}

// CourseDependencies encapsulates requirements for the course service.
type CourseDependencies struct {
	Courses    repository.CourseRepository
	Teachers   repository.TeacherRepository
	Students   repository.StudentRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CourseService schedules courses and records their attendance.
type CourseService struct {
	courses    repository.CourseRepository
	teachers   repository.TeacherRepository
	students   repository.StudentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func NewCourseService(deps CourseDependencies) *CourseService {
	return &CourseService{
		courses:    deps.Courses,
		teachers:   deps.Teachers,
		students:   deps.Students,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

var (
	errCourseSigned   = apperrors.NewValidationError("course", "Course attendance already signed", nil)
	errNoCourseGroups = apperrors.NewValidationError("course", "Missing group or groups", nil)
	errEmptyCourse    = apperrors.NewValidationError("course", "You cannot create a course with no students", nil)
)

func (s *CourseService) Create(ctx context.Context, actor auth.Claim, in CreateCourseInput) (*domain.Course, error) {
	groupIDs := uniqueIDs(in.GroupIDs)
	if len(groupIDs) == 0 {
		return nil, errNoCourseGroups
	}
	if !in.End.After(in.Start) {
		return nil, apperrors.NewValidationError("end", "A course must end after it starts", nil)
	}
	if _, err := s.teachers.GetByID(ctx, in.TeacherID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("teacher", map[string]any{"id": in.TeacherID})
		}
		return nil, err
	}

	studentIDs, err := s.students.IDsInGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	if len(studentIDs) == 0 {
		return nil, errEmptyCourse
	}

	createdBy := actor.SubjectID
	course := &domain.Course{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Start:       in.Start,
		End:         in.End,
		ClassRoom:   in.ClassRoom,
		TeacherID:   in.TeacherID,
		GroupIDs:    groupIDs,
		StudentIDs:  studentIDs,
		CreatedBy:   &createdBy,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperrors.NewNotFound("group", map[string]any{"ids": groupIDs})
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventCourseCreated,
		SubjectID: course.ID,
		Actor:     events.Actor{UserID: actor.SubjectID, Role: actor.Role},
		Payload:   events.CourseCreatedPayload{Name: course.Name, TeacherID: course.TeacherID, Students: len(studentIDs)},
	})
	return course, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*domain.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("course", map[string]any{"id": id})
		}
		return nil, err
	}
	return course, nil
}

// List returns courses, latest start first.
func (s *CourseService) List(ctx context.Context, page, limit int) (*Page[domain.Course], error) {
	return listPage(page, limit, func(offset, limit int) ([]domain.Course, int, error) {
		return s.courses.List(ctx, offset, limit)
	})
}

// RecordAttendance signs a course on behalf of its teacher. Enrolled
// students without a mark are recorded absent. A course is signed once.
func (s *CourseService) RecordAttendance(ctx context.Context, caller auth.Claim, courseID string, marks []domain.AttendanceMark) (domain.AttendanceStats, error) {
	var stats domain.AttendanceStats
	if len(marks) == 0 {
		return stats, apperrors.NewValidationError("students", "Missing students field", nil)
	}

	teacher, err := s.teachers.GetByUserID(ctx, caller.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, apperrors.NewNotFound("teacher", nil)
		}
		return stats, err
	}
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return stats, err
	}
	if course.TeacherID != teacher.ID {
		return stats, apperrors.NewForbidden("Only the course teacher can sign attendance")
	}
	if course.Signed {
		return stats, errCourseSigned
	}

	complete, err := completeMarks(course.StudentIDs, marks)
	if err != nil {
		return stats, err
	}
	if err := s.courses.RecordAttendance(ctx, course.ID, teacher.ID, complete); err != nil {
		if errors.Is(err, repository.ErrAlreadySigned) {
			return stats, errCourseSigned
		}
		return stats, err
	}

	for _, m := range complete {
		switch {
		case m.Present:
			stats.Present++
		case m.Justified:
			stats.Justified++
		default:
			stats.Absent++
		}
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventAttendanceRecorded,
		SubjectID: course.ID,
		Actor:     events.Actor{UserID: caller.SubjectID, Role: caller.Role},
		Payload:   events.AttendanceRecordedPayload{Present: stats.Present, Absent: stats.Absent, Justified: stats.Justified},
	})
	return stats, nil
}

// completeMarks checks every mark names an enrolled student at most once
// and fills in an absence for each enrolled student left unmarked.
func completeMarks(enrolled []string, marks []domain.AttendanceMark) ([]domain.AttendanceMark, error) {
	isEnrolled := make(map[string]bool, len(enrolled))
	for _, id := range enrolled {
		isEnrolled[id] = true
	}

	byStudent := make(map[string]domain.AttendanceMark, len(marks))
	for _, m := range marks {
		if !isEnrolled[m.StudentID] {
			return nil, apperrors.NewValidationError("students", "Student is not enrolled in this course", map[string]any{"id": m.StudentID})
		}
		if _, dup := byStudent[m.StudentID]; dup {
			return nil, apperrors.NewValidationError("students", "Student is marked more than once", map[string]any{"id": m.StudentID})
		}
		if m.Present {
			m.Justified = false
		}
		byStudent[m.StudentID] = m
	}

	out := make([]domain.AttendanceMark, 0, len(enrolled))
	for _, id := range enrolled {
		m, ok := byStudent[id]
		if !ok {
			m = domain.AttendanceMark{StudentID: id}
		}
		out = append(out, m)
	}
	return out, nil
}
