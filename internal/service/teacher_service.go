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

const generatedPasswordLength = 12

// Teaching day used for the daily course list, in the server's time zone.
const (
	dayStart = 8 * time.Hour
	dayEnd   = 23*time.Hour + 50*time.Minute
)

// CreateTeacherInput carries a new teacher. An empty Password makes the
// service generate one.
type CreateTeacherInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Specialty string
}

// TeacherDependencies encapsulates requirements for the teacher service.
type TeacherDependencies struct {
	Teachers   repository.TeacherRepository
	Users      repository.UserRepository
	Courses    repository.CourseRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
	Now        func() time.Time
}

// TeacherService manages teacher records.
type TeacherService struct {
	teachers   repository.TeacherRepository
	users      repository.UserRepository
	courses    repository.CourseRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

func NewTeacherService(deps TeacherDependencies) *TeacherService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TeacherService{
		teachers:   deps.Teachers,
		users:      deps.Users,
		courses:    deps.Courses,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
		now:        now,
	}
}

// Create stores the teacher account and record. When the password was
// generated it is returned so the office can hand it over; otherwise the
// returned password is empty.
func (s *TeacherService) Create(ctx context.Context, actor auth.Claim, in CreateTeacherInput) (*domain.Teacher, string, error) {
	var generated string
	if in.Password == "" {
		pw, err := auth.GeneratePassword(generatedPasswordLength)
		if err != nil {
			return nil, "", err
		}
		in.Password, generated = pw, pw
	}

	user, err := newAccount(ctx, s.users, CreateUserInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
	}, domain.RoleTeacher, actor, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	createdBy := actor.SubjectID
	teacher := &domain.Teacher{Specialty: strings.TrimSpace(in.Specialty), CreatedBy: &createdBy}
	if err := s.teachers.CreateWithUser(ctx, user, teacher); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", errUserExists
		}
		return nil, "", err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTeacherCreated,
		SubjectID: teacher.ID,
		Actor:     events.Actor{UserID: actor.SubjectID, Role: actor.Role},
		Payload:   events.UserCreatedPayload{Email: user.Email, Role: user.Role},
	})
	return teacher, generated, nil
}

func (s *TeacherService) Get(ctx context.Context, id string) (*domain.TeacherView, error) {
	view, err := s.teachers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("teacher", map[string]any{"id": id})
		}
		return nil, err
	}
	return view, nil
}

func (s *TeacherService) List(ctx context.Context, page, limit int) (*Page[domain.TeacherView], error) {
	return listPage(page, limit, func(offset, limit int) ([]domain.TeacherView, int, error) {
		return s.teachers.List(ctx, offset, limit)
	})
}

// Stats summarizes the calling teacher's own attendance.
func (s *TeacherService) Stats(ctx context.Context, caller auth.Claim) (domain.AttendanceStats, error) {
	teacher, err := s.byCaller(ctx, caller)
	if err != nil {
		return domain.AttendanceStats{}, err
	}
	return s.teachers.AttendanceStats(ctx, teacher.ID)
}

// DailyCourses lists the caller's courses starting during today's teaching
// day.
func (s *TeacherService) DailyCourses(ctx context.Context, caller auth.Claim) ([]domain.Course, error) {
	teacher, err := s.byCaller(ctx, caller)
	if err != nil {
		return nil, err
	}
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.courses.ListForTeacherBetween(ctx, teacher.ID, midnight.Add(dayStart), midnight.Add(dayEnd))
}

func (s *TeacherService) byCaller(ctx context.Context, caller auth.Claim) (*domain.Teacher, error) {
	teacher, err := s.teachers.GetByUserID(ctx, caller.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("teacher", nil)
		}
		return nil, err
	}
	return teacher, nil
}
