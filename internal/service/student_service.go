package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/events"
	"github.com/scoo-app/scoo-api/internal/repository"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// StudentDependencies encapsulates requirements for the student service.
type StudentDependencies struct {
	Students   repository.StudentRepository
	Users      repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// StudentService manages student records and the groups they attend.
type StudentService struct {
	students   repository.StudentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

func NewStudentService(deps StudentDependencies) *StudentService {
	return &StudentService{
		students:   deps.Students,
		users:      deps.Users,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

var (
	errStudentExists = apperrors.NewConflict("student", "Student already exist", nil)
	errNotAStudent   = apperrors.NewValidationError("user", "User is not a student", nil)
	errMissingGroups = apperrors.NewValidationError("student", "Missing groups field", nil)
)

// Enroll creates a student account and its student record together.
func (s *StudentService) Enroll(ctx context.Context, actor auth.Claim, in CreateUserInput) (*domain.Student, error) {
	user, err := newAccount(ctx, s.users, in, domain.RoleStudent, actor, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	student := &domain.Student{}
	if err := s.students.CreateWithUser(ctx, user, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errUserExists
		}
		return nil, err
	}

	s.emit(ctx, events.EventStudentEnrolled, actor, student.ID, events.UserCreatedPayload{Email: user.Email, Role: user.Role})
	return student, nil
}

// Promote attaches a student record to an existing account holding the
// student role.
func (s *StudentService) Promote(ctx context.Context, actor auth.Claim, userID string) (*domain.Student, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}
	if user.Role != domain.RoleStudent {
		return nil, errNotAStudent
	}
	if _, err := s.students.GetByUserID(ctx, userID); err == nil {
		return nil, errStudentExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	student := &domain.Student{UserID: user.ID}
	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errStudentExists
		}
		return nil, err
	}

	s.emit(ctx, events.EventStudentEnrolled, actor, student.ID, events.UserCreatedPayload{Email: user.Email, Role: user.Role})
	return student, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (*domain.StudentView, error) {
	view, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("student", map[string]any{"id": id})
		}
		return nil, err
	}
	return view, nil
}

// List returns students ordered by last then first name.
func (s *StudentService) List(ctx context.Context, page, limit int) (*Page[domain.StudentView], error) {
	return listPage(page, limit, func(offset, limit int) ([]domain.StudentView, int, error) {
		return s.students.List(ctx, offset, limit)
	})
}

// Groups returns the groups one student attends.
func (s *StudentService) Groups(ctx context.Context, id string, page, limit int) (*Page[domain.Group], error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return listPage(page, limit, func(offset, limit int) ([]domain.Group, int, error) {
		return s.students.ListGroups(ctx, id, offset, limit)
	})
}

// AddGroups enrolls the student in every listed group.
func (s *StudentService) AddGroups(ctx context.Context, actor auth.Claim, id string, groupIDs []string) (*domain.StudentView, error) {
	groupIDs = uniqueIDs(groupIDs)
	if len(groupIDs) == 0 {
		return nil, errMissingGroups
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.students.AddGroups(ctx, id, groupIDs); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperrors.NewNotFound("group", map[string]any{"ids": groupIDs})
		}
		return nil, err
	}
	return s.groupsChanged(ctx, actor, id, groupIDs)
}

// RemoveGroups takes the student out of the listed groups. Groups the
// student is not in are ignored.
func (s *StudentService) RemoveGroups(ctx context.Context, actor auth.Claim, id string, groupIDs []string) (*domain.StudentView, error) {
	groupIDs = uniqueIDs(groupIDs)
	if len(groupIDs) == 0 {
		return nil, errMissingGroups
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.students.RemoveGroups(ctx, id, groupIDs); err != nil {
		return nil, err
	}
	return s.groupsChanged(ctx, actor, id, groupIDs)
}

func (s *StudentService) groupsChanged(ctx context.Context, actor auth.Claim, id string, groupIDs []string) (*domain.StudentView, error) {
	s.emit(ctx, events.EventStudentGroupsMoved, actor, id, events.MembershipPayload{GroupIDs: groupIDs})
	return s.Get(ctx, id)
}

// Stats summarizes the calling student's own attendance.
func (s *StudentService) Stats(ctx context.Context, caller auth.Claim) (domain.AttendanceStats, error) {
	student, err := s.students.GetByUserID(ctx, caller.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AttendanceStats{}, apperrors.NewNotFound("student", nil)
		}
		return domain.AttendanceStats{}, err
	}
	return s.students.AttendanceStats(ctx, student.ID)
}

func (s *StudentService) emit(ctx context.Context, eventType events.EventType, actor auth.Claim, subject string, payload any) {
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      eventType,
		SubjectID: subject,
		Actor:     events.Actor{UserID: actor.SubjectID, Role: actor.Role},
		Payload:   payload,
	})
}

// newAccount checks the email is free and builds, without storing, an
// account with the given role.
func newAccount(ctx context.Context, users repository.UserRepository, in CreateUserInput, role domain.Role, actor auth.Claim, cost int) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil, errUserExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, cost)
	if err != nil {
		return nil, err
	}
	createdBy := actor.SubjectID
	return &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedBy:    &createdBy,
	}, nil
}
