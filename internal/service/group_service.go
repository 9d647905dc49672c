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

// GroupInput carries group fields. Nil pointers leave a field unchanged on
// update.
type GroupInput struct {
	Name        *string
	Description *string
	ParentID    *string
	Active      *bool
}

// maxGroupDepth bounds the parent walk done on every write.
const maxGroupDepth = 32

// GroupService manages student groups and their membership.
type GroupService struct {
	groups     repository.GroupRepository
	members    repository.StudentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewGroupService builds the service.
func NewGroupService(groups repository.GroupRepository, members repository.StudentRepository, dispatcher events.Dispatcher, logger *zap.Logger) *GroupService {
	return &GroupService{groups: groups, members: members, dispatcher: dispatcher, logger: logger}
}

var errGroupExists = apperrors.NewConflict("name", "Group name already exist", nil)

// Create stores a new group owned by actor.
func (s *GroupService) Create(ctx context.Context, actor auth.Claim, in GroupInput) (*domain.Group, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.NewValidationError("name", "Please provide a group name.", nil)
	}
	createdBy := actor.SubjectID
	group := &domain.Group{Active: true, CreatedBy: &createdBy}
	applyGroupInput(group, in)

	if err := s.checkParent(ctx, group); err != nil {
		return nil, err
	}
	if err := s.groups.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errGroupExists
		}
		return nil, err
	}

	s.emit(ctx, events.EventGroupCreated, actor, group)
	return group, nil
}

// Update applies the non-nil fields of in to the group.
func (s *GroupService) Update(ctx context.Context, actor auth.Claim, id string, in GroupInput) (*domain.Group, error) {
	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.NewValidationError("name", "Please provide a group name.", nil)
	}
	applyGroupInput(group, in)
	updatedBy := actor.SubjectID
	group.UpdatedBy = &updatedBy

	if err := s.checkParent(ctx, group); err != nil {
		return nil, err
	}
	if err := s.groups.Update(ctx, group); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, errGroupExists
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("group", map[string]any{"id": id})
		}
		return nil, err
	}

	s.emit(ctx, events.EventGroupUpdated, actor, group)
	return group, nil
}

// Get returns one group.
func (s *GroupService) Get(ctx context.Context, id string) (*domain.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("group", map[string]any{"id": id})
		}
		return nil, err
	}
	return group, nil
}

// List returns the 1-based page of groups ordered by name.
func (s *GroupService) List(ctx context.Context, page, limit int) (*Page[domain.Group], error) {
	return listPage(page, limit, func(offset, limit int) ([]domain.Group, int, error) {
		return s.groups.List(ctx, offset, limit)
	})
}

// AddStudents puts every listed student in the group. Students already in
// it are left alone; the number of new memberships is returned.
func (s *GroupService) AddStudents(ctx context.Context, actor auth.Claim, groupID string, studentIDs []string) (int, error) {
	studentIDs = uniqueIDs(studentIDs)
	if len(studentIDs) == 0 {
		return 0, apperrors.NewValidationError("group", "Missing students field", nil)
	}
	if _, err := s.Get(ctx, groupID); err != nil {
		return 0, err
	}

	added, err := s.members.JoinGroup(ctx, groupID, studentIDs)
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return 0, apperrors.NewNotFound("student", map[string]any{"ids": studentIDs})
		}
		return 0, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventGroupJoined,
		SubjectID: groupID,
		Actor:     events.Actor{UserID: actor.SubjectID, Role: actor.Role},
		Payload:   events.MembershipPayload{StudentIDs: studentIDs},
	})
	return added, nil
}

// checkParent rejects a parent that is missing or that would close a loop
// in the hierarchy.
func (s *GroupService) checkParent(ctx context.Context, group *domain.Group) error {
	if group.ParentID == nil {
		return nil
	}
	if *group.ParentID == group.ID {
		return apperrors.NewValidationError("parent", "A group cannot be its own parent", nil)
	}

	next := group.ParentID
	for depth := 0; next != nil; depth++ {
		if depth == maxGroupDepth {
			return apperrors.NewValidationError("parent", "Group hierarchy is too deep", nil)
		}
		ancestor, err := s.groups.GetByID(ctx, *next)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) && depth == 0 {
				return apperrors.NewValidationError("parent", "Parent group not found", nil)
			}
			return err
		}
		if group.ID != "" && ancestor.ID == group.ID {
			return apperrors.NewValidationError("parent", "A group cannot be its own ancestor", map[string]any{"parent": *group.ParentID})
		}
		next = ancestor.ParentID
	}
	return nil
}

func (s *GroupService) emit(ctx context.Context, eventType events.EventType, actor auth.Claim, group *domain.Group) {
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      eventType,
		SubjectID: group.ID,
		Actor:     events.Actor{UserID: actor.SubjectID, Role: actor.Role},
		Payload:   events.GroupChangedPayload{Name: group.Name, ParentID: group.ParentID},
	})
}

// uniqueIDs trims ids, drops blanks and keeps the first occurrence of each.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func applyGroupInput(group *domain.Group, in GroupInput) {
	if in.Name != nil {
		group.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		group.Description = *in.Description
	}
	if in.ParentID != nil {
		if *in.ParentID == "" {
			group.ParentID = nil
		} else {
			parent := *in.ParentID
			group.ParentID = &parent
		}
	}
	if in.Active != nil {
		group.Active = *in.Active
	}
}
