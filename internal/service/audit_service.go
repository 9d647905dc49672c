package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/events"
)

var auditedEvents = []events.EventType{
	events.EventLoginSucceeded,
	events.EventUserCreated,
	events.EventGroupCreated,
	events.EventGroupUpdated,
	events.EventGroupJoined,
	events.EventStudentEnrolled,
	events.EventStudentGroupsMoved,
	events.EventTeacherCreated,
	events.EventCourseCreated,
	events.EventAttendanceRecorded,
}

// AuditService writes an audit log line for each domain event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range auditedEvents {
		a.dispatcher.Subscribe(eventType, a.record)
	}
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload))
	return nil
}
