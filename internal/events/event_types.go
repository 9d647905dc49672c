package events

import (
	"time"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventUserCreated    EventType = "user_created"
	EventGroupCreated   EventType = "group_created"
	EventGroupUpdated   EventType = "group_updated"
	EventGroupJoined    EventType = "group_joined"

	EventStudentEnrolled    EventType = "student_enrolled"
	EventStudentGroupsMoved EventType = "student_groups_changed"
	EventTeacherCreated     EventType = "teacher_created"
	EventCourseCreated      EventType = "course_created"
	EventAttendanceRecorded EventType = "attendance_recorded"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// GroupChangedPayload payload.
type GroupChangedPayload struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// MembershipPayload lists the groups or students touched by a membership
// change.
type MembershipPayload struct {
	GroupIDs   []string `json:"group_ids,omitempty"`
	StudentIDs []string `json:"student_ids,omitempty"`
}

// CourseCreatedPayload payload.
type CourseCreatedPayload struct {
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
	Students  int    `json:"students"`
}

// AttendanceRecordedPayload payload.
type AttendanceRecordedPayload struct {
	Present   int `json:"present"`
	Absent    int `json:"absent"`
	Justified int `json:"justified"`
}
