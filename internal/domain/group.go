package domain

import "time"

// Group is a class or cohort of students. Groups may nest through ParentID.
type Group struct {
	ID          string
	Name        string
	Description string
	ParentID    *string
	Active      bool
	CreatedBy   *string
	UpdatedBy   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
