package domain

import "time"

// Teacher links a user holding the teacher role to its teaching record.
type Teacher struct {
	ID        string
	UserID    string
	Specialty string
	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeacherView is a teacher joined with its user.
type TeacherView struct {
	Teacher
	Member Member
}
