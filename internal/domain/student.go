package domain

import "time"

// Student links a user holding the student role to the groups it attends.
type Student struct {
	ID        string
	UserID    string
	GroupIDs  []string
	CreatedAt time.Time
}

// Member is the slice of a user shown next to student and teacher records.
type Member struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Active    bool
}

// StudentView is a student joined with its user.
type StudentView struct {
	Student
	Member Member
}
