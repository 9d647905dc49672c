package domain

import (
	"math"
	"time"
)

// Course is one scheduled class given by a single teacher to the students of
// one or more groups. Signed is set once attendance has been recorded.
type Course struct {
	ID          string
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	ClassRoom   string
	TeacherID   string
	GroupIDs    []string
	StudentIDs  []string
	Signed      bool
	CreatedBy   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AttendanceMark is a teacher's record for one student in one course.
// Justified only matters when Present is false.
type AttendanceMark struct {
	StudentID   string
	Present     bool
	Justified   bool
	Description string
}

// AttendanceStats counts attendance records. Absent excludes justified
// absences.
type AttendanceStats struct {
	Present   int
	Absent    int
	Justified int
}

// Total is the number of records counted.
func (s AttendanceStats) Total() int {
	return s.Present + s.Absent + s.Justified
}

// Percent returns n as a share of Total, rounded to two decimals. An empty
// record set yields 0.
func (s AttendanceStats) Percent(n int) float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*10000/float64(total)) / 100
}
