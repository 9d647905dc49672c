package dto

import (
	"time"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// EnrollStudentRequest payload for POST /students.
type EnrollStudentRequest struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=60"`
	LastName  string `json:"lastName" validate:"required,notblank,max=60"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required"`
}

// GroupsRequest lists group ids for student membership changes.
type GroupsRequest struct {
	Groups []string `json:"groups"`
}

// StudentsRequest lists student ids for POST /groups/:groupId.
type StudentsRequest struct {
	Students []string `json:"students"`
}

// MemberResponse is the account part of a student or teacher.
type MemberResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

func newMemberResponse(m domain.Member) MemberResponse {
	return MemberResponse{ID: m.UserID, FirstName: m.FirstName, LastName: m.LastName, Email: m.Email, Active: m.Active}
}

// StudentResponse is the public view of a student.
type StudentResponse struct {
	ID        string         `json:"id"`
	User      MemberResponse `json:"user"`
	Groups    []string       `json:"groups"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewStudentResponse(v domain.StudentView) StudentResponse {
	groups := v.GroupIDs
	if groups == nil {
		groups = []string{}
	}
	return StudentResponse{ID: v.ID, User: newMemberResponse(v.Member), Groups: groups, CreatedAt: v.CreatedAt}
}

// CreateTeacherRequest payload for POST /teachers. A missing password is
// generated by the server and returned once.
type CreateTeacherRequest struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=60"`
	LastName  string `json:"lastName" validate:"required,notblank,max=60"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"omitempty,min=6"`
	Specialty string `json:"specialty" validate:"max=255"`
}

// TeacherCreatedResponse is returned by POST /teachers.
type TeacherCreatedResponse struct {
	ID       string `json:"id"`
	Password string `json:"password,omitempty"`
}

// TeacherResponse is the public view of a teacher.
type TeacherResponse struct {
	ID        string         `json:"id"`
	User      MemberResponse `json:"user"`
	Specialty string         `json:"specialty"`
	CreatedBy *string        `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewTeacherResponse(v domain.TeacherView) TeacherResponse {
	return TeacherResponse{
		ID:        v.ID,
		User:      newMemberResponse(v.Member),
		Specialty: v.Specialty,
		CreatedBy: v.CreatedBy,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// CreateCourseRequest payload for POST /courses.
type CreateCourseRequest struct {
	Name        string    `json:"name" validate:"required,notblank,max=255"`
	Description string    `json:"description" validate:"max=255"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required"`
	Groups      []string  `json:"groups"`
	Teacher     string    `json:"teacher" validate:"required,notblank"`
	ClassRoom   string    `json:"classRoom" validate:"max=60"`
}

// CourseResponse is the public view of a course.
type CourseResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ClassRoom   string    `json:"classRoom"`
	Teacher     string    `json:"teacher"`
	Groups      []string  `json:"groups"`
	Students    []string  `json:"students"`
	IsSigned    bool      `json:"isSigned"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewCourseResponse(c domain.Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Start:       c.Start,
		End:         c.End,
		ClassRoom:   c.ClassRoom,
		Teacher:     c.TeacherID,
		Groups:      nonNil(c.GroupIDs),
		Students:    nonNil(c.StudentIDs),
		IsSigned:    c.Signed,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// AttendanceRequest payload for POST /courses/:courseId/attendance.
type AttendanceRequest struct {
	Students []AttendanceMarkRequest `json:"students" validate:"dive"`
}

// AttendanceMarkRequest is one student's mark.
type AttendanceMarkRequest struct {
	Student     string `json:"student" validate:"required,notblank"`
	Present     bool   `json:"present"`
	Justified   bool   `json:"justified"`
	Description string `json:"description" validate:"max=255"`
}

// Marks converts the payload to domain marks.
func (r AttendanceRequest) Marks() []domain.AttendanceMark {
	marks := make([]domain.AttendanceMark, 0, len(r.Students))
	for _, m := range r.Students {
		marks = append(marks, domain.AttendanceMark{
			StudentID:   m.Student,
			Present:     m.Present,
			Justified:   m.Justified,
			Description: m.Description,
		})
	}
	return marks
}

// StatItem is one tile of the attendance dashboard.
type StatItem struct {
	Color    string  `json:"color"`
	Label    string  `json:"label"`
	Subtitle string  `json:"subtitle"`
	Count    int     `json:"count"`
	Value    float64 `json:"value"`
}

// StatsResponse is returned by the /stats/basic endpoints.
type StatsResponse struct {
	Total int        `json:"total"`
	Items []StatItem `json:"items"`
}

func NewStatsResponse(s domain.AttendanceStats) StatsResponse {
	return StatsResponse{
		Total: s.Total(),
		Items: []StatItem{
			{Color: "#4CAF50", Label: "Presence", Subtitle: "Course attended", Count: s.Present, Value: s.Percent(s.Present)},
			{Color: "#FF9800", Label: "Justify", Subtitle: "Justify absence(s)", Count: s.Justified, Value: s.Percent(s.Justified)},
			{Color: "#F44336", Label: "Absence", Subtitle: "Time(s)", Count: s.Absent, Value: s.Percent(s.Absent)},
		},
	}
}
