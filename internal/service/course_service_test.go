package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/events"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

type courseFixture struct {
	teacher      *domain.Teacher
	teacherClaim auth.Claim
	group        *domain.Group
	kids         []*domain.Student
}

func seedCourseFixture(t *testing.T, sc *school) courseFixture {
	t.Helper()
	ctx := context.Background()

	teacher, _, err := sc.teachers.Create(ctx, officeActor, CreateTeacherInput{FirstName: "Alan", LastName: "Turing", Email: "alan@scoo.app"})
	require.NoError(t, err)
	group, err := sc.groups.Create(ctx, officeActor, GroupInput{Name: strPtr("Grade 5")})
	require.NoError(t, err)

	f := courseFixture{teacher: teacher, teacherClaim: auth.Claim{SubjectID: teacher.UserID, Role: domain.RoleTeacher}, group: group}
	for _, email := range []string{"kid1@scoo.app", "kid2@scoo.app", "kid3@scoo.app"} {
		kid, err := sc.students.Enroll(ctx, officeActor, CreateUserInput{FirstName: "Kid", LastName: email, Email: email, Password: "pw"})
		require.NoError(t, err)
		_, err = sc.students.AddGroups(ctx, officeActor, kid.ID, []string{group.ID})
		require.NoError(t, err)
		f.kids = append(f.kids, kid)
	}
	return f
}

func TestCourseServiceCreate(t *testing.T) {
	sc := newSchool(time.Now)
	ctx := context.Background()
	f := seedCourseFixture(t, sc)
	start := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	empty, err := sc.groups.Create(ctx, officeActor, GroupInput{Name: strPtr("Empty")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      CreateCourseInput
		status  int
		scope   string
		message string
	}{
		{
			name:   "no groups",
			in:     CreateCourseInput{Name: "Algebra", TeacherID: f.teacher.ID, Start: start, End: start.Add(time.Hour)},
			status: 400, scope: "course", message: "Missing group or groups",
		},
		{
			name:   "ends before start",
			in:     CreateCourseInput{Name: "Algebra", TeacherID: f.teacher.ID, Start: start, End: start, GroupIDs: []string{f.group.ID}},
			status: 400, scope: "end", message: "A course must end after it starts",
		},
		{
			name:   "unknown teacher",
			in:     CreateCourseInput{Name: "Algebra", TeacherID: "ghost", Start: start, End: start.Add(time.Hour), GroupIDs: []string{f.group.ID}},
			status: 404, scope: "teacher", message: "teacher not found",
		},
		{
			name:   "groups without students",
			in:     CreateCourseInput{Name: "Algebra", TeacherID: f.teacher.ID, Start: start, End: start.Add(time.Hour), GroupIDs: []string{empty.ID}},
			status: 400, scope: "course", message: "You cannot create a course with no students",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sc.courses.Create(ctx, officeActor, tt.in)
			de := requireDomainError(t, err, tt.status, tt.scope)
			assert.Equal(t, tt.message, de.Message)
		})
	}

	course, err := sc.courses.Create(ctx, officeActor, CreateCourseInput{
		Name: " Algebra ", ClassRoom: "B12", TeacherID: f.teacher.ID, Start: start, End: start.Add(time.Hour),
		GroupIDs: []string{f.group.ID, empty.ID, f.group.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra", course.Name)
	assert.Equal(t, []string{f.group.ID, empty.ID}, course.GroupIDs)
	assert.Len(t, course.StudentIDs, 3)

	got, err := sc.courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.False(t, got.Signed)

	page, err := sc.courses.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Contains(t, sc.dispatcher.types(), events.EventCourseCreated)
}

func TestCourseServiceRecordAttendance(t *testing.T) {
	sc := newSchool(time.Now)
	ctx := context.Background()
	f := seedCourseFixture(t, sc)
	start := time.Now().Add(-time.Hour)

	course, err := sc.courses.Create(ctx, officeActor, CreateCourseInput{
		Name: "Algebra", TeacherID: f.teacher.ID, Start: start, End: start.Add(time.Hour), GroupIDs: []string{f.group.ID},
	})
	require.NoError(t, err)

	_, err = sc.courses.RecordAttendance(ctx, f.teacherClaim, course.ID, nil)
	requireDomainError(t, err, 400, "students")

	other, _, err := sc.teachers.Create(ctx, officeActor, CreateTeacherInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@scoo.app"})
	require.NoError(t, err)
	_, err = sc.courses.RecordAttendance(ctx, auth.Claim{SubjectID: other.UserID, Role: domain.RoleTeacher}, course.ID,
		[]domain.AttendanceMark{{StudentID: f.kids[0].ID, Present: true}})
	requireDomainError(t, err, 401, apperrors.ScopeRequest)

	_, err = sc.courses.RecordAttendance(ctx, f.teacherClaim, course.ID,
		[]domain.AttendanceMark{{StudentID: "stranger", Present: true}})
	requireDomainError(t, err, 400, "students")

	_, err = sc.courses.RecordAttendance(ctx, f.teacherClaim, course.ID,
		[]domain.AttendanceMark{{StudentID: f.kids[0].ID, Present: true}, {StudentID: f.kids[0].ID}})
	requireDomainError(t, err, 400, "students")

	marks := []domain.AttendanceMark{
		{StudentID: f.kids[0].ID, Present: true, Justified: true},
		{StudentID: f.kids[1].ID, Justified: true, Description: "doctor"},
	}
	stats, err := sc.courses.RecordAttendance(ctx, f.teacherClaim, course.ID, marks)
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceStats{Present: 1, Justified: 1, Absent: 1}, stats)

	_, err = sc.courses.RecordAttendance(ctx, f.teacherClaim, course.ID, marks)
	de := requireDomainError(t, err, 400, "course")
	assert.Equal(t, "Course attendance already signed", de.Message)

	kidStats, err := sc.students.Stats(ctx, auth.Claim{SubjectID: f.kids[2].UserID, Role: domain.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceStats{Absent: 1}, kidStats)

	teacherStats, err := sc.teachers.Stats(ctx, f.teacherClaim)
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceStats{Present: 1}, teacherStats)
}
