//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/persistence"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("scoo"),
		postgres.WithUsername("scoo"),
		postgres.WithPassword("scoo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, persistence.Migrations, zaptest.NewLogger(t)))
	return pool
}

func TestPostgresRepositories(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	users := NewUserRepository(pool)
	groups := NewGroupRepository(pool)
	students := NewStudentRepository(pool)
	teachers := NewTeacherRepository(pool)
	courses := NewCourseRepository(pool)

	admin := &domain.User{FirstName: "Grace", LastName: "Hopper", Email: "grace@scoo.test", PasswordHash: "x", Role: domain.RoleAdmin, Active: true}
	require.NoError(t, users.Create(ctx, admin))

	t.Run("profile joins creator name", func(t *testing.T) {
		academic := &domain.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@scoo.test", PasswordHash: "x", Role: domain.RoleAcademic, Active: true, CreatedBy: &admin.ID}
		require.NoError(t, users.Create(ctx, academic))

		profile, err := users.GetProfile(ctx, academic.ID)
		require.NoError(t, err)
		require.NotNil(t, profile.CreatedByName)
		assert.Equal(t, admin.DisplayName(), *profile.CreatedByName)

		dup := *academic
		dup.ID = ""
		dup.Email = "ADA@scoo.test"
		assert.ErrorIs(t, users.Create(ctx, &dup), ErrDuplicate)
	})

	var groupIDs []string
	t.Run("groups page by name", func(t *testing.T) {
		for _, name := range []string{"Gamma", "Alpha", "Beta"} {
			g := &domain.Group{Name: name, Active: true, CreatedBy: &admin.ID}
			require.NoError(t, groups.Create(ctx, g))
			groupIDs = append(groupIDs, g.ID)
		}

		page, total, err := groups.List(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 1)
		assert.Equal(t, "Beta", page[0].Name)

		missing := &domain.Group{ID: "00000000-0000-0000-0000-000000000000", Name: "Ghost"}
		assert.ErrorIs(t, groups.Update(ctx, missing), pgx.ErrNoRows)
	})

	t.Run("students courses and attendance", func(t *testing.T) {
		student := &domain.Student{}
		require.NoError(t, students.CreateWithUser(ctx,
			&domain.User{FirstName: "Kid", LastName: "One", Email: "kid@scoo.test", PasswordHash: "x", Role: domain.RoleStudent, Active: true},
			student))
		require.NoError(t, students.AddGroups(ctx, student.ID, groupIDs[:2]))
		assert.ErrorIs(t, students.AddGroups(ctx, student.ID, []string{"00000000-0000-0000-0000-000000000000"}), ErrMissingReference)

		ids, err := students.IDsInGroups(ctx, groupIDs)
		require.NoError(t, err)
		assert.Equal(t, []string{student.ID}, ids)

		teacher := &domain.Teacher{Specialty: "Maths", CreatedBy: &admin.ID}
		require.NoError(t, teachers.CreateWithUser(ctx,
			&domain.User{FirstName: "Alan", LastName: "Turing", Email: "alan@scoo.test", PasswordHash: "x", Role: domain.RoleTeacher, Active: true},
			teacher))

		start := time.Now().Truncate(time.Minute)
		course := &domain.Course{Name: "Algebra", Start: start, End: start.Add(time.Hour), TeacherID: teacher.ID, GroupIDs: groupIDs[:1], StudentIDs: ids}
		require.NoError(t, courses.Create(ctx, course))

		daily, err := courses.ListForTeacherBetween(ctx, teacher.ID, start.Add(-time.Hour), start.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, daily, 1)
		assert.Equal(t, ids, daily[0].StudentIDs)

		marks := []domain.AttendanceMark{{StudentID: student.ID, Justified: true}}
		require.NoError(t, courses.RecordAttendance(ctx, course.ID, teacher.ID, marks))
		assert.ErrorIs(t, courses.RecordAttendance(ctx, course.ID, teacher.ID, marks), ErrAlreadySigned)

		stats, err := students.AttendanceStats(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendanceStats{Justified: 1}, stats)

		tstats, err := teachers.AttendanceStats(ctx, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendanceStats{Present: 1}, tstats)
	})
}
