// Package memrepo keeps every repository in process memory. It backs the
// service and HTTP tests and mirrors the error contract of the postgres
// repositories: pgx.ErrNoRows for missing rows, repository.ErrDuplicate and
// repository.ErrMissingReference for rejected writes.
package memrepo

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/repository"
)

var (
	_ repository.UserRepository    = (*Users)(nil)
	_ repository.GroupRepository   = (*Groups)(nil)
	_ repository.StudentRepository = (*Students)(nil)
	_ repository.TeacherRepository = (*Teachers)(nil)
	_ repository.CourseRepository  = (*Courses)(nil)
)

type attendance struct {
	courseID string
	mark     domain.AttendanceMark
}

// Store is the shared state behind the repositories it hands out.
type Store struct {
	mu       sync.Mutex
	users    map[string]domain.User
	groups   map[string]domain.Group
	students map[string]domain.Student
	teachers map[string]domain.Teacher
	courses  map[string]domain.Course

	studentAttendance map[string][]attendance
	teacherAttendance map[string][]attendance
}

func NewStore() *Store {
	return &Store{
		users:             map[string]domain.User{},
		groups:            map[string]domain.Group{},
		students:          map[string]domain.Student{},
		teachers:          map[string]domain.Teacher{},
		courses:           map[string]domain.Course{},
		studentAttendance: map[string][]attendance{},
		teacherAttendance: map[string][]attendance{},
	}
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Groups() *Groups     { return &Groups{s} }
func (s *Store) Students() *Students { return &Students{s} }
func (s *Store) Teachers() *Teachers { return &Teachers{s} }
func (s *Store) Courses() *Courses   { return &Courses{s} }

// SeedUser stores user as is, keeping its ID.
func (s *Store) SeedUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func (s *Store) insertUser(user *domain.User) error {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *Store) member(userID string) domain.Member {
	u := s.users[userID]
	return domain.Member{UserID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Active: u.Active}
}

func lessByName(a, b domain.Member, idA, idB string) bool {
	if a.LastName != b.LastName {
		return a.LastName < b.LastName
	}
	if a.FirstName != b.FirstName {
		return a.FirstName < b.FirstName
	}
	return idA < idB
}

func stats(records []attendance) domain.AttendanceStats {
	var st domain.AttendanceStats
	for _, r := range records {
		switch {
		case r.mark.Present:
			st.Present++
		case r.mark.Justified:
			st.Justified++
		default:
			st.Absent++
		}
	}
	return st
}

// Users implements repository.UserRepository.
type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUser(user)
}

func (r *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Users) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := &domain.UserProfile{User: *u}
	if u.CreatedBy != nil {
		if creator, err := r.GetByID(ctx, *u.CreatedBy); err == nil {
			name := creator.DisplayName()
			profile.CreatedByName = &name
		}
	}
	return profile, nil
}

// Groups implements repository.GroupRepository.
type Groups struct{ s *Store }

func (r *Groups) nameTaken(name, except string) bool {
	for id, g := range r.s.groups {
		if id != except && g.Name == name {
			return true
		}
	}
	return false
}

func (r *Groups) Create(_ context.Context, group *domain.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(group.Name, "") {
		return repository.ErrDuplicate
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	r.s.groups[group.ID] = *group
	return nil
}

func (r *Groups) Update(_ context.Context, group *domain.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[group.ID]; !ok {
		return pgx.ErrNoRows
	}
	if r.nameTaken(group.Name, group.ID) {
		return repository.ErrDuplicate
	}
	group.UpdatedAt = time.Now()
	r.s.groups[group.ID] = *group
	return nil
}

func (r *Groups) GetByID(_ context.Context, id string) (*domain.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &g, nil
}

func (r *Groups) List(_ context.Context, offset, limit int) ([]domain.Group, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]domain.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		all = append(all, g)
	}
	sortGroups(all)
	return page(all, offset, limit), len(all), nil
}

func sortGroups(groups []domain.Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
}

// Students implements repository.StudentRepository.
type Students struct{ s *Store }

func (r *Students) insert(student *domain.Student) error {
	if _, ok := r.s.users[student.UserID]; !ok {
		return repository.ErrMissingReference
	}
	for _, st := range r.s.students {
		if st.UserID == student.UserID {
			return repository.ErrDuplicate
		}
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.CreatedAt = time.Now()
	if student.GroupIDs == nil {
		student.GroupIDs = []string{}
	}
	r.s.students[student.ID] = *student
	return nil
}

func (r *Students) CreateWithUser(_ context.Context, user *domain.User, student *domain.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.insertUser(user); err != nil {
		return err
	}
	student.UserID = user.ID
	if err := r.insert(student); err != nil {
		delete(r.s.users, user.ID)
		return err
	}
	return nil
}

func (r *Students) Create(_ context.Context, student *domain.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insert(student)
}

func (r *Students) view(st domain.Student) domain.StudentView {
	st.GroupIDs = slices.Clone(st.GroupIDs)
	sort.Strings(st.GroupIDs)
	return domain.StudentView{Student: st, Member: r.s.member(st.UserID)}
}

func (r *Students) GetByID(_ context.Context, id string) (*domain.StudentView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	v := r.view(st)
	return &v, nil
}

func (r *Students) GetByUserID(_ context.Context, userID string) (*domain.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.students {
		if st.UserID == userID {
			v := r.view(st)
			return &v.Student, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Students) List(_ context.Context, offset, limit int) ([]domain.StudentView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]domain.StudentView, 0, len(r.s.students))
	for _, st := range r.s.students {
		all = append(all, r.view(st))
	}
	sort.Slice(all, func(i, j int) bool {
		return lessByName(all[i].Member, all[j].Member, all[i].ID, all[j].ID)
	})
	return page(all, offset, limit), len(all), nil
}

func (r *Students) ListGroups(_ context.Context, studentID string, offset, limit int) ([]domain.Group, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[studentID]
	if !ok {
		return []domain.Group{}, 0, nil
	}
	groups := make([]domain.Group, 0, len(st.GroupIDs))
	for _, id := range st.GroupIDs {
		groups = append(groups, r.s.groups[id])
	}
	sortGroups(groups)
	return page(groups, offset, limit), len(groups), nil
}

func (r *Students) AddGroups(_ context.Context, studentID string, groupIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[studentID]
	if !ok {
		return repository.ErrMissingReference
	}
	for _, id := range groupIDs {
		if _, ok := r.s.groups[id]; !ok {
			return repository.ErrMissingReference
		}
	}
	for _, id := range groupIDs {
		if !slices.Contains(st.GroupIDs, id) {
			st.GroupIDs = append(st.GroupIDs, id)
		}
	}
	r.s.students[studentID] = st
	return nil
}

func (r *Students) RemoveGroups(_ context.Context, studentID string, groupIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[studentID]
	if !ok {
		return nil
	}
	st.GroupIDs = slices.DeleteFunc(slices.Clone(st.GroupIDs), func(id string) bool {
		return slices.Contains(groupIDs, id)
	})
	r.s.students[studentID] = st
	return nil
}

func (r *Students) JoinGroup(_ context.Context, groupID string, studentIDs []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[groupID]; !ok {
		return 0, repository.ErrMissingReference
	}
	for _, id := range studentIDs {
		if _, ok := r.s.students[id]; !ok {
			return 0, repository.ErrMissingReference
		}
	}
	added := 0
	for _, id := range studentIDs {
		st := r.s.students[id]
		if slices.Contains(st.GroupIDs, groupID) {
			continue
		}
		st.GroupIDs = append(slices.Clone(st.GroupIDs), groupID)
		r.s.students[id] = st
		added++
	}
	return added, nil
}

func (r *Students) IDsInGroups(_ context.Context, groupIDs []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []string{}
	for id, st := range r.s.students {
		for _, g := range st.GroupIDs {
			if slices.Contains(groupIDs, g) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Students) AttendanceStats(_ context.Context, studentID string) (domain.AttendanceStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return stats(r.s.studentAttendance[studentID]), nil
}

// Teachers implements repository.TeacherRepository.
type Teachers struct{ s *Store }

func (r *Teachers) CreateWithUser(_ context.Context, user *domain.User, teacher *domain.Teacher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.insertUser(user); err != nil {
		return err
	}
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	teacher.UserID = user.ID
	teacher.CreatedAt = time.Now()
	teacher.UpdatedAt = teacher.CreatedAt
	r.s.teachers[teacher.ID] = *teacher
	return nil
}

func (r *Teachers) GetByID(_ context.Context, id string) (*domain.TeacherView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teachers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.TeacherView{Teacher: t, Member: r.s.member(t.UserID)}, nil
}

func (r *Teachers) GetByUserID(_ context.Context, userID string) (*domain.Teacher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.teachers {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Teachers) List(_ context.Context, offset, limit int) ([]domain.TeacherView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]domain.TeacherView, 0, len(r.s.teachers))
	for _, t := range r.s.teachers {
		all = append(all, domain.TeacherView{Teacher: t, Member: r.s.member(t.UserID)})
	}
	sort.Slice(all, func(i, j int) bool {
		return lessByName(all[i].Member, all[j].Member, all[i].ID, all[j].ID)
	})
	return page(all, offset, limit), len(all), nil
}

func (r *Teachers) AttendanceStats(_ context.Context, teacherID string) (domain.AttendanceStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return stats(r.s.teacherAttendance[teacherID]), nil
}

// Courses implements repository.CourseRepository.
type Courses struct{ s *Store }

func (r *Courses) Create(_ context.Context, course *domain.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teachers[course.TeacherID]; !ok {
		return repository.ErrMissingReference
	}
	for _, id := range course.GroupIDs {
		if _, ok := r.s.groups[id]; !ok {
			return repository.ErrMissingReference
		}
	}
	for _, id := range course.StudentIDs {
		if _, ok := r.s.students[id]; !ok {
			return repository.ErrMissingReference
		}
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	stored := *course
	stored.GroupIDs = slices.Clone(course.GroupIDs)
	stored.StudentIDs = slices.Clone(course.StudentIDs)
	r.s.courses[course.ID] = stored
	return nil
}

func (r *Courses) GetByID(_ context.Context, id string) (*domain.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r *Courses) List(_ context.Context, offset, limit int) ([]domain.Course, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]domain.Course, 0, len(r.s.courses))
	for _, c := range r.s.courses {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.After(all[j].Start)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, offset, limit), len(all), nil
}

func (r *Courses) ListForTeacherBetween(_ context.Context, teacherID string, from, to time.Time) ([]domain.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Course{}
	for _, c := range r.s.courses {
		if c.TeacherID == teacherID && !c.Start.Before(from) && !c.Start.After(to) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *Courses) RecordAttendance(_ context.Context, courseID, teacherID string, marks []domain.AttendanceMark) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[courseID]
	if !ok || c.Signed {
		return repository.ErrAlreadySigned
	}
	for _, m := range marks {
		if _, ok := r.s.students[m.StudentID]; !ok {
			return repository.ErrMissingReference
		}
	}
	c.Signed = true
	c.UpdatedAt = time.Now()
	r.s.courses[courseID] = c
	for _, m := range marks {
		r.s.studentAttendance[m.StudentID] = append(r.s.studentAttendance[m.StudentID], attendance{courseID: courseID, mark: m})
	}
	r.s.teacherAttendance[teacherID] = append(r.s.teacherAttendance[teacherID],
		attendance{courseID: courseID, mark: domain.AttendanceMark{Present: true}})
	return nil
}
