package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/events"
	"github.com/scoo-app/scoo-api/internal/repository/memrepo"
)

func newFakeUserRepo(users ...*domain.User) *memrepo.Users {
	store := memrepo.NewStore()
	for _, u := range users {
		store.SeedUser(*u)
	}
	return store.Users()
}

func newFakeGroupRepo() *memrepo.Groups {
	return memrepo.NewStore().Groups()
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

// school wires every service over one in-memory store.
type school struct {
	store      *memrepo.Store
	dispatcher *recordingDispatcher
	users      *UserService
	groups     *GroupService
	students   *StudentService
	teachers   *TeacherService
	courses    *CourseService
}

func newSchool(now func() time.Time) *school {
	store := memrepo.NewStore()
	dispatcher := &recordingDispatcher{}
	logger := zap.NewNop()
	return &school{
		store:      store,
		dispatcher: dispatcher,
		users:      NewUserService(store.Users(), dispatcher, logger, 4),
		groups:     NewGroupService(store.Groups(), store.Students(), dispatcher, logger),
		students: NewStudentService(StudentDependencies{
			Students: store.Students(), Users: store.Users(), Dispatcher: dispatcher, Logger: logger, BcryptCost: 4,
		}),
		teachers: NewTeacherService(TeacherDependencies{
			Teachers: store.Teachers(), Users: store.Users(), Courses: store.Courses(),
			Dispatcher: dispatcher, Logger: logger, BcryptCost: 4, Now: now,
		}),
		courses: NewCourseService(CourseDependencies{
			Courses: store.Courses(), Teachers: store.Teachers(), Students: store.Students(),
			Dispatcher: dispatcher, Logger: logger,
		}),
	}
}
