package task

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/taskdeck/backend/domain"
)

// fakeTaskRepo is an in-memory TaskRepository with per-method error
// injection.
type fakeTaskRepo struct {
	tasks []domain.Task
	next  int

	ListErr   error
	GetErr    error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

func (f *fakeTaskRepo) ListByOwner(ctx context.Context, userID string) ([]domain.Task, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []domain.Task
	for i := len(f.tasks) - 1; i >= 0; i-- {
		if f.tasks[i].UserID == userID {
			out = append(out, f.tasks[i])
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id && f.tasks[i].UserID == userID {
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.next++
	created := *task
	if created.ID == "" {
		created.ID = fmt.Sprintf("task-%d", f.next)
	}
	if created.Priority == "" {
		created.Priority = domain.PriorityMedium
	}
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	f.tasks = append(f.tasks, created)
	return &created, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id && f.tasks[i].UserID == userID {
			patch.ApplyTo(&f.tasks[i])
			f.tasks[i].UpdatedAt = time.Now()
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (f *fakeTaskRepo) Delete(ctx context.Context, userID, id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id && f.tasks[i].UserID == userID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

// fakeBuffer records buffered operations.
type fakeBuffer struct {
	profiles int
	creates  int
	updates  int
	deletes  int
	Err      error
}

func (f *fakeBuffer) BufferProfile(ctx context.Context, user *domain.User) error {
	if f.Err == nil {
		f.profiles++
	}
	return f.Err
}

func (f *fakeBuffer) BufferTaskCreate(ctx context.Context, task *domain.Task) error {
	if f.Err == nil {
		f.creates++
	}
	return f.Err
}

func (f *fakeBuffer) BufferTaskUpdate(ctx context.Context, userID, id string, patch domain.TaskPatch) error {
	if f.Err == nil {
		f.updates++
	}
	return f.Err
}

func (f *fakeBuffer) BufferTaskDelete(ctx context.Context, userID, id string) error {
	if f.Err == nil {
		f.deletes++
	}
	return f.Err
}

func seed(repo *fakeTaskRepo, userID string, titles ...string) {
	for _, title := range titles {
		_, _ = repo.Create(context.Background(), &domain.Task{UserID: userID, Title: title})
	}
}

func TestCreateTask(t *testing.T) {
	repo := &fakeTaskRepo{}
	uc := New(repo, nil, nil)

	created, err := uc.CreateTask(context.Background(), &domain.Task{UserID: "u1", Title: "hello"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID == "" || created.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected created task: %+v", created)
	}

	if _, err := uc.CreateTask(context.Background(), &domain.Task{Title: "no owner"}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID for missing owner, got %v", err)
	}
	if _, err := uc.CreateTask(context.Background(), nil); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID for nil task, got %v", err)
	}
}

func TestCreateTaskBuffersOnOutage(t *testing.T) {
	repo := &fakeTaskRepo{CreateErr: domain.ErrStoreUnavailable}
	buf := &fakeBuffer{}
	uc := New(repo, buf, nil)

	created, err := uc.CreateTask(context.Background(), &domain.Task{UserID: "u1", Title: "deferred"})
	if err != nil {
		t.Fatalf("expected buffered create to succeed, got %v", err)
	}
	if created.ID == "" {
		t.Fatal("buffered create must assign an id")
	}
	if buf.creates != 1 {
		t.Fatalf("buffered creates = %d", buf.creates)
	}

	// without a buffer the outage surfaces
	uc = New(repo, nil, nil)
	if _, err := uc.CreateTask(context.Background(), &domain.Task{UserID: "u1", Title: "fails"}); err == nil {
		t.Fatal("expected error without buffer")
	}
}

func TestUpdateTask(t *testing.T) {
	repo := &fakeTaskRepo{}
	seed(repo, "u1", "original")
	uc := New(repo, nil, nil)

	title := "edited"
	updated, err := uc.UpdateTask(context.Background(), "u1", "task-1", domain.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "edited" {
		t.Fatalf("title = %q", updated.Title)
	}

	// unknown id is not buffered, it surfaces as NOT_FOUND
	buf := &fakeBuffer{}
	uc = New(repo, buf, nil)
	if _, err := uc.UpdateTask(context.Background(), "u1", "missing", domain.TaskPatch{Title: &title}); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if buf.updates != 0 {
		t.Fatal("NOT_FOUND must not be buffered")
	}
}

func TestUpdateTaskBuffersOnOutage(t *testing.T) {
	repo := &fakeTaskRepo{UpdateErr: domain.ErrStoreUnavailable}
	buf := &fakeBuffer{}
	uc := New(repo, buf, nil)

	title := "deferred"
	updated, err := uc.UpdateTask(context.Background(), "u1", "task-1", domain.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("expected buffered update to succeed, got %v", err)
	}
	// accepted but result unknown
	if updated != nil {
		t.Fatalf("buffered update must return nil task, got %+v", updated)
	}
	if buf.updates != 1 {
		t.Fatalf("buffered updates = %d", buf.updates)
	}
}

func TestDeleteTask(t *testing.T) {
	repo := &fakeTaskRepo{}
	seed(repo, "u1", "doomed")
	uc := New(repo, nil, nil)

	if err := uc.DeleteTask(context.Background(), "u1", "task-1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := uc.DeleteTask(context.Background(), "u1", "task-1"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteTaskBuffersOnOutage(t *testing.T) {
	repo := &fakeTaskRepo{DeleteErr: domain.ErrStoreUnavailable}
	buf := &fakeBuffer{}
	uc := New(repo, buf, nil)

	if err := uc.DeleteTask(context.Background(), "u1", "task-1"); err != nil {
		t.Fatalf("expected buffered delete to succeed, got %v", err)
	}
	if buf.deletes != 1 {
		t.Fatalf("buffered deletes = %d", buf.deletes)
	}
}

func TestToggleTask(t *testing.T) {
	repo := &fakeTaskRepo{}
	seed(repo, "u1", "flip me")
	repo.tasks[0].Description = "details"
	uc := New(repo, nil, nil)

	toggled, err := uc.ToggleTask(context.Background(), "u1", "task-1")
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if !toggled.Completed {
		t.Fatal("not flipped")
	}
	if toggled.Title != "flip me" || toggled.Description != "details" {
		t.Fatalf("other fields changed: %+v", toggled)
	}

	toggled, err = uc.ToggleTask(context.Background(), "u1", "task-1")
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if toggled.Completed {
		t.Fatal("second toggle did not flip back")
	}

	if _, err := uc.ToggleTask(context.Background(), "u1", "missing"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListTasksScopedToOwner(t *testing.T) {
	repo := &fakeTaskRepo{}
	seed(repo, "u1", "mine a", "mine b")
	seed(repo, "u2", "theirs")
	uc := New(repo, nil, nil)

	tasks, err := uc.ListTasks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.UserID != "u1" {
			t.Fatalf("foreign task leaked: %+v", task)
		}
	}
}
