package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/internal/infrastructure/buffer"
)

type replayTaskRepo struct {
	CreateErr error
	UpdateErr error
	DeleteErr error

	creates int
	updates int
	deletes int
}

func (f *replayTaskRepo) ListByOwner(ctx context.Context, userID string) ([]domain.Task, error) {
	return nil, nil
}

func (f *replayTaskRepo) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (f *replayTaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	f.creates++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	return task, nil
}

func (f *replayTaskRepo) Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	f.updates++
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	return &domain.Task{ID: id, UserID: userID}, nil
}

func (f *replayTaskRepo) Delete(ctx context.Context, userID, id string) error {
	f.deletes++
	return f.DeleteErr
}

type replayUserRepo struct {
	UpdateErr error
	updates   int
}

func (f *replayUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (f *replayUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (f *replayUserRepo) Create(ctx context.Context, user *domain.User) error {
	return nil
}

func (f *replayUserRepo) Update(ctx context.Context, user *domain.User) error {
	f.updates++
	return f.UpdateErr
}

func newReplayProcessor(taskRepo *replayTaskRepo, userRepo *replayUserRepo) *BufferProcessor {
	return NewBufferProcessor(nil, nil, userRepo, taskRepo, nil, ProcessorConfig{})
}

func taskItem(op string, data interface{}) buffer.Item {
	payload, _ := json.Marshal(data)
	return buffer.Item{
		UserID:    "u1",
		Entity:    buffer.EntityTask,
		Operation: op,
		TargetID:  "task-1",
		Data:      payload,
	}
}

func TestProcessItemReplaysTaskOperations(t *testing.T) {
	taskRepo := &replayTaskRepo{}
	bp := newReplayProcessor(taskRepo, &replayUserRepo{})
	ctx := context.Background()

	if err := bp.processItem(ctx, taskItem(buffer.OperationCreate, domain.Task{ID: "task-1", UserID: "u1", Title: "x"})); err != nil {
		t.Fatalf("create replay: %v", err)
	}
	title := "renamed"
	if err := bp.processItem(ctx, taskItem(buffer.OperationUpdate, domain.TaskPatch{Title: &title})); err != nil {
		t.Fatalf("update replay: %v", err)
	}
	if err := bp.processItem(ctx, taskItem(buffer.OperationDelete, nil)); err != nil {
		t.Fatalf("delete replay: %v", err)
	}
	if taskRepo.creates != 1 || taskRepo.updates != 1 || taskRepo.deletes != 1 {
		t.Fatalf("unexpected call counts: %+v", taskRepo)
	}
}

// A replayed create that collides with an already-applied row is done,
// not a failure to retry.
func TestProcessItemTreatsDuplicateCreateAsDone(t *testing.T) {
	taskRepo := &replayTaskRepo{
		CreateErr: domain.WrapError(domain.ErrCodeConflict, "task already exists", nil),
	}
	bp := newReplayProcessor(taskRepo, &replayUserRepo{})

	item := taskItem(buffer.OperationCreate, domain.Task{ID: "task-1", UserID: "u1", Title: "x"})
	if err := bp.processItem(context.Background(), item); err != nil {
		t.Fatalf("duplicate create should be treated as applied, got %v", err)
	}
}

func TestProcessItemSkipsVanishedTask(t *testing.T) {
	taskRepo := &replayTaskRepo{
		UpdateErr: domain.ErrTaskNotFound,
		DeleteErr: domain.ErrTaskNotFound,
	}
	bp := newReplayProcessor(taskRepo, &replayUserRepo{})
	ctx := context.Background()

	title := "renamed"
	if err := bp.processItem(ctx, taskItem(buffer.OperationUpdate, domain.TaskPatch{Title: &title})); err != nil {
		t.Fatalf("update of vanished task should succeed, got %v", err)
	}
	if err := bp.processItem(ctx, taskItem(buffer.OperationDelete, nil)); err != nil {
		t.Fatalf("delete of vanished task should succeed, got %v", err)
	}
}

func TestProcessItemSurfacesRealFailures(t *testing.T) {
	taskRepo := &replayTaskRepo{UpdateErr: domain.ErrStoreUnavailable}
	bp := newReplayProcessor(taskRepo, &replayUserRepo{})

	title := "renamed"
	if err := bp.processItem(context.Background(), taskItem(buffer.OperationUpdate, domain.TaskPatch{Title: &title})); err == nil {
		t.Fatal("outage during replay must surface so the item is retried")
	}

	if err := bp.processItem(context.Background(), buffer.Item{Entity: "unknown"}); err == nil {
		t.Fatal("unknown entity must fail")
	}
}

func TestProcessItemReplaysProfile(t *testing.T) {
	userRepo := &replayUserRepo{}
	bp := newReplayProcessor(&replayTaskRepo{}, userRepo)

	payload, _ := json.Marshal(domain.User{ID: "u1", Email: "u1@example.com"})
	item := buffer.Item{
		UserID:    "u1",
		Entity:    buffer.EntityProfile,
		Operation: buffer.OperationUpdate,
		Data:      payload,
	}
	if err := bp.processItem(context.Background(), item); err != nil {
		t.Fatalf("profile replay: %v", err)
	}
	if userRepo.updates != 1 {
		t.Fatalf("profile updates = %d", userRepo.updates)
	}
}
