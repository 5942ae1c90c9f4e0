package repository

import (
	"context"

	"github.com/taskdeck/backend/domain"
)

// TaskRepository is the persistence contract for the tasks collection.
// Every read and write is scoped to the owning user.
type TaskRepository interface {
	// ListByOwner returns all tasks owned by userID ordered by creation
	// time descending.
	ListByOwner(ctx context.Context, userID string) ([]domain.Task, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	// Create inserts the task and returns the stored row with the
	// server-assigned id and timestamps.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Update applies only the fields present in the patch to the row
	// matching both id and owner, returning the updated row.
	Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) error
}
