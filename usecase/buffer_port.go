package usecase

import (
	"context"

	"github.com/taskdeck/backend/domain"
)

// OperationBuffer abstracts the degraded-mode write buffer so use cases
// stay storage-agnostic. A nil buffer means writes fail loudly.
type OperationBuffer interface {
	BufferProfile(ctx context.Context, user *domain.User) error
	BufferTaskCreate(ctx context.Context, task *domain.Task) error
	BufferTaskUpdate(ctx context.Context, userID, id string, patch domain.TaskPatch) error
	BufferTaskDelete(ctx context.Context, userID, id string) error
}
