package services

import (
	"context"
	"encoding/json"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/internal/infrastructure/buffer"
	"github.com/taskdeck/backend/usecase"
)

// BufferBridge adapts the buffer processor to the usecase.OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfile(ctx context.Context, user *domain.User) error {
	if b.processor == nil || user == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		UserID:    user.ID,
		Entity:    buffer.EntityProfile,
		Operation: buffer.OperationUpdate,
		Data:      payload,
		Priority:  3,
	})
}

func (b *BufferBridge) BufferTaskCreate(ctx context.Context, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		UserID:    task.UserID,
		Entity:    buffer.EntityTask,
		Operation: buffer.OperationCreate,
		TargetID:  task.ID,
		Data:      payload,
		Priority:  4,
	})
}

func (b *BufferBridge) BufferTaskUpdate(ctx context.Context, userID, id string, patch domain.TaskPatch) error {
	if b.processor == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		UserID:    userID,
		Entity:    buffer.EntityTask,
		Operation: buffer.OperationUpdate,
		TargetID:  id,
		Data:      payload,
		Priority:  4,
	})
}

func (b *BufferBridge) BufferTaskDelete(ctx context.Context, userID, id string) error {
	if b.processor == nil {
		return domain.ErrInvalidPayload
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		UserID:    userID,
		Entity:    buffer.EntityTask,
		Operation: buffer.OperationDelete,
		TargetID:  id,
		Priority:  4,
	})
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
