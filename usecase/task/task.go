package task

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
	"github.com/taskdeck/backend/usecase"
)

// UseCase owns the server-side task operations. Writes go straight to
// the repository; when a buffer is configured, repository outages fall
// back to buffered delivery instead of failing the request.
type UseCase struct {
	tasks  repository.TaskRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		buffer: buffer,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	return uc.tasks.ListByOwner(ctx, userID)
}

func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, userID, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.buffer != nil && !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			if task.ID == "" {
				task.ID = uuid.NewString()
			}
			if bufErr := uc.buffer.BufferTaskCreate(ctx, task); bufErr == nil {
				logger.WithRequestID(ctx, uc.logger).Warn("task create buffered", zap.String("task_id", task.ID), zap.Error(err))
				return task, nil
			}
		}
		return nil, err
	}
	return created, nil
}

// UpdateTask applies the patch to the task owned by userID. A buffered
// update returns (nil, nil): accepted, result not yet known.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	updated, err := uc.tasks.Update(ctx, userID, id, patch)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, err
		}
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferTaskUpdate(ctx, userID, id, patch); bufErr == nil {
				logger.WithRequestID(ctx, uc.logger).Warn("task update buffered", zap.String("task_id", id), zap.Error(err))
				return nil, nil
			}
		}
		return nil, err
	}
	return updated, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	err := uc.tasks.Delete(ctx, userID, id)
	if err == nil || domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	if uc.buffer != nil {
		if bufErr := uc.buffer.BufferTaskDelete(ctx, userID, id); bufErr == nil {
			logger.WithRequestID(ctx, uc.logger).Warn("task delete buffered", zap.String("task_id", id), zap.Error(err))
			return nil
		}
	}
	return err
}

// ToggleTask flips the completion flag of the task, leaving every other
// field untouched.
func (uc *UseCase) ToggleTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	current, err := uc.tasks.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	completed := !current.Completed
	return uc.UpdateTask(ctx, userID, id, domain.TaskPatch{Completed: &completed})
}
