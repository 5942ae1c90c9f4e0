package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
	"github.com/taskdeck/backend/usecase"
)

type UseCase struct {
	users  repository.UserRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(users repository.UserRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		buffer: buffer,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile changes the identity fields a session exposes: email and
// display name. Empty arguments leave the current value in place.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID, email, fullName string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email = strings.TrimSpace(email); email != "" {
		user.Email = strings.ToLower(email)
	}
	if fullName = strings.TrimSpace(fullName); fullName != "" {
		user.FullName = fullName
	}

	if err := uc.users.Update(ctx, user); err != nil {
		if uc.buffer != nil && !domain.IsDomainError(err, domain.ErrCodeConflict) {
			if bufErr := uc.buffer.BufferProfile(ctx, user); bufErr == nil {
				logger.WithRequestID(ctx, uc.logger).Warn("profile update buffered", zap.String("user_id", userID), zap.Error(err))
				return user, nil
			}
		}
		return nil, err
	}
	return user, nil
}
