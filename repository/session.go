package repository

import (
	"context"
	"time"

	"github.com/taskdeck/backend/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttl time.Duration) error
}

// ResetTokenRepository stores short-lived password-reset tokens.
type ResetTokenRepository interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	// Redeem returns the user id bound to the token and invalidates it.
	Redeem(ctx context.Context, token string) (string, error)
}
