package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
)

type resetTokenRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewResetTokenRepository creates a Redis-backed password-reset token store.
func NewResetTokenRepository(client *redislib.Client, ttl time.Duration) repository.ResetTokenRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &resetTokenRepository{
		client: client,
		prefix: "pwreset:",
		ttl:    ttl,
	}
}

func (r *resetTokenRepository) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if token == "" || userID == "" {
		return domain.ErrInvalidPayload
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, r.prefix+token, userID, ttl).Err()
}

func (r *resetTokenRepository) Redeem(ctx context.Context, token string) (string, error) {
	// GETDEL keeps redemption single-use without a transaction.
	userID, err := r.client.GetDel(ctx, r.prefix+token).Result()
	if err != nil {
		if err == redislib.Nil {
			return "", domain.ErrResetTokenInvalid
		}
		return "", err
	}
	return userID, nil
}
