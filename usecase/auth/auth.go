package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
)

// Config carries the tunables of the auth use case.
type Config struct {
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	resets   repository.ResetTokenRepository
	logger   *zap.Logger
	cfg      Config
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	resets repository.ResetTokenRepository,
	logger *zap.Logger,
	cfg Config,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 30 * time.Minute
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		resets:   resets,
		logger:   logger,
		cfg:      cfg,
	}
}

// SignUp registers a new user and opens a session for it.
func (uc *UseCase) SignUp(ctx context.Context, email, password, fullName string) (*domain.User, *domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := uc.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	uc.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, session, nil
}

// SignIn verifies the credentials and opens a session. Unknown email and
// wrong password are indistinguishable to the caller.
func (uc *UseCase) SignIn(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, nil, domain.ErrWrongCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, domain.ErrWrongCredentials
	}

	session, err := uc.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// SignOut revokes the session.
func (uc *UseCase) SignOut(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// Session returns the live session or ErrSessionNotFound if it is
// missing or expired. Expired sessions are purged on sight.
func (uc *UseCase) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession pushes the expiry of an existing session forward.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, uc.cfg.SessionTTL); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(uc.cfg.SessionTTL)
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RequestPasswordReset issues a single-use reset token for the account
// behind email. An unknown email yields no error and no token, so the
// endpoint cannot be used to probe for registered addresses.
func (uc *UseCase) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.logger.Info("password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	token := uuid.NewString()
	if err := uc.resets.Save(ctx, token, user.ID, uc.cfg.ResetTokenTTL); err != nil {
		return "", err
	}
	uc.logger.Info("password reset token issued", zap.String("user_id", user.ID))
	return token, nil
}

// ConfirmPasswordReset redeems the token and replaces the password.
func (uc *UseCase) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	userID, err := uc.resets.Redeem(ctx, token)
	if err != nil {
		return err
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), uc.cfg.BcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return uc.users.Update(ctx, user)
}

func (uc *UseCase) createSession(ctx context.Context, userID string) (*domain.Session, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.SessionTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
