package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskdeck/backend/domain"
)

type fakeUserRepo struct {
	users map[string]*domain.User // by id
	next  int

	GetErr    error
	CreateErr error
	UpdateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	f.next++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", f.next)
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session

	SaveErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	if s, ok := f.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessionRepo) Save(ctx context.Context, session *domain.Session) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) Extend(ctx context.Context, id string, ttl time.Duration) error {
	s, ok := f.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.ExpiresAt = time.Now().Add(ttl)
	return nil
}

type fakeResetRepo struct {
	tokens map[string]string // token -> userID
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]string)}
}

func (f *fakeResetRepo) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeResetRepo) Redeem(ctx context.Context, token string) (string, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	delete(f.tokens, token)
	return userID, nil
}

// bcrypt.MinCost keeps the hashing fast in tests.
func newTestUseCase() (*UseCase, *fakeUserRepo, *fakeSessionRepo, *fakeResetRepo) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	resets := newFakeResetRepo()
	uc := New(users, sessions, resets, nil, Config{
		SessionTTL:    time.Hour,
		ResetTokenTTL: 10 * time.Minute,
		BcryptCost:    bcrypt.MinCost,
	})
	return uc, users, sessions, resets
}

func TestSignUpAndSignIn(t *testing.T) {
	uc, _, sessions, _ := newTestUseCase()
	ctx := context.Background()

	user, session, err := uc.SignUp(ctx, "  Ada@Example.COM ", "secret1", " Ada Lovelace ")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.FullName != "Ada Lovelace" {
		t.Fatalf("full name not trimmed: %q", user.FullName)
	}
	if user.PasswordHash == "secret1" {
		t.Fatal("password stored in the clear")
	}
	if _, ok := sessions.sessions[session.ID]; !ok {
		t.Fatal("signup session not persisted")
	}

	// normalized email signs in regardless of input casing
	got, session2, err := uc.SignIn(ctx, "ADA@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("signed in as %q, want %q", got.ID, user.ID)
	}
	if session2.ID == session.ID {
		t.Fatal("sign-in reused the signup session")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	ctx := context.Background()

	if _, _, err := uc.SignUp(ctx, "ada@example.com", "secret1", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, _, err := uc.SignUp(ctx, "ada@example.com", "other99", "Other"); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestSignInWrongCredentials(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	ctx := context.Background()

	if _, _, err := uc.SignUp(ctx, "ada@example.com", "secret1", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// unknown email and wrong password produce the same error
	_, _, unknownErr := uc.SignIn(ctx, "nobody@example.com", "secret1")
	_, _, wrongErr := uc.SignIn(ctx, "ada@example.com", "not-it")
	if unknownErr != domain.ErrWrongCredentials {
		t.Fatalf("unknown email: %v", unknownErr)
	}
	if wrongErr != domain.ErrWrongCredentials {
		t.Fatalf("wrong password: %v", wrongErr)
	}
}

func TestSessionLifecycle(t *testing.T) {
	uc, _, sessions, _ := newTestUseCase()
	ctx := context.Background()

	_, session, err := uc.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	got, err := uc.Session(ctx, session.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.UserID != session.UserID {
		t.Fatalf("session user = %q", got.UserID)
	}

	if err := uc.SignOut(ctx, session.ID); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := uc.Session(ctx, session.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND after sign-out, got %v", err)
	}

	// expired sessions are purged on access
	expired := &domain.Session{
		ID:        "expired-session",
		UserID:    "user-1",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	sessions.sessions[expired.ID] = expired
	if _, err := uc.Session(ctx, expired.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND for expired session, got %v", err)
	}
	if _, ok := sessions.sessions[expired.ID]; ok {
		t.Fatal("expired session not purged")
	}
}

func TestRefreshSession(t *testing.T) {
	uc, _, sessions, _ := newTestUseCase()
	ctx := context.Background()

	_, session, err := uc.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	before := sessions.sessions[session.ID].ExpiresAt

	refreshed, err := uc.RefreshSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("RefreshSession: %v", err)
	}
	if !refreshed.ExpiresAt.After(before.Add(-time.Minute)) {
		t.Fatalf("expiry not extended: %v -> %v", before, refreshed.ExpiresAt)
	}
}

func TestPasswordReset(t *testing.T) {
	uc, _, _, resets := newTestUseCase()
	ctx := context.Background()

	if _, _, err := uc.SignUp(ctx, "ada@example.com", "secret1", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	token, err := uc.RequestPasswordReset(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token for a known email")
	}

	if err := uc.ConfirmPasswordReset(ctx, token, "newpass1"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
	if _, _, err := uc.SignIn(ctx, "ada@example.com", "newpass1"); err != nil {
		t.Fatalf("sign-in with new password: %v", err)
	}
	if _, _, err := uc.SignIn(ctx, "ada@example.com", "secret1"); err != domain.ErrWrongCredentials {
		t.Fatalf("old password still works: %v", err)
	}

	// tokens are single-use
	if err := uc.ConfirmPasswordReset(ctx, token, "again99"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID on reuse, got %v", err)
	}
	if len(resets.tokens) != 0 {
		t.Fatal("token not consumed")
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	uc, _, _, resets := newTestUseCase()

	// no error and no token, so the endpoint cannot probe for accounts
	token, err := uc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token != "" {
		t.Fatalf("token issued for unknown email: %q", token)
	}
	if len(resets.tokens) != 0 {
		t.Fatal("token stored for unknown email")
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "taskdeck")
	session := &domain.Session{
		ID:        "session-1",
		UserID:    "user-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	token, err := issuer.Issue(session)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" || strings.Count(token, ".") != 2 {
		t.Fatalf("malformed JWT: %q", token)
	}
}
