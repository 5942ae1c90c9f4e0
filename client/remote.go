// Package client implements the consuming side of the remote store: an
// authenticated transport plus a session-bound in-memory mirror of one
// user's tasks.
package client

import (
	"context"
	"time"

	"github.com/taskdeck/backend/domain"
)

// TaskDraft carries the user-editable fields of a new task.
type TaskDraft struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// Remote is the task surface of the remote store as seen by a signed-in
// client. Implementations scope every call to the authenticated user.
type Remote interface {
	// ListTasks returns the caller's tasks ordered by creation time
	// descending.
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, draft TaskDraft) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Credentials is what the auth surface hands back on success.
type Credentials struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

// AuthRemote is the authentication surface of the remote store.
type AuthRemote interface {
	SignUp(ctx context.Context, email, password, fullName string) (*Credentials, error)
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	ResetPassword(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
}
