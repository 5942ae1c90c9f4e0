package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/validate"
)

// ErrMutationInFlight is returned when a second mutation targets a task
// whose previous mutation has not finished. Concurrent edits to one id
// are last-write-wins on the server, so the store rejects the overlap
// instead of racing.
var ErrMutationInFlight = domain.NewError(domain.ErrCodeConflict, "another change to this task is still in flight")

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = domain.NewError(domain.ErrCodeInternal, "task store closed")

// Store maintains the in-memory mirror of the signed-in user's tasks.
// The cache always reflects confirmed server state: mutations apply
// their result only after the remote store accepted them, and a failed
// request leaves the cache exactly as it was.
//
// The mirror is ordered by creation time descending, matching the fetch
// order; Create prepends and Update replaces in place to preserve it.
type Store struct {
	remote Remote
	logger *zap.Logger

	mu       sync.Mutex
	user     *domain.User
	tasks    []domain.Task
	lastErr  string
	inflight map[string]struct{}
	// gen increments on every identity change and on Close; responses
	// started under an older gen are discarded instead of applied.
	gen    uint64
	closed bool
}

// New builds a Store around the given remote. The store starts without
// an identity; call SetUser once the session is known.
func New(remote Remote, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		remote:   remote,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// SetUser binds the store to a new identity and refreshes the mirror
// exactly once. Passing the current identity is a no-op; passing nil
// clears the mirror without error.
func (s *Store) SetUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if sameIdentity(s.user, user) {
		s.mu.Unlock()
		return nil
	}
	s.user = user
	s.gen++
	s.tasks = nil
	s.lastErr = ""
	s.mu.Unlock()

	if user == nil {
		return nil
	}
	return s.FetchAll(ctx)
}

// FetchAll replaces the mirror with the remote store's current state.
// Without an authenticated user the mirror is emptied and no error is
// reported; reads degrade gracefully where writes fail loudly.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if s.user == nil {
		s.tasks = nil
		s.lastErr = ""
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	s.mu.Unlock()

	tasks, err := s.remote.ListTasks(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return nil
	}
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Warn("task fetch failed", zap.Error(err))
		return err
	}
	s.tasks = tasks
	s.lastErr = ""
	return nil
}

// Create submits a new task and, once the server confirms it, prepends
// the returned record so the mirror stays in descending creation order.
func (s *Store) Create(ctx context.Context, draft TaskDraft) (*domain.Task, error) {
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	if res := validate.Task(draft.Title, draft.Priority, ""); !res.OK() {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid task", res)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if s.user == nil {
		s.mu.Unlock()
		return nil, domain.ErrUnauthorized
	}
	gen := s.gen
	s.mu.Unlock()

	created, err := s.remote.CreateTask(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.gen == gen {
		s.tasks = append([]domain.Task{*created}, s.tasks...)
	}
	return created, nil
}

// Update sends only the fields present in the patch; on success the
// matching mirror entry is replaced in place, keeping its position.
func (s *Store) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	gen, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.release(id)

	updated, err := s.remote.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.gen == gen {
		for i := range s.tasks {
			if s.tasks[i].ID == id {
				s.tasks[i] = *updated
				break
			}
		}
	}
	return updated, nil
}

// Delete removes the task remotely, then drops it from the mirror.
func (s *Store) Delete(ctx context.Context, id string) error {
	gen, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer s.release(id)

	if err := s.remote.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.gen == gen {
		for i := range s.tasks {
			if s.tasks[i].ID == id {
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				break
			}
		}
	}
	return nil
}

// ToggleComplete flips the completion flag of the mirrored task. An id
// not present in the mirror is a no-op.
func (s *Store) ToggleComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	var current *domain.Task
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			current = &s.tasks[i]
			break
		}
	}
	if current == nil {
		s.mu.Unlock()
		return nil
	}
	completed := !current.Completed
	s.mu.Unlock()

	_, err := s.Update(ctx, id, domain.TaskPatch{Completed: &completed})
	return err
}

// Tasks returns a copy of the mirror in its stored order.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Err returns the message recorded by the last failed fetch, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// User returns the currently bound identity, or nil.
func (s *Store) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Close detaches the store. In-flight responses arriving afterwards are
// discarded rather than applied to released state.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	s.user = nil
	s.tasks = nil
}

func (s *Store) acquire(id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	if s.user == nil {
		return 0, domain.ErrUnauthorized
	}
	if _, busy := s.inflight[id]; busy {
		return 0, ErrMutationInFlight
	}
	s.inflight[id] = struct{}{}
	return s.gen, nil
}

func (s *Store) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

func sameIdentity(a, b *domain.User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
