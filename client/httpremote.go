package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPRemote talks to the task service API over fasthttp. The bearer
// token obtained by SignIn/SignUp is attached to every later call.
type HTTPRemote struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

// Option customizes an HTTPRemote.
type Option func(*HTTPRemote)

// WithTimeout sets the per-request timeout used when the context has no
// deadline of its own.
func WithTimeout(d time.Duration) Option {
	return func(r *HTTPRemote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithToken seeds the remote with an existing bearer token.
func WithToken(token string) Option {
	return func(r *HTTPRemote) { r.token = token }
}

// NewHTTPRemote builds a remote for the API served at baseURL, e.g.
// "http://localhost:8080".
func NewHTTPRemote(baseURL string, opts ...Option) *HTTPRemote {
	r := &HTTPRemote{
		baseURL: baseURL,
		client:  &fasthttp.Client{},
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Token returns the current bearer token, or "" when signed out.
func (r *HTTPRemote) Token() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}

func (r *HTTPRemote) setToken(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}

func (r *HTTPRemote) SignUp(ctx context.Context, email, password, fullName string) (*Credentials, error) {
	var creds Credentials
	err := r.do(ctx, http.MethodPost, "/api/v1/auth/signup", transport.SignupRequest{
		FullName:        fullName,
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	}, &creds)
	if err != nil {
		return nil, err
	}
	r.setToken(creds.Token)
	return &creds, nil
}

func (r *HTTPRemote) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	var creds Credentials
	err := r.do(ctx, http.MethodPost, "/api/v1/auth/login", transport.LoginRequest{
		Email:    email,
		Password: password,
	}, &creds)
	if err != nil {
		return nil, err
	}
	r.setToken(creds.Token)
	return &creds, nil
}

func (r *HTTPRemote) ResetPassword(ctx context.Context, email string) error {
	return r.do(ctx, http.MethodPost, "/api/v1/auth/reset", transport.ResetRequest{Email: email}, nil)
}

func (r *HTTPRemote) SignOut(ctx context.Context) error {
	err := r.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	r.setToken("")
	return err
}

func (r *HTTPRemote) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.do(ctx, http.MethodGet, "/api/v1/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *HTTPRemote) CreateTask(ctx context.Context, draft TaskDraft) (*domain.Task, error) {
	req := transport.TaskCreateRequest{
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
	}
	if draft.DueDate != nil {
		req.DueDate = draft.DueDate.Format("2006-01-02")
	}

	var task domain.Task
	if err := r.do(ctx, http.MethodPost, "/api/v1/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *HTTPRemote) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	req := transport.TaskUpdateRequest{
		Title:       patch.Title,
		Description: patch.Description,
		Completed:   patch.Completed,
		Priority:    patch.Priority,
	}
	// an empty due_date string is the explicit clearing signal
	if patch.ClearDueDate {
		empty := ""
		req.DueDate = &empty
	} else if patch.DueDate != nil {
		due := patch.DueDate.Format("2006-01-02")
		req.DueDate = &due
	}

	var task domain.Task
	if err := r.do(ctx, http.MethodPut, "/api/v1/tasks/"+id, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *HTTPRemote) DeleteTask(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/v1/tasks/"+id, nil, nil)
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if token := r.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req.SetBody(payload)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = r.client.DoDeadline(req, resp, deadline)
	} else {
		err = r.client.DoTimeout(req, resp, r.timeout)
	}
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "remote store unreachable", err)
	}

	var env envelope
	if unmarshalErr := json.Unmarshal(resp.Body(), &env); unmarshalErr != nil && resp.StatusCode() < 300 {
		return domain.WrapError(domain.ErrCodeInternal, "malformed response", unmarshalErr)
	}

	if resp.StatusCode() >= 300 || env.Status == "error" {
		return remoteError(resp.StatusCode(), env)
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func remoteError(statusCode int, env envelope) error {
	code := domain.ErrorCode(env.Code)
	switch code {
	case domain.ErrCodeNotFound, domain.ErrCodeInvalid, domain.ErrCodeConflict,
		domain.ErrCodeUnauthorized, domain.ErrCodeUnavailable, domain.ErrCodeInternal:
	default:
		switch statusCode {
		case http.StatusUnauthorized:
			code = domain.ErrCodeUnauthorized
		case http.StatusNotFound:
			code = domain.ErrCodeNotFound
		case http.StatusBadRequest:
			code = domain.ErrCodeInvalid
		case http.StatusConflict:
			code = domain.ErrCodeConflict
		default:
			code = domain.ErrCodeInternal
		}
	}

	message := "request rejected by remote store"
	if len(env.Error) > 0 {
		var s string
		if err := json.Unmarshal(env.Error, &s); err == nil && s != "" {
			message = s
		} else {
			message = string(env.Error)
		}
	}
	return domain.NewError(code, message)
}

var (
	_ Remote     = (*HTTPRemote)(nil)
	_ AuthRemote = (*HTTPRemote)(nil)
)
