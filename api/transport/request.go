package transport

import (
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/validate"
)

type SignupRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ProfileUpdateRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

// Draft maps the request onto a new task for the given owner. Completed
// always starts false; id and timestamps are assigned by the store.
func (r TaskCreateRequest) Draft(userID string) (*domain.Task, error) {
	task := &domain.Task{
		UserID:      userID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Completed:   false,
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if r.DueDate != "" {
		due, err := validate.ParseDueDate(r.DueDate)
		if err != nil {
			return nil, domain.ErrInvalidPayload
		}
		task.DueDate = &due
	}
	return task, nil
}

// TaskUpdateRequest carries a partial update. Absent fields are left
// untouched; a due_date present but empty clears the stored value.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// Patch converts the request into a domain patch, distinguishing
// "clear the due date" from "leave it alone".
func (r TaskUpdateRequest) Patch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
	}
	if r.DueDate != nil {
		if *r.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			due, err := validate.ParseDueDate(*r.DueDate)
			if err != nil {
				return domain.TaskPatch{}, domain.ErrInvalidPayload
			}
			patch.DueDate = &due
		}
	}
	return patch, nil
}
