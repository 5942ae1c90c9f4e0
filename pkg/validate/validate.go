// Package validate implements the pre-submission form checks shared by
// the API handlers and the client SDK. Validators are pure functions
// returning field-scoped errors; they never touch the network.
package validate

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskdeck/backend/domain"
)

// FieldError attaches a human-readable message to a single form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the field errors of one validation pass.
type Result []FieldError

// OK reports whether the input passed.
func (r Result) OK() bool { return len(r) == 0 }

// Field returns the message attached to the named field, or "".
func (r Result) Field(name string) string {
	for _, fe := range r {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

// Error renders every field error on one line, usable as a readable
// summary when a caller only wants a single string.
func (r Result) Error() string {
	if len(r) == 0 {
		return ""
	}
	parts := make([]string, len(r))
	for i, fe := range r {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

func (r *Result) add(field, message string) {
	*r = append(*r, FieldError{Field: field, Message: message})
}

const (
	msgInvalidEmail  = "Please enter a valid email address"
	msgShortPassword = "Password must be at least 6 characters"
)

// Login checks the sign-in form.
func Login(email, password string) Result {
	var r Result
	if !validEmail(email) {
		r.add("email", msgInvalidEmail)
	}
	if utf8.RuneCountInString(password) < 6 {
		r.add("password", msgShortPassword)
	}
	return r
}

// Signup checks the registration form. A password/confirmation mismatch
// is attached to the confirmation field, not the password field.
func Signup(fullName, email, password, confirmPassword string) Result {
	var r Result
	if utf8.RuneCountInString(strings.TrimSpace(fullName)) < 2 {
		r.add("full_name", "Full name is required")
	}
	if !validEmail(email) {
		r.add("email", msgInvalidEmail)
	}
	if utf8.RuneCountInString(password) < 6 {
		r.add("password", msgShortPassword)
	}
	if password != confirmPassword {
		r.add("confirm_password", "Passwords don't match")
	}
	return r
}

// Reset checks the password-reset request form.
func Reset(email string) Result {
	var r Result
	if !validEmail(email) {
		r.add("email", msgInvalidEmail)
	}
	return r
}

// Task checks the task create/edit form. Description is unconstrained;
// due date is optional but must parse when present. Lengths count
// characters, matching the char_length constraint on the tasks table.
func Task(title, priority, dueDate string) Result {
	var r Result
	switch {
	case title == "":
		r.add("title", "Title is required")
	case utf8.RuneCountInString(title) > 100:
		r.add("title", "Title is too long")
	}
	if !domain.ValidPriority(priority) {
		r.add("priority", "Priority must be low, medium or high")
	}
	if dueDate != "" {
		if _, err := ParseDueDate(dueDate); err != nil {
			r.add("due_date", "Due date is not a valid date")
		}
	}
	return r
}

// ParseDueDate accepts a calendar date ("2006-01-02") or a full RFC 3339
// timestamp.
func ParseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	// require a dotted domain, mail.ParseAddress accepts user@localhost
	return at > 0 && strings.Contains(email[at+1:], ".")
}
