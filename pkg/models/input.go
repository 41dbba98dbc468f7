package models

import (
	"net/mail"
	"strings"

	"github.com/grovetools/uptask/errors"
)

// ProjectInput is the body of a project create or update. ID selects update.
type ProjectInput struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Client      string `json:"client"`
}

// Validate performs the client-side required-field check.
func (in ProjectInput) Validate() error {
	if anyBlank(in.Name, in.Description, in.DueDate, in.Client) {
		return errors.Validation(MsgAllFieldsRequired)
	}
	return nil
}

// ProjectInputFrom prefills an edit form from an existing project.
func ProjectInputFrom(p *Project) ProjectInput {
	return ProjectInput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		DueDate:     DueDay(p.DueDate),
		Client:      p.Client,
	}
}

// TaskInput is the body of a task create or update. ID selects update.
type TaskInput struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	ProjectID   string `json:"project"`
}

// Validate performs the client-side required-field and priority checks.
func (in TaskInput) Validate() error {
	if anyBlank(in.Name, in.Description, in.DueDate, in.Priority) {
		return errors.Validation(MsgAllFieldsRequired)
	}
	for _, p := range Priorities {
		if in.Priority == p {
			return nil
		}
	}
	return errors.Validation(MsgInvalidPriority).WithDetail("priority", in.Priority)
}

// TaskInputFrom prefills an edit form from an existing task.
func TaskInputFrom(t Task) TaskInput {
	return TaskInput{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		DueDate:     DueDay(t.DueDate),
		Priority:    t.Priority,
		ProjectID:   t.ProjectID,
	}
}

// RegisterInput is the account registration form.
type RegisterInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"-"`
}

// Validate checks required fields, password confirmation and minimum length.
func (in RegisterInput) Validate() error {
	if anyBlank(in.Name, in.Email, in.Password, in.RepeatPassword) {
		return errors.Validation(MsgAllFieldsRequired)
	}
	if in.Password != in.RepeatPassword {
		return errors.Validation(MsgPasswordsMismatch)
	}
	if len(in.Password) < 6 {
		return errors.Validation(MsgPasswordTooShort)
	}
	return nil
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (in LoginInput) Validate() error {
	if anyBlank(in.Email, in.Password) {
		return errors.Validation(MsgAllFieldsRequired)
	}
	return nil
}

// ValidateEmail checks a single email field, as used by collaborator lookup and password recovery.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.Validation(MsgAllFieldsRequired)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.Validation(MsgInvalidEmail).WithDetail("email", email)
	}
	return nil
}

func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
