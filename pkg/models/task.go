package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TaskState is the completion state of a task.
type TaskState string

const (
	TaskPending  TaskState = "pending"
	TaskComplete TaskState = "complete"
)

// MarshalJSON encodes the state as the backend's boolean.
func (s TaskState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s == TaskComplete)
}

// UnmarshalJSON accepts the backend boolean or the state name.
func (s *TaskState) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = TaskPending
		if b {
			*s = TaskComplete
		}
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("task state: %w", err)
	}
	switch TaskState(name) {
	case TaskPending, TaskComplete:
		*s = TaskState(name)
	case "":
		*s = TaskPending
	default:
		return fmt.Errorf("task state: unknown value %q", name)
	}
	return nil
}

// Toggled returns the opposite state.
func (s TaskState) Toggled() TaskState {
	if s == TaskComplete {
		return TaskPending
	}
	return TaskComplete
}

// Priorities accepted by the backend.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a unit of work inside a project.
//
// ProjectID is always the owning project's id. Some backend events embed the
// whole project instead; UnmarshalJSON reduces that to the id.
type Task struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	DueDate     string        `json:"dueDate"`
	Priority    string        `json:"priority"`
	State       TaskState     `json:"state"`
	ProjectID   string        `json:"project"`
	CompletedBy *Collaborator `json:"completed,omitempty"`
	Revision    int64         `json:"revision,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt,omitempty"`
}

// Clone returns a copy that shares nothing mutable with t.
func (t Task) Clone() Task {
	if t.CompletedBy != nil {
		c := *t.CompletedBy
		t.CompletedBy = &c
	}
	return t
}

// IsComplete reports whether the task is complete.
func (t Task) IsComplete() bool {
	return t.State == TaskComplete
}

type taskAlias Task

type taskWire struct {
	taskAlias
	ProjectID   json.RawMessage `json:"project"`
	CompletedBy json.RawMessage `json:"completed,omitempty"`
}

// UnmarshalJSON normalizes "project" and "completed", which the backend sends
// either as an id or as an embedded document.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Task(w.taskAlias)

	projectID, err := refID(w.ProjectID)
	if err != nil {
		return fmt.Errorf("task project: %w", err)
	}
	t.ProjectID = projectID
	if t.State == "" {
		t.State = TaskPending
	}

	t.CompletedBy = nil
	raw := bytes.TrimSpace(w.CompletedBy)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return fmt.Errorf("task completed: %w", err)
		}
		t.CompletedBy = &Collaborator{ID: id}
	default:
		var c Collaborator
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("task completed: %w", err)
		}
		t.CompletedBy = &c
	}
	return nil
}

// refID decodes a reference that is either "id" or {"_id": "id", ...}.
func refID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		err := json.Unmarshal(raw, &id)
		return id, err
	}
	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}
