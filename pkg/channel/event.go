package channel

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/uptask/pkg/models"
)

// Kind identifies an event on the room channel.
type Kind string

const (
	KindProjectOpened    Kind = "project-opened"
	KindProjectClosed    Kind = "project-closed"
	KindTaskCreated      Kind = "task-created"
	KindTaskUpdated      Kind = "task-updated"
	KindTaskDeleted      Kind = "task-deleted"
	KindTaskStateChanged Kind = "task-state-changed"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	switch k {
	case KindProjectOpened, KindProjectClosed,
		KindTaskCreated, KindTaskUpdated, KindTaskDeleted, KindTaskStateChanged:
		return true
	}
	return false
}

// IsPresence reports whether k is a room membership event.
func (k Kind) IsPresence() bool {
	return k == KindProjectOpened || k == KindProjectClosed
}

// Event is one message on a room channel. Presence events carry ProjectID;
// task events carry the server-confirmed Task.
type Event struct {
	Type      Kind         `json:"type"`
	ProjectID string       `json:"projectId,omitempty"`
	ClientID  string       `json:"clientId,omitempty"`
	Task      *models.Task `json:"task,omitempty"`
}

// Presence builds a project-opened or project-closed event.
func Presence(kind Kind, projectID string) Event {
	return Event{Type: kind, ProjectID: projectID}
}

// TaskEvent builds a task event carrying a copy of t.
func TaskEvent(kind Kind, t models.Task) Event {
	cp := t.Clone()
	return Event{Type: kind, ProjectID: t.ProjectID, Task: &cp}
}

// Room returns the project the event belongs to.
func (e Event) Room() string {
	if e.Task != nil && e.Task.ProjectID != "" {
		return e.Task.ProjectID
	}
	return e.ProjectID
}

// Validate checks the event is well formed.
func (e Event) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if !e.Type.IsPresence() && (e.Task == nil || e.Task.ID == "") {
		return fmt.Errorf("%s event without task", e.Type)
	}
	if e.Room() == "" {
		return fmt.Errorf("%s event without project", e.Type)
	}
	return nil
}

// Decode parses and validates a wire message.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}
