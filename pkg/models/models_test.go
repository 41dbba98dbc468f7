package models

import (
	"encoding/json"
	"testing"

	"github.com/grovetools/uptask/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskUnmarshalProjectShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"project as id", `{"_id":"t1","project":"p1","state":false}`, "p1"},
		{"project embedded", `{"_id":"t1","project":{"_id":"p1","name":"Web"},"state":true}`, "p1"},
		{"project missing", `{"_id":"t1"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var task Task
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &task))
			assert.Equal(t, "t1", task.ID)
			assert.Equal(t, tt.want, task.ProjectID)
		})
	}
}

func TestTaskStateWireFormat(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"t1","project":"p1","state":true,"completed":{"_id":"u1","name":"Ana"}}`), &task))
	assert.Equal(t, TaskComplete, task.State)
	require.NotNil(t, task.CompletedBy)
	assert.Equal(t, "Ana", task.CompletedBy.Name)

	require.NoError(t, json.Unmarshal([]byte(`{"_id":"t2","project":"p1","state":"pending","completed":"u2"}`), &task))
	assert.Equal(t, TaskPending, task.State)
	assert.Equal(t, "u2", task.CompletedBy.ID)

	out, err := json.Marshal(Task{ID: "t3", ProjectID: "p1", State: TaskComplete})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"state":true`)
	assert.Contains(t, string(out), `"project":"p1"`)

	assert.Error(t, json.Unmarshal([]byte(`{"_id":"t4","state":"archived"}`), &task))
}

func TestProjectCloneIsDeep(t *testing.T) {
	p := &Project{
		ID:            "p1",
		Tasks:         []Task{{ID: "a", Name: "A", CompletedBy: &Collaborator{ID: "u1"}}},
		Collaborators: []Collaborator{{ID: "u1"}},
	}
	cp := p.Clone()
	cp.Tasks[0].Name = "changed"
	cp.Tasks[0].CompletedBy.ID = "u2"
	cp.Collaborators[0].ID = "u9"

	assert.Equal(t, "A", p.Tasks[0].Name)
	assert.Equal(t, "u1", p.Tasks[0].CompletedBy.ID)
	assert.Equal(t, "u1", p.Collaborators[0].ID)
	assert.Nil(t, (*Project)(nil).Clone())
}

func TestProjectHelpers(t *testing.T) {
	p := &Project{
		ID:            "p1",
		Name:          "Web",
		DueDate:       "2024-05-01T00:00:00.000Z",
		Creator:       "u1",
		Tasks:         []Task{{ID: "a"}},
		Collaborators: []Collaborator{{ID: "c1", Email: "c@x.io"}},
	}

	assert.True(t, p.IsAdmin("u1"))
	assert.False(t, p.IsAdmin("u2"))
	assert.False(t, p.IsAdmin(""))

	_, ok := p.Task("a")
	assert.True(t, ok)
	_, ok = p.Collaborator("missing")
	assert.False(t, ok)

	assert.Equal(t, ProjectSummary{ID: "p1", Name: "Web", DueDate: p.DueDate, Creator: "u1"}, p.Summary())
	assert.Equal(t, "2024-05-01", ProjectInputFrom(p).DueDate)
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"project ok", ProjectInput{Name: "a", Description: "b", DueDate: "2024-01-01", Client: "c"}.Validate(), ""},
		{"project blank", ProjectInput{Name: "a", Description: " ", DueDate: "2024-01-01", Client: "c"}.Validate(), MsgAllFieldsRequired},
		{"task blank title", TaskInput{Description: "b", DueDate: "2024-01-01", Priority: "Low"}.Validate(), MsgAllFieldsRequired},
		{"task bad priority", TaskInput{Name: "a", Description: "b", DueDate: "2024-01-01", Priority: "Urgent"}.Validate(), MsgInvalidPriority},
		{"task ok", TaskInput{Name: "a", Description: "b", DueDate: "2024-01-01", Priority: "High"}.Validate(), ""},
		{"register mismatch", RegisterInput{Name: "a", Email: "a@b.c", Password: "secret1", RepeatPassword: "secret2"}.Validate(), MsgPasswordsMismatch},
		{"register short", RegisterInput{Name: "a", Email: "a@b.c", Password: "abc", RepeatPassword: "abc"}.Validate(), MsgPasswordTooShort},
		{"login blank", LoginInput{Email: "a@b.c"}.Validate(), MsgAllFieldsRequired},
		{"email invalid", ValidateEmail("not-an-email"), MsgInvalidEmail},
		{"email ok", ValidateEmail("ana@example.com"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantMsg == "" {
				assert.NoError(t, tt.err)
				return
			}
			require.Error(t, tt.err)
			assert.True(t, errors.Is(tt.err, errors.ErrCodeValidation))
			assert.Equal(t, tt.wantMsg, errors.ServerMessage(tt.err))
		})
	}
}
