package reconcile

import (
	"testing"

	"github.com/grovetools/uptask/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *models.Project {
	return &models.Project{
		ID: "p1",
		Tasks: []models.Task{
			{ID: "A", Name: "first", ProjectID: "p1", State: models.TaskPending},
			{ID: "B", Name: "second", ProjectID: "p1", State: models.TaskPending},
		},
	}
}

func TestAbsentIdentitiesAreNoOps(t *testing.T) {
	p := fixture()
	ghost := models.Task{ID: "Z", Name: "ghost", ProjectID: "p1"}

	assert.Equal(t, p.Tasks, ApplyTaskDeleted(p, ghost).Tasks)
	assert.Equal(t, p.Tasks, ApplyTaskUpdated(p, ghost).Tasks)
	assert.Equal(t, p.Tasks, ApplyTaskStateChanged(p, ghost).Tasks)

	twice := ApplyTaskDeleted(ApplyTaskDeleted(p, p.Tasks[0]), p.Tasks[0])
	require.Len(t, twice.Tasks, 1)
	assert.Equal(t, "B", twice.Tasks[0].ID)
}

func TestCreateThenDeleteRoundTrip(t *testing.T) {
	p := fixture()
	before := p.Clone()
	c := models.Task{ID: "C", Name: "third", ProjectID: "p1"}

	created := ApplyTaskCreated(p, c)
	require.Len(t, created.Tasks, 3)
	assert.Equal(t, "C", created.Tasks[2].ID)

	deleted := ApplyTaskDeleted(created, c)
	assert.Equal(t, before.Tasks, deleted.Tasks)
	assert.Equal(t, before, p, "input must not be modified")
}

func TestUpdatePreservesOrder(t *testing.T) {
	p := fixture()
	out := ApplyTaskUpdated(p, models.Task{ID: "A", Name: "X", ProjectID: "p1"})

	require.Len(t, out.Tasks, 2)
	assert.Equal(t, "A", out.Tasks[0].ID)
	assert.Equal(t, "X", out.Tasks[0].Name)
	assert.Equal(t, p.Tasks[1], out.Tasks[1])
	assert.Equal(t, "first", p.Tasks[0].Name)
}

func TestCreateIsIdempotent(t *testing.T) {
	p := fixture()
	c := models.Task{ID: "C", Name: "third", ProjectID: "p1"}

	once := ApplyTaskCreated(p, c)
	twice := ApplyTaskCreated(once, c)
	assert.Equal(t, once.Tasks, twice.Tasks)

	edited := ApplyTaskCreated(twice, models.Task{ID: "A", Name: "renamed", ProjectID: "p1"})
	require.Len(t, edited.Tasks, 3)
	assert.Equal(t, "renamed", edited.Tasks[0].Name)
}

func TestStateChanged(t *testing.T) {
	p := fixture()
	done := p.Tasks[1]
	done.State = models.TaskComplete
	done.CompletedBy = &models.Collaborator{ID: "u2", Name: "Bea"}

	out := ApplyTaskStateChanged(p, done)
	assert.True(t, out.Tasks[1].IsComplete())
	assert.False(t, p.Tasks[1].IsComplete())

	done.CompletedBy.Name = "mutated"
	assert.Equal(t, "Bea", out.Tasks[1].CompletedBy.Name)
}

func TestRevisionGuard(t *testing.T) {
	p := fixture()
	p.Tasks[0].Revision = 5

	older := models.Task{ID: "A", Name: "older", ProjectID: "p1", Revision: 4}
	newer := models.Task{ID: "A", Name: "newer", ProjectID: "p1", Revision: 6}
	unversioned := models.Task{ID: "A", Name: "unversioned", ProjectID: "p1"}

	tests := []struct {
		name   string
		policy Policy
		event  models.Task
		want   string
	}{
		{"guard drops older", Policy{RevisionGuard: true}, older, "first"},
		{"guard accepts newer", Policy{RevisionGuard: true}, newer, "newer"},
		{"guard ignores zero revision", Policy{RevisionGuard: true}, unversioned, "unversioned"},
		{"last event wins without guard", Policy{}, older, "older"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.TaskUpdated(p, tt.event).Tasks[0].Name)
			assert.Equal(t, tt.want, tt.policy.TaskCreated(p, tt.event).Tasks[0].Name)
		})
	}
}

func TestNilProject(t *testing.T) {
	task := models.Task{ID: "A"}
	assert.Nil(t, ApplyTaskCreated(nil, task))
	assert.Nil(t, ApplyTaskDeleted(nil, task))
	assert.Nil(t, ApplyTaskUpdated(nil, task))
	assert.Nil(t, ApplyTaskStateChanged(nil, task))
}
