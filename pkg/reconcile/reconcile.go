// Package reconcile merges task events into an open project.
//
// Every function works on a copy: the project passed in is never modified and
// the returned project shares no mutable state with it. Events are post-mutation
// snapshots, so merging is by task identity only.
package reconcile

import "github.com/grovetools/uptask/pkg/models"

// Policy controls how conflicting snapshots of the same task are resolved.
type Policy struct {
	// RevisionGuard drops a snapshot whose revision is lower than the one
	// already held. Tasks without revisions always fall back to last-event-wins.
	RevisionGuard bool
}

// Default is the policy used by the package-level functions.
var Default = Policy{RevisionGuard: true}

// ApplyTaskCreated merges a created task using the default policy.
func ApplyTaskCreated(p *models.Project, t models.Task) *models.Project {
	return Default.TaskCreated(p, t)
}

// ApplyTaskDeleted removes a task using the default policy.
func ApplyTaskDeleted(p *models.Project, t models.Task) *models.Project {
	return Default.TaskDeleted(p, t)
}

// ApplyTaskUpdated replaces a task using the default policy.
func ApplyTaskUpdated(p *models.Project, t models.Task) *models.Project {
	return Default.TaskUpdated(p, t)
}

// ApplyTaskStateChanged replaces a task using the default policy.
func ApplyTaskStateChanged(p *models.Project, t models.Task) *models.Project {
	return Default.TaskStateChanged(p, t)
}

// TaskCreated appends t, or replaces the task with the same id when a
// duplicate or echoed create arrives.
func (pol Policy) TaskCreated(p *models.Project, t models.Task) *models.Project {
	if p == nil {
		return nil
	}
	out := p.Clone()
	if i := indexOf(out.Tasks, t.ID); i >= 0 {
		if !pol.Stale(out.Tasks[i], t) {
			out.Tasks[i] = t.Clone()
		}
		return out
	}
	out.Tasks = append(out.Tasks, t.Clone())
	return out
}

// TaskDeleted filters out the task with t's id. Absent ids are a no-op.
func (pol Policy) TaskDeleted(p *models.Project, t models.Task) *models.Project {
	if p == nil {
		return nil
	}
	out := p.Clone()
	i := indexOf(out.Tasks, t.ID)
	if i < 0 {
		return out
	}
	out.Tasks = append(out.Tasks[:i], out.Tasks[i+1:]...)
	return out
}

// TaskUpdated replaces the task with t's id in place. Absent ids are a no-op.
func (pol Policy) TaskUpdated(p *models.Project, t models.Task) *models.Project {
	return pol.replace(p, t)
}

// TaskStateChanged has the same replace-by-identity semantics as TaskUpdated.
func (pol Policy) TaskStateChanged(p *models.Project, t models.Task) *models.Project {
	return pol.replace(p, t)
}

// Stale reports whether incoming is older than local under this policy.
func (pol Policy) Stale(local, incoming models.Task) bool {
	if !pol.RevisionGuard || local.Revision == 0 || incoming.Revision == 0 {
		return false
	}
	return incoming.Revision < local.Revision
}

func (pol Policy) replace(p *models.Project, t models.Task) *models.Project {
	if p == nil {
		return nil
	}
	out := p.Clone()
	i := indexOf(out.Tasks, t.ID)
	if i < 0 || pol.Stale(out.Tasks[i], t) {
		return out
	}
	out.Tasks[i] = t.Clone()
	return out
}

func indexOf(tasks []models.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
