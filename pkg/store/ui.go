package store

import (
	"strings"

	"github.com/grovetools/uptask/pkg/models"
	"github.com/moby/patternmatcher"
)

// HandleModalTask toggles the task form for a new task.
func (s *Store) HandleModalTask() {
	s.mu.Lock()
	s.state.TaskModal = !s.state.TaskModal
	s.state.SelectedTask = models.Task{}
	s.mu.Unlock()
	s.notify(UpdateUI)
}

// HandleModalEditTask opens the task form prefilled with t.
func (s *Store) HandleModalEditTask(t models.Task) {
	s.mu.Lock()
	s.state.SelectedTask = t.Clone()
	s.state.TaskModal = true
	s.mu.Unlock()
	s.notify(UpdateUI)
}

// HandleModalDeleteTask selects t and toggles the delete confirmation.
func (s *Store) HandleModalDeleteTask(t models.Task) {
	s.mu.Lock()
	s.state.SelectedTask = t.Clone()
	s.state.DeleteTaskModal = !s.state.DeleteTaskModal
	s.mu.Unlock()
	s.notify(UpdateUI)
}

// HandleModalDeleteCollaborator selects c and toggles the delete confirmation.
func (s *Store) HandleModalDeleteCollaborator(c models.Collaborator) {
	s.mu.Lock()
	s.state.SelectedCollaborator = c
	s.state.DeleteCollaboratorModal = !s.state.DeleteCollaboratorModal
	s.mu.Unlock()
	s.notify(UpdateUI)
}

// ToggleSearch shows or hides the project search panel.
func (s *Store) ToggleSearch() {
	s.mu.Lock()
	s.state.Search = !s.state.Search
	s.mu.Unlock()
	s.notify(UpdateUI)
}

// SearchProjects filters the project list by name. Queries containing * or ?
// are glob patterns; anything else is a case-insensitive substring match.
func (s *Store) SearchProjects(query string) []models.ProjectSummary {
	s.mu.Lock()
	projects := append([]models.ProjectSummary{}, s.state.Projects...)
	s.mu.Unlock()
	return FilterProjects(projects, query)
}

// FilterProjects applies the SearchProjects matching rules to projects.
func FilterProjects(projects []models.ProjectSummary, query string) []models.ProjectSummary {
	query = strings.TrimSpace(query)
	if query == "" {
		return projects
	}

	match := func(name string) bool {
		return strings.Contains(strings.ToLower(name), strings.ToLower(query))
	}
	if strings.ContainsAny(query, "*?") {
		pm, err := patternmatcher.New([]string{strings.ToLower(query)})
		if err == nil {
			match = func(name string) bool {
				ok, err := pm.MatchesOrParentMatches(strings.ToLower(name))
				return err == nil && ok
			}
		}
	}

	out := []models.ProjectSummary{}
	for _, p := range projects {
		if match(p.Name) {
			out = append(out, p)
		}
	}
	return out
}
