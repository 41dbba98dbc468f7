package store

import (
	"context"
	"slices"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/sirupsen/logrus"
)

// LoadProjectList replaces the project list with the server's. Without a
// session it does nothing. Failures are logged and leave the list unchanged.
func (s *Store) LoadProjectList(ctx context.Context) error {
	projects, err := s.gateway.ListProjects(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCodeAuthAbsent) {
			return nil
		}
		s.logger.WithError(err).WithField("op", "list_projects").Error("failed to load projects")
		return err
	}

	s.mu.Lock()
	s.state.Projects = projects
	s.mu.Unlock()
	s.notify(UpdateProjects)

	if s.opts.Cache != nil && s.opts.UserID != nil {
		if userID := s.opts.UserID(); userID != "" {
			if err := s.opts.Cache.SaveProjects(ctx, userID, projects); err != nil {
				s.logger.WithError(err).Warn("failed to cache project list")
			}
		}
	}
	return nil
}

// OpenProject fetches a project, makes it the open project and joins its
// room. On failure the open project is cleared, the user is sent back to the
// project list and the server's message is shown. A fetch overtaken by a
// later OpenProject, CloseProject or CloseSession changes nothing.
func (s *Store) OpenProject(ctx context.Context, id string) error {
	s.mu.Lock()
	s.openGen++
	gen := s.openGen
	s.state.Loading = true
	s.mu.Unlock()
	s.notify(UpdateUI)

	project, err := s.gateway.GetProject(ctx, id)
	if err != nil {
		s.mu.Lock()
		if gen != s.openGen {
			s.mu.Unlock()
			s.logger.WithError(err).WithField("project_id", id).Debug("discarding superseded project fetch")
			return nil
		}
		s.state.Project = nil
		s.state.Loading = false
		s.mu.Unlock()
		s.leaveRoom()
		s.notify(UpdateProject, UpdateUI)

		if errors.Is(err, errors.ErrCodeAuthAbsent) {
			return nil
		}
		s.navigate(RouteProjects)
		s.readFailed("open_project", err, logrus.Fields{"project_id": id})
		return err
	}

	if project.Tasks == nil {
		project.Tasks = []models.Task{}
	}
	if project.Collaborators == nil {
		project.Collaborators = []models.Collaborator{}
	}

	s.mu.Lock()
	if gen != s.openGen {
		s.mu.Unlock()
		s.logger.WithField("project_id", id).Debug("discarding superseded project fetch")
		return nil
	}
	owed := s.clearAlertLocked()
	s.state.Project = project
	s.state.Loading = false
	s.state.SelectedTask = models.Task{}
	s.state.SelectedCollaborator = models.Collaborator{}
	s.state.PendingCollaborator = models.Collaborator{}
	s.state.TaskModal, s.state.DeleteTaskModal, s.state.DeleteCollaboratorModal = false, false, false
	s.mu.Unlock()
	s.notify(UpdateProject, UpdateAlert, UpdateUI)
	if owed != nil {
		owed()
	}

	s.joinRoom(ctx, project.ID)
	return nil
}

// CloseProject leaves the open project's room and evicts the project.
func (s *Store) CloseProject() {
	s.mu.Lock()
	s.openGen++
	s.state.Loading = false
	s.state.Project = nil
	s.state.SelectedTask = models.Task{}
	s.state.SelectedCollaborator = models.Collaborator{}
	s.state.PendingCollaborator = models.Collaborator{}
	s.state.TaskModal, s.state.DeleteTaskModal, s.state.DeleteCollaboratorModal = false, false, false
	s.mu.Unlock()

	s.leaveRoom()
	s.notify(UpdateProject, UpdateUI)
}

// SubmitProject creates the project, or updates it when in.ID is set. On
// success the list is updated, a success alert is shown and the user is sent
// to the project list when it expires.
func (s *Store) SubmitProject(ctx context.Context, in models.ProjectInput) error {
	if err := in.Validate(); err != nil {
		return s.validationFailed(err)
	}

	var (
		saved models.ProjectSummary
		err   error
		msg   = models.MsgProjectCreated
	)
	if in.ID != "" {
		saved, err = s.gateway.UpdateProject(ctx, in)
		msg = models.MsgProjectUpdated
	} else {
		saved, err = s.gateway.CreateProject(ctx, in)
	}
	if err != nil {
		s.writeFailed("submit_project", err, logrus.Fields{"project_id": in.ID})
		return err
	}

	s.mu.Lock()
	if i := slices.IndexFunc(s.state.Projects, func(p models.ProjectSummary) bool { return p.ID == saved.ID }); i >= 0 {
		s.state.Projects[i] = saved
	} else {
		s.state.Projects = append(s.state.Projects, saved)
	}
	if p := s.state.Project; p != nil && p.ID == saved.ID {
		cp := p.Clone()
		cp.Name, cp.Description, cp.DueDate, cp.Client = saved.Name, saved.Description, saved.DueDate, saved.Client
		s.state.Project = cp
	}
	s.mu.Unlock()
	s.notify(UpdateProjects, UpdateProject)

	s.showAlert(models.SuccessAlert(msg), s.opts.SuccessTimeout, func() { s.navigate(RouteProjects) })
	return nil
}

// DeleteProject deletes a project and drops it from the list. If it is the
// open project its room is left and it is evicted.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	msg, err := s.gateway.DeleteProject(ctx, id)
	if err != nil {
		s.writeFailed("delete_project", err, logrus.Fields{"project_id": id})
		return err
	}

	s.mu.Lock()
	s.state.Projects = slices.DeleteFunc(s.state.Projects, func(p models.ProjectSummary) bool { return p.ID == id })
	open := s.state.Project != nil && s.state.Project.ID == id
	s.mu.Unlock()
	if open {
		s.CloseProject()
	}
	s.notify(UpdateProjects)

	if msg == "" {
		msg = "Project Deleted"
	}
	s.showAlert(models.SuccessAlert(msg), s.opts.SuccessTimeout, func() { s.navigate(RouteProjects) })
	return nil
}
