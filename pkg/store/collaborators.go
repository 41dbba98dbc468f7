package store

import (
	"context"
	"slices"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/sirupsen/logrus"
)

// SubmitCollaborator looks up a user by email. The result is held as the
// pending collaborator until it is added.
func (s *Store) SubmitCollaborator(ctx context.Context, email string) error {
	if err := models.ValidateEmail(email); err != nil {
		return s.validationFailed(err)
	}

	collab, err := s.gateway.LookupCollaborator(ctx, email)
	if err != nil {
		s.mu.Lock()
		s.state.PendingCollaborator = models.Collaborator{}
		s.mu.Unlock()
		s.notify(UpdateUI)
		if errors.Is(err, errors.ErrCodeAuthAbsent) {
			return nil
		}
		s.readFailed("lookup_collaborator", err, logrus.Fields{"email": email})
		return err
	}

	s.mu.Lock()
	owed := s.clearAlertLocked()
	s.state.PendingCollaborator = collab
	s.mu.Unlock()
	s.notify(UpdateAlert, UpdateUI)
	if owed != nil {
		owed()
	}
	return nil
}

// AddCollaborator attaches the user with email to the open project.
func (s *Store) AddCollaborator(ctx context.Context, email string) error {
	s.mu.Lock()
	var projectID string
	if s.state.Project != nil {
		projectID = s.state.Project.ID
	}
	pending := s.state.PendingCollaborator
	s.mu.Unlock()
	if projectID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no project is open")
	}

	msg, err := s.gateway.AttachCollaborator(ctx, projectID, email)
	if err != nil {
		if errors.Is(err, errors.ErrCodeAuthAbsent) {
			return nil
		}
		s.readFailed("attach_collaborator", err, logrus.Fields{"project_id": projectID, "email": email})
		return err
	}

	s.mu.Lock()
	s.state.PendingCollaborator = models.Collaborator{}
	if p := s.state.Project; p != nil && p.ID == projectID && pending.Email == email && !pending.IsZero() {
		if _, exists := p.Collaborator(pending.ID); !exists {
			cp := p.Clone()
			cp.Collaborators = append(cp.Collaborators, pending)
			s.state.Project = cp
		}
	}
	s.mu.Unlock()
	s.notify(UpdateProject, UpdateUI)

	if msg == "" {
		msg = models.MsgCollaboratorAdded
	}
	s.showAlert(models.SuccessAlert(msg), s.opts.SuccessTimeout, nil)
	return nil
}

// DeleteCollaborator removes the selected collaborator from the open project.
// Collaborator changes are not broadcast.
func (s *Store) DeleteCollaborator(ctx context.Context) error {
	s.mu.Lock()
	collab := s.state.SelectedCollaborator
	var projectID string
	if s.state.Project != nil {
		projectID = s.state.Project.ID
	}
	s.mu.Unlock()
	if collab.ID == "" || projectID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no collaborator selected")
	}

	msg, err := s.gateway.DetachCollaborator(ctx, projectID, collab.ID)
	if err != nil {
		s.writeFailed("delete_collaborator", err, logrus.Fields{"project_id": projectID, "collaborator_id": collab.ID})
		return err
	}

	s.mu.Lock()
	if p := s.state.Project; p != nil && p.ID == projectID {
		cp := p.Clone()
		cp.Collaborators = slices.DeleteFunc(cp.Collaborators, func(c models.Collaborator) bool { return c.ID == collab.ID })
		s.state.Project = cp
	}
	s.state.DeleteCollaboratorModal = false
	s.state.SelectedCollaborator = models.Collaborator{}
	s.mu.Unlock()
	s.notify(UpdateProject, UpdateUI)

	if msg == "" {
		msg = "Collaborator Deleted Successfully"
	}
	s.showAlert(models.SuccessAlert(msg), s.opts.SuccessTimeout, nil)
	return nil
}
