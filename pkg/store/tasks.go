package store

import (
	"context"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/channel"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/sirupsen/logrus"
)

// SubmitTask creates a task in the open project, or updates it when in.ID is
// set. The confirmed task is reconciled locally and published to the room.
func (s *Store) SubmitTask(ctx context.Context, in models.TaskInput) error {
	if err := in.Validate(); err != nil {
		return s.validationFailed(err)
	}
	if in.ProjectID == "" {
		s.mu.Lock()
		if s.state.Project != nil {
			in.ProjectID = s.state.Project.ID
		}
		s.mu.Unlock()
	}
	if in.ProjectID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no project is open")
	}

	kind := channel.KindTaskCreated
	var (
		task models.Task
		err  error
	)
	if in.ID != "" {
		kind = channel.KindTaskUpdated
		task, err = s.gateway.UpdateTask(ctx, in)
	} else {
		task, err = s.gateway.CreateTask(ctx, in)
	}
	if err != nil {
		s.writeFailed("submit_task", err, logrus.Fields{"project_id": in.ProjectID, "task_id": in.ID})
		return err
	}
	if task.ProjectID == "" {
		task.ProjectID = in.ProjectID
	}

	s.mu.Lock()
	owed := s.clearAlertLocked()
	s.state.TaskModal = false
	s.state.SelectedTask = models.Task{}
	s.mu.Unlock()
	s.notify(UpdateAlert, UpdateUI)
	if owed != nil {
		owed()
	}

	s.apply(kind, task)
	s.publish(kind, task)
	return nil
}

// DeleteTask deletes the selected task.
func (s *Store) DeleteTask(ctx context.Context) error {
	s.mu.Lock()
	task := s.state.SelectedTask.Clone()
	s.mu.Unlock()
	if task.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no task selected")
	}

	msg, err := s.gateway.DeleteTask(ctx, task.ID)
	if err != nil {
		s.writeFailed("delete_task", err, logrus.Fields{"project_id": task.ProjectID, "task_id": task.ID})
		return err
	}

	s.mu.Lock()
	s.state.DeleteTaskModal = false
	if s.state.SelectedTask.ID == task.ID {
		s.state.SelectedTask = models.Task{}
	}
	s.mu.Unlock()
	s.notify(UpdateUI)

	s.apply(channel.KindTaskDeleted, task)
	if msg == "" {
		msg = models.MsgTaskDeleted
	}
	s.showAlert(models.SuccessAlert(msg), s.opts.SuccessTimeout, nil)
	s.publish(channel.KindTaskDeleted, task)
	return nil
}

// CompleteTask toggles a task between pending and complete.
func (s *Store) CompleteTask(ctx context.Context, id string) error {
	task, err := s.gateway.ToggleTaskState(ctx, id)
	if err != nil {
		s.writeFailed("complete_task", err, logrus.Fields{"task_id": id})
		return err
	}

	s.mu.Lock()
	if task.ProjectID == "" && s.state.Project != nil {
		task.ProjectID = s.state.Project.ID
	}
	owed := s.clearAlertLocked()
	s.state.SelectedTask = models.Task{}
	s.mu.Unlock()
	s.notify(UpdateAlert, UpdateUI)
	if owed != nil {
		owed()
	}

	s.apply(channel.KindTaskStateChanged, task)
	s.publish(channel.KindTaskStateChanged, task)
	return nil
}
