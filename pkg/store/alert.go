package store

import (
	"time"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/sirupsen/logrus"
)

// ShowAlert displays a and clears it after the ad-hoc alert timeout.
func (s *Store) ShowAlert(a models.Alert) {
	s.showAlert(a, s.opts.AlertTimeout, nil)
}

// showAlert replaces the current alert and its timer. then runs once the
// alert expires, or immediately if a newer alert supersedes this one.
func (s *Store) showAlert(a models.Alert, d time.Duration, then func()) {
	s.mu.Lock()
	owed := s.stopAlertLocked()
	s.alertGen++
	gen := s.alertGen
	s.state.Alert = a
	s.alertThen = then
	s.alertTimer = time.AfterFunc(d, func() { s.expireAlert(gen) })
	s.mu.Unlock()

	s.notify(UpdateAlert)
	if owed != nil {
		owed()
	}
}

// clearAlertLocked removes the alert and cancels its timer. The caller runs
// the returned follow-up, if any, after unlocking.
func (s *Store) clearAlertLocked() func() {
	owed := s.stopAlertLocked()
	s.alertGen++
	s.state.Alert = models.Alert{}
	return owed
}

// stopAlertLocked cancels the pending timer and hands back its follow-up.
// A timer that already fired but has not taken the lock sees a stale
// generation and does nothing, so the follow-up is owed either way.
func (s *Store) stopAlertLocked() func() {
	if s.alertTimer == nil {
		return nil
	}
	s.alertTimer.Stop()
	then := s.alertThen
	s.alertTimer, s.alertThen = nil, nil
	return then
}

func (s *Store) expireAlert(gen uint64) {
	s.mu.Lock()
	if gen != s.alertGen {
		s.mu.Unlock()
		return
	}
	s.state.Alert = models.Alert{}
	then := s.alertThen
	s.alertTimer, s.alertThen = nil, nil
	s.mu.Unlock()

	s.notify(UpdateAlert)
	if then != nil {
		then()
	}
}

// writeFailed applies the policy for failed writes: always log, and surface
// the server message when configured to.
func (s *Store) writeFailed(op string, err error, fields logrus.Fields) {
	if errors.Is(err, errors.ErrCodeAuthAbsent) {
		return
	}
	s.logger.WithError(err).WithFields(fields).WithField("op", op).Error("write failed")
	if s.opts.SurfaceWriteErrors {
		s.ShowAlert(models.ErrorAlert(errors.ServerMessage(err)))
	}
}

// readFailed surfaces a failed read as an error alert.
func (s *Store) readFailed(op string, err error, fields logrus.Fields) {
	s.logger.WithError(err).WithFields(fields).WithField("op", op).Warn("read failed")
	s.ShowAlert(models.ErrorAlert(errors.ServerMessage(err)))
}

// validationFailed shows a client-side validation error.
func (s *Store) validationFailed(err error) error {
	s.ShowAlert(models.ErrorAlert(errors.ServerMessage(err)))
	return err
}
