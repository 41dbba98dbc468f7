// Package account implements the register, login, confirmation and password
// recovery flows around the session.
package account

import (
	"context"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/logging"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/sirupsen/logrus"
)

// Gateway is the subset of the REST client the account flows need.
type Gateway interface {
	Register(ctx context.Context, in models.RegisterInput) (string, error)
	Login(ctx context.Context, in models.LoginInput) (models.Profile, error)
	Confirm(ctx context.Context, id string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
}

// Session persists the logged-in user.
type Session interface {
	Save(profile models.Profile) error
	Clear() error
	Profile() models.Profile
}

// SessionCloser drops per-user state on logout.
type SessionCloser interface {
	CloseSession()
}

// Service runs the account flows.
type Service struct {
	gateway Gateway
	session Session
	logger  *logrus.Entry
}

// New creates a Service.
func New(gw Gateway, session Session) *Service {
	return &Service{
		gateway: gw,
		session: session,
		logger:  logging.NewLogger("session"),
	}
}

// Register validates the form and creates the account. The returned message
// tells the user to confirm their email.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	msg, err := s.gateway.Register(ctx, in)
	if err != nil {
		return "", err
	}
	s.logger.WithField("email", in.Email).Info("account registered")
	return msg, nil
}

// Login validates the form, exchanges the credentials for a token and
// persists the session.
func (s *Service) Login(ctx context.Context, in models.LoginInput) (models.Profile, error) {
	if err := in.Validate(); err != nil {
		return models.Profile{}, err
	}
	profile, err := s.gateway.Login(ctx, in)
	if err != nil {
		return models.Profile{}, err
	}
	if profile.Token == "" {
		return models.Profile{}, errors.New(errors.ErrCodeRequestFailed, "login response did not include a token")
	}
	if err := s.session.Save(profile); err != nil {
		return models.Profile{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to save session")
	}
	s.logger.WithField("user_id", profile.ID).Info("logged in")
	return profile, nil
}

// Logout clears the persisted session and, when given, the state tied to it.
func (s *Service) Logout(closer SessionCloser) error {
	userID := s.session.Profile().ID
	if err := s.session.Clear(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to clear session")
	}
	if closer != nil {
		closer.CloseSession()
	}
	s.logger.WithField("user_id", userID).Info("logged out")
	return nil
}

// Confirm activates an account.
func (s *Service) Confirm(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", errors.Validation(models.MsgAllFieldsRequired)
	}
	return s.gateway.Confirm(ctx, id)
}

// ForgotPassword starts password recovery.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if err := models.ValidateEmail(email); err != nil {
		return "", err
	}
	return s.gateway.ForgotPassword(ctx, email)
}
