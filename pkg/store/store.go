// Package store owns the client's view of projects: the project list, the one
// open project with its tasks and collaborators, and the transient UI state
// around them.
//
// The Store is the only writer of that state. Local operations go through the
// gateway and, once the server confirms, are reconciled locally and published
// to the project's room. Events from other clients in the room are reconciled
// the same way. Readers take snapshots with State or wait for Updates.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/uptask/config"
	"github.com/grovetools/uptask/logging"
	"github.com/grovetools/uptask/pkg/channel"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/pkg/reconcile"
	"github.com/sirupsen/logrus"
)

// RouteProjects is the project list route navigated to after project
// mutations and failed opens.
const RouteProjects = "/projects"

// Gateway is the subset of the REST client the store needs.
type Gateway interface {
	ListProjects(ctx context.Context) ([]models.ProjectSummary, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	CreateProject(ctx context.Context, in models.ProjectInput) (models.ProjectSummary, error)
	UpdateProject(ctx context.Context, in models.ProjectInput) (models.ProjectSummary, error)
	DeleteProject(ctx context.Context, id string) (string, error)
	CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	DeleteTask(ctx context.Context, id string) (string, error)
	ToggleTaskState(ctx context.Context, id string) (models.Task, error)
	LookupCollaborator(ctx context.Context, email string) (models.Collaborator, error)
	AttachCollaborator(ctx context.Context, projectID, email string) (string, error)
	DetachCollaborator(ctx context.Context, projectID, collaboratorID string) (string, error)
}

// EventChannel is a room connection. Connect leaves any previous room.
type EventChannel interface {
	Connect(ctx context.Context, roomID string) (<-chan channel.Event, error)
	Disconnect() error
	Publish(ev channel.Event) error
	ClientID() string
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(route string) { f(route) }

// ProjectCache stores the last fetched project list of a user.
type ProjectCache interface {
	SaveProjects(ctx context.Context, userID string, projects []models.ProjectSummary) error
}

// Options configures a Store.
type Options struct {
	// AlertTimeout clears ad-hoc alerts.
	AlertTimeout time.Duration
	// SuccessTimeout clears post-mutation success alerts.
	SuccessTimeout time.Duration
	// SurfaceWriteErrors shows failed writes as error alerts in addition to logging them.
	SurfaceWriteErrors bool
	Policy             reconcile.Policy
	Navigator          Navigator
	Cache              ProjectCache
	// UserID keys the project cache.
	UserID func() string
	Logger *logrus.Entry
}

// DefaultOptions returns the options used when no configuration is loaded.
func DefaultOptions() Options {
	return Options{
		AlertTimeout:       5 * time.Second,
		SuccessTimeout:     3 * time.Second,
		SurfaceWriteErrors: true,
		Policy:             reconcile.Default,
	}
}

// OptionsFromConfig derives store options from the client configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.AlertTimeout = cfg.AlertTimeout()
	opts.SuccessTimeout = cfg.SuccessAlertTimeout()
	opts.SurfaceWriteErrors = cfg.SurfaceWriteErrors()
	opts.Policy = reconcile.Policy{RevisionGuard: cfg.RevisionGuard()}
	return opts
}

// State is a snapshot of everything the store owns.
type State struct {
	Projects []models.ProjectSummary
	// Project is the open project, nil when none is open.
	Project *models.Project
	Alert   models.Alert
	Loading bool

	TaskModal               bool
	DeleteTaskModal         bool
	DeleteCollaboratorModal bool
	Search                  bool

	SelectedTask         models.Task
	SelectedCollaborator models.Collaborator
	// PendingCollaborator is the result of the last collaborator lookup.
	PendingCollaborator models.Collaborator

	// Room is the project whose room is joined, "" when none.
	Room string
	// Peers are the client ids seen entering the room.
	Peers []string
}

func (st State) clone() State {
	cp := st
	cp.Projects = append([]models.ProjectSummary{}, st.Projects...)
	cp.Project = st.Project.Clone()
	cp.SelectedTask = st.SelectedTask.Clone()
	cp.Peers = append([]string(nil), st.Peers...)
	return cp
}

// UpdateType identifies which part of the state changed.
type UpdateType string

const (
	UpdateProjects UpdateType = "projects"
	UpdateProject  UpdateType = "project"
	UpdateAlert    UpdateType = "alert"
	UpdateUI       UpdateType = "ui"
	UpdateRoom     UpdateType = "room"
	UpdatePeers    UpdateType = "peers"
)

// Update notifies subscribers of a state change.
type Update struct {
	Type UpdateType
}

// Store is the project state store. It is safe for concurrent use.
type Store struct {
	gateway Gateway
	channel EventChannel
	opts    Options
	logger  *logrus.Entry

	mu          sync.Mutex
	state       State
	subscribers map[chan Update]struct{}
	alertTimer  *time.Timer
	alertThen   func()
	alertGen    uint64
	// openGen changes on every OpenProject, CloseProject and CloseSession so a
	// slow fetch cannot install a project the user already left.
	openGen uint64

	// roomMu serializes joining and leaving rooms.
	roomMu sync.Mutex
	room   *room
}

// New creates a Store. ch may be nil, in which case projects open without a room.
func New(gw Gateway, ch EventChannel, opts Options) *Store {
	defaults := DefaultOptions()
	if opts.AlertTimeout <= 0 {
		opts.AlertTimeout = defaults.AlertTimeout
	}
	if opts.SuccessTimeout <= 0 {
		opts.SuccessTimeout = defaults.SuccessTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("store")
	}
	return &Store{
		gateway:     gw,
		channel:     ch,
		opts:        opts,
		logger:      opts.Logger,
		state:       State{Projects: []models.ProjectSummary{}},
		subscribers: make(map[chan Update]struct{}),
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100) // Buffered
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}

func (s *Store) notify(types ...UpdateType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range types {
		for ch := range s.subscribers {
			select {
			case ch <- Update{Type: t}:
			default:
				// Non-blocking send to prevent slow readers from stalling the store
			}
		}
	}
}

func (s *Store) navigate(route string) {
	if s.opts.Navigator != nil {
		s.opts.Navigator.Navigate(route)
	}
}

// CloseSession forgets everything tied to the logged-in user: the project
// list, the open project and its room, UI state and any alert.
func (s *Store) CloseSession() {
	s.mu.Lock()
	s.openGen++
	s.stopAlertLocked()
	s.state = State{Projects: []models.ProjectSummary{}}
	s.mu.Unlock()

	s.leaveRoom()

	s.notify(UpdateProjects, UpdateProject, UpdateAlert, UpdateUI, UpdateRoom)
	s.logger.Debug("session closed")
}
