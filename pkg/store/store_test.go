package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grovetools/uptask/internal/relay"
	"github.com/grovetools/uptask/logging"
	"github.com/grovetools/uptask/pkg/channel"
	"github.com/grovetools/uptask/pkg/gateway"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const wait = 3 * time.Second

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) Navigate(route string) {
	m.Called(route)
}

// expectNavigation registers an expectation and returns a channel fed on every call.
func expectNavigation(nav *mockNavigator, route string) <-chan string {
	ch := make(chan string, 4)
	nav.On("Navigate", route).Run(func(args mock.Arguments) { ch <- args.String(0) }).Return()
	return ch
}

type countingTransport struct {
	n atomic.Int64
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

type recordingCache struct {
	mu    sync.Mutex
	saved map[string][]models.ProjectSummary
}

func (c *recordingCache) SaveProjects(_ context.Context, userID string, projects []models.ProjectSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved[userID] = projects
	return nil
}

type harness struct {
	backend  *testutil.Backend
	relay    *relay.Server
	relayURL string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	testutil.SetupHome(t)
	srv := relay.New(logging.NewLogger("relay"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{
		backend:  testutil.NewBackend(t),
		relay:    srv,
		relayURL: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

type clientOpt func(*Options)

func (h *harness) client(t *testing.T, user models.Profile, opts ...clientOpt) (*Store, *countingTransport) {
	t.Helper()
	transport := &countingTransport{}
	gw := gateway.New(h.backend.URL(), gateway.StaticToken(user.Token),
		gateway.WithHTTPClient(&http.Client{Transport: transport}))

	o := DefaultOptions()
	o.AlertTimeout = 300 * time.Millisecond
	o.SuccessTimeout = 100 * time.Millisecond
	for _, opt := range opts {
		opt(&o)
	}
	s := New(gw, channel.New(h.relayURL), o)
	t.Cleanup(s.CloseSession)
	return s, transport
}

func withNavigator(n Navigator) clientOpt {
	return func(o *Options) { o.Navigator = n }
}

func taskInput(name string) models.TaskInput {
	return models.TaskInput{Name: name, Description: name + " details", DueDate: "2030-02-01", Priority: "Low"}
}

func TestLoadProjectListWithoutSession(t *testing.T) {
	h := newHarness(t)
	s, transport := h.client(t, models.Profile{})

	s.CloseSession()
	require.NoError(t, s.LoadProjectList(context.Background()))

	assert.Equal(t, []models.ProjectSummary{}, s.State().Projects)
	assert.Zero(t, transport.n.Load())
	assert.Zero(t, h.backend.Requests())
}

func TestLoadProjectList(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	h.backend.AddProject(ana, "Web")
	h.backend.AddProject(ana, "Mobile")

	cache := &recordingCache{saved: map[string][]models.ProjectSummary{}}
	s, _ := h.client(t, ana, func(o *Options) {
		o.Cache = cache
		o.UserID = func() string { return ana.ID }
	})

	require.NoError(t, s.LoadProjectList(context.Background()))
	projects := s.State().Projects
	require.Len(t, projects, 2)
	assert.Equal(t, "Web", projects[0].Name)
	assert.Len(t, cache.saved[ana.ID], 2)

	h.backend.FailNext(http.MethodGet, "/projects", http.StatusInternalServerError, "database down")
	assert.Error(t, s.LoadProjectList(context.Background()))
	assert.Len(t, s.State().Projects, 2, "failure leaves the list unchanged")
	assert.True(t, s.State().Alert.IsZero(), "list failures are not surfaced")
}

func TestOpenProject(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")
	h.backend.AddTask(p.ID, "Logo")

	s, _ := h.client(t, ana)
	s.ShowAlert(models.ErrorAlert("stale"))

	require.NoError(t, s.OpenProject(context.Background(), p.ID))
	st := s.State()
	require.NotNil(t, st.Project)
	assert.Equal(t, p.ID, st.Project.ID)
	assert.Len(t, st.Project.Tasks, 1)
	assert.False(t, st.Loading)
	assert.True(t, st.Alert.IsZero())
	assert.Equal(t, p.ID, st.Room)
	testutil.WaitFor(t, wait, func() bool { return h.relay.Hub().Members(p.ID) == 1 })

	s.CloseProject()
	st = s.State()
	assert.Nil(t, st.Project)
	assert.Empty(t, st.Room)
	testutil.WaitFor(t, wait, func() bool { return h.relay.Hub().Members(p.ID) == 0 })
}

func TestOpenProjectFailure(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")

	nav := &mockNavigator{}
	navigated := expectNavigation(nav, RouteProjects)
	s, _ := h.client(t, ana, withNavigator(nav))

	require.NoError(t, s.OpenProject(context.Background(), p.ID))
	err := s.OpenProject(context.Background(), "missing")
	require.Error(t, err)

	st := s.State()
	assert.Nil(t, st.Project)
	assert.False(t, st.Loading)
	assert.Equal(t, models.Alert{Msg: "Project not found", Error: true}, st.Alert)
	assert.Empty(t, st.Room, "the failed open leaves the previous room")
	assert.Equal(t, RouteProjects, <-navigated)
	nav.AssertExpectations(t)

	testutil.WaitFor(t, wait, func() bool { return s.State().Alert.IsZero() })
}

func TestSwitchingProjectsKeepsOneRoom(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	bea := h.backend.AddUser("Bea", "bea@example.com", "secret2")
	p1 := h.backend.AddProject(ana, "One")
	p2 := h.backend.AddProject(ana, "Two")
	h.backend.AddCollaborator(p1.ID, bea)
	ctx := context.Background()

	a, _ := h.client(t, ana)
	b, _ := h.client(t, bea)

	require.NoError(t, a.OpenProject(ctx, p1.ID))
	require.NoError(t, a.OpenProject(ctx, p2.ID))
	testutil.WaitFor(t, wait, func() bool {
		return h.relay.Hub().Members(p1.ID) == 0 && h.relay.Hub().Members(p2.ID) == 1
	})
	assert.Equal(t, p2.ID, a.State().Room)

	// A late event for p1 must not touch p2.
	a.handleEvent(channel.Event{
		Type:     channel.KindTaskCreated,
		ClientID: "someone",
		Task:     &models.Task{ID: "late", ProjectID: p1.ID},
	})
	assert.Empty(t, a.State().Project.Tasks)

	// Nor may events from p1's room reach A.
	require.NoError(t, b.OpenProject(ctx, p1.ID))
	task := h.backend.AddTask(p1.ID, "Only in one")
	b.publish(channel.KindTaskCreated, task)
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, a.State().Project.Tasks)
	assert.Equal(t, p2.ID, a.State().Project.ID)
}

func TestSubmitTaskValidation(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")
	s, _ := h.client(t, ana)
	require.NoError(t, s.OpenProject(context.Background(), p.ID))
	before := h.backend.Requests()

	in := taskInput("")
	err := s.SubmitTask(context.Background(), in)
	require.Error(t, err)

	st := s.State()
	assert.Equal(t, models.Alert{Msg: models.MsgAllFieldsRequired, Error: true}, st.Alert)
	assert.Empty(t, st.Project.Tasks)
	assert.Equal(t, before, h.backend.Requests(), "no request is sent")
}

func TestTwoClientsConverge(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	bea := h.backend.AddUser("Bea", "bea@example.com", "secret2")
	p := h.backend.AddProject(ana, "Web")
	h.backend.AddCollaborator(p.ID, bea)
	task := h.backend.AddTask(p.ID, "Logo")
	ctx := context.Background()

	a, _ := h.client(t, ana)
	b, bTransport := h.client(t, bea)
	require.NoError(t, a.OpenProject(ctx, p.ID))
	require.NoError(t, b.OpenProject(ctx, p.ID))
	testutil.WaitFor(t, wait, func() bool {
		return len(a.State().Peers) == 1 && len(b.State().Peers) == 1
	}, "presence exchange")
	bRequests := bTransport.n.Load()

	require.NoError(t, a.CompleteTask(ctx, task.ID))
	testutil.WaitFor(t, wait, func() bool {
		got, ok := b.State().Project.Task(task.ID)
		return ok && got.IsComplete()
	}, "B sees the completed task")

	got, _ := b.State().Project.Task(task.ID)
	require.NotNil(t, got.CompletedBy)
	assert.Equal(t, ana.ID, got.CompletedBy.ID)
	assert.Equal(t, bRequests, bTransport.n.Load(), "B issued no request")

	aTask, _ := a.State().Project.Task(task.ID)
	assert.True(t, aTask.IsComplete(), "A reconciles its own change")

	// Create and edit flow through the room as well.
	require.NoError(t, a.SubmitTask(ctx, taskInput("Copy")))
	testutil.WaitFor(t, wait, func() bool { return len(b.State().Project.Tasks) == 2 })
	require.Len(t, a.State().Project.Tasks, 2)
	created := a.State().Project.Tasks[1]
	assert.Equal(t, "Copy", created.Name)

	edit := models.TaskInputFrom(created)
	edit.Name = "Copy v2"
	require.NoError(t, a.SubmitTask(ctx, edit))
	testutil.WaitFor(t, wait, func() bool {
		got, _ := b.State().Project.Task(created.ID)
		return got.Name == "Copy v2"
	})
	assert.Len(t, b.State().Project.Tasks, 2)
	assert.Equal(t, []string{task.ID, created.ID}, taskIDs(b.State().Project.Tasks))

	// Leaving the room is seen by the peer.
	b.CloseProject()
	testutil.WaitFor(t, wait, func() bool { return len(a.State().Peers) == 0 })
}

func TestDeleteTask(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	bea := h.backend.AddUser("Bea", "bea@example.com", "secret2")
	p := h.backend.AddProject(ana, "Web")
	h.backend.AddCollaborator(p.ID, bea)
	keep := h.backend.AddTask(p.ID, "Keep")
	drop := h.backend.AddTask(p.ID, "Drop")
	ctx := context.Background()

	a, _ := h.client(t, ana)
	b, _ := h.client(t, bea)
	require.NoError(t, a.OpenProject(ctx, p.ID))
	require.NoError(t, b.OpenProject(ctx, p.ID))
	testutil.WaitFor(t, wait, func() bool { return len(a.State().Peers) == 1 })

	assert.Error(t, a.DeleteTask(ctx), "nothing selected")

	a.HandleModalDeleteTask(drop)
	require.True(t, a.State().DeleteTaskModal)
	require.NoError(t, a.DeleteTask(ctx))

	st := a.State()
	assert.False(t, st.DeleteTaskModal)
	assert.Empty(t, st.SelectedTask.ID)
	assert.Equal(t, models.Alert{Msg: "Task Deleted Successfully"}, st.Alert)
	assert.Equal(t, []string{keep.ID}, taskIDs(st.Project.Tasks))

	testutil.WaitFor(t, wait, func() bool { return len(b.State().Project.Tasks) == 1 })
	assert.Equal(t, keep.ID, b.State().Project.Tasks[0].ID)
}

func TestDuplicateAndStaleEvents(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")
	task := h.backend.AddTask(p.ID, "Logo")
	s, _ := h.client(t, ana)
	require.NoError(t, s.OpenProject(context.Background(), p.ID))

	created := models.Task{ID: "t-new", Name: "New", ProjectID: p.ID, Revision: 1}
	for i := 0; i < 2; i++ {
		s.handleEvent(channel.Event{Type: channel.KindTaskCreated, ClientID: "peer", Task: &created})
	}
	assert.Len(t, s.State().Project.Tasks, 2)

	newer := task
	newer.Name = "Logo v3"
	newer.Revision = 3
	older := task
	older.Name = "Logo v2"
	older.Revision = 2
	s.handleEvent(channel.Event{Type: channel.KindTaskUpdated, ClientID: "peer", Task: &newer})
	s.handleEvent(channel.Event{Type: channel.KindTaskUpdated, ClientID: "peer", Task: &older})

	got, _ := s.State().Project.Task(task.ID)
	assert.Equal(t, "Logo v3", got.Name)

	gone := models.Task{ID: "t-new", ProjectID: p.ID}
	s.handleEvent(channel.Event{Type: channel.KindTaskDeleted, ClientID: "peer", Task: &gone})
	s.handleEvent(channel.Event{Type: channel.KindTaskDeleted, ClientID: "peer", Task: &gone})
	assert.Equal(t, []string{task.ID}, taskIDs(s.State().Project.Tasks))
}

func TestSubmitProject(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	nav := &mockNavigator{}
	navigated := expectNavigation(nav, RouteProjects)
	s, _ := h.client(t, ana, withNavigator(nav))
	ctx := context.Background()

	err := s.SubmitProject(ctx, models.ProjectInput{Name: "Web"})
	require.Error(t, err)
	assert.Equal(t, models.MsgAllFieldsRequired, s.State().Alert.Msg)

	in := models.ProjectInput{Name: "Web", Description: "site", DueDate: "2030-01-01", Client: "Acme"}
	require.NoError(t, s.SubmitProject(ctx, in))
	st := s.State()
	require.Len(t, st.Projects, 1)
	assert.Equal(t, models.SuccessAlert(models.MsgProjectCreated), st.Alert)

	select {
	case route := <-navigated:
		assert.Equal(t, RouteProjects, route)
	case <-time.After(wait):
		t.Fatal("no navigation after the success alert")
	}
	testutil.WaitFor(t, wait, func() bool { return s.State().Alert.IsZero() })

	in.ID = st.Projects[0].ID
	in.Name = "Web v2"
	require.NoError(t, s.SubmitProject(ctx, in))
	st = s.State()
	require.Len(t, st.Projects, 1)
	assert.Equal(t, "Web v2", st.Projects[0].Name)
	assert.Equal(t, models.MsgProjectUpdated, st.Alert.Msg)
	<-navigated

	require.NoError(t, s.DeleteProject(ctx, in.ID))
	assert.Empty(t, s.State().Projects)
	assert.Equal(t, "Project Deleted", s.State().Alert.Msg)
	<-navigated
	nav.AssertNumberOfCalls(t, "Navigate", 3)
}

func TestWriteFailurePolicy(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	in := models.ProjectInput{Name: "Web", Description: "site", DueDate: "2030-01-01", Client: "Acme"}
	ctx := context.Background()

	surfaced, _ := h.client(t, ana)
	h.backend.FailNext(http.MethodPost, "/projects", http.StatusBadRequest, "Name already taken")
	require.Error(t, surfaced.SubmitProject(ctx, in))
	assert.Equal(t, models.ErrorAlert("Name already taken"), surfaced.State().Alert)
	assert.Empty(t, surfaced.State().Projects)

	quiet, _ := h.client(t, ana, func(o *Options) { o.SurfaceWriteErrors = false })
	h.backend.FailNext(http.MethodPost, "/projects", http.StatusBadRequest, "Name already taken")
	require.Error(t, quiet.SubmitProject(ctx, in))
	assert.True(t, quiet.State().Alert.IsZero())
}

func TestAlertTimerIsReplaced(t *testing.T) {
	h := newHarness(t)
	s, _ := h.client(t, models.Profile{})

	s.ShowAlert(models.ErrorAlert("first"))
	time.Sleep(200 * time.Millisecond)
	s.ShowAlert(models.ErrorAlert("second"))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, "second", s.State().Alert.Msg, "the first timer must not clear the second alert")
	testutil.WaitFor(t, wait, func() bool { return s.State().Alert.IsZero() })
}

func TestSupersededSuccessAlertStillNavigates(t *testing.T) {
	h := newHarness(t)
	nav := &mockNavigator{}
	navigated := expectNavigation(nav, RouteProjects)
	s, _ := h.client(t, models.Profile{}, withNavigator(nav), func(o *Options) { o.SuccessTimeout = time.Minute })

	s.showAlert(models.SuccessAlert("saved"), s.opts.SuccessTimeout, func() { s.navigate(RouteProjects) })
	s.ShowAlert(models.ErrorAlert("next"))

	select {
	case <-navigated:
	case <-time.After(wait):
		t.Fatal("superseded alert dropped its navigation")
	}
	assert.Equal(t, "next", s.State().Alert.Msg)
}

func TestCollaborators(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	bea := h.backend.AddUser("Bea", "bea@example.com", "secret2")
	p := h.backend.AddProject(ana, "Web")
	ctx := context.Background()
	s, _ := h.client(t, ana)
	require.NoError(t, s.OpenProject(ctx, p.ID))

	require.Error(t, s.SubmitCollaborator(ctx, "not-an-email"))
	assert.Equal(t, models.MsgInvalidEmail, s.State().Alert.Msg)

	require.Error(t, s.SubmitCollaborator(ctx, "ghost@example.com"))
	assert.Equal(t, models.ErrorAlert("User not found"), s.State().Alert)
	assert.True(t, s.State().PendingCollaborator.IsZero())

	require.NoError(t, s.SubmitCollaborator(ctx, bea.Email))
	st := s.State()
	assert.Equal(t, bea.ID, st.PendingCollaborator.ID)
	assert.True(t, st.Alert.IsZero())

	require.NoError(t, s.AddCollaborator(ctx, bea.Email))
	st = s.State()
	assert.True(t, st.PendingCollaborator.IsZero())
	assert.Equal(t, models.MsgCollaboratorAdded, st.Alert.Msg)
	require.Len(t, st.Project.Collaborators, 1)

	require.Error(t, s.AddCollaborator(ctx, bea.Email))
	assert.Equal(t, models.ErrorAlert("The user already belongs to the project"), s.State().Alert)

	s.HandleModalDeleteCollaborator(st.Project.Collaborators[0])
	require.True(t, s.State().DeleteCollaboratorModal)
	require.NoError(t, s.DeleteCollaborator(ctx))
	st = s.State()
	assert.Empty(t, st.Project.Collaborators)
	assert.False(t, st.DeleteCollaboratorModal)
	stored, _ := h.backend.Project(p.ID)
	assert.Empty(t, stored.Collaborators)
}

func TestModalsAndSearch(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	h.backend.AddProject(ana, "Web Redesign")
	h.backend.AddProject(ana, "Mobile App")
	h.backend.AddProject(ana, "Website Copy")
	s, _ := h.client(t, ana)
	require.NoError(t, s.LoadProjectList(context.Background()))

	updates := s.Subscribe()
	defer s.Unsubscribe(updates)

	s.HandleModalTask()
	assert.True(t, s.State().TaskModal)
	assert.Equal(t, UpdateUI, (<-updates).Type)

	task := models.Task{ID: "t1", Name: "Logo"}
	s.HandleModalEditTask(task)
	st := s.State()
	assert.True(t, st.TaskModal)
	assert.Equal(t, "t1", st.SelectedTask.ID)

	s.HandleModalTask()
	st = s.State()
	assert.False(t, st.TaskModal)
	assert.Empty(t, st.SelectedTask.ID)

	s.ToggleSearch()
	assert.True(t, s.State().Search)
	s.ToggleSearch()
	assert.False(t, s.State().Search)

	names := func(ps []models.ProjectSummary) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Web Redesign", "Website Copy"}, names(s.SearchProjects("web")))
	assert.Equal(t, []string{"Mobile App"}, names(s.SearchProjects("m*app")))
	assert.Equal(t, []string{"Website Copy"}, names(s.SearchProjects("website*")))
	assert.Len(t, s.SearchProjects("  "), 3)
	assert.Empty(t, s.SearchProjects("zzz"))
}

func TestCloseSession(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")
	ctx := context.Background()
	s, _ := h.client(t, ana)
	require.NoError(t, s.LoadProjectList(ctx))
	require.NoError(t, s.OpenProject(ctx, p.ID))
	s.ShowAlert(models.ErrorAlert("boom"))
	s.ToggleSearch()

	s.CloseSession()
	st := s.State()
	assert.Equal(t, []models.ProjectSummary{}, st.Projects)
	assert.Nil(t, st.Project)
	assert.True(t, st.Alert.IsZero())
	assert.False(t, st.Search)
	assert.Empty(t, st.Room)
	testutil.WaitFor(t, wait, func() bool { return h.relay.Hub().Members(p.ID) == 0 })
}

func TestStoreWithoutChannel(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")
	s := New(gateway.New(h.backend.URL(), gateway.StaticToken(ana.Token)), nil, Options{})

	require.NoError(t, s.OpenProject(context.Background(), p.ID))
	require.NoError(t, s.SubmitTask(context.Background(), taskInput("Offline")))
	st := s.State()
	assert.Len(t, st.Project.Tasks, 1)
	assert.Empty(t, st.Room)
	s.CloseSession()
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// droppingChannel is an in-memory EventChannel whose stream can be cut to
// simulate the transport going away.
type droppingChannel struct {
	mu       sync.Mutex
	connects int
	events   chan channel.Event
}

func (c *droppingChannel) Connect(_ context.Context, _ string) (<-chan channel.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	c.events = make(chan channel.Event)
	return c.events, nil
}

func (c *droppingChannel) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events != nil {
		close(c.events)
		c.events = nil
	}
}

func (c *droppingChannel) Disconnect() error {
	c.drop()
	return nil
}

func (c *droppingChannel) Publish(channel.Event) error { return nil }

func (c *droppingChannel) ClientID() string { return "local" }

func (c *droppingChannel) connectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

func TestReopenAfterStreamDropRejoinsRoom(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")
	ch := &droppingChannel{}
	s := New(gateway.New(h.backend.URL(), gateway.StaticToken(ana.Token)), ch, Options{})
	t.Cleanup(s.CloseSession)
	ctx := context.Background()

	require.NoError(t, s.OpenProject(ctx, p.ID))
	require.Equal(t, p.ID, s.State().Room)

	ch.drop()
	testutil.WaitFor(t, wait, func() bool { return s.State().Room == "" })

	require.NoError(t, s.OpenProject(ctx, p.ID))
	assert.Equal(t, 2, ch.connectCount())
	assert.Equal(t, p.ID, s.State().Room)

	// A live room is not reconnected.
	require.NoError(t, s.OpenProject(ctx, p.ID))
	assert.Equal(t, 2, ch.connectCount())
}

// gatedGateway holds GetProject until release is closed.
type gatedGateway struct {
	*gateway.Client
	started chan struct{}
	release chan struct{}
}

func (g *gatedGateway) GetProject(ctx context.Context, id string) (*models.Project, error) {
	close(g.started)
	<-g.release
	return g.Client.GetProject(ctx, id)
}

func TestCloseProjectDuringFetchKeepsProjectClosed(t *testing.T) {
	h := newHarness(t)
	ana := h.backend.AddUser("Ana", "ana@example.com", "secret1")
	p := h.backend.AddProject(ana, "Web")
	gw := &gatedGateway{
		Client:  gateway.New(h.backend.URL(), gateway.StaticToken(ana.Token)),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(gw, channel.New(h.relayURL), Options{})
	t.Cleanup(s.CloseSession)

	opened := make(chan error, 1)
	go func() { opened <- s.OpenProject(context.Background(), p.ID) }()

	<-gw.started
	s.CloseProject()
	close(gw.release)

	select {
	case err := <-opened:
		require.NoError(t, err)
	case <-time.After(wait):
		t.Fatal("OpenProject did not return")
	}

	st := s.State()
	assert.Nil(t, st.Project)
	assert.Empty(t, st.Room)
	assert.False(t, st.Loading)
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, h.relay.Hub().Members(p.ID))
}
