package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingTokenSkipsNetwork(t *testing.T) {
	backend := testutil.NewBackend(t)
	c := New(backend.URL(), StaticToken(""))

	_, err := c.ListProjects(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeAuthAbsent))
	assert.Equal(t, 0, backend.Requests())
	assert.False(t, c.HasToken())
}

func TestBearerHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", TokenFunc(func() string { return "abc" }))
	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.NotNil(t, projects)
	assert.Equal(t, "Bearer abc", got)
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestServerMessageOnFailure(t *testing.T) {
	backend := testutil.NewBackend(t)
	user := backend.AddUser("Ana", "ana@example.com", "secret1")
	c := New(backend.URL(), StaticToken(user.Token))

	_, err := c.GetProject(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	assert.Equal(t, "Project not found", errors.ServerMessage(err))

	backend.FailNext(http.MethodGet, "/projects", http.StatusInternalServerError, "")
	_, err = c.ListProjects(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeRequestFailed))
	assert.Equal(t, "GET /projects returned status 500", errors.ServerMessage(err))

	_, err = New(backend.URL(), StaticToken("bogus")).ListProjects(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestProjectAndTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewBackend(t)
	owner := backend.AddUser("Ana", "ana@example.com", "secret1")
	peer := backend.AddUser("Bea", "bea@example.com", "secret2")
	c := New(backend.URL(), StaticToken(owner.Token))

	created, err := c.CreateProject(ctx, models.ProjectInput{Name: "Web", Description: "site", DueDate: "2030-01-01", Client: "Acme"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, owner.ID, created.Creator)

	updated, err := c.UpdateProject(ctx, models.ProjectInput{ID: created.ID, Name: "Web v2", Description: "site", DueDate: "2030-01-01", Client: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Web v2", updated.Name)

	task, err := c.CreateTask(ctx, models.TaskInput{Name: "Logo", Description: "draw", DueDate: "2030-01-01", Priority: "High", ProjectID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, task.ProjectID)
	assert.Equal(t, models.TaskPending, task.State)

	edited, err := c.UpdateTask(ctx, models.TaskInput{ID: task.ID, Name: "Logo v2", Description: "draw", DueDate: "2030-01-01", Priority: "High", ProjectID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "Logo v2", edited.Name)
	assert.Equal(t, created.ID, edited.ProjectID, "embedded project is reduced to its id")
	assert.Greater(t, edited.Revision, task.Revision)

	done, err := c.ToggleTaskState(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsComplete())
	require.NotNil(t, done.CompletedBy)
	assert.Equal(t, owner.ID, done.CompletedBy.ID)

	collab, err := c.LookupCollaborator(ctx, peer.Email)
	require.NoError(t, err)
	assert.Equal(t, peer.ID, collab.ID)

	msg, err := c.AttachCollaborator(ctx, created.ID, peer.Email)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	full, err := c.GetProject(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, full.Tasks, 1)
	require.Len(t, full.Collaborators, 1)

	_, err = c.DetachCollaborator(ctx, created.ID, peer.ID)
	require.NoError(t, err)
	_, err = c.DeleteTask(ctx, task.ID)
	require.NoError(t, err)

	msg, err = c.DeleteProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Project Deleted", msg)

	list, err := c.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAccountCalls(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewBackend(t)
	c := New(backend.URL(), nil)

	_, err := c.Register(ctx, models.RegisterInput{Name: "Cy", Email: "cy@example.com", Password: "secret1", RepeatPassword: "secret1"})
	require.NoError(t, err)

	_, err = c.Login(ctx, models.LoginInput{Email: "cy@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "Your account has not been confirmed", errors.ServerMessage(err))

	_, err = c.Confirm(ctx, backend.ConfirmID("cy@example.com"))
	require.NoError(t, err)

	profile, err := c.Login(ctx, models.LoginInput{Email: "cy@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.Token)
	assert.Equal(t, "Cy", profile.Name)

	_, err = c.ForgotPassword(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}
