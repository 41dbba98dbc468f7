package channel_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/internal/relay"
	"github.com/grovetools/uptask/logging"
	"github.com/grovetools/uptask/pkg/channel"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relayURL(t *testing.T) (*relay.Server, string) {
	t.Helper()
	testutil.SetupHome(t)
	srv := relay.New(logging.NewLogger("relay"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestPublishWithoutRoom(t *testing.T) {
	c := channel.New("ws://127.0.0.1:1/ws")
	err := c.Publish(channel.Presence(channel.KindProjectOpened, "p1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeChannelClosed))
	assert.False(t, c.Connected())
	assert.NoError(t, c.Disconnect())
}

func TestConnectFailure(t *testing.T) {
	c := channel.New("ws://127.0.0.1:1/ws")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.Connect(ctx, "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeChannelFailed))

	_, err = c.Connect(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestSwitchingRoomsClosesPreviousStream(t *testing.T) {
	srv, url := relayURL(t)
	ctx := context.Background()
	c := channel.New(url)

	first, err := c.Connect(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", c.Room())

	_, err = c.Connect(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", c.Room())

	select {
	case _, ok := <-first:
		assert.False(t, ok, "old stream must be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("old stream not closed")
	}

	testutil.WaitFor(t, 2*time.Second, func() bool {
		return srv.Hub().Members("p1") == 0 && srv.Hub().Members("p2") == 1
	})

	require.NoError(t, c.Disconnect())
	assert.False(t, c.Connected())
}

func TestPresenceDefaultsToRoom(t *testing.T) {
	_, url := relayURL(t)
	ctx := context.Background()
	a, b := channel.New(url), channel.New(url)
	_, err := a.Connect(ctx, "p1")
	require.NoError(t, err)
	events, err := b.Connect(ctx, "p1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Disconnect(); _ = b.Disconnect() })

	require.NoError(t, a.Publish(channel.Event{Type: channel.KindProjectOpened}))

	select {
	case ev := <-events:
		assert.Equal(t, channel.KindProjectOpened, ev.Type)
		assert.Equal(t, "p1", ev.ProjectID)
		assert.Equal(t, a.ClientID(), ev.ClientID)
	case <-time.After(2 * time.Second):
		t.Fatal("presence event not delivered")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		room    string
	}{
		{"task with embedded project", `{"type":"task-updated","task":{"_id":"t1","project":{"_id":"p1"}}}`, false, "p1"},
		{"presence", `{"type":"project-closed","projectId":"p2"}`, false, "p2"},
		{"unknown type", `{"type":"task-archived","task":{"_id":"t1","project":"p1"}}`, true, ""},
		{"task event without task", `{"type":"task-created","projectId":"p1"}`, true, ""},
		{"presence without project", `{"type":"project-opened"}`, true, ""},
		{"not json", `nope`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := channel.Decode([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.room, ev.Room())
		})
	}

	task := models.Task{ID: "t1", ProjectID: "p1"}
	ev := channel.TaskEvent(channel.KindTaskDeleted, task)
	task.ProjectID = "changed"
	assert.Equal(t, "p1", ev.Room())
}
