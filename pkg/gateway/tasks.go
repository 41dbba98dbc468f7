package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/grovetools/uptask/pkg/models"
)

// CreateTask creates a task and returns the server's copy.
func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	var task models.Task
	in.ID = ""
	err := c.do(ctx, http.MethodPost, "/tasks", true, in, &task)
	return task, err
}

// UpdateTask replaces task in.ID and returns the server's copy.
func (c *Client) UpdateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(in.ID), true, in, &task)
	return task, err
}

// DeleteTask deletes a task and returns the server's confirmation message.
func (c *Client) DeleteTask(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), true, nil, &resp)
	return resp.Msg, err
}

// ToggleTaskState flips a task between pending and complete.
func (c *Client) ToggleTaskState(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, "/tasks/state/"+url.PathEscape(id), true, struct{}{}, &task)
	return task, err
}
