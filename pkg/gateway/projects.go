package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/grovetools/uptask/pkg/models"
)

// ListProjects returns the summaries of every project visible to the user.
func (c *Client) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	var projects []models.ProjectSummary
	if err := c.do(ctx, http.MethodGet, "/projects", true, nil, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []models.ProjectSummary{}
	}
	return projects, nil
}

// GetProject returns the full project including tasks and collaborators.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), true, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project and returns it.
func (c *Client) CreateProject(ctx context.Context, in models.ProjectInput) (models.ProjectSummary, error) {
	var project models.ProjectSummary
	in.ID = ""
	err := c.do(ctx, http.MethodPost, "/projects", true, in, &project)
	return project, err
}

// UpdateProject replaces the fields of project in.ID and returns the result.
func (c *Client) UpdateProject(ctx context.Context, in models.ProjectInput) (models.ProjectSummary, error) {
	var project models.ProjectSummary
	err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(in.ID), true, in, &project)
	return project, err
}

// DeleteProject deletes a project and returns the server's confirmation message.
func (c *Client) DeleteProject(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), true, nil, &resp)
	return resp.Msg, err
}

// LookupCollaborator finds a registered user by email.
func (c *Client) LookupCollaborator(ctx context.Context, email string) (models.Collaborator, error) {
	var collab models.Collaborator
	err := c.do(ctx, http.MethodPost, "/projects/collaborators", true, map[string]string{"email": email}, &collab)
	return collab, err
}

// AttachCollaborator adds the user with email to a project.
func (c *Client) AttachCollaborator(ctx context.Context, projectID, email string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/projects/collaborators/"+url.PathEscape(projectID), true, map[string]string{"email": email}, &resp)
	return resp.Msg, err
}

// DetachCollaborator removes a collaborator from a project.
func (c *Client) DetachCollaborator(ctx context.Context, projectID, collaboratorID string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/projects/delete-collaborator/"+url.PathEscape(projectID), true, map[string]string{"id": collaboratorID}, &resp)
	return resp.Msg, err
}
