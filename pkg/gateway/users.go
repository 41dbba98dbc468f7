package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/grovetools/uptask/pkg/models"
)

// Register creates an account. It does not require a session.
func (c *Client) Register(ctx context.Context, in models.RegisterInput) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/users", false, in, &resp)
	return resp.Msg, err
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, in models.LoginInput) (models.Profile, error) {
	var profile models.Profile
	err := c.do(ctx, http.MethodPost, "/users/login", false, in, &profile)
	return profile, err
}

// Confirm activates an account from the token sent by email.
func (c *Client) Confirm(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodGet, "/users/confirm/"+url.PathEscape(id), false, nil, &resp)
	return resp.Msg, err
}

// ForgotPassword starts password recovery for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/users/forgot-password", false, map[string]string{"email": email}, &resp)
	return resp.Msg, err
}
