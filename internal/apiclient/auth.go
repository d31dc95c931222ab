package apiclient

import (
	"context"
	"fmt"
	"net/http"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// Login opens a session; the session cookie lands in the client's jar.
func (c *Client) Login(ctx context.Context, creds v1.Credentials) (*v1.User, error) {
	var user v1.User
	if err := c.Do(ctx, http.MethodPost, "/auth/login", creds, &user); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user.Username == "" {
		user.Username = creds.Username
	}
	return &user, nil
}

// Me returns the user of the current session.
func (c *Client) Me(ctx context.Context) (*v1.User, error) {
	var user v1.User
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
