package backend

import (
	"context"
	"net/url"
)

// LoginResult is the raw token response of the password flow.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Profile is the signed-in operator's identity.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Login exchanges credentials for a bearer token. The endpoint speaks the
// OAuth2 password flow: urlencoded form in, bare token response out.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	var result LoginResult
	if err := c.doForm(ctx, "/auth/login", form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the current bearer token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil, nil, nil)
}

// CurrentProfile fetches the operator bound to the bearer token.
func (c *Client) CurrentProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "/auth/profile", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ChangePassword replaces the operator's password.
func (c *Client) ChangePassword(ctx context.Context, newPassword string) error {
	body := map[string]string{"new_password": newPassword}
	return c.post(ctx, "/auth/change-password", nil, nil, body, nil)
}
