package backend

import (
	"context"
	"net/http"
	"net/url"
)

// IssueToken exchanges credentials for a bearer token. Credentials travel
// form-encoded, matching the backend's OAuth2 password flow.
func (c *Client) IssueToken(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok Token
	if err := c.postForm(ctx, "/v1/auth/token", form, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (Account, error) {
	var acc Account
	if err := c.getJSON(ctx, "/v1/auth/me", &acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Register creates a new account. The backend forces the diagnostician role
// on self-registration regardless of what is sent.
func (c *Client) Register(ctx context.Context, username, password, role string) (Account, error) {
	body := map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	}
	var acc Account
	if err := c.sendJSON(ctx, http.MethodPost, "/v1/auth/register", body, &acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}
