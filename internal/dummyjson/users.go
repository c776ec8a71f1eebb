package dummyjson

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"dummyshop/storefront/internal/domain"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type NewUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type userResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image"`
}

type userFilterResponse struct {
	Users []userResponse `json:"users"`
	Total *int           `json:"total"`
}

func (r userResponse) user(op string) (domain.User, error) {
	if r.ID <= 0 {
		return domain.User{}, invalid(op, "user id %d", r.ID)
	}
	if strings.TrimSpace(r.Username) == "" {
		return domain.User{}, invalid(op, "empty username")
	}
	return domain.User{
		ID:       r.ID,
		Email:    r.Email,
		Username: r.Username,
		Image:    r.Image,
	}, nil
}

// Login exchanges credentials for the remote user record. Tokens in the
// response are ignored.
func (c *Client) Login(ctx context.Context, creds Credentials) (domain.User, error) {
	const op = "login"
	var resp userResponse
	if err := c.do(ctx, op, http.MethodPost, c.endpoint("auth", "login"), creds, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.user(op)
}

func (c *Client) AddUser(ctx context.Context, u NewUser) (domain.User, error) {
	const op = "add user"
	var resp userResponse
	if err := c.do(ctx, op, http.MethodPost, c.endpoint("users", "add"), u, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.user(op)
}

// UsernameTaken reports whether any remote user already has username.
func (c *Client) UsernameTaken(ctx context.Context, username string) (bool, error) {
	const op = "filter users"
	u := c.endpoint("users", "filter")
	u.RawQuery = url.Values{"key": {"username"}, "value": {username}}.Encode()

	var resp userFilterResponse
	if err := c.get(ctx, op, u, &resp); err != nil {
		return false, err
	}
	if resp.Total == nil {
		return false, invalid(op, "missing total")
	}
	return *resp.Total > 0, nil
}
