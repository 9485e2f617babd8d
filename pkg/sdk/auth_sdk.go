package sdk

import (
	"context"
	"fmt"
	"net/http"
)

// Signup registers a new account and stores the returned token on the client
func (c *Client) Signup(ctx context.Context, req *SignupRequest) (*AuthData, error) {
	var out ApiResponse[AuthData]
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", req, &out); err != nil {
		return nil, err
	}

	if out.Data.Token == "" {
		return nil, fmt.Errorf("no token returned")
	}

	c.SetToken(out.Data.Token)
	return &out.Data, nil
}

// Login authenticates an account and stores the returned token on the client
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*AuthData, error) {
	var out ApiResponse[AuthData]
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}

	if out.Data.Token == "" {
		return nil, fmt.Errorf("no token returned")
	}

	c.SetToken(out.Data.Token)
	return &out.Data, nil
}

// CheckEmail reports whether an account exists for the given address
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var out ApiResponse[CheckEmailData]
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/check-email", &CheckEmailRequest{Email: email}, &out); err != nil {
		return false, err
	}

	return out.Data.Exists, nil
}

// UpdateDetails updates the authenticated account's name and email
func (c *Client) UpdateDetails(ctx context.Context, req *UpdateDetailsRequest) (*User, error) {
	var out ApiResponse[User]
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/updatedetails", req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// DeleteMe deletes the authenticated account
func (c *Client) DeleteMe(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/auth/deleteme", nil, nil)
}
