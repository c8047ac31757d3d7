package mypatients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/mypatients/internal/endpoint"
	"github.com/wolfman30/mypatients/internal/transport"
)

var (
	// ErrAccessKeyRequired means the credentials are valid but the account
	// must first be unlocked with its access key; see CheckAccessKey.
	ErrAccessKeyRequired  = errors.New("mypatients: access key needs to be verified")
	ErrInvalidCredentials = errors.New("mypatients: invalid credentials")
)

const (
	msgAccessKeyRequired    = "access_key_needs_to_be_verified"
	msgAccessKeyNotVerified = "access_key_not_verified"
	msgInvalidCredentials   = "invalid_credentials"
)

// authError matches one of the auth sentinels and keeps the transport error
// reachable with errors.As.
type authError struct {
	kind error
	err  error
}

func (e *authError) Error() string   { return e.kind.Error() + ": " + e.err.Error() }
func (e *authError) Unwrap() []error { return []error{e.kind, e.err} }

func classifyAuthError(err error) error {
	switch {
	case transport.HasMessage(err, msgAccessKeyRequired), transport.HasMessage(err, msgAccessKeyNotVerified):
		return &authError{kind: ErrAccessKeyRequired, err: err}
	case transport.HasMessage(err, msgInvalidCredentials):
		return &authError{kind: ErrInvalidCredentials, err: err}
	}
	return err
}

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	res, err := endpoint.BindMutation(c.binder, Login, nil).Do(ctx, LoginParams{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return nil, classifyAuthError(err)
	}
	if err := c.startSession(ctx, res.Token); err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckAccessKey unlocks an account and stores the returned token.
func (c *Client) CheckAccessKey(ctx context.Context, email, accessKey string) (*AuthResponse, error) {
	res, err := endpoint.BindMutation(c.binder, CheckAccessKey, nil).Do(ctx, CheckAccessKeyParams{
		UserEmail: strings.TrimSpace(email),
		AccessKey: strings.TrimSpace(accessKey),
	})
	if err != nil {
		return nil, classifyAuthError(err)
	}
	if err := c.startSession(ctx, res.Token); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) startSession(ctx context.Context, token string) error {
	if err := c.session.Login(ctx, token); err != nil {
		return fmt.Errorf("mypatients: store session: %w", err)
	}
	// reads cached for a previous identity must not leak into this one
	c.cache.Clear()
	return nil
}

func (c *Client) Register(ctx context.Context, params RegisterParams) error {
	_, err := endpoint.BindMutation(c.binder, Register, nil).Do(ctx, params)
	return err
}

// Forgot requests a password reset email.
func (c *Client) Forgot(ctx context.Context, email string) error {
	_, err := endpoint.BindMutation(c.binder, Forgot, nil).Do(ctx, ForgotParams{Email: strings.TrimSpace(email)})
	return err
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	_, err := endpoint.BindMutation(c.binder, Reset, nil).Do(ctx, ResetParams{Token: token, Password: password})
	return err
}

// Logout clears the token and the cache.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// Me returns the current practitioner. Without a stored token no request is
// made.
func (c *Client) Me(ctx context.Context) (*CurrentUser, error) {
	if !c.Authenticated(ctx) {
		return nil, ErrNotAuthenticated
	}
	user, err := c.me.Fetch(ctx, none{})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UseMe is the current-user query, enabled only while a token is stored.
func (c *Client) UseMe(ctx context.Context) *endpoint.QueryState[none, CurrentUser] {
	return c.me.Use(none{}, endpoint.WithEnabled(c.Authenticated(ctx)))
}
