// Package auth implements the GitHub OAuth authorization-code flow and the
// token lifecycle: interactive sign-in, remote validation with backoff,
// expiry tracking, and the error taxonomy the session layer builds on.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ghnav/cli/internal/config"
	"github.com/ghnav/cli/internal/githubapi"
	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/schema"
	"github.com/ghnav/cli/internal/store"
)

// Flow drives one interactive sign-in: authorization, code exchange,
// profile fetch, and persistence of the resulting credential record.
type Flow struct {
	cfg        *config.UserConfig
	api        *githubapi.Client
	store      store.Store
	authorizer Authorizer
	now        func() time.Time
}

// NewFlow wires a flow against the given collaborators.
func NewFlow(cfg *config.UserConfig, api *githubapi.Client, st store.Store, authorizer Authorizer) *Flow {
	return &Flow{
		cfg:        cfg,
		api:        api,
		store:      st,
		authorizer: authorizer,
		now:        time.Now,
	}
}

// Authenticate runs the full OAuth round-trip and returns the validated,
// persisted credential record. Every failure is an *AuthError; anything
// unexpected is wrapped with code UNKNOWN_ERROR.
func (f *Flow) Authenticate(ctx context.Context) (*schema.AuthState, error) {
	state, err := f.authenticate(ctx)
	if err != nil {
		logger.Error("Authentication failed", err)
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, &AuthError{Code: CodeUnknown, Message: "authentication failed", Err: err}
	}
	return state, nil
}

func (f *Flow) authenticate(ctx context.Context) (*schema.AuthState, error) {
	if f.authorizer == nil {
		return nil, NewAuthError(CodeBrowserAuthUnavailable, "no interactive authorization surface available")
	}
	if f.cfg.ClientID == "" {
		return nil, NewAuthError(CodeMissingClientID, "GHNAV_CLIENT_ID is not set")
	}
	if f.cfg.ClientSecret == "" {
		return nil, NewAuthError(CodeMissingClientSecret, "GHNAV_CLIENT_SECRET is not set")
	}
	if err := f.cfg.Validate(); err != nil {
		return nil, &AuthError{Code: CodeConfigValidation, Message: "invalid configuration", Err: err}
	}

	oauthState, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generating OAuth state: %w", err)
	}

	oc := &oauth2.Config{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		RedirectURL:  f.cfg.RedirectURI(),
		Scopes:       f.cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.cfg.AuthURL,
			TokenURL: f.cfg.TokenURL,
		},
	}

	redirectURL, err := f.authorizer.Authorize(ctx, oc.AuthCodeURL(oauthState))
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, &AuthError{Code: CodeOAuthFlow, Message: "OAuth flow failed", Err: err}
	}

	code, err := parseRedirect(redirectURL, oauthState)
	if err != nil {
		return nil, err
	}

	token, err := f.exchangeCode(ctx, oc, code)
	if err != nil {
		return nil, err
	}

	profile, err := f.api.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		authErr := &AuthError{Code: CodeUserFetch, Message: "failed to fetch user information", Err: err}
		var apiErr *githubapi.APIError
		if errors.As(err, &apiErr) {
			authErr.Status = apiErr.Status
		}
		return nil, authErr
	}

	now := f.now()
	authState := &schema.AuthState{
		IsAuthenticated: true,
		Token:           token,
		User:            profile.Summary(),
		LastValidated:   &now,
	}
	if err := schema.Validate(*authState, "authentication state"); err != nil {
		return nil, err
	}

	if err := f.store.Set(ctx, authState); err != nil {
		return nil, fmt.Errorf("persisting credential record: %w", err)
	}

	logger.Info("User %s authenticated successfully", profile.Login)
	return authState, nil
}

// parseRedirect extracts the authorization code from the redirect URL.
// A provider-reported error propagates immediately; a state mismatch is a
// forged or corrupted flow.
func parseRedirect(redirectURL, wantState string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", &AuthError{Code: CodeNoResponseURL, Message: "malformed response URL", Err: err}
	}

	q := u.Query()
	if ghErr := q.Get("error"); ghErr != "" {
		return "", NewAuthError(CodeGitHubOAuth, fmt.Sprintf("GitHub OAuth error: %s", ghErr))
	}
	if got := q.Get("state"); got != wantState {
		return "", NewAuthError(CodeOAuthFlow, "OAuth state mismatch in redirect")
	}

	code := q.Get("code")
	if code == "" {
		return "", NewAuthError(CodeNoAuthCode, "no authorization code received")
	}
	return code, nil
}

// exchangeCode trades the authorization code for an access token and
// normalizes the response: token_type defaults to "bearer", scope defaults
// to the requested set, and expires_in (when present) becomes an absolute
// expiry.
func (f *Flow) exchangeCode(ctx context.Context, oc *oauth2.Config, code string) (*schema.Token, error) {
	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		authErr := &AuthError{Code: CodeTokenExchange, Message: "failed to exchange code for token", Err: err}
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			if rErr.Response != nil {
				authErr.Status = rErr.Response.StatusCode
			}
			if rErr.ErrorCode != "" {
				desc := rErr.ErrorDescription
				if desc == "" {
					desc = rErr.ErrorCode
				}
				authErr.Message = fmt.Sprintf("token exchange error: %s", desc)
			}
		}
		return nil, authErr
	}

	if tok.AccessToken == "" {
		return nil, NewAuthError(CodeTokenExchange, "token exchange returned an empty access token")
	}

	tokenType := strings.ToLower(tok.TokenType)
	if tokenType == "" {
		tokenType = "bearer"
	}

	scope, _ := tok.Extra("scope").(string)
	if scope == "" {
		scope = strings.Join(f.cfg.Scopes, " ")
	}

	token := &schema.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tokenType,
		Scope:       scope,
		CreatedAt:   f.now(),
	}
	// oauth2 leaves Expiry zero when the provider sent no expires_in hint;
	// such tokens are treated as non-expiring.
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		token.ExpiresAt = &expiry
	}

	if err := schema.Validate(*token, "GitHub token"); err != nil {
		return nil, err
	}
	return token, nil
}

// randomState produces the anti-forgery state parameter: 16 random bytes,
// hex encoded.
func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
