package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ghnav/cli/internal/githubapi"
)

// AuthError codes. The first block is deployment misconfiguration (fatal,
// never retried); the second is interactive-flow failures (retryable by
// running the flow again); the rest depend on the underlying status.
const (
	CodeBrowserAuthUnavailable = "BROWSER_AUTH_UNAVAILABLE"
	CodeMissingClientID        = "MISSING_CLIENT_ID"
	CodeMissingClientSecret    = "MISSING_CLIENT_SECRET"
	CodeConfigValidation       = "CONFIG_VALIDATION_ERROR"

	CodeOAuthFlow     = "OAUTH_FLOW_ERROR"
	CodeNoResponseURL = "NO_RESPONSE_URL"
	CodeGitHubOAuth   = "GITHUB_OAUTH_ERROR"
	CodeNoAuthCode    = "NO_AUTH_CODE"

	CodeTokenExchange = "TOKEN_EXCHANGE_ERROR"
	CodeUserFetch     = "USER_FETCH_ERROR"
	CodeUnknown       = "UNKNOWN_ERROR"
)

// AuthError is a structured authentication failure. Status carries the
// underlying HTTP status when one exists (0 otherwise).
type AuthError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates an AuthError without an HTTP status.
func NewAuthError(code, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}

// Error classes used by the session controller to decide notification and
// retry policy.
const (
	TypeNetwork   = "network"
	TypeConfig    = "config"
	TypeAuth      = "auth"
	TypeRateLimit = "rate_limit"
	TypeUnknown   = "unknown"
)

// ErrorDetails is the classified form of a failure, recomputed per error.
type ErrorDetails struct {
	Code        string
	Message     string
	Type        string
	IsRetryable bool
}

// Classify maps an error onto the taxonomy. Unknown errors are treated as
// retryable to avoid locking a user out of retry on a false negative.
func Classify(err error) ErrorDetails {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		d := ErrorDetails{Code: authErr.Code, Message: authErr.Message}

		switch authErr.Code {
		case CodeBrowserAuthUnavailable, CodeMissingClientID, CodeMissingClientSecret, CodeConfigValidation:
			d.Type = TypeConfig
			d.IsRetryable = false
		case CodeTokenExchange, CodeUserFetch:
			d.Type = TypeAuth
			d.IsRetryable = authErr.Status >= 500
		case CodeOAuthFlow, CodeNoResponseURL, CodeGitHubOAuth, CodeNoAuthCode:
			d.Type = TypeAuth
			d.IsRetryable = true
		default:
			d.Type = TypeUnknown
			d.IsRetryable = true
		}
		return d
	}

	var apiErr *githubapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.RateLimited || apiErr.Status == 429 {
			return ErrorDetails{
				Code:        CodeUnknown,
				Message:     apiErr.Error(),
				Type:        TypeRateLimit,
				IsRetryable: true,
			}
		}
		return ErrorDetails{
			Code:        CodeUnknown,
			Message:     apiErr.Error(),
			Type:        TypeAuth,
			IsRetryable: apiErr.Status >= 500,
		}
	}

	if err != nil {
		if isNetworkError(err) {
			return ErrorDetails{
				Code:        CodeUnknown,
				Message:     err.Error(),
				Type:        TypeNetwork,
				IsRetryable: true,
			}
		}
		return ErrorDetails{
			Code:        CodeUnknown,
			Message:     err.Error(),
			Type:        TypeUnknown,
			IsRetryable: true,
		}
	}

	return ErrorDetails{
		Code:        CodeUnknown,
		Message:     "an unexpected error occurred",
		Type:        TypeUnknown,
		IsRetryable: true,
	}
}

// isNetworkError reports whether err looks like a transport-level failure.
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"connection timed out",
		"no such host",
		"broken pipe",
		"network",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
