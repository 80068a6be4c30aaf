package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghnav/cli/internal/auth"
	"github.com/ghnav/cli/internal/errors"
	"github.com/ghnav/cli/internal/githubapi"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john@example.com", "j***n@example.com"},
		{"ab@example.com", "a*@example.com"},
		{"a@example.com", "*@example.com"},
		{"@example.com", "***@example.com"},
		{"not-an-email", "***"},
		{"", "***"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, maskEmail(tt.in), "maskEmail(%q)", tt.in)
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "Iv1.8a61***", maskSecret("Iv1.8a61f9b3a7aba766"))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "***", maskSecret(""))
}

func TestCLIErrorExitCodes(t *testing.T) {
	config := cliError(auth.NewAuthError(auth.CodeMissingClientID, "no id"), "failed")
	assert.Equal(t, errors.ExitError, config.ExitCode)

	authFail := cliError(auth.NewAuthError(auth.CodeNoAuthCode, "no code"), "failed")
	assert.Equal(t, errors.ExitAuthError, authFail.ExitCode)

	rate := cliError(&githubapi.APIError{Status: 403, RateLimited: true}, "failed")
	assert.Equal(t, errors.ExitRateLimitError, rate.ExitCode)

	network := cliError(assertNetworkErr(), "failed")
	assert.Equal(t, errors.ExitNetworkError, network.ExitCode)
}

func assertNetworkErr() error {
	return errors.Wrap(errTimeout{}, "request failed")
}

type errTimeout struct{}

func (errTimeout) Error() string   { return "dial tcp: i/o timeout" }
func (errTimeout) Timeout() bool   { return true }
func (errTimeout) Temporary() bool { return true }
