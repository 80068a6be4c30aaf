package cmd

import (
	"strings"

	"github.com/ghnav/cli/internal/auth"
	"github.com/ghnav/cli/internal/errors"
)

// cliError converts a failure from the auth subsystem into a CLIError with
// the exit code matching its classified type.
func cliError(err error, userMsg string) *errors.CLIError {
	details := auth.Classify(err)
	switch details.Type {
	case auth.TypeNetwork:
		return errors.NewNetworkError(err, userMsg)
	case auth.TypeRateLimit:
		return errors.NewRateLimitError(err, userMsg)
	case auth.TypeAuth:
		return errors.NewAuthError(err, userMsg)
	default:
		return errors.NewError(err, userMsg)
	}
}

// maskEmail partially masks the local part and shows domain
// e.g., john@example.com -> j***n@example.com
func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}

	localPart := parts[0]
	domain := parts[1]

	if len(localPart) == 0 {
		return "***@" + domain
	}

	if len(localPart) == 1 {
		return "*@" + domain
	}

	if len(localPart) == 2 {
		// Show first char, mask last
		return string(localPart[0]) + "*@" + domain
	}

	// Show first and last char, mask middle
	return string(localPart[0]) + "***" + string(localPart[len(localPart)-1]) + "@" + domain
}

// maskSecret keeps a short identifying prefix and hides the rest
// e.g., Iv1.8a61f9b3a7aba766 -> Iv1.8a61***
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:8] + "***"
}
