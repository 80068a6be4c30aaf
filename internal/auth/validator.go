package auth

import (
	"context"
	"time"

	"github.com/ghnav/cli/internal/githubapi"
	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/schema"
	"github.com/ghnav/cli/internal/store"
)

// DefaultMaxRetries is the retry budget for remote token validation.
const DefaultMaxRetries = 3

// revalidateAfter is how long a previous successful validation is trusted
// before the token is checked against the API again.
const revalidateAfter = 24 * time.Hour

// IdentityChecker is the slice of the GitHub client the validator needs.
type IdentityChecker interface {
	CheckIdentity(ctx context.Context, token string) (githubapi.IdentityCheck, error)
}

// Validator decides whether a stored token is still usable. Remote checks
// honor the rate-limit window and retry transient failures with
// exponential backoff. All failure modes collapse to "not valid"; the
// details go to the log, not the caller.
type Validator struct {
	api    IdentityChecker
	store  store.Store
	limits *githubapi.RateLimits

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewValidator wires a validator. limits should be the tracker fed by the
// same client that issues the identity checks.
func NewValidator(api IdentityChecker, st store.Store, limits *githubapi.RateLimits) *Validator {
	return &Validator{
		api:    api,
		store:  st,
		limits: limits,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// ValidateToken checks the token against the identity endpoint.
//
// The rate-limit window is consulted first: an exhausted window fails the
// validation without a network call. A 401 clears the stored credential
// record. Server errors (5xx) and transport failures are retried up to
// maxRetries attempts with 1s, 2s, 4s... backoff; any other non-2xx status
// fails immediately.
func (v *Validator) ValidateToken(ctx context.Context, accessToken string, maxRetries int) bool {
	if accessToken == "" {
		return false
	}
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}

	if v.limits != nil && v.limits.Exhausted(v.now()) {
		logger.Warn("Skipping token validation: rate limit window exhausted")
		return false
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		check, err := v.api.CheckIdentity(ctx, accessToken)
		if err != nil {
			logger.Warn("Token validation attempt %d/%d failed: %v", attempt, maxRetries, err)
			if attempt == maxRetries || v.backoff(ctx, attempt) != nil {
				return false
			}
			continue
		}

		switch {
		case check.OK():
			return true
		case check.Status == 401:
			logger.Info("Token rejected by GitHub, clearing stored credentials")
			if err := v.store.Remove(ctx); err != nil {
				logger.Error("Failed to clear stored credentials", err)
			}
			return false
		case check.Status == 403 && check.RateLimited:
			logger.Warn("Token validation rate limited by GitHub")
			return false
		case check.Status >= 500:
			logger.Warn("Token validation attempt %d/%d got status %d", attempt, maxRetries, check.Status)
			if attempt == maxRetries || v.backoff(ctx, attempt) != nil {
				return false
			}
		default:
			logger.Warn("Token validation got unexpected status %d", check.Status)
			return false
		}
	}
	return false
}

// backoff sleeps 2^(attempt-1) seconds, aborting early on context
// cancellation.
func (v *Validator) backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<(attempt-1)) * time.Second
	logger.Debug("Retrying token validation in %s", delay)
	return v.sleep(ctx, delay)
}

// IsTokenValid reports whether the stored credential record holds a usable
// token.
//
// A record not marked authenticated, an absent token, or an expired token
// is invalid without a network call. A token
// validated within the last 24 hours is trusted as-is. Otherwise the token
// is validated remotely: success stamps LastValidated, failure clears the
// record.
func (v *Validator) IsTokenValid(ctx context.Context) bool {
	state, err := v.store.Get(ctx)
	if err != nil {
		logger.Error("Failed to read stored credentials", err)
		return false
	}
	if state == nil || !state.IsAuthenticated || state.Token == nil || state.Token.AccessToken == "" {
		return false
	}

	now := v.now()
	if state.Token.Expired(now) {
		logger.Info("Stored token is expired")
		return false
	}

	if state.LastValidated != nil && now.Sub(*state.LastValidated) < revalidateAfter {
		return true
	}

	if v.ValidateToken(ctx, state.Token.AccessToken, DefaultMaxRetries) {
		state.LastValidated = &now
		if err := v.store.Set(ctx, state); err != nil {
			logger.Error("Failed to record validation timestamp", err)
		}
		return true
	}

	// The remote check may already have cleared the record on a 401;
	// removing again is harmless.
	if err := v.store.Remove(ctx); err != nil {
		logger.Error("Failed to clear stored credentials", err)
	}
	return false
}

// IsTokenExpiringWithin reports whether the stored token expires within the
// given number of days. Tokens without an expiry never report as expiring.
func (v *Validator) IsTokenExpiringWithin(ctx context.Context, days int) bool {
	state, err := v.store.Get(ctx)
	if err != nil || state == nil || state.Token == nil {
		return false
	}
	return state.Token.ExpiresWithin(v.now(), time.Duration(days)*24*time.Hour)
}

// StoredState exposes the raw credential record for status display.
func (v *Validator) StoredState(ctx context.Context) (*schema.AuthState, error) {
	return v.store.Get(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
