package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghnav/cli/internal/githubapi"
	"github.com/ghnav/cli/internal/schema"
	"github.com/ghnav/cli/internal/store"
)

type identityResult struct {
	check githubapi.IdentityCheck
	err   error
}

type fakeIdentity struct {
	results []identityResult
	calls   int
}

func (f *fakeIdentity) CheckIdentity(context.Context, string) (githubapi.IdentityCheck, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.check, r.err
}

func ok() identityResult {
	return identityResult{check: githubapi.IdentityCheck{Status: 200}}
}

func status(code int) identityResult {
	return identityResult{check: githubapi.IdentityCheck{Status: code}}
}

func netFail() identityResult {
	return identityResult{err: errors.New("dial tcp: connection refused")}
}

// testValidator builds a validator with deterministic time and recorded
// backoff delays instead of real sleeps.
func testValidator(api *fakeIdentity, st store.Store, limits *githubapi.RateLimits) (*Validator, *[]time.Duration) {
	v := NewValidator(api, st, limits)
	delays := &[]time.Duration{}
	v.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	v.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return v, delays
}

func storedState(t *testing.T, st store.Store, lastValidated *time.Time, expiresAt *time.Time) {
	t.Helper()
	err := st.Set(context.Background(), &schema.AuthState{
		IsAuthenticated: true,
		Token: &schema.Token{
			AccessToken: "gho_testtoken123",
			TokenType:   "bearer",
			CreatedAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			ExpiresAt:   expiresAt,
		},
		User: &schema.UserSummary{
			Login:     "octocat",
			ID:        583231,
			AvatarURL: "https://avatars.githubusercontent.com/u/583231",
		},
		LastValidated: lastValidated,
	})
	require.NoError(t, err)
}

func TestValidateTokenSuccess(t *testing.T) {
	api := &fakeIdentity{results: []identityResult{ok()}}
	v, delays := testValidator(api, store.NewMemory(), nil)

	assert.True(t, v.ValidateToken(context.Background(), "gho_tok", 3))
	assert.Equal(t, 1, api.calls)
	assert.Empty(t, *delays)
}

func TestValidateTokenUnauthorizedClearsStore(t *testing.T) {
	st := store.NewMemory()
	storedState(t, st, nil, nil)

	api := &fakeIdentity{results: []identityResult{status(401)}}
	v, _ := testValidator(api, st, nil)

	assert.False(t, v.ValidateToken(context.Background(), "gho_tok", 3))
	assert.Equal(t, 1, api.calls, "401 is terminal, no retries")

	got, err := st.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got, "rejected token must clear the stored record")
}

func TestValidateTokenRetriesServerErrors(t *testing.T) {
	api := &fakeIdentity{results: []identityResult{status(500), status(500), ok()}}
	v, delays := testValidator(api, store.NewMemory(), nil)

	assert.True(t, v.ValidateToken(context.Background(), "gho_tok", 3))
	assert.Equal(t, 3, api.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays,
		"backoff doubles: 1s then 2s")
}

func TestValidateTokenExhaustsRetryBudget(t *testing.T) {
	api := &fakeIdentity{results: []identityResult{netFail()}}
	v, delays := testValidator(api, store.NewMemory(), nil)

	assert.False(t, v.ValidateToken(context.Background(), "gho_tok", 2))
	assert.Equal(t, 2, api.calls)
	assert.Equal(t, []time.Duration{time.Second}, *delays,
		"no sleep after the final attempt")
}

func TestValidateTokenRateLimitShortCircuit(t *testing.T) {
	limits := githubapi.NewRateLimits()
	limits.Update(limitHeadersForTest(60, 0, time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)))

	api := &fakeIdentity{results: []identityResult{ok()}}
	v, _ := testValidator(api, store.NewMemory(), limits)

	assert.False(t, v.ValidateToken(context.Background(), "gho_tok", 3))
	assert.Zero(t, api.calls, "an exhausted window must not cost a network call")
}

func TestValidateTokenRateLimitedResponse(t *testing.T) {
	api := &fakeIdentity{results: []identityResult{
		{check: githubapi.IdentityCheck{Status: 403, RateLimited: true}},
	}}
	v, _ := testValidator(api, store.NewMemory(), nil)

	assert.False(t, v.ValidateToken(context.Background(), "gho_tok", 3))
	assert.Equal(t, 1, api.calls, "a rate-limited response is not retried")
}

func TestValidateTokenOtherClientErrorFailsFast(t *testing.T) {
	api := &fakeIdentity{results: []identityResult{status(404)}}
	v, _ := testValidator(api, store.NewMemory(), nil)

	assert.False(t, v.ValidateToken(context.Background(), "gho_tok", 3))
	assert.Equal(t, 1, api.calls)
}

func TestValidateTokenEmptyToken(t *testing.T) {
	api := &fakeIdentity{results: []identityResult{ok()}}
	v, _ := testValidator(api, store.NewMemory(), nil)

	assert.False(t, v.ValidateToken(context.Background(), "", 3))
	assert.Zero(t, api.calls)
}

func TestIsTokenValidAbsent(t *testing.T) {
	api := &fakeIdentity{results: []identityResult{ok()}}
	v, _ := testValidator(api, store.NewMemory(), nil)

	assert.False(t, v.IsTokenValid(context.Background()))
	assert.Zero(t, api.calls)
}

func TestIsTokenValidRequiresAuthenticatedRecord(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(context.Background(), &schema.AuthState{
		IsAuthenticated: false,
		Token: &schema.Token{
			AccessToken: "gho_testtoken123",
			TokenType:   "bearer",
			CreatedAt:   time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC),
		},
	}))

	api := &fakeIdentity{results: []identityResult{ok()}}
	v, _ := testValidator(api, st, nil)

	assert.False(t, v.IsTokenValid(context.Background()))
	assert.Zero(t, api.calls, "an unauthenticated record is invalid without a remote check")
}

func TestIsTokenValidExpiredSkipsNetwork(t *testing.T) {
	st := store.NewMemory()
	expired := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC) // before fake now
	storedState(t, st, nil, &expired)

	api := &fakeIdentity{results: []identityResult{ok()}}
	v, _ := testValidator(api, st, nil)

	assert.False(t, v.IsTokenValid(context.Background()))
	assert.Zero(t, api.calls, "an expired token is invalid without a remote check")
}

func TestIsTokenValidTrustsRecentValidation(t *testing.T) {
	st := store.NewMemory()
	recent := time.Date(2026, 8, 28, 2, 0, 0, 0, time.UTC) // 10h before fake now
	storedState(t, st, &recent, nil)

	api := &fakeIdentity{results: []identityResult{ok()}}
	v, _ := testValidator(api, st, nil)

	assert.True(t, v.IsTokenValid(context.Background()))
	assert.Zero(t, api.calls, "validation inside the 24h window is trusted")
}

func TestIsTokenValidRevalidatesStaleRecord(t *testing.T) {
	st := store.NewMemory()
	stale := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	storedState(t, st, &stale, nil)

	api := &fakeIdentity{results: []identityResult{ok()}}
	v, _ := testValidator(api, st, nil)

	assert.True(t, v.IsTokenValid(context.Background()))
	assert.Equal(t, 1, api.calls)

	got, err := st.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got.LastValidated)
	assert.True(t, got.LastValidated.After(stale), "successful revalidation updates the timestamp")
}

func TestIsTokenValidClearsOnRemoteFailure(t *testing.T) {
	st := store.NewMemory()
	stale := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	storedState(t, st, &stale, nil)

	api := &fakeIdentity{results: []identityResult{status(401)}}
	v, _ := testValidator(api, st, nil)

	assert.False(t, v.IsTokenValid(context.Background()))

	got, err := st.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIsTokenExpiringWithin(t *testing.T) {
	st := store.NewMemory()
	soon := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC) // 13 days after fake now
	storedState(t, st, nil, &soon)

	v, _ := testValidator(&fakeIdentity{results: []identityResult{ok()}}, st, nil)

	assert.True(t, v.IsTokenExpiringWithin(context.Background(), 30))
	assert.False(t, v.IsTokenExpiringWithin(context.Background(), 7))
}

func TestIsTokenExpiringWithinNoExpiry(t *testing.T) {
	st := store.NewMemory()
	storedState(t, st, nil, nil)

	v, _ := testValidator(&fakeIdentity{results: []identityResult{ok()}}, st, nil)

	assert.False(t, v.IsTokenExpiringWithin(context.Background(), 365),
		"tokens without an expiry never report as expiring")
}

// limitHeadersForTest mirrors the header shape GitHub sends.
func limitHeadersForTest(limit, remaining int, reset time.Time) http.Header {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
	return h
}
