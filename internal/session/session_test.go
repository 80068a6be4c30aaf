package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghnav/cli/internal/auth"
	"github.com/ghnav/cli/internal/notify"
	"github.com/ghnav/cli/internal/schema"
	"github.com/ghnav/cli/internal/store"
)

type fakeAuthenticator struct {
	state *schema.AuthState
	err   error
	calls int
}

func (f *fakeAuthenticator) Authenticate(context.Context) (*schema.AuthState, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

type fakeChecker struct {
	valid    bool
	expiring bool
}

func (f *fakeChecker) IsTokenValid(context.Context) bool               { return f.valid }
func (f *fakeChecker) IsTokenExpiringWithin(context.Context, int) bool { return f.expiring }

type notification struct {
	severity notify.Severity
	title    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(s notify.Severity, title, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{severity: s, title: title})
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.title
	}
	return out
}

func signedInState() *schema.AuthState {
	now := time.Now()
	return &schema.AuthState{
		IsAuthenticated: true,
		Token: &schema.Token{
			AccessToken: "gho_testtoken123",
			TokenType:   "bearer",
			CreatedAt:   now,
		},
		User: &schema.UserSummary{
			Login:     "octocat",
			ID:        583231,
			AvatarURL: "https://avatars.githubusercontent.com/u/583231",
		},
		LastValidated: &now,
	}
}

func newTestController(flow *fakeAuthenticator, checker *fakeChecker, st store.Store, n notify.Notifier) (*Controller, *[]time.Duration) {
	c := NewController(flow, checker, st, n)
	delays := &[]time.Duration{}
	c.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return c, delays
}

func TestSignInSuccess(t *testing.T) {
	flow := &fakeAuthenticator{state: signedInState()}
	notifier := &recordingNotifier{}
	c, _ := newTestController(flow, &fakeChecker{valid: true}, store.NewMemory(), notifier)
	defer c.Close()

	require.NoError(t, c.SignIn(context.Background()))

	state := c.Snapshot()
	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Equal(t, "octocat", state.User.Login)
	assert.Nil(t, state.Error)
	assert.Zero(t, state.RetryCount)

	assert.Contains(t, notifier.titles(), "Signed in")
}

func TestSignInFailureRecordsClassifiedError(t *testing.T) {
	flow := &fakeAuthenticator{err: auth.NewAuthError(auth.CodeMissingClientID, "GHNAV_CLIENT_ID is not set")}
	notifier := &recordingNotifier{}
	c, _ := newTestController(flow, &fakeChecker{}, store.NewMemory(), notifier)
	defer c.Close()

	err := c.SignIn(context.Background())
	require.Error(t, err)

	state := c.Snapshot()
	assert.False(t, state.IsAuthenticated)
	require.NotNil(t, state.Error)
	assert.Equal(t, auth.TypeConfig, state.Error.Type)
	assert.False(t, state.Error.IsRetryable)
	assert.False(t, state.CanRetry)
	assert.Zero(t, state.RetryCount, "the counter moves on retries, not failures")

	assert.Contains(t, notifier.titles(), "Configuration error")
}

func TestRetryLastOperationBacksOff(t *testing.T) {
	flow := &fakeAuthenticator{err: auth.NewAuthError(auth.CodeOAuthFlow, "flow interrupted")}
	c, delays := newTestController(flow, &fakeChecker{}, store.NewMemory(), nil)
	defer c.Close()

	require.Error(t, c.SignIn(context.Background()))
	require.Error(t, c.RetryLastOperation(context.Background()))
	require.Error(t, c.RetryLastOperation(context.Background()))
	require.Error(t, c.RetryLastOperation(context.Background()))

	// 2^0, 2^1, 2^2: the nth retry waits 2^(n-1) seconds.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *delays)
	assert.Equal(t, 4, flow.calls)
}

func TestRetryLastOperationRespectsRetryability(t *testing.T) {
	flow := &fakeAuthenticator{err: auth.NewAuthError(auth.CodeMissingClientID, "no client id")}
	c, delays := newTestController(flow, &fakeChecker{}, store.NewMemory(), nil)
	defer c.Close()

	require.Error(t, c.SignIn(context.Background()))

	err := c.RetryLastOperation(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not retryable")
	assert.Equal(t, 1, flow.calls, "non-retryable failure must not re-run the flow")
	assert.Empty(t, *delays)
}

func TestRetryLastOperationHitsLimit(t *testing.T) {
	flow := &fakeAuthenticator{err: auth.NewAuthError(auth.CodeOAuthFlow, "flow interrupted")}
	c, _ := newTestController(flow, &fakeChecker{}, store.NewMemory(), nil)
	defer c.Close()

	require.Error(t, c.SignIn(context.Background()))
	for i := 0; i < 3; i++ {
		require.Error(t, c.RetryLastOperation(context.Background()))
	}
	assert.False(t, c.Snapshot().CanRetry, "exhausted budget must surface as not retryable")

	err := c.RetryLastOperation(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry limit")
	assert.Equal(t, 4, flow.calls, "the original run plus three retries")
}

// failingStore errors on Get a fixed number of times, then delegates.
type failingStore struct {
	store.Store
	failures int
	getCalls int
}

func (f *failingStore) Get(ctx context.Context) (*schema.AuthState, error) {
	f.getCalls++
	if f.getCalls <= f.failures {
		return nil, errors.New("read tcp: connection reset by peer")
	}
	return f.Store.Get(ctx)
}

func TestRetryLastOperationRerunsRefresh(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemory()
	require.NoError(t, inner.Set(ctx, signedInState()))
	st := &failingStore{Store: inner, failures: 1}

	flow := &fakeAuthenticator{}
	c, delays := newTestController(flow, &fakeChecker{valid: true}, st, nil)
	defer c.Close()

	require.Error(t, c.RefreshAuthState(ctx), "first refresh fails on the store read")
	assert.Equal(t, auth.TypeNetwork, c.Snapshot().Error.Type)

	require.NoError(t, c.RetryLastOperation(ctx))
	assert.True(t, c.Snapshot().IsAuthenticated)
	assert.Zero(t, flow.calls, "retrying a refresh must not re-run the OAuth flow")
	assert.Equal(t, []time.Duration{time.Second}, *delays)
}

func TestRetryLimitNotifies(t *testing.T) {
	flow := &fakeAuthenticator{err: auth.NewAuthError(auth.CodeOAuthFlow, "flow interrupted")}
	notifier := &recordingNotifier{}
	c, _ := newTestController(flow, &fakeChecker{}, store.NewMemory(), notifier)
	defer c.Close()

	require.Error(t, c.SignIn(context.Background()))
	for i := 0; i < 3; i++ {
		require.Error(t, c.RetryLastOperation(context.Background()))
	}

	require.Error(t, c.RetryLastOperation(context.Background()))
	assert.Contains(t, notifier.titles(), "Retry limit reached")
}

func TestSnapshotComputesCanRetry(t *testing.T) {
	flow := &fakeAuthenticator{err: auth.NewAuthError(auth.CodeOAuthFlow, "flow interrupted")}
	c, _ := newTestController(flow, &fakeChecker{}, store.NewMemory(), nil)
	defer c.Close()

	assert.False(t, c.Snapshot().CanRetry, "no recorded error, nothing to retry")

	require.Error(t, c.SignIn(context.Background()))
	assert.True(t, c.Snapshot().CanRetry)
}

func TestRetryWithNoErrorIsNoop(t *testing.T) {
	flow := &fakeAuthenticator{state: signedInState()}
	c, _ := newTestController(flow, &fakeChecker{valid: true}, store.NewMemory(), nil)
	defer c.Close()

	assert.NoError(t, c.RetryLastOperation(context.Background()))
	assert.Zero(t, flow.calls)
}

func TestClearError(t *testing.T) {
	flow := &fakeAuthenticator{err: errors.New("boom")}
	c, _ := newTestController(flow, &fakeChecker{}, store.NewMemory(), nil)
	defer c.Close()

	require.Error(t, c.SignIn(context.Background()))
	require.NotNil(t, c.Snapshot().Error)

	c.ClearError()
	state := c.Snapshot()
	assert.Nil(t, state.Error)
	assert.Zero(t, state.RetryCount)
}

func TestSignOutClearsStoreAndState(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, signedInState()))

	flow := &fakeAuthenticator{state: signedInState()}
	c, _ := newTestController(flow, &fakeChecker{valid: true}, st, nil)
	defer c.Close()

	require.NoError(t, c.SignIn(ctx))
	require.True(t, c.Snapshot().IsAuthenticated)

	require.NoError(t, c.SignOut(ctx))

	state := c.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)

	stored, err := st.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRefreshAuthStateVerifiesStoredFlag(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, signedInState()))

	c, _ := newTestController(&fakeAuthenticator{}, &fakeChecker{valid: true}, st, nil)
	defer c.Close()

	require.NoError(t, c.RefreshAuthState(ctx))
	state := c.Snapshot()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "octocat", state.User.Login)
}

func TestRefreshAuthStateRejectsInvalidToken(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, signedInState()))

	notifier := &recordingNotifier{}
	c, _ := newTestController(&fakeAuthenticator{}, &fakeChecker{valid: false}, st, notifier)
	defer c.Close()

	require.NoError(t, c.RefreshAuthState(ctx))
	assert.False(t, c.Snapshot().IsAuthenticated,
		"the stored flag alone is never trusted")
	assert.Contains(t, notifier.titles(), "Session expired")
}

func TestRefreshAuthStateEmptyStore(t *testing.T) {
	c, _ := newTestController(&fakeAuthenticator{}, &fakeChecker{valid: true}, store.NewMemory(), nil)
	defer c.Close()

	require.NoError(t, c.RefreshAuthState(context.Background()))
	assert.False(t, c.Snapshot().IsAuthenticated)
}

func TestRefreshAuthStateWarnsOnUpcomingExpiry(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, signedInState()))

	notifier := &recordingNotifier{}
	c, _ := newTestController(&fakeAuthenticator{}, &fakeChecker{valid: true, expiring: true}, st, notifier)
	defer c.Close()

	require.NoError(t, c.RefreshAuthState(ctx))
	assert.Contains(t, notifier.titles(), "Token expiring soon")
	assert.True(t, c.Snapshot().IsTokenExpiring)
}

func TestSignedOutTransitionResetsErrorState(t *testing.T) {
	flow := &fakeAuthenticator{err: auth.NewAuthError(auth.CodeOAuthFlow, "flow interrupted")}
	c, _ := newTestController(flow, &fakeChecker{}, store.NewMemory(), nil)
	defer c.Close()

	require.Error(t, c.SignIn(context.Background()))
	require.Error(t, c.RetryLastOperation(context.Background()))
	require.NotNil(t, c.Snapshot().Error)

	// A refresh that concludes signed-out is a clean terminal state.
	require.NoError(t, c.RefreshAuthState(context.Background()))
	state := c.Snapshot()
	assert.Nil(t, state.Error)
	assert.Zero(t, state.RetryCount)
	assert.False(t, state.CanRetry)
}

func TestCloseStopsTasks(t *testing.T) {
	flow := &fakeAuthenticator{state: signedInState()}
	c, _ := newTestController(flow, &fakeChecker{valid: true}, store.NewMemory(), nil)

	require.NoError(t, c.SignIn(context.Background()))
	c.Close()
	assert.NotPanics(t, c.Close, "Close is idempotent")
}
