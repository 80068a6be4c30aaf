// Package session owns the authentication lifecycle: it runs sign-in and
// sign-out, keeps a verified view of the stored credentials, retries failed
// operations with backoff, and schedules the periodic expiry and
// revalidation checks while a user is signed in.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ghnav/cli/internal/auth"
	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/notify"
	"github.com/ghnav/cli/internal/sched"
	"github.com/ghnav/cli/internal/schema"
	"github.com/ghnav/cli/internal/store"
)

const (
	// maxAutoRetries caps how many times a failed operation is retried.
	maxAutoRetries = 3

	// expiryCheckInterval is how often an active session looks ahead for
	// upcoming token expiry.
	expiryCheckInterval = time.Hour
	// expiryWarningDays is the look-ahead window for the expiry warning.
	expiryWarningDays = 30

	// revalidateInterval is how often an active session re-verifies the
	// token against the API.
	revalidateInterval = 24 * time.Hour
)

// operation identifies the retryable entry points for RetryLastOperation.
type operation int

const (
	opNone operation = iota
	opSignIn
	opRefresh
)

// Authenticator runs an interactive sign-in.
type Authenticator interface {
	Authenticate(ctx context.Context) (*schema.AuthState, error)
}

// TokenChecker answers token lifecycle questions for the stored credential
// record.
type TokenChecker interface {
	IsTokenValid(ctx context.Context) bool
	IsTokenExpiringWithin(ctx context.Context, days int) bool
}

// State is the controller's externally visible session state.
// IsAuthenticated is computed: the stored record must claim authentication
// AND the token must have passed verification. CanRetry is derived on
// Snapshot from the recorded error and the remaining retry budget.
type State struct {
	IsAuthenticated bool
	IsLoading       bool
	IsTokenExpiring bool
	User            *schema.UserSummary
	Error           *auth.ErrorDetails
	RetryCount      int
	CanRetry        bool
}

// Controller coordinates sign-in, sign-out, verification, and the periodic
// background checks. All methods are safe for concurrent use.
type Controller struct {
	flow      Authenticator
	validator TokenChecker
	store     store.Store
	notifier  notify.Notifier

	mu     sync.Mutex
	state  State
	lastOp operation

	expiryTask     *sched.Task
	revalidateTask *sched.Task

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
}

// NewController wires a session controller. A nil notifier is replaced
// with a no-op one.
func NewController(flow Authenticator, validator TokenChecker, st store.Store, notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Controller{
		flow:      flow,
		validator: validator,
		store:     st,
		notifier:  notifier,
		sleep:     sleepCtx,
	}
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.CanRetry = s.Error != nil && s.Error.IsRetryable && s.RetryCount < maxAutoRetries
	return s
}

// RefreshAuthState re-derives the session state from the stored credential
// record. The stored isAuthenticated flag alone is never trusted: the token
// must also verify.
func (c *Controller) RefreshAuthState(ctx context.Context) error {
	c.setLastOp(opRefresh)
	c.setLoading(true)
	defer c.setLoading(false)

	state, err := c.store.Get(ctx)
	if err != nil {
		c.recordFailure(err)
		return err
	}

	if state == nil || !state.IsAuthenticated {
		c.becomeSignedOut()
		return nil
	}

	if !c.validator.IsTokenValid(ctx) {
		logger.Info("Stored session no longer valid")
		c.becomeSignedOut()
		c.notifier.Notify(notify.SeverityWarning, "Session expired",
			"Your GitHub session is no longer valid. Run 'ghnav login' to sign in again.")
		return nil
	}

	c.becomeSignedIn(state.User)
	c.warnIfExpiring(ctx)
	return nil
}

// SignIn runs the interactive OAuth flow. On success the session becomes
// authenticated and the periodic checks start; on failure the classified
// error is recorded and, for actionable classes, surfaced as a
// notification.
func (c *Controller) SignIn(ctx context.Context) error {
	c.setLastOp(opSignIn)
	c.setLoading(true)
	defer c.setLoading(false)

	state, err := c.flow.Authenticate(ctx)
	if err != nil {
		c.recordFailure(err)
		return err
	}

	c.becomeSignedIn(state.User)
	c.notifier.Notify(notify.SeverityInfo, "Signed in",
		fmt.Sprintf("Authenticated as %s", state.User.Login))
	return nil
}

// SignOut clears the stored credential record and stops the periodic
// checks.
func (c *Controller) SignOut(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	if err := c.store.Remove(ctx); err != nil {
		c.recordFailure(err)
		return err
	}

	c.becomeSignedOut()
	logger.Info("User signed out")
	return nil
}

// ClearError resets the recorded error and the retry counter.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = nil
	c.state.RetryCount = 0
}

// RetryLastOperation re-runs the most recent of sign-in or refresh after a
// retryable failure, backing off 2^retryCount seconds. Non-retryable errors
// and an exhausted retry budget return an error without touching the
// network.
func (c *Controller) RetryLastOperation(ctx context.Context) error {
	c.mu.Lock()
	details := c.state.Error
	retries := c.state.RetryCount
	lastOp := c.lastOp
	c.mu.Unlock()

	if details == nil || lastOp == opNone {
		return nil
	}
	if !details.IsRetryable {
		return fmt.Errorf("last failure is not retryable: %s", details.Message)
	}
	if retries >= maxAutoRetries {
		c.notifier.Notify(notify.SeverityError, "Retry limit reached",
			"Giving up after repeated failures. Run 'ghnav login' to try again manually.")
		return fmt.Errorf("retry limit reached after %d attempts", retries)
	}

	// The counter only moves when a retry is actually performed, so the
	// schedule runs 1s, 2s, 4s before the budget is spent.
	delay := time.Duration(1<<retries) * time.Second
	c.mu.Lock()
	c.state.RetryCount++
	c.mu.Unlock()

	logger.Debug("Retrying after %s (attempt %d)", delay, retries+1)
	if err := c.sleep(ctx, delay); err != nil {
		return err
	}

	if lastOp == opRefresh {
		return c.RefreshAuthState(ctx)
	}
	return c.SignIn(ctx)
}

// Close stops the periodic checks. The session state is left as-is.
func (c *Controller) Close() {
	c.stopTasks()
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = loading
}

func (c *Controller) setLastOp(op operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastOp = op
}

// recordFailure classifies the error into the session state and notifies
// for the classes a user can act on.
func (c *Controller) recordFailure(err error) {
	details := auth.Classify(err)

	c.mu.Lock()
	c.state.Error = &details
	c.mu.Unlock()

	switch details.Type {
	case auth.TypeConfig:
		c.notifier.Notify(notify.SeverityError, "Configuration error", details.Message)
	case auth.TypeNetwork:
		c.notifier.Notify(notify.SeverityWarning, "Network error",
			"Could not reach GitHub. Check your connection and try again.")
	case auth.TypeRateLimit:
		c.notifier.Notify(notify.SeverityWarning, "Rate limited",
			"GitHub API rate limit reached. Try again after the limit resets.")
	}
}

func (c *Controller) becomeSignedIn(user *schema.UserSummary) {
	c.mu.Lock()
	c.state.IsAuthenticated = true
	c.state.User = user
	c.state.IsTokenExpiring = false
	c.state.Error = nil
	c.state.RetryCount = 0
	c.lastOp = opNone
	c.mu.Unlock()

	c.startTasks()
}

func (c *Controller) becomeSignedOut() {
	c.mu.Lock()
	c.state.IsAuthenticated = false
	c.state.User = nil
	c.state.IsTokenExpiring = false
	c.state.Error = nil
	c.state.RetryCount = 0
	c.lastOp = opNone
	c.mu.Unlock()

	c.stopTasks()
}

// startTasks begins the periodic checks for an active session. Idempotent.
func (c *Controller) startTasks() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expiryTask == nil {
		c.expiryTask = sched.Every(expiryCheckInterval, c.checkExpiry)
	}
	if c.revalidateTask == nil {
		c.revalidateTask = sched.Every(revalidateInterval, c.revalidate)
	}
}

func (c *Controller) stopTasks() {
	c.mu.Lock()
	expiry, revalidate := c.expiryTask, c.revalidateTask
	c.expiryTask, c.revalidateTask = nil, nil
	c.mu.Unlock()

	if expiry != nil {
		expiry.Stop()
	}
	if revalidate != nil {
		revalidate.Stop()
	}
}

func (c *Controller) checkExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c.warnIfExpiring(ctx)
}

func (c *Controller) warnIfExpiring(ctx context.Context) {
	expiring := c.validator.IsTokenExpiringWithin(ctx, expiryWarningDays)

	c.mu.Lock()
	c.state.IsTokenExpiring = expiring
	c.mu.Unlock()

	if expiring {
		c.notifier.Notify(notify.SeverityWarning, "Token expiring soon",
			fmt.Sprintf("Your GitHub token expires within %d days. Run 'ghnav login' to refresh it.", expiryWarningDays))
	}
}

// revalidate is the periodic background verification of an active session.
// Stopping the task from inside its own run would deadlock, so the
// sign-out path runs the stop on a separate goroutine.
func (c *Controller) revalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if c.validator.IsTokenValid(ctx) {
		return
	}

	logger.Info("Periodic revalidation failed, signing out")
	c.mu.Lock()
	c.state.IsAuthenticated = false
	c.state.User = nil
	c.mu.Unlock()

	c.notifier.Notify(notify.SeverityWarning, "Session expired",
		"Your GitHub session is no longer valid. Run 'ghnav login' to sign in again.")
	go c.stopTasks()
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
