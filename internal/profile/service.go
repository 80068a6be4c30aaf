package profile

import (
	"context"
	"errors"
	"time"

	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/sched"
	"github.com/ghnav/cli/internal/schema"
	"github.com/ghnav/cli/internal/store"
)

// revalidateInterval is how often the background pass looks for stale
// entries to refresh.
const revalidateInterval = 60 * time.Second

// ErrNotAuthenticated is returned when a profile is requested without a
// stored access token.
var ErrNotAuthenticated = errors.New("not authenticated")

// Fetcher is the slice of the GitHub client the profile service needs.
type Fetcher interface {
	FetchProfile(ctx context.Context, token string) (*schema.Profile, error)
}

// Service serves profiles cache-first and keeps fresh entries warm with a
// periodic revalidation pass.
type Service struct {
	api   Fetcher
	cache *Cache
	store store.Store
	task  *sched.Task
}

// NewService wires a profile service over the given cache.
func NewService(api Fetcher, cache *Cache, st store.Store) *Service {
	return &Service{
		api:   api,
		cache: cache,
		store: st,
	}
}

// GetProfile returns the authenticated user's profile, from cache when a
// fresh entry exists for the current token, otherwise from the API.
// forceRefresh skips the cache read but still writes the fetched profile
// back.
func (s *Service) GetProfile(ctx context.Context, forceRefresh bool) (*schema.Profile, error) {
	state, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Token == nil || state.Token.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}

	tokenHash := HashToken(state.Token.AccessToken)
	if !forceRefresh && state.User != nil {
		if cached := s.cache.Get(state.User.ID, tokenHash); cached != nil {
			logger.Debug("Serving profile for %s from cache", cached.Login)
			return cached, nil
		}
	}

	p, err := s.api.FetchProfile(ctx, state.Token.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(p, tokenHash); err != nil {
		logger.Warn("Failed to cache profile: %v", err)
	}
	return p, nil
}

// ClearCache drops the current user's cache entry and, when a token is
// still stored, refetches the profile so the next read is warm again.
// Returns ErrNotAuthenticated when there is nothing to clear against.
func (s *Service) ClearCache(ctx context.Context) error {
	state, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	if state == nil || state.Token == nil || state.Token.AccessToken == "" {
		return ErrNotAuthenticated
	}

	if state.User != nil {
		if err := s.cache.InvalidateUser(state.User.ID); err != nil {
			logger.Warn("Failed to invalidate cached profile: %v", err)
		}
	}

	_, err = s.GetProfile(ctx, true)
	return err
}

// StartRevalidation begins the periodic pass that refreshes stale cache
// entries for the current token. No-op when already running.
func (s *Service) StartRevalidation() {
	if s.task != nil {
		return
	}
	s.task = sched.Every(revalidateInterval, s.revalidate)
}

// StopRevalidation cancels the periodic pass.
func (s *Service) StopRevalidation() {
	if s.task == nil {
		return
	}
	s.task.Stop()
	s.task = nil
}

// revalidate refreshes the current user's entry when it has gone stale.
// Failures are logged and left for the next pass; the existing entry stays
// in place so a cache-first read can still fall back to the API.
func (s *Service) revalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state, err := s.store.Get(ctx)
	if err != nil || state == nil || state.Token == nil || state.User == nil {
		return
	}

	tokenHash := HashToken(state.Token.AccessToken)
	if !s.cache.Stale(state.User.ID, tokenHash) {
		return
	}

	p, err := s.api.FetchProfile(ctx, state.Token.AccessToken)
	if err != nil {
		logger.Debug("Profile revalidation failed: %v", err)
		return
	}
	if err := s.cache.Put(p, tokenHash); err != nil {
		logger.Warn("Failed to cache revalidated profile: %v", err)
	}
}
