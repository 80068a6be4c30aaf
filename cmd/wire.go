package cmd

import (
	"github.com/ghnav/cli/internal/auth"
	"github.com/ghnav/cli/internal/config"
	"github.com/ghnav/cli/internal/errors"
	"github.com/ghnav/cli/internal/githubapi"
	"github.com/ghnav/cli/internal/notify"
	"github.com/ghnav/cli/internal/profile"
	"github.com/ghnav/cli/internal/session"
	"github.com/ghnav/cli/internal/store"
)

// deps is the wired object graph shared by the auth commands. Commands
// build it once per invocation; nothing here is global.
type deps struct {
	cfg        *config.UserConfig
	store      store.Store
	api        *githubapi.Client
	validator  *auth.Validator
	flow       *auth.Flow
	controller *session.Controller
	cache      *profile.Cache
	profiles   *profile.Service
}

func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewError(err, "Failed to load configuration")
	}

	st := store.NewKeyring()
	api := githubapi.NewClient(cfg.APIEndpoint, nil, nil)
	validator := auth.NewValidator(api, st, api.Limits())

	authorizer := &auth.BrowserAuthorizer{
		ListenAddr:   cfg.RedirectAddr,
		CallbackPath: cfg.CallbackPath,
	}
	flow := auth.NewFlow(cfg, api, st, authorizer)

	var notifier notify.Notifier = notify.NewTerminal(nil)
	if quietMode {
		notifier = notify.Nop{}
	}
	controller := session.NewController(flow, validator, st, notifier)

	cache, err := profile.NewCache()
	if err != nil {
		return nil, errors.NewError(err, "Failed to open profile cache")
	}
	profiles := profile.NewService(api, cache, st)
	// Keep the cached profile warm while a command runs; no-ops without a
	// stored credential record.
	profiles.StartRevalidation()

	return &deps{
		cfg:        cfg,
		store:      st,
		api:        api,
		validator:  validator,
		flow:       flow,
		controller: controller,
		cache:      cache,
		profiles:   profiles,
	}, nil
}

// close releases background resources held by the graph.
func (d *deps) close() {
	d.controller.Close()
	d.profiles.StopRevalidation()
}
