package main

import (
	"github.com/fumiya-kume/cra/pkg/cache"
	"github.com/fumiya-kume/cra/pkg/github"
	"github.com/fumiya-kume/cra/pkg/llm"
	"github.com/fumiya-kume/cra/pkg/review"
	"github.com/fumiya-kume/cra/pkg/storage"
)

// serviceNeeds selects the optional collaborators a command uses
type serviceNeeds struct {
	store  bool
	github bool
}

// services is the wired review stack for one command
type services struct {
	cache    cache.Cache
	store    *storage.GormStore
	reviewer *llm.Reviewer
	github   *github.Client
	review   *review.Service

	closers []func() error
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// buildServices wires cache, storage, LLM and GitHub into a review service.
// Redis and the database are optional: failures are logged and the
// command continues without them.
func (a *app) buildServices(needs serviceNeeds) (*services, error) {
	cfg := a.cfg
	log := a.log
	svc := &services{}

	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			log.Warn("Redis unavailable, using in-memory cache (error: %v)", err)
		} else {
			svc.cache = rc
			svc.closers = append(svc.closers, rc.Close)
		}
	}
	if svc.cache == nil {
		svc.cache = cache.NewMemoryCache()
	}

	if needs.store {
		store, err := storage.Open(cfg.Database, log)
		if err != nil {
			log.Warn("Database unavailable, reviews will not be stored (error: %v)", err)
		} else {
			svc.store = store
			svc.closers = append(svc.closers, store.Close)
		}
	}

	reviewer, err := llm.NewReviewerFromConfig(cfg.LLM, log)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.reviewer = reviewer
	if reviewer.IsMock() {
		log.Info("No API key for %s, AI review runs in mock mode", cfg.LLM.Provider)
	}

	if needs.github {
		client, err := github.NewClient(cfg.GitHub)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.github = client
	}

	deps := review.Dependencies{
		Reviewer: reviewer,
		Cache:    svc.cache,
	}
	if svc.store != nil {
		deps.Store = svc.store
	}
	if svc.github != nil {
		deps.GitHub = svc.github
	}
	svc.review = review.NewService(review.OptionsFromConfig(cfg), deps, log)
	return svc, nil
}
