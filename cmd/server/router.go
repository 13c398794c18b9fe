package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/controller"
	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/handler"
	"github.com/unclebandit/cpas-demos/internal/middleware"
	"github.com/unclebandit/cpas-demos/internal/repository"
	"github.com/unclebandit/cpas-demos/internal/service"
)

// ledger is what the server needs from the run ledger; both may be nil
type ledger struct {
	Recorder service.RunRecorder
	Runs     handler.RunReader
}

func newRouter(cfg *config.Config, log *logrus.Logger, l ledger) (http.Handler, error) {
	client := graph.NewClient(cfg.Graph, cfg.AccessToken)
	cpasRepo := &repository.CPASRepository{Client: client}
	mediaRepo := &repository.MediaRepository{Client: client, CreativeVersion: cfg.Graph.CreativeVersion}
	defaults := service.DefaultsFromConfig(cfg)

	agencyController := &controller.AgencyController{
		AgencyService: &service.AgencyService{
			CPASRepo:  cpasRepo,
			Directory: service.NewMerchantDirectory(cfg.MerchantBMIDs.ByKey()),
			Defaults:  defaults,
			Log:       log,
		},
		Config: cfg,
		Log:    log,
	}

	merchantController := &controller.MerchantController{
		MerchantService: &service.MerchantService{CPASRepo: cpasRepo, Defaults: defaults, Log: log},
		Config:          cfg,
		Log:             log,
	}

	boosterHandler := &handler.BoosterHandler{
		Fetch:   &service.FetchService{MediaRepo: mediaRepo, Log: log},
		Booster: &service.BoosterService{MediaRepo: mediaRepo, Recorder: l.Recorder, Log: log},
		Runs:    l.Runs,
		Log:     log,
	}

	limiter := middleware.NewRateLimiterStore(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)
	if err := limiter.TrustProxies(cfg.TrustedProxies...); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Logging(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, log))
		r.Route("/agency", agencyController.Routes)
		r.Route("/merchant", merchantController.Routes)
		r.Route("/partnership-ads", boosterHandler.Routes)
	})

	return r, nil
}
