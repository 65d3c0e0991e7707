package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/calories/internal/api"
	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/calculator"
	"github.com/mmynk/calories/internal/config"
	"github.com/mmynk/calories/internal/lookup"
	"github.com/mmynk/calories/internal/lookup/openfoodfacts"
	"github.com/mmynk/calories/internal/lookup/usda"
	"github.com/mmynk/calories/internal/metrics"
	"github.com/mmynk/calories/internal/middleware"
	"github.com/mmynk/calories/internal/rpc"
	"github.com/mmynk/calories/internal/service"
	"github.com/mmynk/calories/internal/storage/sqlstore"
)

// app holds the wired services of one process.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sqlstore.SQLStore
	metrics *metrics.Recorder
	tokens  *auth.TokenAuthenticator

	accounts *service.AccountService
	food     *service.FoodService
	login    *service.AuthService
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	calories, err := buildLookup(cfg.Lookup, logger)
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	recorder := metrics.NewRecorder()
	authn := auth.NewPasswordAuthenticator(store, cfg.Auth.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  recorder,
		tokens:   auth.NewTokenAuthenticator(jwtManager, store),
		accounts: service.NewAccountService(store, authn, jwtManager, logger),
		food: service.NewFoodService(store, calculator.NewDailyLimit(loc), calories, logger,
			service.WithObserver(recorder)),
		login: service.NewAuthService(authn, jwtManager, store, recorder, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// handler mounts the REST routes, the Connect services, /healthz and /metrics.
func (a *app) handler() http.Handler {
	mux := http.NewServeMux()

	api.NewServer(a.accounts, a.food, a.login, a.tokens, a.logger).Register(mux)
	mux.Handle(rpc.NewAuthServiceHandler(rpc.NewAuthServer(a.login, a.logger)))
	mux.Handle(rpc.NewFoodServiceHandler(rpc.NewFoodServer(a.food, a.logger), a.tokens))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.store.Ping(r.Context()); err != nil {
			a.logger.Error("Health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", a.metrics.Handler())

	// Metrics sits directly on the mux so it sees the matched pattern.
	return middleware.CORS(middleware.RequestLogger(a.metrics.Middleware(mux)))
}

// buildLookup creates the calorie lookup chain from the configured providers.
// USDA is skipped when no API key is configured.
func buildLookup(cfg config.LookupConfig, logger *slog.Logger) (*lookup.Chain, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var providers []lookup.Provider
	var errs []error
	for _, name := range cfg.Providers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "usda":
			if cfg.USDAAPIKey == "" {
				logger.Warn("USDA lookup disabled: lookup.usda_api_key is not set")
				continue
			}
			providers = append(providers, &usda.Client{
				APIKey:     cfg.USDAAPIKey,
				BaseURL:    cfg.USDABaseURL,
				HTTPClient: httpClient,
			})
		case "openfoodfacts", "off":
			providers = append(providers, &openfoodfacts.Client{
				BaseURL:    cfg.OpenFoodFactsBaseURL,
				HTTPClient: httpClient,
			})
		default:
			errs = append(errs, fmt.Errorf("lookup.providers: unsupported provider %q (use usda or openfoodfacts)", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	chain := lookup.NewChain(cfg.Timeout, logger, providers...)
	logger.Info("Calorie lookup configured", "providers", chain.Providers())
	return chain, nil
}
