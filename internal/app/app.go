package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/mexicorn/podium/external/openf1"
	"github.com/mexicorn/podium/internal/config"
	"github.com/mexicorn/podium/internal/infrastructure/account/google"
	"github.com/mexicorn/podium/internal/infrastructure/repository/postgres"
	"github.com/mexicorn/podium/internal/interfaces/httpapi"
	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/platform/resilience"
	"github.com/mexicorn/podium/internal/usecase"
)

// App bundles the wired components that outlive a single request.
type App struct {
	Server      *http.Server
	SyncService *usecase.SyncService
	DB          *sqlx.DB
}

func New(cfg config.Config, db *sqlx.DB, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	sessionRepo := postgres.NewSessionRepository(db)
	driverRepo := postgres.NewSessionDriverRepository(db)
	resultRepo := postgres.NewSessionResultRepository(db)
	guessRepo := postgres.NewGuessRepository(db)
	userRepo := postgres.NewUserRepository(db)

	provider := openf1.NewClient(openf1.ClientConfig{
		BaseURL:     cfg.OpenF1BaseURL,
		Timeout:     cfg.OpenF1Timeout,
		MaxRetries:  cfg.OpenF1MaxRetries,
		BackoffBase: cfg.OpenF1BackoffBase,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OpenF1CircuitEnabled,
			FailureThreshold: cfg.OpenF1CircuitFailureCount,
			OpenTimeout:      cfg.OpenF1CircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OpenF1CircuitHalfOpenMaxReq,
		},
	})

	syncSvc := usecase.NewSyncService(provider, sessionRepo, driverRepo, resultRepo,
		usecase.SyncConfig{
			Enabled:      cfg.SyncEnabled,
			SessionTypes: cfg.SyncSessionTypes,
			FetchWorkers: cfg.SyncFetchWorkers,
		}, logger)
	sessionSvc := usecase.NewSessionService(sessionRepo, driverRepo, logger)
	guessSvc := usecase.NewGuessService(sessionRepo, driverRepo, guessRepo, userRepo, logger)
	standingSvc := usecase.NewStandingService(driverRepo, resultRepo, guessRepo, logger)

	verifier := google.NewClient(google.ClientConfig{
		TokenInfoURL: cfg.GoogleTokenInfoURL,
		ClientID:     cfg.GoogleClientID,
		CacheTTL:     cfg.GoogleCacheTTL,
		Logger:       logger,
	})

	handler := httpapi.NewHandler(sessionSvc, guessSvc, standingSvc, syncSvc, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:      server,
		SyncService: syncSvc,
		DB:          db,
	}, nil
}
