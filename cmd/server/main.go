package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/api"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/config"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/database"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/events"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/export"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/i18n"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/logging"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/metrics"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/render"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/repository"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/service"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	store, err := database.NewStore(cfg.Database.Path, cfg.Shuttle.SeatCapacity, cfg.Shuttle.Location())
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, sessions := initSessionService(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	metrics.Register()

	catalog := i18n.NewCatalog()
	eventBus := events.NewEventBus()

	availability := service.NewAvailabilityService(store, cfg.Shuttle, &logger)
	wizard := service.NewWizardService(sessions, availability, store, eventBus, cfg.Shuttle, &logger)
	lookup := service.NewLookupService(store, sessions, eventBus, cfg.Shuttle.LookupWindowDays, &logger)

	manifestWriter := export.NewWriter(cfg.Exports.Path, catalog, cfg.Shuttle.Stops)
	manifestWorker := worker.NewManifestWorker(store, manifestWriter, worker.RetryPolicy{}, &logger)
	manifestWorker.Subscribe(eventBus)
	go manifestWorker.Start(ctx)

	widget := &render.MarkerWidget{}
	surfaces := render.NewSurfaceRegistry()
	hub := render.NewHub(catalog, surfaces, widget, &logger)
	hub.Subscribe(eventBus, sessionViewProvider(wizard, availability))

	server := api.NewHTTPServer(cfg.Server, wizard, lookup, catalog, widget, surfaces, &logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("reservation engine started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("database directory create failed")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("exports directory create failed")
		return err
	}
	return nil
}

func initSessionService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.SessionService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable, sessions fall back to memory")
		}
	}

	ttl := time.Duration(cfg.Shuttle.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = time.Duration(models.DefaultSessionTTL) * time.Second
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, ttl)
	fallbackRepo := repository.NewMemoryStateRepository(ttl)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewSessionService(stateRepo, logger)
}

// sessionViewProvider resolves a session's language and view model for the
// render hub. Slots come straight from the availability service: the hub
// runs inside the wizard's own event flow, so going back through the wizard
// would re-enter the session lock.
func sessionViewProvider(
	wizard *service.WizardService,
	availability *service.AvailabilityService,
) render.ViewModelProvider {
	return func(sessionID string) (models.Language, render.ViewModel, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		state, err := wizard.Session(ctx, sessionID)
		if err != nil {
			return models.DefaultLanguage, render.ViewModel{}, err
		}

		vm := render.ViewModel{Step: state.Step, Draft: state.Draft}
		if state.Step == models.StepSchedule {
			slots, err := availability.QueryAvailable(ctx,
				state.Draft.Direction, state.Draft.Date, state.Draft.StopID)
			if err == nil {
				vm.Slots = slots
			}
		}
		return state.Language, vm, nil
	}
}
