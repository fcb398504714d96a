package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"memegenius/internal/camera"
	"memegenius/internal/camera/feed"
	"memegenius/internal/camera/screen"
	"memegenius/internal/http/handlers"
	httpapi "memegenius/internal/http/httpapi"
	"memegenius/internal/imagesource"
	"memegenius/internal/infra"
	"memegenius/internal/infra/geoip"
	"memegenius/internal/orchestrator"
	"memegenius/internal/providers/gemini"
	"memegenius/internal/providers/offline"
	"memegenius/internal/state"
	"memegenius/internal/storage"
)

// aiProvider is implemented by both the Gemini client and the offline
// provider.
type aiProvider interface {
	orchestrator.CaptionService
	orchestrator.ImageEditor
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	files, err := storage.NewFileStore(cfg.MediaDir, cfg.MaxImageBytes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open media library")
	}
	sources := imagesource.NewNormalizer(imagesource.Options{
		Files:    files,
		MaxBytes: cfg.MaxImageBytes,
		Timeout:  cfg.FetchTimeout,
		Logger:   &logger,
	})

	var provider aiProvider
	switch cfg.AIProvider {
	case infra.ProviderOffline:
		provider = offline.New(&logger)
	default:
		client, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:       cfg.GeminiAPIKey,
			BaseURL:      cfg.GeminiBaseURL,
			CaptionModel: cfg.GeminiCaptionModel,
			EditModel:    cfg.GeminiEditModel,
			Logger:       &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create gemini client")
		}
		provider = client
	}

	store := state.New()
	orch := orchestrator.New(orchestrator.Config{
		Captions:     provider,
		Editor:       provider,
		Sources:      sources,
		Store:        store,
		CaptionCount: cfg.CaptionCount,
		Timeout:      cfg.AITimeout,
		Logger:       &logger,
	})

	var device camera.Device
	switch cfg.CameraDevice {
	case infra.CameraDeviceScreen:
		device = screen.New()
	default:
		device = feed.New(cfg.CameraAcquireTimeout)
	}
	cam := camera.NewManager(device, camera.ManagerOptions{
		Constraints:    camera.DefaultConstraints(),
		AcquireTimeout: cfg.CameraAcquireTimeout,
		Logger:         &logger,
	})
	defer cam.Shutdown()

	app := &handlers.App{
		Store:        store,
		Orchestrator: orch,
		Sources:      sources,
		Library:      files,
		Camera:       cam,
		Logger:       &logger,
		MaxBodyBytes: cfg.MaxImageBytes + 1<<20,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          &logger,
		CORSOrigins:     cfg.CORSOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().
		Str("addr", server.Addr()).
		Str("ai_provider", cfg.AIProvider).
		Str("camera_device", device.Name()).
		Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
