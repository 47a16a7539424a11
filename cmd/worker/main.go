package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"mediaworker/internal/adapter/repo"
	"mediaworker/internal/http/handlers"
	"mediaworker/internal/http/httpapi"
	"mediaworker/internal/infra"
	"mediaworker/internal/infra/credentials"
	"mediaworker/internal/providers"
	"mediaworker/internal/providers/gemini"
	"mediaworker/internal/providers/openai"
	"mediaworker/internal/storage"
	"mediaworker/internal/worker"
)

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobRepo := repo.NewJobRepository(runner)
	assetRepo := repo.NewAssetRepository(runner)
	credStore := credentials.NewStore(runner)

	minioClient, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure object storage")
	}
	uploader := storage.NewUploader(minioClient, cfg.StorageBucket, cfg.SignedURLTTL, cfg.UploadDelay, logger)

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := uploader.EnsureBucket(bootCtx); err != nil {
		logger.Warn().Err(err).Msg("worker: bucket bootstrap failed, will retry on first upload")
	}
	cancel()

	geminiKey := resolveKey(ctx, cfg.GeminiAPIKey, "gemini", credStore, logger)
	openaiKey := resolveKey(ctx, cfg.OpenAIAPIKey, "openai", credStore, logger)

	registry := buildRegistry(cfg, geminiKey, openaiKey, logger)
	if len(registry) == 0 {
		logger.Fatal().Msg("worker: no generation provider configured, set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	imageHandler := worker.NewImageHandler(registry, uploader, assetRepo, jobRepo, cfg.MaxRetries, cfg.BackoffBase, logger)
	videoHandler := worker.NewVideoHandler(registry, uploader, assetRepo, jobRepo, logger)
	processor := worker.NewProcessor(jobRepo, imageHandler, videoHandler, logger)
	dispatcher := worker.NewDispatcher(jobRepo, processor, cfg.JobBatchSize, logger)

	app := handlers.NewApp(dispatcher, logger)
	router := httpapi.NewRouter(app, logger, cfg.CORSAllowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("worker: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("worker: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("worker: shutdown failed")
	}
	logger.Info().Msg("worker: stopped")
}

// resolveKey prefers the environment key and falls back to the database
// credential store, so key rotation does not require a redeploy.
func resolveKey(ctx context.Context, envKey, provider string, store *credentials.Store, logger infra.Logger) string {
	if key := strings.TrimSpace(envKey); key != "" {
		return key
	}
	key, err := store.Token(ctx, provider)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("worker: failed to load api key from store")
		return ""
	}
	return key
}

func buildRegistry(cfg *infra.Config, geminiKey, openaiKey string, logger infra.Logger) providers.Registry {
	registry := providers.Registry{}

	if geminiKey != "" {
		client, err := gemini.New(gemini.Options{
			APIKey:     geminiKey,
			BaseURL:    cfg.GeminiBaseURL,
			ImageModel: cfg.GeminiImageModel,
			VideoModel: cfg.GeminiVideoModel,
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
		}
		registry["gemini"] = client
	} else {
		logger.Warn().Msg("worker: GEMINI_API_KEY missing, gemini jobs will fail")
	}

	if openaiKey != "" {
		client, err := openai.New(openai.Options{
			APIKey:     openaiKey,
			BaseURL:    cfg.OpenAIBaseURL,
			ImageModel: cfg.OpenAIImageModel,
			VideoModel: cfg.OpenAIVideoModel,
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure openai client")
		}
		registry["openai"] = client
	} else {
		logger.Warn().Msg("worker: OPENAI_API_KEY missing, openai jobs will fail")
	}

	return registry
}
