//go:build wireinject
// +build wireinject

package app

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"audio-whisper/internal/api/server"
	"audio-whisper/internal/app/api/provider"
	"audio-whisper/internal/app/archive"
	"audio-whisper/internal/app/archive/pg"
	"audio-whisper/internal/app/archive/sqlite"
	appconfig "audio-whisper/internal/app/config"
	apperrors "audio-whisper/internal/app/errors"
	"audio-whisper/internal/app/queue"
	"audio-whisper/internal/app/storage"
)

// App bundles the long running pieces the serve command needs.
type App struct {
	Config *appconfig.QueueConfig
	Queue  *queue.TranscriptionQueue
	Server *server.Server
}

func newApp(cfg *appconfig.QueueConfig, q *queue.TranscriptionQueue, srv *server.Server) *App {
	return &App{Config: cfg, Queue: q, Server: srv}
}

// provideQueueConfig loads the queue configuration, falling back to the
// built-in defaults on first run so commands work out of the box.
func provideQueueConfig(configPath string) (*appconfig.QueueConfig, error) {
	if configPath == "" {
		configPath = appconfig.GetDefaultConfigPath()
	}
	if _, err := os.Stat(os.ExpandEnv(configPath)); os.IsNotExist(err) {
		cfg := appconfig.CreateDefaultConfig()
		if saveErr := appconfig.SaveQueueConfig(cfg, configPath); saveErr != nil {
			log.Printf("Warning: could not write default config to %s: %v", configPath, saveErr)
		} else {
			log.Printf("Created default config at %s", configPath)
		}
		return cfg, nil
	}
	return appconfig.LoadQueueConfig(configPath)
}

func provideLogger() (*zap.Logger, func(), error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideSlogLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func provideJobStore(cfg *appconfig.QueueConfig, logger *zap.Logger) (*queue.FileJobStore, error) {
	return queue.NewFileJobStore(cfg.DataDir, logger)
}

func provideDispatcher() *queue.Dispatcher {
	return queue.NewDispatcher()
}

// provideTranscriberFactory reads provider keys straight from the
// environment. Keys are checked when a job resolves its transcriber, so
// commands that never transcribe run fine without them.
func provideTranscriberFactory(cfg *appconfig.QueueConfig) queue.TranscriberFactory {
	return queue.TranscriberFactory(provider.NewFactory(provider.Config{
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:     cfg.Providers.Gemini.Model,
		OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:     cfg.Providers.OpenAI.Model,
		OpenAIChatModel: cfg.Providers.OpenAI.ChatModel,
	}))
}

func provideArchiver(cfg *appconfig.QueueConfig) (queue.Archiver, func(), error) {
	if !cfg.Archive.Enabled {
		return nil, func() {}, nil
	}
	return openArchiveDAO(cfg)
}

// provideArchiveDAO opens the archive for commands that read it directly.
// Unlike provideArchiver it refuses to run with the archive disabled.
func provideArchiveDAO(cfg *appconfig.QueueConfig) (archive.DAO, func(), error) {
	if !cfg.Archive.Enabled {
		return nil, nil, apperrors.New("archive is not enabled, set archive.enabled in the config file")
	}
	return openArchiveDAO(cfg)
}

func openArchiveDAO(cfg *appconfig.QueueConfig) (archive.DAO, func(), error) {
	switch cfg.Archive.Driver {
	case "postgres":
		dao, err := pg.NewPostgresDAO(cfg.Archive.DSN)
		if err != nil {
			return nil, nil, err
		}
		return dao, func() { _ = dao.Close() }, nil
	default:
		dao, err := sqlite.NewSQLiteDAO(cfg.Archive.DSN)
		if err != nil {
			return nil, nil, err
		}
		return dao, func() { _ = dao.Close() }, nil
	}
}

func provideMirror(cfg *appconfig.QueueConfig) (queue.ArtifactMirror, error) {
	if !cfg.Mirror.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return storage.NewMinioArtifactStore(ctx, storage.MirrorConfig{
		Endpoint:  cfg.Mirror.Endpoint,
		AccessKey: cfg.Mirror.AccessKey,
		SecretKey: cfg.Mirror.SecretKey,
		Bucket:    cfg.Mirror.Bucket,
		UseSSL:    cfg.Mirror.UseSSL,
	})
}

func provideQueueOptions(cfg *appconfig.QueueConfig, archiver queue.Archiver, mirror queue.ArtifactMirror, logger *zap.Logger) queue.Options {
	return queue.Options{
		PollInterval:    time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		DefaultProvider: cfg.DefaultProvider,
		MaxJobs:         cfg.MaxJobs,
		Archiver:        archiver,
		Mirror:          mirror,
		Logger:          logger,
	}
}

func provideQueue(store *queue.FileJobStore, dispatch *queue.Dispatcher, factory queue.TranscriberFactory, opts queue.Options) *queue.TranscriptionQueue {
	return queue.NewTranscriptionQueue(store, dispatch, factory, opts)
}

func provideServerConfig(cfg *appconfig.QueueConfig) server.Config {
	environment := os.Getenv("A2T_ENV")
	if environment == "" {
		environment = "production"
	}
	return server.Config{
		Host:             cfg.Server.Host,
		Port:             strconv.Itoa(cfg.Server.Port),
		ReadTimeout:      15 * time.Second,
		WriteTimeout:     15 * time.Second,
		IdleTimeout:      60 * time.Second,
		Environment:      environment,
		RateLimitEnabled: cfg.Server.RateLimit.Enabled,
		RateLimitMax:     cfg.Server.RateLimit.Limit,
		RateLimitWindow:  time.Duration(cfg.Server.RateLimit.WindowSec) * time.Second,
		RedisAddr:        cfg.Server.RateLimit.RedisAddr,
	}
}

func provideServer(config server.Config, q *queue.TranscriptionQueue, logger *slog.Logger) *server.Server {
	return server.NewServer(config, q, logger)
}

// InitializeQueue wires a transcription queue from the config file at
// configPath, or the default config location when empty.
func InitializeQueue(configPath string) (*queue.TranscriptionQueue, func(), error) {
	wire.Build(
		provideQueueConfig,
		provideLogger,
		provideJobStore,
		provideDispatcher,
		provideTranscriberFactory,
		provideArchiver,
		provideMirror,
		provideQueueOptions,
		provideQueue,
	)
	return nil, nil, nil
}

// InitializeApp wires the queue plus the HTTP API server for serve.
func InitializeApp(configPath string) (*App, func(), error) {
	wire.Build(
		newApp,
		provideQueueConfig,
		provideLogger,
		provideSlogLogger,
		provideJobStore,
		provideDispatcher,
		provideTranscriberFactory,
		provideArchiver,
		provideMirror,
		provideQueueOptions,
		provideQueue,
		provideServerConfig,
		provideServer,
	)
	return nil, nil, nil
}

// InitializeArchive wires the transcription archive for export.
func InitializeArchive(configPath string) (archive.DAO, func(), error) {
	wire.Build(
		provideQueueConfig,
		provideArchiveDAO,
	)
	return nil, nil, nil
}
