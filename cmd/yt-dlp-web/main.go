// Package main wires together the yt-dlp web download service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Siddh2024/yt-dlp-web/internal/api"
	"github.com/Siddh2024/yt-dlp-web/internal/archive"
	archivegcs "github.com/Siddh2024/yt-dlp-web/internal/archive/gcs"
	archivelocal "github.com/Siddh2024/yt-dlp-web/internal/archive/local"
	"github.com/Siddh2024/yt-dlp-web/internal/clock/system"
	"github.com/Siddh2024/yt-dlp-web/internal/config"
	"github.com/Siddh2024/yt-dlp-web/internal/controller"
	"github.com/Siddh2024/yt-dlp-web/internal/credentials"
	"github.com/Siddh2024/yt-dlp-web/internal/download"
	"github.com/Siddh2024/yt-dlp-web/internal/extractor/ytdlp"
	historymemory "github.com/Siddh2024/yt-dlp-web/internal/history/memory"
	historypostgres "github.com/Siddh2024/yt-dlp-web/internal/history/postgres"
	historysqlite "github.com/Siddh2024/yt-dlp-web/internal/history/sqlite"
	"github.com/Siddh2024/yt-dlp-web/internal/id/uuid"
	"github.com/Siddh2024/yt-dlp-web/internal/logging"
	"github.com/Siddh2024/yt-dlp-web/internal/metrics"
	"github.com/Siddh2024/yt-dlp-web/internal/progress"
	publisherpubsub "github.com/Siddh2024/yt-dlp-web/internal/publisher/pubsub"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// A local .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	if err := ytdlp.CheckDependencies(cfg.Downloads.Binary); err != nil {
		logger.Fatal("dependency check failed", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.Downloads.Dir, 0o750); err != nil {
		logger.Fatal("create download directory failed", zap.Error(err))
	}

	creds, err := credentials.Resolve(credentials.Config{
		SecretCookiePath: cfg.Credentials.SecretCookiePath,
		LocalCookiePath:  cfg.Credentials.LocalCookiePath,
		CookieContentEnv: "COOKIES_CONTENT",
		POTokenEnv:       "PO_TOKEN",
		VisitorDataEnv:   "VISITOR_DATA",
	}, logger.Named("credentials"))
	if err != nil {
		logger.Fatal("credential resolution failed", zap.Error(err))
	}

	history, closeHistory, err := buildHistoryStore(ctx, cfg)
	if err != nil {
		logger.Fatal("history store init failed", zap.Error(err))
	}
	defer closeHistory()

	publisher, topic := buildPublisher(ctx, cfg, logger)
	archiver := buildArchiver(ctx, cfg, logger)

	extractor := ytdlp.New(ytdlp.Config{
		Binary:      cfg.Downloads.Binary,
		DownloadDir: cfg.Downloads.Dir,
		CacheDir:    cfg.Downloads.CacheDir,
	}, logger.Named("ytdlp"))

	channel := progress.NewChannel(cfg.Downloads.BufferSize, logger.Named("progress"))
	ctrl := controller.New(
		extractor,
		history,
		publisher,
		archiver,
		channel,
		creds,
		system.New(),
		uuid.New(),
		controller.Config{PublishTopic: topic},
		logger.Named("controller"),
	)

	apiServer := api.NewServer(ctrl, history, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildHistoryStore(ctx context.Context, cfg config.Config) (download.HistoryStore, func(), error) {
	switch cfg.History.Backend {
	case config.HistoryMemory:
		return historymemory.NewStore(cfg.History.Cap), func() {}, nil
	case config.HistorySQLite:
		store, err := historysqlite.NewStore(cfg.History.Path, cfg.History.Cap)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.HistoryPostgres:
		store, err := historypostgres.NewStore(ctx, cfg.History.DSN, cfg.History.Cap)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (download.Publisher, string) {
	if cfg.PubSub.TopicName == "" {
		return nil, ""
	}
	client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		logger.Warn("pubsub client init failed, notifications disabled", zap.Error(err))
		return nil, ""
	}
	return publisherpubsub.New(client), cfg.PubSub.TopicName
}

func buildArchiver(ctx context.Context, cfg config.Config, logger *zap.Logger) download.Archiver {
	switch cfg.Archive.Backend {
	case config.ArchiveLocal:
		store, err := archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.LocalDir})
		if err != nil {
			logger.Warn("local archive init failed, archiving disabled", zap.Error(err))
			return nil
		}
		return archive.New(store, cfg.Archive.Prefix)
	case config.ArchiveGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			logger.Warn("gcs client init failed, archiving disabled", zap.Error(err))
			return nil
		}
		store, err := archivegcs.New(client, archivegcs.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			logger.Warn("gcs archive init failed, archiving disabled", zap.Error(err))
			return nil
		}
		return archive.New(store, cfg.Archive.Prefix)
	default:
		return nil
	}
}
