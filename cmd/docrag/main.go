package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/chunker"
	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/db"
	"github.com/larkvine/docrag/internal/embedcache"
	"github.com/larkvine/docrag/internal/extract"
	"github.com/larkvine/docrag/internal/filestore"
	"github.com/larkvine/docrag/internal/handler"
	"github.com/larkvine/docrag/internal/job"
	"github.com/larkvine/docrag/internal/middleware"
	"github.com/larkvine/docrag/internal/repo"
	"github.com/larkvine/docrag/internal/retrieval"
	"github.com/larkvine/docrag/internal/schedule"
	"github.com/larkvine/docrag/internal/service"
	"github.com/larkvine/docrag/internal/store"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docrag",
		Short: "docrag retrieval server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docrag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn, cfg.Retrieval.EmbeddingDim); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	docRepo := repo.NewDocumentRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	providerArgs := cfg.AI.Data
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	completionProvider, err := ai.NewCompletionProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init completion provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDB(embedder, cacheRepo)
	embedder = embedcache.WrapLRU(embedder, cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLMinutes)*time.Minute)
	completer := ai.NewCompleter(completionProvider, cfg.AI.CompletionModel)
	manager := ai.NewManager(embedder, completer, ai.ManagerConfig{
		TimeoutSeconds: cfg.AI.TimeoutSeconds,
		MaxRetries:     cfg.AI.MaxRetries,
		BatchLimit:     cfg.Retrieval.EmbedBatchLimit,
	})

	pgStore := store.NewPgStore(conn, cfg.Retrieval.EmbeddingDim)
	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	extractor := extract.NewEngine(cfg.Extract)
	splitter := chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	orchestrator := retrieval.NewOrchestrator(manager, pgStore, cfg.Retrieval)

	ingestService := service.NewIngestService(docRepo, blobs, extractor, splitter, manager, pgStore, cfg.Ingest)
	queryService := service.NewQueryService(orchestrator, manager)
	documentService := service.NewDocumentService(docRepo, blobs, pgStore)

	deps := handler.RouterDeps{
		Ingest:      handler.NewIngestHandler(ingestService, cfg.Ingest),
		Query:       handler.NewQueryHandler(queryService),
		Chat:        handler.NewChatHandler(queryService),
		Documents:   handler.NewDocumentHandler(documentService),
		IngestLimit: time.Duration(cfg.Ingest.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if spec := cfg.Jobs.IntegritySweepSpec; spec != "" {
		if err := scheduler.AddJob(job.NewIntegritySweepJob(pgStore), spec); err != nil {
			return err
		}
	}
	if spec := cfg.Jobs.ReembedSpec; spec != "" {
		if err := scheduler.AddJob(job.NewReembedJob(docRepo, ingestService, cfg.Jobs.ReembedBatchSize), spec); err != nil {
			return err
		}
	}
	if spec := cfg.Jobs.ResyncSpec; spec != "" {
		if err := scheduler.AddJob(job.NewChunkCountResyncJob(docRepo, cfg.Jobs.ResyncBatchSize), spec); err != nil {
			return err
		}
	}
	if spec := cfg.Jobs.CacheCleanupSpec; spec != "" {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Jobs.CacheMaxAgeDays), spec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
