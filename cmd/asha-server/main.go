// cmd/asha-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	awsclient "asha-assistant/internal/common/aws"
	"asha-assistant/internal/common/config"
	"asha-assistant/internal/common/database"
	"asha-assistant/internal/common/events"
	httpclient "asha-assistant/internal/common/http"
	"asha-assistant/internal/common/logger"
	"asha-assistant/internal/common/observability"
	"asha-assistant/internal/common/retry"
	"asha-assistant/internal/httpapi"
	"asha-assistant/internal/store"

	as "asha-assistant/internal/workers/ai-conversation/analyze-sentiment"
	ar "asha-assistant/internal/workers/ai-conversation/augment-retrieval"
	bp "asha-assistant/internal/workers/ai-conversation/build-prompt"
	cc "asha-assistant/internal/workers/ai-conversation/complete-chat"
	rp "asha-assistant/internal/workers/ai-conversation/response-pipeline"
	ri "asha-assistant/internal/workers/ai-conversation/route-intent"
)

// connectPolicy retries dependency connections while containers start up.
func connectPolicy(zapLog *zap.Logger, name string) retry.Policy {
	return retry.Policy{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			zapLog.Warn(name+" failed, retrying...",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Duration("nextRetryIn", delay),
			)
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})
	zapLog.Info("Starting asha server...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	var pingers []database.Pinger

	// --- Message store ---
	var messages store.MessageStore = store.NewMemory()
	if cfg.Store.Driver == "postgres" {
		var pg *database.PostgresClient
		err = retry.Do(ctx, connectPolicy(zapLog, "PostgreSQL connection"), func(ctx context.Context) error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		})
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgStore := store.NewPostgres(pg.DB)
		if cfg.Store.AutoMigrate {
			if err := pgStore.EnsureSchema(ctx); err != nil {
				zapLog.Fatal("postgres schema migration failed", zap.Error(err))
			}
		}
		messages = pgStore
		pingers = append(pingers, pg)
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Retrieval cache ---
	var retrievalCache ar.Cache = ar.NewMemoryCache(
		cfg.Retrieval.CacheCapacity,
		config.GetDuration(cfg.Retrieval.CacheTTL),
	)
	if cfg.Retrieval.CacheBackend == "redis" {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retry.Do(ctx, connectPolicy(zapLog, "Redis connection"), rdb.Ping)
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()

		retrievalCache = ar.NewRedisCache(rdb.Client, config.GetDuration(cfg.Retrieval.CacheTTL), &retrievalLoggerAdapter{log})
		pingers = append(pingers, rdb)
		zapLog.Info("Redis connected successfully")
	}

	// --- Retrieval sources ---
	diagnostics := observability.NewDiagnostics(observability.DefaultHistorySize, observability.DefaultSlowThreshold, log)
	sourceClient := httpclient.NewClient(config.GetDuration(cfg.Retrieval.SourceTimeout))

	var sources []ar.Source
	for _, src := range cfg.Retrieval.Sources {
		if src.Disabled {
			zapLog.Info("retrieval source disabled", zap.String("source", src.Name))
			continue
		}
		switch src.Type {
		case "bls":
			sources = append(sources, ar.NewBLSSource(src.Name, src.URL, sourceClient))
		default:
			sources = append(sources, ar.NewJSONSource(src.Name, src.URL, sourceClient))
		}
	}

	if cfg.Database.Elasticsearch.Enabled() {
		var es *database.ElasticsearchClient
		err = retry.Do(ctx, connectPolicy(zapLog, "Elasticsearch connection"), func(ctx context.Context) error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		})
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		sources = append(sources, ar.NewSearchSource(es.Client, cfg.Database.Elasticsearch.Index, cfg.Retrieval.MaxItems))
		pingers = append(pingers, es)
		zapLog.Info("Elasticsearch connected successfully")
	}

	retriever := ar.NewHandler(&ar.Config{
		SourceTimeout: config.GetDuration(cfg.Retrieval.SourceTimeout),
		GlobalTimeout: config.GetDuration(cfg.Retrieval.GlobalTimeout),
		MaxItems:      cfg.Retrieval.MaxItems,
	}, sources, retrievalCache, &retrievalLoggerAdapter{log}, ar.WithDiagnostics(diagnostics))

	// --- Analytics events ---
	var publisher events.Publisher
	switch cfg.Events.Driver {
	case "nats":
		nats, err := events.ConnectNATS(cfg.Events.NATSURL, cfg.Events.NATSToken, cfg.Events.SubjectPrefix, log)
		if err != nil {
			zapLog.Fatal("nats connection failed", zap.Error(err))
		}
		publisher = nats
		zapLog.Info("NATS connected successfully")
	case "sns":
		client, err := awsclient.NewSNSClient(ctx, cfg.Events.AWSRegion, cfg.Events.AWSEndpoint)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = events.NewSNSPublisher(client, cfg.Events.SNSTopicARN)
		zapLog.Info("SNS publisher ready", zap.String("topic", cfg.Events.SNSTopicARN))
	case "none":
		publisher = events.NopPublisher{}
	default:
		publisher = events.NewLogPublisher(log)
	}
	defer publisher.Close()

	// --- LLM clients ---
	llmClient := httpclient.NewClient(0)
	chat := cc.NewClient(&cc.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		Timeout:   config.GetDuration(cfg.LLM.ChatTimeout),
		MaxTokens: cfg.LLM.MaxTokens,
		Kind:      "chat",
	}, llmClient, &completeChatLoggerAdapter{log}, cc.WithDiagnostics(diagnostics))

	sentimentClient := cc.NewClient(&cc.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.SentimentModel,
		Timeout:   config.GetDuration(cfg.LLM.SentimentTimeout),
		MaxTokens: cfg.LLM.SentimentMaxTokens,
		Kind:      "sentiment",
	}, llmClient, &completeChatLoggerAdapter{log}, cc.WithDiagnostics(diagnostics))

	if cfg.LLM.APIKey == "" {
		zapLog.Warn("no LLM api key configured; replies will report a configuration problem")
	}

	sentiment := as.NewAnalyzer(&as.Config{
		Timeout:   config.GetDuration(cfg.LLM.SentimentTimeout),
		MaxTokens: cfg.LLM.SentimentMaxTokens,
	}, sentimentClient, &sentimentLoggerAdapter{log})

	// --- Pipeline ---
	pipeline := rp.NewPipeline(&rp.Config{
		RepeatWindow:     config.GetDuration(cfg.Pipeline.RepeatWindow),
		RepeatCapacity:   cfg.Pipeline.RepeatCapacity,
		FailureThreshold: cfg.Pipeline.FailureThreshold,
		SessionCapacity:  cfg.Pipeline.SessionCapacity,
		MaxTokens:        cfg.LLM.MaxTokens,
		Temperature:      cfg.LLM.Temperature,
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   config.GetDuration(cfg.Retry.BaseDelay),
		},
	}, rp.Dependencies{
		Router:    ri.NewDefault(),
		Retriever: retriever,
		Prompts:   bp.NewBuilder(&bp.Config{HistoryWindow: cfg.Pipeline.HistoryWindow}),
		Completer: chat,
		Sentiment: sentiment,
		Events:    publisher,
		Telemetry: obs,
	}, &pipelineLoggerAdapter{log})

	zapLog.Info("Pipeline initialized",
		zap.Int("sources", len(sources)),
		zap.String("store", cfg.Store.Driver),
		zap.String("cache", cfg.Retrieval.CacheBackend),
		zap.String("events", cfg.Events.Driver),
	)

	// --- HTTP server ---
	api := httpapi.New(messages, pipeline, &httpLoggerAdapter{log},
		httpapi.WithEvents(publisher),
		httpapi.WithDiagnostics(diagnostics),
		httpapi.WithDependencies(pingers...),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Asha server stopped gracefully")
}
