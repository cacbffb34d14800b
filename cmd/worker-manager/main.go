// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"firefighter-nlp/internal/common/camunda"
	"firefighter-nlp/internal/common/config"
	"firefighter-nlp/internal/common/database"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/common/metrics"
	"firefighter-nlp/internal/common/observability"
	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/entity"
	"firefighter-nlp/internal/nlp/intent"
	"firefighter-nlp/internal/nlp/permission"
	"firefighter-nlp/internal/nlp/pipeline"
	"firefighter-nlp/internal/nlp/query"
	"firefighter-nlp/internal/nlp/response"
	"firefighter-nlp/internal/tickets"
	"firefighter-nlp/internal/users"

	caps "firefighter-nlp/internal/workers/nlp/capabilities"
	pq "firefighter-nlp/internal/workers/nlp/process-query"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Query pipeline ---
	orchestrator, err := buildOrchestrator(cfg, pg, esClient, redis, obs, log)
	if err != nil {
		zapLog.Fatal("failed to build query pipeline", zap.Error(err))
	}

	// --- Workers ---
	manager := camunda.NewManager(zeebe.GetClient(), log)

	for _, admin := range []bool{false, true} {
		handler, err := pq.NewHandler(pq.HandlerOptions{
			AppConfig:     cfg,
			Processor:     orchestrator,
			Admin:         admin,
			Logger:        log,
			Observability: obs,
		})
		if err != nil {
			zapLog.Fatal("failed to create query handler", zap.Error(err))
		}
		manager.Start(handler.GetTaskType(), config.GetWorkerConfig(cfg, handler.GetTaskType()), handler)
	}

	capsHandler, err := caps.NewHandler(caps.HandlerOptions{
		AppConfig:     cfg,
		Advisor:       orchestrator,
		Logger:        log,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("failed to create capabilities handler", zap.Error(err))
	}
	manager.Start(caps.TaskType, config.GetWorkerConfig(cfg, caps.TaskType), capsHandler)

	zapLog.Info("Workers registered", zap.Strings("taskTypes", manager.TaskTypes()))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: healthMux(cfg, zeebe, pg, redis),
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	manager.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func buildOrchestrator(
	cfg *config.Config,
	pg *database.PostgresClient,
	es *database.ElasticsearchClient,
	redis *database.RedisClient,
	obs *observability.Observability,
	log logger.Logger,
) (*pipeline.Orchestrator, error) {
	gate := permission.DefaultTable()
	if len(cfg.NLP.Permissions) > 0 {
		table, err := permission.FromNames(cfg.NLP.Permissions)
		if err != nil {
			return nil, fmt.Errorf("invalid nlp.permissions: %w", err)
		}
		gate = table
	}

	store := tickets.NewStore(pg.GetDB(), log)
	index := tickets.NewIndex(es.Client, cfg.Database.Elasticsearch.TicketIndex, log)
	service := tickets.NewService(store, index, log)

	directory := users.NewDirectory(pg.GetDB(), redis.GetClient(), config.GetDuration(cfg.NLP.RoleCacheTTL), log)

	dispatcher := query.NewDispatcher(&query.Config{
		DefaultAdminStatus: models.TicketStatus(cfg.NLP.AdminDefaultStatus),
		Clock:              time.Now,
	}, service, service, log)

	return pipeline.NewOrchestrator(pipeline.Dependencies{
		Classifier:  intent.NewClassifier(cfg.NLP.MinConfidence),
		Permissions: gate,
		Extractor:   entity.NewExtractor(),
		Validator:   entity.NewValidator(),
		Dispatcher:  dispatcher,
		Generator:   response.NewGenerator(),
		Roles:       directory,
		Recorder:    pipeline.Recorders{metrics.NewQueryRecorder(), obs},
		Logger:      log,
		DefaultRole: cfg.NLP.DefaultRole,
	}), nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthMux(cfg *config.Config, zeebe *camunda.Client, pg *database.PostgresClient, redis *database.RedisClient) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]pinger{"postgres": pg, "redis": redis}
		body := map[string]string{"status": "ready", "time": time.Now().Format(time.RFC3339)}
		code := http.StatusOK
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				body[name] = err.Error()
				body["status"] = "not ready"
				code = http.StatusServiceUnavailable
			}
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			body["zeebe"] = err.Error()
			body["status"] = "not ready"
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, code, body)
	})
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	}
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
