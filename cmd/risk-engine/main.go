// cmd/risk-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"supplyguard/internal/agents"
	"supplyguard/internal/agents/assistant"
	"supplyguard/internal/agents/logistics"
	"supplyguard/internal/agents/political"
	"supplyguard/internal/agents/reporting"
	"supplyguard/internal/agents/scheduler"
	"supplyguard/internal/agents/tariff"
	"supplyguard/internal/ai"
	"supplyguard/internal/common/aws"
	"supplyguard/internal/common/config"
	"supplyguard/internal/common/database"
	stderrors "supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/common/observability"
	"supplyguard/internal/intent"
	"supplyguard/internal/models"
	"supplyguard/internal/notify"
	"supplyguard/internal/orchestrator"
	"supplyguard/internal/storage"
	"supplyguard/pkg/registry"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting risk engine...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("risk-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Storage ---
	var store storage.Store
	healthDeps := map[string]orchestrator.HealthChecker{}

	if cfg.Database.Postgres.Host != "" {
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

		pgStore := storage.NewPostgresStore(pg, log)
		store = pgStore
		healthDeps["postgres"] = pingFunc(pg.Ping)

		if cfg.Database.Elasticsearch.GetURL() != "" {
			var esClient *database.ElasticsearchClient
			err = retryWithBackoff(func() error {
				var err error
				esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
				if err != nil {
					return err
				}
				return esClient.Ping()
			}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

			if err != nil {
				zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
			}
			zapLog.Info("Elasticsearch connected successfully")

			news := storage.NewNewsSearch(esClient, cfg.Database.Elasticsearch.NewsIndex, log)
			store = storage.NewCompositeStore(pgStore, news)
			healthDeps["elasticsearch"] = pingFunc(func(context.Context) error { return esClient.Ping() })
		}
	} else {
		zapLog.Warn("no postgres configured, falling back to in-memory store")
		store = storage.NewMemoryStore()
	}

	// --- Init Thread Archive (Redis) ---
	var archive *storage.ThreadArchive
	if cfg.Database.Redis.Address != "" {
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

		archive = storage.NewThreadArchive(redis, 24*time.Hour, log)
		healthDeps["redis"] = pingFunc(redis.Ping)
	}

	// --- Init AI Adapter ---
	var adapter *ai.Adapter
	if cfg.AI.BaseURL != "" {
		chat := ai.NewChatClient(ai.ChatClientConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
			Timeout:     config.GetDuration(cfg.AI.Timeout),
		}, log)

		client := ai.NewBreakerClient(chat, ai.BreakerSettings{
			MaxFailures:  uint32(cfg.AI.Breaker.MaxFailures),
			OpenInterval: config.GetDuration(cfg.AI.Breaker.OpenInterval),
		}, log)

		executor := ai.NewExecutor(cfg.AI.MaxConcurrent, config.GetDuration(cfg.AI.MaxQueueWait), log)

		adapter = ai.NewAdapter(client, executor, ai.AdapterConfig{
			Timeout:    config.GetDuration(cfg.AI.Timeout),
			MaxRetries: cfg.AI.MaxRetries,
			Bands: models.LevelBands{
				Medium:   cfg.Analysis.Bands.Medium,
				High:     cfg.Analysis.Bands.High,
				Critical: cfg.Analysis.Bands.Critical,
			},
		}, log)
		healthDeps["ai"] = pingFunc(func(ctx context.Context) error {
			if !adapter.Healthy(ctx) {
				return fmt.Errorf("ai provider unreachable")
			}
			return nil
		})
		zapLog.Info("AI adapter initialized", zap.String("model", cfg.AI.Model))
	} else {
		zapLog.Warn("no AI provider configured, running traditional analysis only")
	}

	// --- Init Alerting ---
	var alerter orchestrator.Alerter
	if cfg.Alerts.Enabled {
		var email notify.EmailClient
		var sms notify.SMSClient

		if cfg.Alerts.Email.Enabled {
			sesClient, err := aws.NewSESClient(ctx, cfg.Alerts.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client failed", zap.Error(err))
			}
			email = sesClient
		}
		if cfg.Alerts.SMS.Enabled {
			snsClient, err := aws.NewSNSClient(ctx, cfg.Alerts.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns client failed", zap.Error(err))
			}
			sms = snsClient
		}

		alerter = notify.NewNotifier(cfg.Alerts, email, sms, log)
		zapLog.Info("Critical risk alerting enabled",
			zap.Float64("scoreThreshold", cfg.Alerts.ScoreThreshold))
	}

	// --- Init Pipeline Registry ---
	reg := registry.Default()
	if cfg.Orchestrator.RegistryPath != "" {
		reg, err = registry.LoadRegistry(cfg.Orchestrator.RegistryPath)
		if err != nil {
			zapLog.Fatal("registry load failed", zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("registry validation failed", zap.Error(err))
	}

	// --- Init Agents ---
	agentList := []agents.Agent{}
	if config.IsAgentEnabled(cfg, "scheduler") {
		agentList = append(agentList, scheduler.NewHandler(scheduler.LoadConfig(), store, adapter, cfg.Analysis, log))
	}
	if config.IsAgentEnabled(cfg, "political") {
		agentList = append(agentList, political.NewHandler(political.LoadConfig(), store, adapter, cfg.Analysis, log))
	}
	if config.IsAgentEnabled(cfg, "logistics") {
		agentList = append(agentList, logistics.NewHandler(logistics.LoadConfig(), store, adapter, cfg.Analysis, log))
	}
	if config.IsAgentEnabled(cfg, "tariff") {
		agentList = append(agentList, tariff.NewHandler(tariff.LoadConfig(), store, adapter, cfg.Analysis, log))
	}
	if config.IsAgentEnabled(cfg, "assistant") {
		agentList = append(agentList, assistant.NewHandler(assistant.LoadConfig(), store, adapter, cfg.Analysis, log))
	}

	reportingCfg := reporting.LoadConfig()
	if cfg.Reporting.Prefer != "" {
		reportingCfg.Prefer = cfg.Reporting.Prefer
	}
	reporter := reporting.NewHandler(reportingCfg, cfg.Analysis, log)

	opts := orchestrator.Options{
		Classifier:   intent.NewClassifier(log),
		Registry:     reg,
		Agents:       agentList,
		Reporter:     reporter,
		Alerter:      alerter,
		Obs:          obs,
		AgentTimeout: config.GetDuration(config.GetAgentConfig(cfg, "default").Timeout),
		Overall:      config.GetDuration(cfg.Orchestrator.OverallTimeout),
	}
	if archive != nil {
		opts.Archive = archive
	}
	engine := orchestrator.New(opts, log)

	zapLog.Info("Risk engine initialized", zap.Int("agents", len(agentList)))

	// --- Metrics Server ---
	metricsPort := cfg.Server.MetricsPort
	if metricsPort == 0 {
		metricsPort = 9090
	}
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening", zap.Int("port", metricsPort))
		if err := http.ListenAndServe(fmt.Sprintf(":%d", metricsPort), nil); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// --- API Server ---
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var query models.Query
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil || query.Text == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "request body must carry a non-empty text field",
			})
			return
		}

		thread, err := engine.Process(r.Context(), query)
		if err != nil {
			status := http.StatusInternalServerError
			if stderrors.CodeOf(err) == stderrors.ErrCodeStorageUnavailable {
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, map[string]string{
				"error": err.Error(),
				"code":  string(stderrors.CodeOf(err)),
			})
			return
		}

		writeJSON(w, http.StatusOK, orchestrator.ResultFrom(thread))
	})

	mux.HandleFunc("/api/v1/capabilities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"agents": engine.Capabilities(),
		})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := engine.Health(checkCtx, healthDeps)
		code := http.StatusOK
		for _, v := range status {
			if v != "ok" {
				code = http.StatusServiceUnavailable
			}
		}
		status["time"] = time.Now().Format(time.RFC3339)
		writeJSON(w, code, status)
	})

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		zapLog.Info("API server listening", zap.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("API server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Risk engine stopped")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
