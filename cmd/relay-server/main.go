/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for RelayAgent server
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/cmd/relay-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/api"
	"github.com/relaybot/RelayAgent/internal/completion"
	"github.com/relaybot/RelayAgent/internal/config"
	"github.com/relaybot/RelayAgent/internal/consumer"
	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/delivery"
	"github.com/relaybot/RelayAgent/internal/llm"
	"github.com/relaybot/RelayAgent/internal/metrics"
	"github.com/relaybot/RelayAgent/internal/telemetry"
	"github.com/relaybot/RelayAgent/internal/workflow"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		configPath     = flag.String("c", "", "Path to configuration file")
		configPathLong = flag.String("config", "", "Path to configuration file")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "RelayAgent Server - conversational action orchestration engine\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    Start server with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml     Start server with custom config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nConfiguration:\n")
		fmt.Fprintf(os.Stderr, "  - Command line flag: -c or --config\n")
		fmt.Fprintf(os.Stderr, "  - Environment variable: CONFIG_PATH\n")
		fmt.Fprintf(os.Stderr, "  - RELAYAGENT_* environment variables (see config package)\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("relay-server version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}

	/* Load configuration */
	cfg := config.DefaultConfig()
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *configPathLong
	}
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v, using defaults\n", err)
		}
	} else {
		config.LoadFromEnv(cfg)
	}

	/* Initialize logging */
	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	database, err := db.NewDBWithRetry(cfg.Database.ConnString(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, 5, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Connection: host=%s port=%d user=%s dbname=%s\n",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database)
		os.Exit(1)
	}
	defer database.Close()

	queries := db.NewQueries(database.DB)

	/* Initialize action layer */
	dispatcher := actions.NewDispatcher(queries, cfg.Orchestrator.ActionTimeout)
	bridge := actions.NewHTTPBridgeExecutor(&http.Client{Timeout: cfg.Orchestrator.ActionTimeout})
	for _, binding := range allBindings() {
		dispatcher.RegisterExecutor(binding.Type, binding.Provider, bridge)
	}

	/* Initialize workflow layer */
	catalog := workflow.NewCatalog()
	matcher := workflow.NewMatcher(catalog)
	executor := workflow.NewExecutor(dispatcher, cfg.Orchestrator.StepBackoffBase)
	runner := workflow.NewRunner(matcher, executor, queries)

	/* Initialize completion loop */
	llmTimeout := cfg.LLM.Timeout
	if llmTimeout <= 0 {
		llmTimeout = llm.DefaultTimeout
	}
	var client llm.Client
	if cfg.LLM.BaseURL != "" {
		client = llm.NewOpenAIClientWithBaseURL(cfg.LLM.APIKey, cfg.LLM.BaseURL, llmTimeout)
	} else {
		client = llm.NewOpenAIClient(cfg.LLM.APIKey, llmTimeout)
	}
	loop := completion.NewLoop(client, dispatcher, queries,
		delivery.NewDBQueue(queries), telemetry.NewSink(queries), nil,
		cfg.Orchestrator.MaxRecursionDepth, cfg.Orchestrator.KnowledgeTopK,
		cfg.Orchestrator.ChunkMaxChars, cfg.Orchestrator.ToolResultMaxChars)

	/* Setup router */
	handlers := api.NewHandlers(queries, dispatcher, matcher, catalog)
	router := mux.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecoveryMiddleware)
	router.Use(api.CORSMiddleware)
	router.Use(api.SecurityHeadersMiddleware)
	router.Use(api.LoggingMiddleware)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	handlers.Register(apiRouter)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	/* Start background workers */
	turns := consumer.NewConsumer(queries, runner, loop,
		cfg.Worker.Workers, cfg.Orchestrator.HistoryWindow)
	turns.Start()
	defer turns.Stop()

	asyncWorker := actions.NewAsyncWorker(queries, dispatcher, cfg.Worker.Workers, cfg.Worker.PollInterval)
	asyncWorker.Start()
	defer asyncWorker.Stop()

	/* Start server */
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		fmt.Printf("Server starting on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed to start on %s: %v\n", addr, err)
			os.Exit(1)
		}
	}()

	/* Wait for interrupt signal */
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("Server forced to shutdown: %v\n", err)
	}

	fmt.Println("Server exited")
}

/* allBindings enumerates the distinct type/provider pairs of the tool
 * registry so the bridge executor covers every mapped tool */
func allBindings() []actions.Binding {
	seen := map[actions.Binding]bool{}
	var bindings []actions.Binding
	for _, name := range actions.AllToolNames() {
		binding, _ := actions.Resolve(name)
		key := actions.Binding{Type: binding.Type, Provider: binding.Provider}
		if !seen[key] {
			seen[key] = true
			bindings = append(bindings, key)
		}
	}
	return bindings
}
