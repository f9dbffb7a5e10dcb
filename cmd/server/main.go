package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"content-orchestrator/api/rest/routes"
	"content-orchestrator/config"
	"content-orchestrator/core/executor"
	"content-orchestrator/core/monitoring"
	"content-orchestrator/core/repository"
	"content-orchestrator/core/tracker"
	"content-orchestrator/core/workflow"
	"content-orchestrator/logging"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.GetLogger().Fatalf("Failed to load configuration: %v", err)
	}
	logging.SetLevel(cfg.LogLevel)
	log := logging.GetLogger()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize storage; an empty DATABASE_URL keeps jobs in memory only
	var store tracker.Store
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		store = repository.NewJobStore(db)
		log.Info("Database connected successfully")
	} else {
		log.Warn("No DATABASE_URL configured, jobs will not survive a restart")
	}

	// Initialize tracker and rehydrate persisted jobs
	jobTracker := tracker.New(store, log)
	restored, err := jobTracker.Restore(ctx)
	if err != nil {
		log.Fatalf("Failed to restore jobs: %v", err)
	}
	if restored > 0 {
		log.Infof("Restored %d jobs from storage", restored)
	}

	// Initialize executor with the built-in content pipelines
	exec := executor.New(jobTracker, workflow.DefaultRegistry(), cfg.Workers, cfg.JobTimeout, log)
	exec.Start(ctx)
	defer exec.Stop()
	exec.RestorePending()

	// Initialize monitoring
	collector := monitoring.NewCollector(jobTracker, exec.QueueDepth)
	monitor := monitoring.NewMonitor(collector, cfg.MonitorInterval, log)
	go monitor.Start(ctx)

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, jobTracker, exec, collector, log)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Infof("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	stop()
	log.Info("Server exited")
}
