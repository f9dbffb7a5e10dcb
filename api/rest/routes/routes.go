package routes

import (
	"content-orchestrator/api/rest/handlers"
	"content-orchestrator/core/executor"
	"content-orchestrator/core/monitoring"
	"content-orchestrator/core/tracker"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, tr *tracker.Tracker, exec *executor.Executor, collector *monitoring.Collector, log *logrus.Logger) {
	jobHandler := handlers.NewJobHandler(tr, exec, log)
	dashboardHandler := handlers.NewDashboardHandler(collector)

	api := r.PathPrefix("/v1").Subrouter()

	// Job endpoints
	api.HandleFunc("/jobs", jobHandler.SubmitJob).Methods("POST")
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}/cancel", jobHandler.CancelJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/events", jobHandler.GetJobEvents).Methods("GET")

	// Dashboard endpoints
	api.HandleFunc("/dashboard/stats", dashboardHandler.GetStats).Methods("GET")
	r.HandleFunc("/metrics", dashboardHandler.GetMetrics).Methods("GET")
}
