// Package api exposes scans, demo data, diagnostics and the dashboard over HTTP.
package api

import (
	"net/http"

	"github.com/airadar/citation-bot/internal/monitoring"
	"github.com/gorilla/mux"
)

// NewRouter wires every route. demoRateLimit bounds the public demo
// endpoint per client and minute.
func NewRouter(service *monitoring.Service, demoRateLimit int) http.Handler {
	h := NewHandler(service)

	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, LoggingMiddleware)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/metrics", h.Metrics).Methods(http.MethodGet)
	router.HandleFunc("/trigger", h.Trigger).Methods(http.MethodPost)

	router.HandleFunc("/api/availability", h.Availability).Methods(http.MethodGet)
	router.HandleFunc("/api/scan", h.Scan).Methods(http.MethodPost)
	router.HandleFunc("/api/test-scan", h.TestScan).Methods(http.MethodGet)
	router.HandleFunc("/api/dashboard", h.Dashboard).Methods(http.MethodGet)

	demoHandler := http.Handler(http.HandlerFunc(h.Demo))
	if demoRateLimit > 0 {
		demoHandler = RateLimitMiddleware(demoRateLimit)(demoHandler)
	}
	router.Handle("/api/scan/demo", demoHandler).Methods(http.MethodPost)

	return router
}
