package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/demo"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/airadar/citation-bot/internal/monitoring"
	"github.com/airadar/citation-bot/internal/scanner"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

const (
	defaultTestKeyword = "project management tools"
	defaultTestBrands  = "Notion,Asana,Monday.com,ClickUp,Trello,Jira"
)

// Handler serves the HTTP API
type Handler struct {
	service *monitoring.Service
}

// NewHandler creates a handler backed by service
func NewHandler(service *monitoring.Service) *Handler {
	return &Handler{service: service}
}

// ScanResponse is a scan bundle tagged with its provenance
type ScanResponse struct {
	models.Bundle
	Mode   string `json:"mode"`
	Reason string `json:"reason,omitempty"`
}

type scanBody struct {
	Keyword string   `json:"keyword"`
	Brands  []string `json:"brands"`
	Cadence string   `json:"cadence"`
}

type demoBody struct {
	Brand       string   `json:"brand"`
	Competitors []string `json:"competitors"`
	Keyword     string   `json:"keyword"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Metrics handles GET /metrics
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.service.GetMetrics()))
}

// Availability handles GET /api/availability
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Availability())
}

// Scan handles POST /api/scan
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var body scanBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cadence, err := scanner.ParseCadence(body.Cadence)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.service.Scan(r.Context(), monitoring.ScanRequest{
		Keyword: body.Keyword,
		Brands:  body.Brands,
		Cadence: cadence,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ScanResponse{Bundle: outcome.Result(), Mode: "live"}
	if d, ok := outcome.(models.Demo); ok {
		resp.Mode = "demo"
		resp.Reason = d.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

// Demo handles POST /api/scan/demo
func (h *Handler) Demo(w http.ResponseWriter, r *http.Request) {
	var body demoBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bundle, err := h.service.Demo(r.Context(), body.Brand, body.Competitors, body.Keyword)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// TestScan handles GET /api/test-scan
func (h *Handler) TestScan(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if strings.TrimSpace(keyword) == "" {
		keyword = defaultTestKeyword
	}
	brands := splitList(r.URL.Query().Get("brands"))
	if len(brands) == 0 {
		brands = splitList(defaultTestBrands)
	}

	diagnosis, err := h.service.Diagnose(r.Context(), keyword, brands)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diagnosis)
}

// Dashboard handles GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context(), splitList(r.URL.Query().Get("brands")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// Trigger handles POST /trigger and runs a monitoring pass in the background
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	cadence, err := scanner.ParseCadence(r.URL.Query().Get("cadence"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	go func() {
		if err := h.service.RunMonitoring(cadence); err != nil {
			logrus.Errorf("Manual monitoring trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Monitoring triggered successfully",
		"cadence": string(cadence),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scanner.ErrEmptyKeyword),
		errors.Is(err, scanner.ErrEmptyPrompt),
		errors.Is(err, scanner.ErrNoBrands),
		errors.Is(err, demo.ErrMissingInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logrus.Errorf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
