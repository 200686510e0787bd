// Package monitoring routes scans between live providers and demo data,
// persists their results and reports on them.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/database"
	"github.com/airadar/citation-bot/internal/demo"
	"github.com/airadar/citation-bot/internal/matcher"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/airadar/citation-bot/internal/notifications"
	"github.com/airadar/citation-bot/internal/scanner"
	"github.com/airadar/citation-bot/internal/scoring"
	"github.com/airadar/citation-bot/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Reasons reported with demo outcomes
const (
	ReasonNoProviders        = "no_providers_configured"
	ReasonAllProvidersFailed = "all_providers_failed"
)

const recentScanLimit = 20

// historyWeeks bounds the stored history read for trends and dashboard scores
const historyWeeks = demo.TrendPeriods

var ErrRunInProgress = errors.New("a monitoring run is already in progress")

// ScanRequest asks for one keyword to be scanned for brands.
// The first brand is the focal brand.
type ScanRequest struct {
	Keyword string         `json:"keyword"`
	Brands  []string       `json:"brands"`
	Cadence models.Cadence `json:"cadence"`
}

// Service handles citation scans, history and reporting
type Service struct {
	config   *config.Config
	scanner  *scanner.Scanner
	store    database.Store
	archive  *storage.Archiver
	notifier notifications.Notifier
	demo     *demo.Generator
	metrics  *Metrics
	mu       sync.RWMutex
	runMu    sync.Mutex
}

// Metrics holds monitoring metrics
type Metrics struct {
	LastRun          time.Time               `json:"last_run"`
	LastRunDuration  string                  `json:"last_run_duration"`
	TotalScans       int                     `json:"total_scans"`
	ProviderSuccess  map[models.Provider]int `json:"provider_success"`
	ProviderFailures map[models.Provider]int `json:"provider_failures"`
	DemoFallbacks    int                     `json:"demo_fallbacks"`
	AlertsSent       int                     `json:"alerts_sent"`
	ErrorCount       int                     `json:"error_count"`
}

// NewService creates a new monitoring service. archive may be nil.
func NewService(cfg *config.Config, sc *scanner.Scanner, store database.Store, archive storage.Store, notifier notifications.Notifier) *Service {
	s := &Service{
		config:   cfg,
		scanner:  sc,
		store:    store,
		notifier: notifier,
		demo:     demo.NewGenerator(nil),
		metrics: &Metrics{
			ProviderSuccess:  make(map[models.Provider]int),
			ProviderFailures: make(map[models.Provider]int),
		},
	}
	if archive != nil {
		s.archive = storage.NewArchiver(archive)
	}
	return s
}

// Availability reports which providers have credentials
func (s *Service) Availability() map[models.Provider]bool {
	return s.scanner.Availability()
}

// Diagnose runs a single-prompt health check against every provider
func (s *Service) Diagnose(ctx context.Context, keyword string, brands []string) (*scanner.Diagnosis, error) {
	if len(matcher.Normalize(brands)) == 0 {
		brands = s.config.Brands
	}
	return s.scanner.Diagnose(ctx, keyword, brands)
}

// Scan runs a live scan and falls back to demo data when no provider can
// answer. Invalid input is the only error.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (models.Outcome, error) {
	outcome, _, err := s.scan(ctx, req)
	return outcome, err
}

// scan also reports whether the trends come from stored history
func (s *Service) scan(ctx context.Context, req ScanRequest) (models.Outcome, bool, error) {
	keyword := strings.TrimSpace(req.Keyword)
	brands := matcher.Normalize(req.Brands)
	cadence := req.Cadence
	if cadence == "" {
		cadence = models.CadenceFull
	}

	if _, err := scanner.GeneratePrompts(keyword, cadence); err != nil {
		return nil, false, err
	}
	if len(brands) == 0 {
		return nil, false, scanner.ErrNoBrands
	}

	if !s.scanner.AnyAvailable() {
		logrus.Warnf("No provider credentials configured, serving demo data for %q", keyword)
		outcome, err := s.fallback(brands, keyword, ReasonNoProviders)
		return outcome, false, err
	}

	if s.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ScanTimeout)
		defer cancel()
	}

	start := time.Now()
	results, err := s.scanner.RunScan(ctx, keyword, brands, cadence)
	if err != nil {
		return nil, false, err
	}
	s.recordScan(results)

	if usable(results) == 0 {
		logrus.Warnf("Every provider call failed for %q, serving demo data", keyword)
		outcome, err := s.fallback(brands, keyword, ReasonAllProvidersFailed)
		return outcome, false, err
	}

	s.persist(ctx, keyword, cadence, results, start)

	scores := scoring.ComputeScores(results, brands, scoring.WithCandidates(demo.Lookup(keyword)))
	trends, historical := s.trends(ctx, keyword, brands, scores, start)

	return models.Live{Bundle: models.Bundle{
		Keyword:      keyword,
		Scores:       scoring.ApplyTrendDeltas(scores, trends),
		Trends:       trends,
		LLMBreakdown: scoring.ComputeProviderBreakdown(results, brands[0]),
		Scans:        results,
	}}, historical, nil
}

// Demo generates sample data on request
func (s *Service) Demo(ctx context.Context, brand string, competitors []string, keyword string) (models.Bundle, error) {
	return s.demo.Generate(brand, competitors, keyword)
}

func (s *Service) fallback(brands []string, keyword, reason string) (models.Outcome, error) {
	bundle, err := s.demo.Generate(brands[0], brands[1:], keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to generate demo data: %w", err)
	}

	s.mu.Lock()
	s.metrics.DemoFallbacks++
	s.mu.Unlock()

	return models.Demo{Bundle: bundle, Reason: reason}, nil
}

// persist stores the batch in the database and the archive. Failures are
// logged; the scan itself still succeeds.
func (s *Service) persist(ctx context.Context, keyword string, cadence models.Cadence, results []models.ScanResult, at time.Time) {
	if s.store != nil {
		if _, err := s.store.SaveScans(ctx, keyword, results, at); err != nil {
			logrus.Errorf("Failed to store scan results for %q: %v", keyword, err)
			s.countError()
		}
	}

	if s.archive != nil {
		batch := storage.ScanBatch{Keyword: keyword, Cadence: cadence, CreatedAt: at, Results: results}
		if _, err := s.archive.ArchiveScan(ctx, batch); err != nil {
			logrus.Errorf("Failed to archive scan batch for %q: %v", keyword, err)
			s.countError()
		}
	}
}

// trends uses stored history when it spans at least two weeks, otherwise
// synthetic points around the current scores.
func (s *Service) trends(ctx context.Context, keyword string, brands []string, scores []models.BrandScore, now time.Time) ([]models.TrendPoint, bool) {
	if s.store != nil {
		history, err := s.store.ListScans(ctx, database.ScanFilter{Keyword: keyword, Since: historyStart(now)})
		if err != nil {
			logrus.Warnf("Failed to load scan history for %q: %v", keyword, err)
		} else if trends := scoring.ComputeTrends(history, brands); len(trends) >= 2 {
			return trends, true
		}
	}
	return s.demo.Trends(scores, now), false
}

// historyStart returns the Monday opening the oldest week of the history window
func historyStart(now time.Time) time.Time {
	return scoring.WeekStart(now).AddDate(0, 0, -7*(historyWeeks-1))
}

// Dashboard summarises stored scans for brands, defaulting to the configured
// brands. Scores and trends cover the last historyWeeks weeks; TotalScans
// counts every stored record.
func (s *Service) Dashboard(ctx context.Context, brands []string) (*models.Dashboard, error) {
	brands = matcher.Normalize(brands)
	if len(brands) == 0 {
		brands = matcher.Normalize(s.config.Brands)
	}

	dashboard := &models.Dashboard{
		Scores:       []models.BrandScore{},
		Trends:       []models.TrendPoint{},
		LLMBreakdown: []models.ProviderBreakdown{},
		RecentScans:  []models.ScanRecord{},
	}
	if len(brands) > 0 {
		dashboard.FocalBrand = brands[0]
	}
	if s.store == nil {
		return dashboard, nil
	}

	total, err := s.store.CountScans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	if total == 0 {
		return dashboard, nil
	}
	dashboard.TotalScans = total

	records, err := s.store.ListScans(ctx, database.ScanFilter{Since: historyStart(time.Now())})
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}

	results := make([]models.ScanResult, len(records))
	for i, rec := range records {
		results[i] = rec.ScanResult
	}

	trends := scoring.ComputeTrends(records, brands)
	dashboard.Scores = scoring.ApplyTrendDeltas(scoring.ComputeScores(results, brands), trends)
	dashboard.Trends = trends
	dashboard.LLMBreakdown = scoring.ComputeProviderBreakdown(results, dashboard.FocalBrand)

	recent, err := s.store.ListScans(ctx, database.ScanFilter{Limit: recentScanLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent scans: %w", err)
	}
	if recent != nil {
		dashboard.RecentScans = recent
	}

	return dashboard, nil
}

// RestoreHistory replays archived scan batches into an empty database and
// returns the number of records restored.
func (s *Service) RestoreHistory(ctx context.Context) (int, error) {
	if s.store == nil || s.archive == nil {
		return 0, nil
	}

	count, err := s.store.CountScans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	batches, err := s.archive.LoadScans(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to load archived scans: %w", err)
	}

	restored := 0
	for _, batch := range batches {
		records, err := s.store.SaveScans(ctx, batch.Keyword, batch.Results, batch.CreatedAt)
		if err != nil {
			return restored, fmt.Errorf("failed to restore %q batch from %s: %w", batch.Keyword, batch.CreatedAt.Format(time.RFC3339), err)
		}
		restored += len(records)
	}

	return restored, nil
}

// RunMonitoring scans every configured keyword, then reports and alerts on
// the results.
func (s *Service) RunMonitoring(cadence models.Cadence) error {
	if !s.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer s.runMu.Unlock()

	start := time.Now()
	logrus.Infof("Starting %s monitoring run over %d keywords", cadence, len(s.config.Keywords))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var errs []string
	for _, keyword := range s.config.Keywords {
		if err := s.monitorKeyword(ctx, keyword, cadence); err != nil {
			logrus.Errorf("Monitoring failed for %q: %v", keyword, err)
			errs = append(errs, fmt.Sprintf("%s: %v", keyword, err))
			s.countError()
		}
	}

	s.mu.Lock()
	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = time.Since(start).String()
	s.mu.Unlock()

	logrus.Infof("Monitoring run completed in %v", time.Since(start))

	if len(errs) > 0 {
		return fmt.Errorf("monitoring errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *Service) monitorKeyword(ctx context.Context, keyword string, cadence models.Cadence) error {
	outcome, historical, err := s.scan(ctx, ScanRequest{Keyword: keyword, Brands: s.config.Brands, Cadence: cadence})
	if err != nil {
		return err
	}

	period := s.config.ReportSchedule
	if cadence == models.CadenceLite {
		period = string(models.CadenceLite)
	}
	report := BuildReport(outcome, period, s.config.FocalBrand(), time.Now())

	if s.archive != nil {
		if _, err := s.archive.ArchiveReport(ctx, report); err != nil {
			logrus.Warnf("Failed to archive report for %q: %v", keyword, err)
		}
	}

	if err := s.notifier.SendReport(ctx, report); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}

	if !historical {
		return nil
	}
	if alert := s.citationDrop(report); alert != nil {
		if err := s.notifier.SendAlert(ctx, alert); err != nil {
			return fmt.Errorf("failed to send alert: %w", err)
		}
		s.mu.Lock()
		s.metrics.AlertsSent++
		s.mu.Unlock()
	}
	return nil
}

// BuildReport wraps an outcome into a report for the focal brand
func BuildReport(outcome models.Outcome, period, focal string, at time.Time) *models.Report {
	report := &models.Report{
		GeneratedAt: at.UTC(),
		Period:      period,
		FocalBrand:  focal,
		Mode:        "live",
		Bundle:      outcome.Result(),
	}
	report.Keyword = report.Bundle.Keyword

	if d, ok := outcome.(models.Demo); ok {
		report.Mode = "demo"
		report.Reason = d.Reason
	}
	return report
}

// citationDrop returns an alert when the focal brand lost at least
// AlertDropThreshold points against the previous period. Demo reports never
// alert.
func (s *Service) citationDrop(report *models.Report) *models.Alert {
	threshold := s.config.AlertDropThreshold
	if threshold <= 0 || report.Mode != "live" {
		return nil
	}

	for _, score := range report.Bundle.Scores {
		if !strings.EqualFold(score.Brand, report.FocalBrand) || score.Trend > -threshold {
			continue
		}

		alertType := "urgent"
		if score.Trend <= -2*threshold {
			alertType = "critical"
		}
		return &models.Alert{
			ID:        uuid.New().String(),
			Type:      alertType,
			Title:     fmt.Sprintf("%s citation score dropped %d points", score.Brand, -score.Trend),
			Message:   fmt.Sprintf("%s is now cited in %d%% of AI answers for %q (%d/%d)", score.Brand, score.Score, report.Keyword, score.Mentions, score.Total),
			Brand:     score.Brand,
			Keyword:   report.Keyword,
			CreatedAt: report.GeneratedAt,
		}
	}
	return nil
}

func (s *Service) recordScan(results []models.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalScans++
	for _, r := range results {
		if r.OK() {
			s.metrics.ProviderSuccess[r.Provider]++
		} else {
			s.metrics.ProviderFailures[r.Provider]++
		}
	}
}

func (s *Service) countError() {
	s.mu.Lock()
	s.metrics.ErrorCount++
	s.mu.Unlock()
}

func usable(results []models.ScanResult) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
