// Package scanner fans prompts out to every provider and collects the results.
package scanner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/matcher"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/airadar/citation-bot/internal/providers"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyKeyword = errors.New("keyword is required")
	ErrEmptyPrompt  = errors.New("prompt is required")
	ErrNoBrands     = errors.New("at least one brand is required")
)

// Scanner drives prompts against all providers concurrently
type Scanner struct {
	providers       []providers.Provider
	providerTimeout time.Duration
}

// New creates a scanner. Results are reported in the order of ps.
func New(ps []providers.Provider, providerTimeout time.Duration) *Scanner {
	return &Scanner{
		providers:       ps,
		providerTimeout: providerTimeout,
	}
}

// RunScan asks every provider every prompt of the cadence. Provider failures
// are part of the returned results; only invalid input yields an error.
func (s *Scanner) RunScan(ctx context.Context, keyword string, brands []string, cadence models.Cadence) ([]models.ScanResult, error) {
	prompts, err := GeneratePrompts(keyword, cadence)
	if err != nil {
		return nil, err
	}

	brands = matcher.Normalize(brands)
	if len(brands) == 0 {
		return nil, ErrNoBrands
	}

	start := time.Now()
	logrus.Infof("Starting %s scan for %q: %d prompts x %d providers", cadence, keyword, len(prompts), len(s.providers))

	var results []models.ScanResult
	if cadence == models.CadenceLite {
		// every call at once for minimum latency
		results = s.fanOut(ctx, prompts, brands)
	} else {
		for _, prompt := range prompts {
			results = append(results, s.fanOut(ctx, []string{prompt}, brands)...)
		}
	}

	usable := 0
	for _, r := range results {
		if r.OK() {
			usable++
		}
	}
	logrus.Infof("Scan for %q completed in %v: %d/%d usable results", keyword, time.Since(start), usable, len(results))

	return results, nil
}

// ScanOnce runs a single caller-supplied prompt against every provider
func (s *Scanner) ScanOnce(ctx context.Context, prompt string, brands []string) ([]models.ScanResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	brands = matcher.Normalize(brands)
	if len(brands) == 0 {
		return nil, ErrNoBrands
	}
	return s.fanOut(ctx, []string{prompt}, brands), nil
}

// fanOut issues every prompt x provider call concurrently and waits for all
// of them. Slot i*len(providers)+j holds prompt i answered by provider j.
func (s *Scanner) fanOut(ctx context.Context, prompts []string, brands []string) []models.ScanResult {
	results := make([]models.ScanResult, len(prompts)*len(s.providers))

	// Adapters never fail the group, so one provider cannot cancel another
	var g errgroup.Group
	for i, prompt := range prompts {
		for j, provider := range s.providers {
			slot, prompt, provider := i*len(s.providers)+j, prompt, provider
			g.Go(func() error {
				callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
				defer cancel()
				results[slot] = provider.Scan(callCtx, prompt, brands)
				return nil
			})
		}
	}
	_ = g.Wait()

	return results
}

// IsAvailable reports whether a credential is configured for provider
func (s *Scanner) IsAvailable(provider models.Provider) bool {
	for _, p := range s.providers {
		if p.Name() == provider {
			return p.IsAvailable()
		}
	}
	return false
}

// Availability reports credential presence for every known provider
func (s *Scanner) Availability() map[models.Provider]bool {
	status := make(map[models.Provider]bool, len(models.Providers()))
	for _, name := range models.Providers() {
		status[name] = s.IsAvailable(name)
	}
	return status
}

// AnyAvailable reports whether at least one provider has a credential
func (s *Scanner) AnyAvailable() bool {
	for _, p := range s.providers {
		if p.IsAvailable() {
			return true
		}
	}
	return false
}
