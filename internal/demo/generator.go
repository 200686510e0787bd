// Package demo produces synthetic scan bundles with the same shape as a
// live scan, for use when no provider can answer.
package demo

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/airadar/citation-bot/internal/matcher"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/airadar/citation-bot/internal/scanner"
	"github.com/airadar/citation-bot/internal/scoring"
)

// TrendPeriods is the number of weekly points in a synthetic trend series
const TrendPeriods = 8

const (
	minMentioned = 3
	maxMentioned = 6
	trendNoise   = 10
)

var ErrMissingInput = errors.New("brand and keyword are required")

// Generator builds demo bundles. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	catalog *Catalog
	now     func() time.Time
}

// NewGenerator creates a generator drawing from rng. A nil rng is seeded
// from the clock.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		rng:     rng,
		catalog: defaultCatalog,
		now:     time.Now,
	}
}

// Generate fabricates a full-cadence scan for brand and its competitors and
// scores it with the same functions used for live scans.
func (g *Generator) Generate(brand string, competitors []string, keyword string) (models.Bundle, error) {
	brand = strings.TrimSpace(brand)
	keyword = strings.TrimSpace(keyword)
	if brand == "" || keyword == "" {
		return models.Bundle{}, ErrMissingInput
	}

	prompts, err := scanner.GeneratePrompts(keyword, models.CadenceFull)
	if err != nil {
		return models.Bundle{}, fmt.Errorf("failed to build demo prompts: %w", err)
	}

	known := g.catalog.Lookup(keyword)
	tracked := matcher.Normalize(append([]string{brand}, competitors...))
	pool := matcher.Normalize(append(append([]string{}, tracked...), known...))

	g.mu.Lock()
	defer g.mu.Unlock()

	scans := make([]models.ScanResult, 0, len(prompts)*len(models.Providers()))
	for _, prompt := range prompts {
		for _, provider := range models.Providers() {
			mentioned := g.pick(pool)
			response := fmt.Sprintf("Based on current recommendations, the top %s include %s.", keyword, strings.Join(mentioned, ", "))
			scans = append(scans, models.Succeeded(provider, prompt, response, mentioned))
		}
	}

	scores := scoring.ComputeScores(scans, tracked, scoring.WithCandidates(known))
	trends := SyntheticTrends(scores, TrendPeriods, g.now(), g.rng)

	return models.Bundle{
		Keyword:      keyword,
		Scores:       scoring.ApplyTrendDeltas(scores, trends),
		Trends:       trends,
		LLMBreakdown: scoring.ComputeProviderBreakdown(scans, brand),
		Scans:        scans,
	}, nil
}

// Trends fabricates TrendPeriods weekly points ending now around scores,
// for one-shot scans that have no stored history.
func (g *Generator) Trends(scores []models.BrandScore, now time.Time) []models.TrendPoint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return SyntheticTrends(scores, TrendPeriods, now, g.rng)
}

// pick draws a uniform random subset of 3-6 brands, bounded by the pool
func (g *Generator) pick(pool []string) []string {
	n := minMentioned + g.rng.Intn(maxMentioned-minMentioned+1)
	if n > len(pool) {
		n = len(pool)
	}

	picked := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(pool))[:n] {
		picked = append(picked, pool[i])
	}
	return picked
}

// SyntheticTrends fabricates periods weekly points ending at now. Earlier
// points perturb each score by up to ±10 within 0..100; the last point is
// the score itself.
func SyntheticTrends(scores []models.BrandScore, periods int, now time.Time, rng *rand.Rand) []models.TrendPoint {
	if periods <= 0 {
		return []models.TrendPoint{}
	}

	trends := make([]models.TrendPoint, 0, periods)
	for i := periods - 1; i >= 0; i-- {
		point := models.TrendPoint{
			Date:   now.AddDate(0, 0, -7*i).Format(scoring.DateLayout),
			Scores: make(map[string]int, len(scores)),
		}
		for _, s := range scores {
			if i == 0 {
				point.Scores[s.Brand] = s.Score
				continue
			}
			point.Scores[s.Brand] = clamp(s.Score + rng.Intn(2*trendNoise+1) - trendNoise)
		}
		trends = append(trends, point)
	}
	return trends
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
