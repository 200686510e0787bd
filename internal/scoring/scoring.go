// Package scoring turns scan results into citation scores, per-provider
// breakdowns and weekly trends. Every function is pure.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/airadar/citation-bot/internal/matcher"
	"github.com/airadar/citation-bot/internal/models"
)

// DateLayout is the date format of trend points
const DateLayout = "2006-01-02"

// Option configures ComputeScores
type Option func(*options)

type options struct {
	candidates []string
}

// WithCandidates lets ComputeScores report brands that were not requested but
// that usable responses mention anyway.
func WithCandidates(names []string) Option {
	return func(o *options) {
		o.candidates = names
	}
}

// Round converts mentions/total into a 0-100 percentage, rounding half away
// from zero. A zero total yields 0.
func Round(mentions, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(mentions) / float64(total)))
}

// ComputeScores scores every requested brand over the usable results, sorted
// by score descending with ties kept in request order. Discovered brands are
// appended after the requested ones.
func ComputeScores(results []models.ScanResult, brands []string, opts ...Option) []models.BrandScore {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	usable := usableResults(results)
	requested := matcher.Normalize(brands)

	scores := make([]models.BrandScore, 0, len(requested))
	for _, brand := range requested {
		mentions := 0
		for _, r := range usable {
			if matcher.Contains(r.BrandsFound, brand) {
				mentions++
			}
		}
		scores = append(scores, brandScore(brand, mentions, len(usable)))
	}
	sortScores(scores)

	return append(scores, discover(usable, requested, o.candidates)...)
}

func discover(usable []models.ScanResult, requested, candidates []string) []models.BrandScore {
	var unrequested []string
	for _, brand := range matcher.Normalize(candidates) {
		if !matcher.Contains(requested, brand) {
			unrequested = append(unrequested, brand)
		}
	}
	if len(unrequested) == 0 {
		return nil
	}

	m := matcher.New(unrequested)
	mentions := make(map[string]int, len(unrequested))
	for _, r := range usable {
		for _, brand := range m.Find(r.Response) {
			mentions[brand]++
		}
	}

	var found []models.BrandScore
	for _, brand := range unrequested {
		if mentions[brand] == 0 {
			continue
		}
		score := brandScore(brand, mentions[brand], len(usable))
		score.Discovered = true
		found = append(found, score)
	}
	sortScores(found)
	return found
}

// ComputeProviderBreakdown scores focal on each provider in reporting order
func ComputeProviderBreakdown(results []models.ScanResult, focal string) []models.ProviderBreakdown {
	breakdown := make([]models.ProviderBreakdown, 0, len(models.Providers()))

	for _, provider := range models.Providers() {
		var total, mentions int
		hasError := false

		for _, r := range results {
			if r.Provider != provider {
				continue
			}
			if !r.OK() {
				if r.Failure.Kind == models.FailureError {
					hasError = true
				}
				continue
			}
			total++
			if matcher.Contains(r.BrandsFound, focal) {
				mentions++
			}
		}

		status := models.StatusOK
		if total == 0 {
			status = models.StatusNoKey
			if hasError {
				status = models.StatusError
			}
		}

		breakdown = append(breakdown, models.ProviderBreakdown{
			Provider: provider,
			Score:    Round(mentions, total),
			Mentions: mentions,
			Total:    total,
			Status:   status,
		})
	}

	return breakdown
}

// WeekStart returns midnight of the Monday starting t's week, in t's location
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

// ComputeTrends buckets persisted records into Monday-anchored weeks and
// scores each brand per week. Points are in ascending date order.
func ComputeTrends(records []models.ScanRecord, brands []string) []models.TrendPoint {
	brands = matcher.Normalize(brands)

	type bucket struct {
		start    time.Time
		usable   int
		mentions map[string]int
	}
	buckets := make(map[string]*bucket)

	for _, rec := range records {
		if !rec.OK() {
			continue
		}
		start := WeekStart(rec.CreatedAt)
		key := start.Format(DateLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{start: start, mentions: make(map[string]int, len(brands))}
			buckets[key] = b
		}
		b.usable++
		for _, brand := range brands {
			if matcher.Contains(rec.BrandsFound, brand) {
				b.mentions[brand]++
			}
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	trends := make([]models.TrendPoint, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		point := models.TrendPoint{Date: key, Scores: make(map[string]int, len(brands))}
		for _, brand := range brands {
			point.Scores[brand] = Round(b.mentions[brand], b.usable)
		}
		trends = append(trends, point)
	}

	return trends
}

// ApplyTrendDeltas returns a copy of scores whose Trend is the change between
// the last two trend points. With fewer than two points every delta is 0.
func ApplyTrendDeltas(scores []models.BrandScore, trends []models.TrendPoint) []models.BrandScore {
	out := make([]models.BrandScore, len(scores))
	copy(out, scores)

	if len(trends) < 2 {
		for i := range out {
			out[i].Trend = 0
		}
		return out
	}

	last, prev := trends[len(trends)-1], trends[len(trends)-2]
	for i := range out {
		out[i].Trend = last.Scores[out[i].Brand] - prev.Scores[out[i].Brand]
	}
	return out
}

func usableResults(results []models.ScanResult) []models.ScanResult {
	usable := make([]models.ScanResult, 0, len(results))
	for _, r := range results {
		if r.OK() {
			usable = append(usable, r)
		}
	}
	return usable
}

func brandScore(brand string, mentions, total int) models.BrandScore {
	return models.BrandScore{
		Brand:    brand,
		Score:    Round(mentions, total),
		Mentions: mentions,
		Total:    total,
	}
}

func sortScores(scores []models.BrandScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
}
