package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Provider identifies one of the LLM services that get queried
type Provider string

const (
	ProviderChatGPT    Provider = "chatgpt"
	ProviderPerplexity Provider = "perplexity"
	ProviderGemini     Provider = "gemini"
)

// Providers returns every provider in the fixed reporting order
func Providers() []Provider {
	return []Provider{ProviderChatGPT, ProviderPerplexity, ProviderGemini}
}

// Cadence selects the prompt template set used for a scan
type Cadence string

const (
	CadenceFull Cadence = "full" // five prompts
	CadenceLite Cadence = "lite" // three prompts
)

// FailureKind separates "never tried" from "tried and failed"
type FailureKind string

const (
	FailureNoKey FailureKind = "no_key"
	FailureError FailureKind = "error"
)

// Failure explains why a provider call produced no usable reply
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

// ScanResult is the outcome of asking one provider one prompt.
// Use Succeeded or Failed to build one.
type ScanResult struct {
	Provider    Provider `json:"llm"`
	Prompt      string   `json:"prompt"`
	Response    string   `json:"response"`
	BrandsFound []string `json:"brandsFound"`
	Failure     *Failure `json:"failure,omitempty"`
}

// Succeeded builds a usable result. brandsFound may be empty.
func Succeeded(provider Provider, prompt, response string, brandsFound []string) ScanResult {
	if brandsFound == nil {
		brandsFound = []string{}
	}
	return ScanResult{
		Provider:    provider,
		Prompt:      prompt,
		Response:    response,
		BrandsFound: brandsFound,
	}
}

// Failed builds a failure result with an empty response and no brands.
func Failed(provider Provider, prompt string, kind FailureKind, reason string) ScanResult {
	return ScanResult{
		Provider:    provider,
		Prompt:      prompt,
		BrandsFound: []string{},
		Failure:     &Failure{Kind: kind, Reason: reason},
	}
}

// OK reports whether the result carries a usable response
func (r ScanResult) OK() bool {
	return r.Failure == nil
}

// FailureReason returns the failure reason, or "" for usable results
func (r ScanResult) FailureReason() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Reason
}

// ScanRecord is a persisted scan result
type ScanRecord struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"created_at"`
	ScanResult
}

// BrandScore is the citation score of one brand over a set of results
type BrandScore struct {
	Brand      string `json:"brand"`
	Score      int    `json:"score"` // 0-100
	Mentions   int    `json:"mentions"`
	Total      int    `json:"total"`
	Trend      int    `json:"trend"` // percentage-point change vs previous period
	Discovered bool   `json:"discovered,omitempty"`
}

// ProviderStatus records why a provider breakdown may be empty
type ProviderStatus string

const (
	StatusOK    ProviderStatus = "ok"
	StatusError ProviderStatus = "error"
	StatusNoKey ProviderStatus = "no_key"
)

// ProviderBreakdown is the citation score of the focal brand on one provider
type ProviderBreakdown struct {
	Provider Provider       `json:"llm"`
	Score    int            `json:"score"`
	Mentions int            `json:"mentions"`
	Total    int            `json:"total"`
	Status   ProviderStatus `json:"status"`
}

// TrendPoint holds per-brand scores for one period (YYYY-MM-DD)
type TrendPoint struct {
	Date   string
	Scores map[string]int
}

// MarshalJSON flattens the point into {"date": ..., "<brand>": score}
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(p.Scores)+1)
	for brand, score := range p.Scores {
		flat[brand] = score
	}
	flat["date"] = p.Date
	return json.Marshal(flat)
}

// UnmarshalJSON reverses MarshalJSON
func (p *TrendPoint) UnmarshalJSON(data []byte) error {
	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	p.Scores = make(map[string]int, len(flat))
	for key, value := range flat {
		if key == "date" {
			p.Date, _ = value.(string)
			continue
		}
		if n, ok := value.(float64); ok {
			p.Scores[key] = int(n)
		}
	}
	return nil
}

// Brands returns the brand names of the point in sorted order
func (p TrendPoint) Brands() []string {
	brands := make([]string, 0, len(p.Scores))
	for brand := range p.Scores {
		brands = append(brands, brand)
	}
	sort.Strings(brands)
	return brands
}

// Bundle is the post-scoring output of a scan, live or synthetic
type Bundle struct {
	Keyword      string              `json:"keyword"`
	Scores       []BrandScore        `json:"scores"`
	Trends       []TrendPoint        `json:"trends"`
	LLMBreakdown []ProviderBreakdown `json:"llmBreakdown"`
	Scans        []ScanResult        `json:"scans"`
}

// Outcome is either a Live or a Demo bundle
type Outcome interface {
	Result() Bundle
	isOutcome()
}

// Live wraps a bundle computed from real provider replies
type Live struct {
	Bundle Bundle
}

// Demo wraps a synthetic bundle and the reason it was produced
type Demo struct {
	Bundle Bundle
	Reason string
}

// Result returns the live bundle
func (l Live) Result() Bundle {
	return l.Bundle
}

func (Live) isOutcome() {}

// Result returns the synthetic bundle
func (d Demo) Result() Bundle {
	return d.Bundle
}

func (Demo) isOutcome() {}

// Report represents a periodic citation report
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Period      string    `json:"period"` // "daily", "weekly" or "lite"
	Keyword     string    `json:"keyword"`
	FocalBrand  string    `json:"focal_brand"`
	Mode        string    `json:"mode"` // "live" or "demo"
	Reason      string    `json:"reason,omitempty"`
	Bundle      Bundle    `json:"bundle"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Brand     string    `json:"brand,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Dashboard is the history view over every stored scan
type Dashboard struct {
	FocalBrand   string              `json:"primaryBrand"`
	Scores       []BrandScore        `json:"scores"`
	Trends       []TrendPoint        `json:"trends"`
	LLMBreakdown []ProviderBreakdown `json:"llmBreakdown"`
	RecentScans  []ScanRecord        `json:"recentScans"`
	TotalScans   int                 `json:"totalScans"`
}
