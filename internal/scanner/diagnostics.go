package scanner

import (
	"context"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/models"
)

const previewLength = 300

// ProviderCheck summarises one provider's reply to the diagnostic prompt
type ProviderCheck struct {
	Provider        models.Provider `json:"llm"`
	HasAPIKey       bool            `json:"hasApiKey"`
	Success         bool            `json:"success"`
	Error           string          `json:"error,omitempty"`
	BrandsFound     []string        `json:"brandsFound"`
	ResponseLength  int             `json:"responseLength"`
	ResponsePreview string          `json:"responsePreview"`
}

// KeyDiagnostic describes a credential without revealing it
type KeyDiagnostic struct {
	Length        int    `json:"length"`
	Prefix        string `json:"prefix"`
	TrimmedLength int    `json:"trimmedLength"`
}

// Diagnosis is the health-check view of a single-prompt scan
type Diagnosis struct {
	Status         string                             `json:"status"` // all_working, partial, none_working
	Prompt         string                             `json:"prompt"`
	Keyword        string                             `json:"keyword"`
	Brands         []string                           `json:"brands"`
	Availability   map[models.Provider]bool           `json:"llmStatus"`
	KeyDiagnostics map[models.Provider]*KeyDiagnostic `json:"keyDiagnostics"`
	Results        []ProviderCheck                    `json:"results"`
	Timestamp      time.Time                          `json:"timestamp"`
}

var keyEnvs = map[models.Provider]string{
	models.ProviderChatGPT:    config.OpenAIKeyEnv,
	models.ProviderPerplexity: config.PerplexityKeyEnv,
	models.ProviderGemini:     config.GeminiKeyEnv,
}

// Diagnose asks every provider the first full-cadence question for keyword
func (s *Scanner) Diagnose(ctx context.Context, keyword string, brands []string) (*Diagnosis, error) {
	prompts, err := GeneratePrompts(keyword, models.CadenceFull)
	if err != nil {
		return nil, err
	}

	availability := s.Availability()
	results, err := s.ScanOnce(ctx, prompts[0], brands)
	if err != nil {
		return nil, err
	}

	diagnosis := &Diagnosis{
		Prompt:         prompts[0],
		Keyword:        strings.TrimSpace(keyword),
		Brands:         brands,
		Availability:   availability,
		KeyDiagnostics: make(map[models.Provider]*KeyDiagnostic, len(keyEnvs)),
		Timestamp:      time.Now().UTC(),
	}

	for provider, env := range keyEnvs {
		diagnosis.KeyDiagnostics[provider] = describeKey(os.Getenv(env))
	}

	working := 0
	for _, r := range results {
		if r.OK() {
			working++
		}
		preview := truncate(r.Response, previewLength)
		diagnosis.Results = append(diagnosis.Results, ProviderCheck{
			Provider:        r.Provider,
			HasAPIKey:       availability[r.Provider],
			Success:         r.OK(),
			Error:           r.FailureReason(),
			BrandsFound:     r.BrandsFound,
			ResponseLength:  len(r.Response),
			ResponsePreview: preview,
		})
	}

	switch {
	case working == len(results) && working > 0:
		diagnosis.Status = "all_working"
	case working > 0:
		diagnosis.Status = "partial"
	default:
		diagnosis.Status = "none_working"
	}

	return diagnosis, nil
}

func describeKey(raw string) *KeyDiagnostic {
	if raw == "" {
		return nil
	}
	prefix := raw
	if runes := []rune(raw); len(runes) > 7 {
		prefix = string(runes[:7])
	}
	return &KeyDiagnostic{
		Length:        len(raw),
		Prefix:        prefix + "...",
		TrimmedLength: len(strings.TrimSpace(raw)),
	}
}

// truncate keeps the first n runes of s, marking a cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
