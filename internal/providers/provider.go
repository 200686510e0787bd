package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/matcher"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/sirupsen/logrus"
)

// Provider asks one LLM service a prompt and reports which brands it named.
// Scan never returns an error: failures are carried inside the ScanResult.
type Provider interface {
	Name() models.Provider
	IsAvailable() bool
	Scan(ctx context.Context, prompt string, brands []string) models.ScanResult
}

const maxReplyTokens = 1000

// maxDetailRunes bounds the error body quoted in a failure reason
const maxDetailRunes = 200

// Default builds the three providers in reporting order, reading credentials
// from the environment on every call.
func Default(cfg *config.Config) []Provider {
	return []Provider{
		NewChatGPT(config.EnvKey(config.OpenAIKeyEnv), cfg.OpenAIModel),
		NewPerplexity(config.EnvKey(config.PerplexityKeyEnv), cfg.PerplexityModel),
		NewGemini(config.EnvKey(config.GeminiKeyEnv), cfg.GeminiModel),
	}
}

func succeeded(name models.Provider, prompt, reply string, brands []string) models.ScanResult {
	if strings.TrimSpace(reply) == "" {
		return failed(name, prompt, fmt.Sprintf("%s returned an empty response", name))
	}
	return models.Succeeded(name, prompt, reply, matcher.FindBrands(reply, brands))
}

func failed(name models.Provider, prompt, reason string) models.ScanResult {
	logrus.WithField("provider", name).Warnf("Scan failed: %s", reason)
	return models.Failed(name, prompt, models.FailureError, reason)
}

func notConfigured(name models.Provider, prompt string) models.ScanResult {
	logrus.WithField("provider", name).Debug("Provider disabled - missing API key")
	return models.Failed(name, prompt, models.FailureNoKey, fmt.Sprintf("%s API key not configured", name))
}

// requestFailure describes a transport error without echoing the request URL,
// which may carry a credential in its query string.
func requestFailure(ctx context.Context, name models.Provider, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("%s request timed out", name)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Sprintf("%s request cancelled", name)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return fmt.Sprintf("%s request failed: %v", name, err)
}

func statusFailure(name models.Provider, status int, body []byte) string {
	detail := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(detail) > maxDetailRunes {
		detail = string([]rune(detail)[:maxDetailRunes]) + "..."
	}
	if detail == "" {
		return fmt.Sprintf("%s API returned status %d", name, status)
	}
	return fmt.Sprintf("%s API returned status %d: %s", name, status, detail)
}
