package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/go-resty/resty/v2"
)

const perplexityBaseURL = "https://api.perplexity.ai"

// Perplexity queries the search-augmented Perplexity chat API
type Perplexity struct {
	key     config.KeyFunc
	model   string
	baseURL string
	client  *resty.Client
}

var _ Provider = (*Perplexity)(nil)

type perplexityRequest struct {
	Model     string              `json:"model"`
	Messages  []perplexityMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	Choices []struct {
		Message perplexityMessage `json:"message"`
	} `json:"choices"`
}

// NewPerplexity creates a new Perplexity provider
func NewPerplexity(key config.KeyFunc, model string) *Perplexity {
	if model == "" {
		model = "sonar"
	}
	return &Perplexity{
		key:     key,
		model:   model,
		baseURL: perplexityBaseURL,
		client: resty.New().
			SetTimeout(60*time.Second).
			SetHeader("User-Agent", "AIRadar-Citation-Bot/1.0"),
	}
}

// SetBaseURL overrides the API root
func (p *Perplexity) SetBaseURL(baseURL string) *Perplexity {
	p.baseURL = baseURL
	return p
}

func (p *Perplexity) Name() models.Provider {
	return models.ProviderPerplexity
}

func (p *Perplexity) IsAvailable() bool {
	return p.key() != ""
}

func (p *Perplexity) Scan(ctx context.Context, prompt string, brands []string) models.ScanResult {
	key := p.key()
	if key == "" {
		return notConfigured(p.Name(), prompt)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetHeader("Content-Type", "application/json").
		SetBody(perplexityRequest{
			Model:     p.model,
			Messages:  []perplexityMessage{{Role: "user", Content: prompt}},
			MaxTokens: maxReplyTokens,
		}).
		Post(p.baseURL + "/chat/completions")

	if err != nil {
		return failed(p.Name(), prompt, requestFailure(ctx, p.Name(), err))
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return failed(p.Name(), prompt, statusFailure(p.Name(), resp.StatusCode(), resp.Body()))
	}

	var data perplexityResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return failed(p.Name(), prompt, fmt.Sprintf("failed to parse perplexity response: %v", err))
	}

	if len(data.Choices) == 0 {
		return failed(p.Name(), prompt, "perplexity returned no choices")
	}

	return succeeded(p.Name(), prompt, data.Choices[0].Message.Content, brands)
}
