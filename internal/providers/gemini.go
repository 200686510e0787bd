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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini queries the Google generative-content API
type Gemini struct {
	key     config.KeyFunc
	model   string
	baseURL string
	client  *resty.Client
}

var _ Provider = (*Gemini)(nil)

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGemini creates a new Gemini provider
func NewGemini(key config.KeyFunc, model string) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{
		key:     key,
		model:   model,
		baseURL: geminiBaseURL,
		client: resty.New().
			SetTimeout(60*time.Second).
			SetHeader("User-Agent", "AIRadar-Citation-Bot/1.0"),
	}
}

// SetBaseURL overrides the API root
func (g *Gemini) SetBaseURL(baseURL string) *Gemini {
	g.baseURL = baseURL
	return g
}

func (g *Gemini) Name() models.Provider {
	return models.ProviderGemini
}

func (g *Gemini) IsAvailable() bool {
	return g.key() != ""
}

func (g *Gemini) Scan(ctx context.Context, prompt string, brands []string) models.ScanResult {
	key := g.key()
	if key == "" {
		return notConfigured(g.Name(), prompt)
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", key).
		SetBody(geminiRequest{
			Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		}).
		Post(fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model))

	if err != nil {
		return failed(g.Name(), prompt, requestFailure(ctx, g.Name(), err))
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return failed(g.Name(), prompt, statusFailure(g.Name(), resp.StatusCode(), resp.Body()))
	}

	var data geminiResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return failed(g.Name(), prompt, fmt.Sprintf("failed to parse gemini response: %v", err))
	}

	if len(data.Candidates) == 0 || len(data.Candidates[0].Content.Parts) == 0 {
		return failed(g.Name(), prompt, "gemini returned no candidates")
	}

	return succeeded(g.Name(), prompt, data.Candidates[0].Content.Parts[0].Text, brands)
}
