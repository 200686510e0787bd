package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// ChatGPT queries the OpenAI chat completion API
type ChatGPT struct {
	key     config.KeyFunc
	model   string
	baseURL string
}

var _ Provider = (*ChatGPT)(nil)

// NewChatGPT creates a new ChatGPT provider
func NewChatGPT(key config.KeyFunc, model string) *ChatGPT {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &ChatGPT{key: key, model: model}
}

// SetBaseURL points the provider at an OpenAI-compatible endpoint
func (c *ChatGPT) SetBaseURL(baseURL string) *ChatGPT {
	c.baseURL = baseURL
	return c
}

func (c *ChatGPT) Name() models.Provider {
	return models.ProviderChatGPT
}

func (c *ChatGPT) IsAvailable() bool {
	return c.key() != ""
}

func (c *ChatGPT) Scan(ctx context.Context, prompt string, brands []string) models.ScanResult {
	key := c.key()
	if key == "" {
		return notConfigured(c.Name(), prompt)
	}

	// A client per call keeps a rotated key effective immediately
	clientConfig := openai.DefaultConfig(key)
	if c.baseURL != "" {
		clientConfig.BaseURL = c.baseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxReplyTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return failed(c.Name(), prompt, fmt.Sprintf("chatgpt API returned status %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return failed(c.Name(), prompt, fmt.Sprintf("chatgpt API returned status %d", reqErr.HTTPStatusCode))
		}
		return failed(c.Name(), prompt, requestFailure(ctx, c.Name(), err))
	}

	if len(resp.Choices) == 0 {
		return failed(c.Name(), prompt, "chatgpt returned no choices")
	}

	return succeeded(c.Name(), prompt, resp.Choices[0].Message.Content, brands)
}
