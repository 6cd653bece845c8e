package llm

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

func init() {
	RegisterFactory("openai", func(cfg ClientConfig, logger *zap.Logger) Client {
		return NewOpenAIClient(cfg, logger)
	})
}

const defaultOpenAIBase = "https://api.openai.com/v1"

// OpenAIClient calls the standard OpenAI chat completions API.
// Auth is a bearer token and the model name goes in the request body.
type OpenAIClient struct {
	url         string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewOpenAIClient creates the secondary-provider client.
func NewOpenAIClient(cfg ClientConfig, logger *zap.Logger) *OpenAIClient {
	base := strings.TrimRight(cfg.Endpoint, "/")
	if base == "" {
		base = defaultOpenAIBase
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	return &OpenAIClient{
		url:         base + "/chat/completions",
		apiKey:      cfg.APIKey,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      newHTTPClient(cfg.Timeout),
		logger:      logger.With(zap.String("backend", "openai")),
	}
}

var _ Client = (*OpenAIClient)(nil)

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Send(ctx context.Context, messages []Message, userID string) (*Completion, error) {
	req := &Request{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		User:        userID,
	}
	return doSend(ctx, c.client, c.Name(), c.url, req, func(h http.Header) {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}, c.logger)
}
