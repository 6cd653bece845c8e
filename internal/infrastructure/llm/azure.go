package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

func init() {
	RegisterFactory("azure", func(cfg ClientConfig, logger *zap.Logger) Client {
		return NewAzureClient(cfg, logger)
	})
}

// AzureClient calls an Azure OpenAI deployment.
// Auth is the api-key header; the API version is a required query parameter
// and routing is carried by the deployment segment of the URL, so the request
// body has no model field.
type AzureClient struct {
	url         string
	apiKey      string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewAzureClient creates the primary-provider client.
func NewAzureClient(cfg ClientConfig, logger *zap.Logger) *AzureClient {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		endpoint, cfg.Deployment, url.QueryEscape(cfg.APIVersion))

	return &AzureClient{
		url:         u,
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      newHTTPClient(cfg.Timeout),
		logger:      logger.With(zap.String("backend", "azure_openai")),
	}
}

var _ Client = (*AzureClient)(nil)

func (c *AzureClient) Name() string { return "azure_openai" }

func (c *AzureClient) Send(ctx context.Context, messages []Message, userID string) (*Completion, error) {
	req := &Request{
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		User:        userID,
	}
	return doSend(ctx, c.client, c.Name(), c.url, req, func(h http.Header) {
		h.Set("api-key", c.apiKey)
	}, c.logger)
}

// newHTTPClient builds an HTTP client with explicit connection timeouts.
// The overall call timeout comes from the request context set by doSend.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// doSend performs one completion call and normalizes the outcome into
// *Completion, *TransportError or *HTTPError.
func doSend(ctx context.Context, client *http.Client, backend, callURL string, req *Request, setAuth func(http.Header), logger *zap.Logger) (*Completion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, callURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	setAuth(httpReq.Header)

	logger.Debug("Calling provider", zap.Int("messages", len(req.Messages)))

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Backend: backend, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Backend: backend, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Backend: backend, Status: resp.StatusCode, Body: string(respBody)}
	}

	var completion Completion
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	logger.Debug("Provider response received",
		zap.String("model", completion.Model),
		zap.Int("total_tokens", completion.Usage.TotalTokens),
	)
	return &completion, nil
}
