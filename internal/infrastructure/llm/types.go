package llm

import "fmt"

// --- Provider wire types (OpenAI chat completions format) ---

// Request is the completion request body. Model is omitted for Azure, where
// routing is carried by the deployment segment of the URL instead.
type Request struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	User        string    `json:"user,omitempty"`
}

// Completion is the parsed completion response.
type Completion struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage carries token counters. Missing fields unmarshal to zero.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the first choice's message content.
func (c *Completion) Text() (string, error) {
	if len(c.Choices) == 0 {
		return "", fmt.Errorf("empty completion: no choices")
	}
	return c.Choices[0].Message.Content, nil
}

// --- Error types ---
// Callers distinguish transport failures from HTTP-level rejections; the
// bridge treats both as fallback-eligible.

// TransportError is a connection-level failure (DNS, dial, timeout).
type TransportError struct {
	Backend string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s network error: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	Backend string
	Status  int
	Body    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s HTTP %d: %s", e.Backend, e.Status, e.Body)
}
