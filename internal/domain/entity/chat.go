package entity

// ChatRequest is the inbound chat payload, accepted both by the manager
// (POST /agents/:id/chat) and by the unit server (POST /chat).
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// Usage carries token accounting from a provider completion.
// Missing fields default to zero.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the unit server's chat payload. The manager proxies it to
// its own caller unmodified.
type ChatResponse struct {
	Response      string  `json:"response"`
	AgentID       string  `json:"agent_id"`
	Model         string  `json:"model,omitempty"`
	Deployment    string  `json:"deployment,omitempty"`
	Backend       string  `json:"ai_backend"`
	AzureEndpoint string  `json:"azure_endpoint,omitempty"`
	UserID        string  `json:"user_id,omitempty"`
	Timestamp     float64 `json:"timestamp"`
	Usage         Usage   `json:"usage"`
}
