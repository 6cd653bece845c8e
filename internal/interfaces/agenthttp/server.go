// Package agenthttp is the HTTP surface of a single agent unit (agentd).
// It is stateless over one fallback bridge built at startup from the
// environment the lifecycle manager injected.
package agenthttp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/entity"
	"github.com/agentpod/agentpod/internal/infrastructure/config"
	"github.com/agentpod/agentpod/internal/infrastructure/llm"
	"github.com/agentpod/agentpod/internal/infrastructure/prompt"
)

// Server is the agent unit HTTP server.
type Server struct {
	cfg          *config.UnitConfig
	bridge       *llm.Bridge
	systemPrompt string
	server       *http.Server
	logger       *zap.Logger
}

// New builds the unit server: resolves the system prompt, constructs the
// provider clients that are configured, and wires the routes.
func New(cfg *config.UnitConfig, logger *zap.Logger) (*Server, error) {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompt.BuiltinForType(cfg.AgentType)
	}

	var primary, secondary llm.Client
	if cfg.AzureEndpoint != "" && cfg.AzureAPIKey != "" {
		client, err := llm.NewClient("azure", llm.ClientConfig{
			Endpoint:    cfg.AzureEndpoint,
			APIKey:      cfg.AzureAPIKey,
			APIVersion:  cfg.AzureAPIVersion,
			Deployment:  cfg.Deployment,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, err
		}
		primary = client
		logger.Info("Azure OpenAI backend configured",
			zap.String("endpoint", cfg.AzureEndpoint),
			zap.String("deployment", cfg.Deployment),
		)
	}
	if cfg.OpenAIAPIKey != "" {
		client, err := llm.NewClient("openai", llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, err
		}
		secondary = client
		logger.Info("OpenAI fallback backend configured")
	}
	if primary == nil && secondary == nil {
		logger.Warn("No AI backends configured, running in echo mode")
	}

	bridge := llm.NewBridge(cfg.AgentID, systemPrompt, primary, secondary, logger)

	s := &Server{
		cfg:          cfg,
		bridge:       bridge,
		systemPrompt: systemPrompt,
		logger:       logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.agentIDHeader())

	router.GET("/health", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.POST("/chat", s.handleChat)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: router,
	}
	return s, nil
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.server.Handler }

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting agent unit server",
		zap.String("agent_id", s.cfg.AgentID),
		zap.String("address", s.server.Addr),
		zap.String("backend", s.bridge.BackendSummary()),
	)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// agentIDHeader stamps every response with the unit identity.
func (s *Server) agentIDHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Agent-ID", s.cfg.AgentID)
		c.Next()
	}
}

// handleHealth always answers 200 once the process is up.
func (s *Server) handleHealth(c *gin.Context) {
	payload := gin.H{
		"status":           "healthy",
		"agent_id":         s.cfg.AgentID,
		"agent_type":       s.cfg.AgentType,
		"model":            s.cfg.ModelName,
		"deployment":       s.cfg.Deployment,
		"ai_backend":       s.bridge.BackendSummary(),
		"azure_configured": s.bridge.PrimaryConfigured(),
		"openai_fallback":  s.bridge.SecondaryConfigured(),
		"timestamp":        float64(time.Now().UnixNano()) / float64(time.Second),
	}
	if s.bridge.PrimaryConfigured() {
		payload["azure_endpoint"] = s.cfg.AzureEndpoint
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleStatus(c *gin.Context) {
	capabilities := []string{"chat", "text-generation"}
	if !s.bridge.PrimaryConfigured() && !s.bridge.SecondaryConfigured() {
		capabilities = []string{"echo"}
	}

	preview := s.systemPrompt
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}

	c.JSON(http.StatusOK, gin.H{
		"agent_id":              s.cfg.AgentID,
		"type":                  s.cfg.AgentType,
		"model":                 s.cfg.ModelName,
		"deployment":            s.cfg.Deployment,
		"status":                "running",
		"ai_backend":            s.bridge.BackendSummary(),
		"capabilities":          capabilities,
		"system_prompt_preview": preview,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req entity.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON in request"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no message provided"})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	result, err := s.bridge.Chat(c.Request.Context(), message, userID)
	if err != nil {
		s.logger.Error("Chat processing failed",
			zap.String("agent_id", s.cfg.AgentID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    fmt.Sprintf("AI processing failed: %v", err),
			"agent_id": s.cfg.AgentID,
		})
		return
	}

	resp := entity.ChatResponse{
		Response:  result.Text,
		AgentID:   s.cfg.AgentID,
		Model:     s.cfg.ModelName,
		Backend:   result.Backend,
		UserID:    userID,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Usage: entity.Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}
	// Deployment routing details only apply to azure-served responses.
	if strings.HasPrefix(result.Backend, "azure") {
		resp.Deployment = s.cfg.Deployment
		resp.AzureEndpoint = s.cfg.AzureEndpoint
	}

	c.JSON(http.StatusOK, resp)
}
