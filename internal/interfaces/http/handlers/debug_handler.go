package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/lifecycle"
)

// DebugHandler serves the service health check and the sanitized config echo.
type DebugHandler struct {
	manager *lifecycle.Manager
	logger  *zap.Logger
}

// NewDebugHandler creates the debug/health handler.
func NewDebugHandler(manager *lifecycle.Manager, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{
		manager: manager,
		logger:  logger.With(zap.String("handler", "debug")),
	}
}

// Health handles GET /health for the manager itself.
func (h *DebugHandler) Health(c *gin.Context) {
	cfg := h.manager.ProvisioningConfig()
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          "agentpod manager",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"azure_configured": cfg.AzureConfigured(),
	})
}

// AzureTest handles GET /debug/azure-test: a live connectivity probe against
// the primary provider, independent of any agent.
func (h *DebugHandler) AzureTest(c *gin.Context) {
	cfg := h.manager.ProvisioningConfig()
	result := h.manager.TestPrimaryProvider(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"azure_connection": result,
		"endpoint":         cfg.AzureEndpoint,
		"api_key_present":  cfg.AzureAPIKey != "",
	})
}

// Echo handles POST /debug/echo: reflects the parsed request body back so
// clients can debug their serialization.
func (h *DebugHandler) Echo(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":      false,
			"error":        "request is not JSON",
			"content_type": c.ContentType(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"received_data": payload,
		"content_type":  c.ContentType(),
	})
}

// Config handles GET /debug/config. Secrets are reported as presence flags
// only, never echoed.
func (h *DebugHandler) Config(c *gin.Context) {
	cfg := h.manager.ProvisioningConfig()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"environment": gin.H{
			"azure_endpoint":     cfg.AzureEndpoint,
			"azure_deployment":   cfg.AzureDeployment,
			"public_host":        cfg.PublicHost,
			"agent_image":        cfg.Image,
			"api_key_present":    cfg.AzureAPIKey != "",
			"openai_key_present": cfg.OpenAIAPIKey != "",
		},
		"agent_count": h.manager.Count(),
	})
}
