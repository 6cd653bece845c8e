package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/lifecycle"
	"github.com/agentpod/agentpod/pkg/errors"
)

// AgentHandler serves the /agents routes.
type AgentHandler struct {
	manager *lifecycle.Manager
	logger  *zap.Logger
}

// NewAgentHandler creates the agent route handler.
func NewAgentHandler(manager *lifecycle.Manager, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		manager: manager,
		logger:  logger.With(zap.String("handler", "agents")),
	}
}

// CreateRequest is the POST /agents body. The short aliases (type, model)
// are accepted alongside the long names.
type CreateRequest struct {
	AgentType    string `json:"agent_type"`
	TypeAlias    string `json:"type"`
	ModelName    string `json:"model_name"`
	ModelAlias   string `json:"model"`
	Deployment   string `json:"deployment_name"`
	SystemPrompt string `json:"system_prompt"`
	Template     string `json:"template"`
}

// ChatBody is the POST /agents/:id/chat body.
type ChatBody struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// Create handles POST /agents.
func (h *AgentHandler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.NewInvalidInputError("invalid JSON in request body"))
		return
	}

	agentType := req.AgentType
	if agentType == "" {
		agentType = req.TypeAlias
	}
	modelName := req.ModelName
	if modelName == "" {
		modelName = req.ModelAlias
	}

	agent, err := h.manager.Create(c.Request.Context(), lifecycle.CreateParams{
		AgentType:    agentType,
		ModelName:    modelName,
		Deployment:   req.Deployment,
		SystemPrompt: req.SystemPrompt,
		Template:     req.Template,
	})
	if err != nil {
		h.logger.Error("Failed to create agent", zap.Error(err))
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Agent created successfully",
		"agent":   agent,
	})
}

// List handles GET /agents.
func (h *AgentHandler) List(c *gin.Context) {
	agents := h.manager.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"agents":  agents,
		"count":   len(agents),
	})
}

// Get handles GET /agents/:id.
func (h *AgentHandler) Get(c *gin.Context) {
	agent, ok := h.manager.Get(c.Request.Context(), c.Param("id"))
	if !ok {
		fail(c, errors.NewNotFoundError("agent not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"agent":   agent,
	})
}

// Delete handles DELETE /agents/:id.
func (h *AgentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.manager.Delete(c.Request.Context(), id) {
		fail(c, errors.NewNotFoundError("agent not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Agent " + id + " deleted successfully",
	})
}

// Chat handles POST /agents/:id/chat.
func (h *AgentHandler) Chat(c *gin.Context) {
	var body ChatBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Message == "" {
		fail(c, errors.NewInvalidInputError("message is required"))
		return
	}

	userID := body.UserID
	if userID == "" {
		userID = "api_user"
	}

	id := c.Param("id")
	resp, err := h.manager.Chat(c.Request.Context(), id, body.Message, userID)
	if err != nil {
		h.logger.Error("Chat with agent failed",
			zap.String("agent_id", id),
			zap.Error(err),
		)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"agent_id":      id,
		"chat_response": resp,
	})
}

// Health handles GET /agents/:id/health.
func (h *AgentHandler) Health(c *gin.Context) {
	payload, err := h.manager.AgentHealth(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

// fail writes the structured error envelope with a status matching the
// error class.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// statusFor maps the error taxonomy to HTTP statuses: caller mistakes 400,
// unknown identity 404, known-but-not-serving 409, everything else 500.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeInvalidInput, errors.CodeConfiguration, errors.CodeTemplateNotFound:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeNotRunning:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
