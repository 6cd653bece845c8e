package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/lifecycle"
	"github.com/agentpod/agentpod/pkg/errors"
)

// TemplateHandler serves the /templates routes.
type TemplateHandler struct {
	manager *lifecycle.Manager
	logger  *zap.Logger
}

// NewTemplateHandler creates the template route handler.
func NewTemplateHandler(manager *lifecycle.Manager, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		manager: manager,
		logger:  logger.With(zap.String("handler", "templates")),
	}
}

// List handles GET /templates.
func (h *TemplateHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"templates": h.manager.Templates(),
	})
}

// Get handles GET /templates/:name.
func (h *TemplateHandler) Get(c *gin.Context) {
	name := c.Param("name")
	text, ok := h.manager.TemplatePrompt(name)
	if !ok {
		fail(c, errors.NewNotFoundError(fmt.Sprintf("template %q not found", name)))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"template_name": name,
		"system_prompt": text,
	})
}
