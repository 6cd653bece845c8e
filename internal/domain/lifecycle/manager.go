// Package lifecycle implements the agent lifecycle manager: unit creation,
// readiness, status tracking, chat proxying and guaranteed teardown on
// failure paths.
package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/entity"
	"github.com/agentpod/agentpod/internal/domain/registry"
	"github.com/agentpod/agentpod/internal/infrastructure/llm"
	"github.com/agentpod/agentpod/internal/infrastructure/prompt"
	"github.com/agentpod/agentpod/internal/infrastructure/runtime"
	"github.com/agentpod/agentpod/pkg/errors"
)

// Config holds the provisioning parameters and provider credentials the
// manager propagates into each unit.
type Config struct {
	Image        string
	InternalPort int
	MemoryLimit  int64

	// PublicHost is used to build agent endpoints. A scheme, if present,
	// is stripped.
	PublicHost string

	ReadinessTimeout  time.Duration
	ReadinessInterval time.Duration
	HealthTimeout     time.Duration
	ChatTimeout       time.Duration

	MaxTokens   int
	Temperature float64

	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string
	AzureDeployment string
	OpenAIAPIKey    string
	OpenAIModel     string
}

// AzureConfigured reports whether primary provider credentials are present.
func (c Config) AzureConfigured() bool {
	return c.AzureEndpoint != "" && c.AzureAPIKey != ""
}

// CreateParams are the caller-supplied agent creation inputs.
type CreateParams struct {
	AgentType    string
	ModelName    string
	Deployment   string
	SystemPrompt string
	Template     string
}

// Manager owns the agent registry and drives the isolation runtime.
type Manager struct {
	cfg      Config
	runtime  runtime.Runtime
	registry *registry.Registry
	httpc    *http.Client
	logger   *zap.Logger
}

// NewManager creates a lifecycle manager.
func NewManager(cfg Config, rt runtime.Runtime, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		runtime:  rt,
		registry: registry.New(),
		httpc:    &http.Client{},
		logger:   logger,
	}
}

// Count returns the number of registered agents.
func (m *Manager) Count() int { return m.registry.Count() }

// ProvisioningConfig returns the manager's provisioning configuration.
func (m *Manager) ProvisioningConfig() Config { return m.cfg }

// Create provisions a new agent unit, waits for it to become reachable, and
// registers it. Any failure after unit creation force-removes the unit
// before surfacing the error; failures before creation leave no state.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*entity.Agent, error) {
	if !m.cfg.AzureConfigured() {
		return nil, errors.NewConfigurationError(
			"missing Azure OpenAI configuration; set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY")
	}

	agentType := params.AgentType
	if agentType == "" {
		agentType = "coder"
	}
	modelName := params.ModelName
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	deployment := params.Deployment
	if deployment == "" {
		deployment = m.cfg.AzureDeployment
	}

	// Template takes precedence over a custom prompt.
	finalPrompt := ""
	templateUsed := ""
	if params.Template != "" {
		text, ok := prompt.Lookup(params.Template)
		if !ok {
			return nil, errors.NewTemplateNotFoundError(fmt.Sprintf(
				"template %q not found; available templates: %v", params.Template, prompt.Names()))
		}
		finalPrompt = text
		templateUsed = params.Template
	} else if params.SystemPrompt != "" {
		finalPrompt = params.SystemPrompt
	}

	id := uuid.New().String()
	name := "agent-" + id[:8]

	m.logger.Info("Creating agent",
		zap.String("agent_id", id),
		zap.String("type", agentType),
		zap.String("model", modelName),
		zap.String("deployment", deployment),
		zap.String("template", templateUsed),
	)

	handle, err := m.runtime.Run(ctx, runtime.RunSpec{
		Image:        m.cfg.Image,
		Name:         name,
		Env:          m.unitEnv(id, agentType, modelName, deployment, finalPrompt),
		InternalPort: m.cfg.InternalPort,
		MemoryLimit:  m.cfg.MemoryLimit,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "failed to create agent unit", err)
	}

	// From here on, every failure must tear the unit down.
	deadline := time.Now().Add(m.cfg.ReadinessTimeout)

	port, err := m.awaitPort(ctx, handle, deadline)
	if err != nil {
		m.teardown(handle)
		return nil, err
	}

	endpoint := m.buildEndpoint(port)

	if err := m.awaitReady(ctx, endpoint, deadline); err != nil {
		m.teardown(handle)
		return nil, err
	}

	agent := &entity.Agent{
		ID:           id,
		Name:         name,
		Type:         agentType,
		ModelName:    modelName,
		Deployment:   deployment,
		SystemPrompt: finalPrompt,
		TemplateUsed: templateUsed,
		ContainerID:  handle,
		Endpoint:     endpoint,
		Port:         port,
		CreatedAt:    time.Now().UTC(),
		Status:       entity.StatusRunning,
	}
	m.registry.Save(agent)

	m.logger.Info("Agent created",
		zap.String("agent_id", id),
		zap.String("endpoint", endpoint),
	)
	return agent, nil
}

// unitEnv builds the environment injected into the unit.
func (m *Manager) unitEnv(id, agentType, modelName, deployment, systemPrompt string) map[string]string {
	env := map[string]string{
		"AGENT_ID":                 id,
		"AGENT_TYPE":               agentType,
		"MODEL_NAME":               modelName,
		"AZURE_DEPLOYMENT_NAME":    deployment,
		"AZURE_OPENAI_ENDPOINT":    m.cfg.AzureEndpoint,
		"AZURE_OPENAI_API_KEY":     m.cfg.AzureAPIKey,
		"AZURE_OPENAI_API_VERSION": m.cfg.AzureAPIVersion,
		"AGENT_PORT":               strconv.Itoa(m.cfg.InternalPort),
		"AGENT_MAX_TOKENS":         strconv.Itoa(m.cfg.MaxTokens),
		"AGENT_TEMPERATURE":        strconv.FormatFloat(m.cfg.Temperature, 'f', -1, 64),
	}
	if m.cfg.OpenAIAPIKey != "" {
		env["OPENAI_API_KEY"] = m.cfg.OpenAIAPIKey
		env["OPENAI_MODEL"] = m.cfg.OpenAIModel
	}
	if systemPrompt != "" {
		env["CUSTOM_SYSTEM_PROMPT"] = systemPrompt
	}
	return env
}

// awaitPort polls the runtime until the unit has an externally assigned port.
func (m *Manager) awaitPort(ctx context.Context, handle string, deadline time.Time) (string, error) {
	var lastErr error
	for {
		state, err := m.runtime.Inspect(ctx, handle)
		if err == nil && state.HostPort != "" {
			return state.HostPort, nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return "", errors.Wrap(errors.CodePortAssignment, "port wait cancelled", ctx.Err())
		case <-time.After(m.cfg.ReadinessInterval):
		}
	}
	return "", errors.Wrap(errors.CodePortAssignment, "no port assigned to agent unit", lastErr)
}

// awaitReady polls the unit's health endpoint until it answers 200.
func (m *Manager) awaitReady(ctx context.Context, endpoint string, deadline time.Time) error {
	var lastErr error
	for {
		err := m.probeHealth(ctx, endpoint)
		if err == nil {
			return nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.CodeReadiness, "readiness wait cancelled", ctx.Err())
		case <-time.After(m.cfg.ReadinessInterval):
		}
	}
	return errors.Wrap(errors.CodeReadiness, "agent unit failed readiness check", lastErr)
}

func (m *Manager) probeHealth(ctx context.Context, endpoint string) error {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := m.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// teardown force-removes a unit after a provisioning failure. Runs on a
// background context so caller cancellation cannot orphan the unit.
func (m *Manager) teardown(handle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.runtime.ForceRemove(ctx, handle); err != nil {
		m.logger.Warn("Failed to remove agent unit during cleanup",
			zap.String("container_id", handle),
			zap.Error(err),
		)
	}
}

// buildEndpoint computes the externally reachable unit endpoint, stripping
// any scheme from the configured public host.
func (m *Manager) buildEndpoint(port string) string {
	host := m.cfg.PublicHost
	if host == "" {
		host = "localhost"
	}
	if u, err := url.Parse(host); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return fmt.Sprintf("http://%s:%s", host, port)
}

// Delete removes an agent and its unit. Runtime removal is best-effort; the
// registry entry is removed regardless, so the agent is gone to callers even
// if the underlying teardown partially failed. Returns false for unknown ids.
func (m *Manager) Delete(ctx context.Context, id string) bool {
	agent, ok := m.registry.FindByID(id)
	if !ok {
		return false
	}

	if err := m.runtime.ForceRemove(ctx, agent.ContainerID); err != nil {
		m.logger.Warn("Failed to remove container",
			zap.String("agent_id", id),
			zap.String("container_id", agent.ContainerID),
			zap.Error(err),
		)
	}

	m.registry.Delete(id)
	m.logger.Info("Agent deleted", zap.String("agent_id", id))
	return true
}

// List returns all agents with freshly computed statuses. A runtime lookup
// failure marks that entry not_found without affecting the others.
func (m *Manager) List(ctx context.Context) []*entity.Agent {
	agents := m.registry.FindAll()
	for _, agent := range agents {
		m.refreshStatus(ctx, agent)
	}
	return agents
}

// Get returns one agent with a freshly computed status.
func (m *Manager) Get(ctx context.Context, id string) (*entity.Agent, bool) {
	agent, ok := m.registry.FindByID(id)
	if !ok {
		return nil, false
	}
	m.refreshStatus(ctx, agent)
	return agent, true
}

// refreshStatus recomputes an agent's status from the runtime. A missing
// unit yields not_found; the entry is never removed implicitly.
func (m *Manager) refreshStatus(ctx context.Context, agent *entity.Agent) {
	state, err := m.runtime.Inspect(ctx, agent.ContainerID)
	if err != nil {
		agent.Status = entity.StatusNotFound
		return
	}
	agent.Status = entity.Status(state.Status)
}

// Chat proxies one chat request to the agent's unit.
func (m *Manager) Chat(ctx context.Context, id, message, userID string) (*entity.ChatResponse, error) {
	agent, ok := m.Get(ctx, id)
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("agent %s not found", id))
	}
	if agent.Status != entity.StatusRunning {
		return nil, errors.NewNotRunningError(fmt.Sprintf(
			"agent %s is not running (status: %s)", id, agent.Status))
	}

	body, err := json.Marshal(entity.ChatRequest{Message: message, UserID: userID})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "marshal chat request", err)
	}

	chatCtx, cancel := context.WithTimeout(ctx, m.cfg.ChatTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(chatCtx, http.MethodPost, agent.Endpoint+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeCommunication, "failed to communicate with agent", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.CodeCommunication, "read agent response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeRemoteChat, fmt.Sprintf(
			"chat request failed: %d - %s", resp.StatusCode, string(respBody)))
	}

	var chatResp entity.ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errors.Wrap(errors.CodeRemoteChat, "decode agent response", err)
	}
	return &chatResp, nil
}

// AgentHealth merges the container status with the unit's own health payload.
// Probe failures are reported in the payload, never as call errors.
func (m *Manager) AgentHealth(ctx context.Context, id string) (map[string]interface{}, error) {
	agent, ok := m.Get(ctx, id)
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("agent %s not found", id))
	}

	health := m.unitHealth(ctx, agent.Endpoint)
	return map[string]interface{}{
		"agent_id":         agent.ID,
		"container_status": agent.Status,
		"agent_health":     health,
	}, nil
}

func (m *Manager) unitHealth(ctx context.Context, endpoint string) map[string]interface{} {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return map[string]interface{}{"status": entity.StatusUnreachable, "error": err.Error()}
	}
	resp, err := m.httpc.Do(req)
	if err != nil {
		return map[string]interface{}{"status": entity.StatusUnreachable, "error": err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return map[string]interface{}{
			"status": entity.StatusUnhealthy,
			"error":  fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return map[string]interface{}{"status": entity.StatusUnhealthy, "error": err.Error()}
	}
	return payload
}

// TestPrimaryProvider sends one tiny completion request directly against the
// configured primary provider to verify connectivity, independent of any
// agent. Failures are reported in the payload, never as call errors.
func (m *Manager) TestPrimaryProvider(ctx context.Context) map[string]interface{} {
	if !m.cfg.AzureConfigured() {
		return map[string]interface{}{
			"configured": false,
			"ok":         false,
			"error":      "missing Azure OpenAI configuration",
		}
	}

	client, err := llm.NewClient("azure", llm.ClientConfig{
		Endpoint:   m.cfg.AzureEndpoint,
		APIKey:     m.cfg.AzureAPIKey,
		APIVersion: m.cfg.AzureAPIVersion,
		Deployment: m.cfg.AzureDeployment,
		MaxTokens:  16,
		Timeout:    m.cfg.ChatTimeout,
	}, m.logger)
	if err != nil {
		return map[string]interface{}{"configured": true, "ok": false, "error": err.Error()}
	}

	testCtx, cancel := context.WithTimeout(ctx, m.cfg.ChatTimeout)
	defer cancel()

	completion, err := client.Send(testCtx, []llm.Message{
		{Role: "user", Content: "Connection test. Reply with OK."},
	}, "connectivity_test")
	if err != nil {
		m.logger.Warn("Azure connectivity test failed", zap.Error(err))
		return map[string]interface{}{"configured": true, "ok": false, "error": err.Error()}
	}

	return map[string]interface{}{
		"configured":   true,
		"ok":           true,
		"model":        completion.Model,
		"total_tokens": completion.Usage.TotalTokens,
	}
}

// Templates lists the available prompt templates by category.
func (m *Manager) Templates() map[string][]string { return prompt.Categories() }

// TemplatePrompt returns the prompt text for one template.
func (m *Manager) TemplatePrompt(name string) (string, bool) { return prompt.Lookup(name) }
