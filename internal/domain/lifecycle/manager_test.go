package lifecycle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/entity"
	"github.com/agentpod/agentpod/internal/infrastructure/runtime"
	"github.com/agentpod/agentpod/pkg/errors"
)

// fakeRuntime is a scriptable isolation runtime.
type fakeRuntime struct {
	mu         sync.Mutex
	runErr     error
	inspectErr error
	status     string
	hostPort   string
	lastSpec   runtime.RunSpec
	runCalls   int
	removed    []string
}

func (f *fakeRuntime) Run(ctx context.Context, spec runtime.RunSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runCalls++
	f.lastSpec = spec
	if f.runErr != nil {
		return "", f.runErr
	}
	return "container-" + spec.Name, nil
}

func (f *fakeRuntime) Inspect(ctx context.Context, handle string) (*runtime.UnitState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inspectErr != nil {
		return nil, f.inspectErr
	}
	status := f.status
	if status == "" {
		status = "running"
	}
	return &runtime.UnitState{Status: status, HostPort: f.hostPort}, nil
}

func (f *fakeRuntime) ForceRemove(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, handle)
	return nil
}

func (f *fakeRuntime) removedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.removed)
}

func testConfig() Config {
	return Config{
		Image:             "agentpod/agentd:test",
		InternalPort:      8080,
		MemoryLimit:       512 * 1024 * 1024,
		PublicHost:        "localhost",
		ReadinessTimeout:  300 * time.Millisecond,
		ReadinessInterval: 20 * time.Millisecond,
		HealthTimeout:     100 * time.Millisecond,
		ChatTimeout:       2 * time.Second,
		MaxTokens:         800,
		Temperature:       0.7,
		AzureEndpoint:     "https://example.openai.azure.com",
		AzureAPIKey:       "test-key",
		AzureAPIVersion:   "2024-02-15-preview",
		AzureDeployment:   "gpt-4o-mini",
	}
}

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// newUnitServer runs a stand-in agent unit and returns its host and port so
// the fake runtime can report the port as the unit's published one.
func newUnitServer(t *testing.T, handler http.Handler) (*httptest.Server, string, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	return server, u.Hostname(), u.Port()
}

func healthOK() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestManager_CreateSuccess(t *testing.T) {
	server, host, port := newUnitServer(t, healthOK())
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{
		AgentType: "coder",
		ModelName: "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if agent.Status != entity.StatusRunning {
		t.Fatalf("expected running, got %s", agent.Status)
	}
	if agent.Endpoint == "" || !strings.Contains(agent.Endpoint, port) {
		t.Fatalf("bad endpoint %q", agent.Endpoint)
	}
	if agent.Name != "agent-"+agent.ID[:8] {
		t.Fatalf("unexpected name %q", agent.Name)
	}
	if m.Count() != 1 {
		t.Fatalf("expected 1 registered agent, got %d", m.Count())
	}
	if rt.removedCount() != 0 {
		t.Fatal("no unit should have been removed on the success path")
	}

	env := rt.lastSpec.Env
	if env["AGENT_ID"] != agent.ID || env["AGENT_TYPE"] != "coder" {
		t.Fatalf("unit env not propagated: %v", env)
	}
	if env["AZURE_OPENAI_API_KEY"] != "test-key" {
		t.Fatal("credentials must be injected into the unit")
	}
	if rt.lastSpec.MemoryLimit != 512*1024*1024 {
		t.Fatalf("unit must be memory-capped, got %d", rt.lastSpec.MemoryLimit)
	}
}

func TestManager_CreateMissingConfiguration(t *testing.T) {
	rt := &fakeRuntime{}
	cfg := testConfig()
	cfg.AzureAPIKey = ""
	m := NewManager(cfg, rt, newTestLogger())

	_, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if !errors.Is(err, errors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if rt.runCalls != 0 {
		t.Fatal("no unit may be created without provider credentials")
	}
}

func TestManager_CreateUnknownTemplate(t *testing.T) {
	rt := &fakeRuntime{}
	m := NewManager(testConfig(), rt, newTestLogger())

	_, err := m.Create(context.Background(), CreateParams{Template: "nonexistent"})
	if !errors.Is(err, errors.CodeTemplateNotFound) {
		t.Fatalf("expected template-not-found, got %v", err)
	}
	if !strings.Contains(err.Error(), "senior_fullstack") {
		t.Fatalf("error should list available templates, got %q", err.Error())
	}
	if rt.runCalls != 0 || m.Count() != 0 {
		t.Fatal("unknown template must not allocate anything")
	}
}

func TestManager_TemplatePrecedence(t *testing.T) {
	server, host, port := newUnitServer(t, healthOK())
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{
		Template:     "senior_fullstack",
		SystemPrompt: "custom prompt that must lose",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if agent.TemplateUsed != "senior_fullstack" {
		t.Fatalf("expected template_used set, got %q", agent.TemplateUsed)
	}
	if strings.Contains(agent.SystemPrompt, "must lose") {
		t.Fatal("template must take precedence over the custom prompt")
	}
	if !strings.Contains(rt.lastSpec.Env["CUSTOM_SYSTEM_PROMPT"], "full-stack developer") {
		t.Fatal("resolved template text must be injected into the unit")
	}
}

func TestManager_CreatePortAssignmentFailure(t *testing.T) {
	rt := &fakeRuntime{hostPort: ""} // port never published
	m := NewManager(testConfig(), rt, newTestLogger())

	_, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if !errors.Is(err, errors.CodePortAssignment) {
		t.Fatalf("expected port assignment error, got %v", err)
	}
	if rt.removedCount() != 1 {
		t.Fatalf("failed unit must be force-removed, removals: %d", rt.removedCount())
	}
	if m.Count() != 0 {
		t.Fatal("no registry entry may remain after a failed create")
	}
}

func TestManager_CreateReadinessFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "starting", http.StatusServiceUnavailable)
	})
	server, host, port := newUnitServer(t, mux)
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	_, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if !errors.Is(err, errors.CodeReadiness) {
		t.Fatalf("expected readiness error, got %v", err)
	}
	if rt.removedCount() != 1 {
		t.Fatal("unready unit must be force-removed")
	}
	if m.Count() != 0 {
		t.Fatal("no registry entry may remain after a readiness failure")
	}
}

func TestManager_DeleteIdempotent(t *testing.T) {
	server, host, port := newUnitServer(t, healthOK())
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !m.Delete(context.Background(), agent.ID) {
		t.Fatal("first delete should report true")
	}
	if rt.removedCount() != 1 {
		t.Fatal("delete must remove the unit")
	}
	if m.Delete(context.Background(), agent.ID) {
		t.Fatal("second delete should report false")
	}
}

func TestManager_StatusRefreshReportsNotFound(t *testing.T) {
	server, host, port := newUnitServer(t, healthOK())
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Unit disappears underneath the registry.
	rt.mu.Lock()
	rt.inspectErr = runtime.ErrUnitNotFound
	rt.mu.Unlock()

	got, ok := m.Get(context.Background(), agent.ID)
	if !ok {
		t.Fatal("agent must stay registered; removal is explicit only")
	}
	if got.Status != entity.StatusNotFound {
		t.Fatalf("expected not_found, got %s", got.Status)
	}

	agents := m.List(context.Background())
	if len(agents) != 1 || agents[0].Status != entity.StatusNotFound {
		t.Fatalf("list must refresh statuses, got %+v", agents)
	}
}

func TestManager_ChatNotFound(t *testing.T) {
	m := NewManager(testConfig(), &fakeRuntime{}, newTestLogger())

	_, err := m.Chat(context.Background(), "missing", "hi", "u")
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestManager_ChatNotRunning(t *testing.T) {
	server, host, port := newUnitServer(t, healthOK())
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rt.mu.Lock()
	rt.status = "exited"
	rt.mu.Unlock()

	_, err = m.Chat(context.Background(), agent.ID, "hi", "u")
	if !errors.IsNotRunning(err) {
		t.Fatalf("expected not-running, got %v", err)
	}
	if !strings.Contains(err.Error(), "exited") {
		t.Fatalf("error should carry the current status, got %q", err.Error())
	}
}

func TestManager_ChatProxiesUnitResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req entity.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(entity.ChatResponse{
			Response: "answer to: " + req.Message,
			AgentID:  "unit-1",
			Backend:  "azure_openai",
			Usage:    entity.Usage{TotalTokens: 42},
		})
	})
	server, host, port := newUnitServer(t, mux)
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resp, err := m.Chat(context.Background(), agent.ID, "2+2?", "u1")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Response != "answer to: 2+2?" {
		t.Fatalf("unexpected response %q", resp.Response)
	}
	if resp.Usage.TotalTokens != 42 {
		t.Fatalf("usage not propagated, got %d", resp.Usage.TotalTokens)
	}
}

func TestManager_ChatRemoteFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "both providers down", http.StatusInternalServerError)
	})
	server, host, port := newUnitServer(t, mux)
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = m.Chat(context.Background(), agent.ID, "hi", "u")
	if !errors.Is(err, errors.CodeRemoteChat) {
		t.Fatalf("expected remote chat error, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("error should carry status and body, got %q", err.Error())
	}
}

func TestManager_BuildEndpointStripsScheme(t *testing.T) {
	cfg := testConfig()
	cfg.PublicHost = "https://agents.example.com"
	m := NewManager(cfg, &fakeRuntime{}, newTestLogger())

	if got := m.buildEndpoint("49213"); got != "http://agents.example.com:49213" {
		t.Fatalf("unexpected endpoint %q", got)
	}

	cfg.PublicHost = "10.1.2.3"
	m = NewManager(cfg, &fakeRuntime{}, newTestLogger())
	if got := m.buildEndpoint("8080"); got != "http://10.1.2.3:8080" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}

func TestManager_AgentHealthMergesUnitPayload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "healthy", "ai_backend": "echo"})
	})
	server, host, port := newUnitServer(t, mux)
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	payload, err := m.AgentHealth(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("AgentHealth failed: %v", err)
	}
	if payload["container_status"] != entity.StatusRunning {
		t.Fatalf("expected running container status, got %v", payload["container_status"])
	}
	health, ok := payload["agent_health"].(map[string]interface{})
	if !ok || health["ai_backend"] != "echo" {
		t.Fatalf("unit health payload not merged: %v", payload["agent_health"])
	}
}

// Exercises concurrent status recomputation; run with -race. Every reader
// refreshes its own copy, so mixed list/get/chat traffic must never share a
// written Status field.
func TestManager_ConcurrentStatusReads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.ChatResponse{Response: "ok", Backend: "echo"})
	})
	server, host, port := newUnitServer(t, mux)
	defer server.Close()

	rt := &fakeRuntime{hostPort: port}
	cfg := testConfig()
	cfg.PublicHost = host
	m := NewManager(cfg, rt, newTestLogger())

	agent, err := m.Create(context.Background(), CreateParams{AgentType: "coder"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch n % 3 {
				case 0:
					for _, a := range m.List(context.Background()) {
						if a.Status == "" {
							t.Error("list returned an agent with empty status")
						}
					}
				case 1:
					if a, ok := m.Get(context.Background(), agent.ID); ok && a.Status == "" {
						t.Error("get returned an agent with empty status")
					}
				case 2:
					if _, err := m.Chat(context.Background(), agent.ID, "hi", "u"); err != nil {
						t.Errorf("chat failed: %v", err)
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestManager_TestPrimaryProviderUnconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.AzureEndpoint = ""
	m := NewManager(cfg, &fakeRuntime{}, newTestLogger())

	result := m.TestPrimaryProvider(context.Background())
	if result["configured"] != false || result["ok"] != false {
		t.Fatalf("unconfigured provider must fail the test without a call: %v", result)
	}
	if result["error"] == "" {
		t.Fatal("result should say what is missing")
	}
}
