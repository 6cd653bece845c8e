// Package llm contains the provider chat clients and the fallback bridge
// that agent units use to serve chat requests.
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Message is a single chat message in provider wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client issues a single chat completion request against one provider.
type Client interface {
	// Name returns the backend identifier used in response tagging
	// (e.g. "azure_openai", "openai").
	Name() string

	// Send performs one completion call. It fails with *TransportError on
	// connection-level failures and *HTTPError on non-2xx responses; both
	// are fallback-eligible for the bridge.
	Send(ctx context.Context, messages []Message, userID string) (*Completion, error)
}

// ClientConfig holds everything needed to construct a provider client.
// Unused fields are ignored by client kinds that don't need them.
type ClientConfig struct {
	Endpoint    string        // base URL (azure resource endpoint / openai API root)
	APIKey      string
	APIVersion  string        // azure: required query parameter
	Deployment  string        // azure: routing identifier baked into the URL
	Model       string        // openai: explicit model name in the request body
	MaxTokens   int           // completion length cap, fixed per unit
	Temperature float64       // sampling temperature, fixed per unit
	Timeout     time.Duration // per-call HTTP timeout
}

// --- Client factory registry ---
// Client kinds register themselves via init(). Constructing a client for a
// backend type goes through NewClient, mirroring how providers are wired
// elsewhere in the codebase.

// ClientFactory creates a Client from config.
type ClientFactory func(cfg ClientConfig, logger *zap.Logger) Client

var (
	factoryMu sync.RWMutex
	factories = map[string]ClientFactory{}
)

// RegisterFactory registers a client factory for the given backend type.
func RegisterFactory(typeName string, factory ClientFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[typeName] = factory
}

// NewClient creates a Client using the registered factory for typeName.
func NewClient(typeName string, cfg ClientConfig, logger *zap.Logger) (Client, error) {
	factoryMu.RLock()
	factory, ok := factories[typeName]
	factoryMu.RUnlock()

	if !ok {
		factoryMu.RLock()
		available := make([]string, 0, len(factories))
		for k := range factories {
			available = append(available, k)
		}
		factoryMu.RUnlock()
		return nil, fmt.Errorf("unknown client type %q (available: %v)", typeName, available)
	}

	return factory(cfg, logger), nil
}
