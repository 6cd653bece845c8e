package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Result is the bridge's normalized chat outcome.
type Result struct {
	Text    string
	Backend string // backend tag; "_fallback" suffix after a primary failure, "echo" when unconfigured
	Usage   Usage
}

// Bridge orchestrates chat calls across the primary and secondary backends.
//
// Per call: try primary; on failure try secondary if configured; surface the
// primary's error when both fail (primary is authoritative for diagnostics).
// With no primary, the secondary is tried directly and its own error is
// surfaced. With neither configured the bridge degrades to echo mode and
// never fails. Exactly one or two outbound calls per chat, no other retries.
type Bridge struct {
	agentID      string
	systemPrompt string
	primary      Client // nil when the primary backend is unconfigured
	secondary    Client // nil when the secondary backend is unconfigured
	logger       *zap.Logger
}

// NewBridge creates a fallback bridge. Either client may be nil.
func NewBridge(agentID, systemPrompt string, primary, secondary Client, logger *zap.Logger) *Bridge {
	return &Bridge{
		agentID:      agentID,
		systemPrompt: systemPrompt,
		primary:      primary,
		secondary:    secondary,
		logger:       logger,
	}
}

// PrimaryConfigured reports whether a primary backend is wired.
func (b *Bridge) PrimaryConfigured() bool { return b.primary != nil }

// SecondaryConfigured reports whether a secondary backend is wired.
func (b *Bridge) SecondaryConfigured() bool { return b.secondary != nil }

// BackendSummary names the backend that will serve the next call.
func (b *Bridge) BackendSummary() string {
	switch {
	case b.primary != nil:
		return b.primary.Name()
	case b.secondary != nil:
		return b.secondary.Name()
	default:
		return "echo"
	}
}

// Chat runs one request through the fallback state machine.
func (b *Bridge) Chat(ctx context.Context, message, userID string) (*Result, error) {
	if b.primary == nil && b.secondary == nil {
		return b.echo(message), nil
	}

	messages := []Message{
		{Role: "system", Content: b.systemPrompt},
		{Role: "user", Content: message},
	}

	if b.primary == nil {
		// Secondary only: no fallback marker, its own error surfaces.
		completion, err := b.secondary.Send(ctx, messages, userID)
		if err != nil {
			return nil, err
		}
		return b.result(completion, b.secondary.Name())
	}

	completion, primaryErr := b.primary.Send(ctx, messages, userID)
	if primaryErr == nil {
		return b.result(completion, b.primary.Name())
	}

	if b.secondary == nil {
		return nil, primaryErr
	}

	b.logger.Warn("Primary backend failed, falling back",
		zap.String("primary", b.primary.Name()),
		zap.String("secondary", b.secondary.Name()),
		zap.Error(primaryErr),
	)

	completion, secondaryErr := b.secondary.Send(ctx, messages, userID)
	if secondaryErr != nil {
		b.logger.Error("Secondary backend also failed",
			zap.Error(secondaryErr),
		)
		// Primary error is authoritative for diagnostics.
		return nil, primaryErr
	}

	return b.result(completion, b.secondary.Name()+"_fallback")
}

func (b *Bridge) result(completion *Completion, backend string) (*Result, error) {
	text, err := completion.Text()
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Backend: backend, Usage: completion.Usage}, nil
}

func (b *Bridge) echo(message string) *Result {
	return &Result{
		Text:    fmt.Sprintf("agent %s (echo mode): %s", shortID(b.agentID), message),
		Backend: "echo",
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
