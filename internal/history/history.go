// Package history persists per-session conversation turns for the gateway.
// The agent library itself stays stateless; history is loaded here and
// passed to each chat call explicitly.
package history

import (
	"context"

	"chatkit/internal/agent"
)

// Store provides conversation history persistence.
type Store interface {
	// Append adds messages to the end of a session's history.
	Append(ctx context.Context, sessionID string, messages ...agent.Message) error

	// Recent returns up to limit most recent messages in conversation
	// order. A limit <= 0 returns the full history.
	Recent(ctx context.Context, sessionID string, limit int) ([]agent.Message, error)

	// Clear removes a session's history.
	Clear(ctx context.Context, sessionID string) error

	// Close closes the store connection.
	Close() error
}
