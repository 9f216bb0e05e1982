package genai

import "context"

// Completer is the minimal completion interface to allow pluggable backends
// and test doubles. Implementations must be safe for concurrent use.
type Completer interface {
	// Generate sends a prompt to the completion endpoint and returns the
	// first generated text fragment.
	Generate(ctx context.Context, prompt string) (string, error)
}
