package agent

import (
	"context"
	"strconv"
	"strings"

	"chatkit/internal/prompt"
)

// Message is a single conversation turn, re-exported from prompt so callers
// of this package need only one import.
type Message = prompt.Message

// ChatSettings drives Chat behavior. Use NewChatSettings to get the
// documented defaults; the zero value has auto-search disabled.
type ChatSettings struct {
	// SystemPrompt opens every assembled chat prompt.
	SystemPrompt string
	// SearchClassificationPrompt is the caller's intent-classification
	// prompt; the fixed SEARCH_NEEDED/NO_SEARCH directive is appended to it.
	SearchClassificationPrompt string
	// ResponseFormatInstructions, when set, follows the system prompt.
	ResponseFormatInstructions string
	// AutoSearch enables lookup enrichment when a Lookup is supplied.
	AutoSearch bool
}

// NewChatSettings returns settings with auto-search enabled, the default.
func NewChatSettings(systemPrompt, classificationPrompt string) ChatSettings {
	return ChatSettings{
		SystemPrompt:               systemPrompt,
		SearchClassificationPrompt: classificationPrompt,
		AutoSearch:                 true,
	}
}

// SearchSettings describes the external data source referenced in prompts
// and by the bundled Postgres lookup. Nothing here is validated against the
// data source; it belongs to the caller.
type SearchSettings struct {
	TableName     string
	SearchColumns []string
	MaxResults    int
}

// DefaultMaxResults applies when SearchSettings.MaxResults is not positive.
const DefaultMaxResults = 10

// Limit returns MaxResults with the default applied.
func (s SearchSettings) Limit() int {
	if s.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return s.MaxResults
}

// PromptPairs exposes the settings as template placeholders ({TABLE},
// {COLUMNS}, {MAX_RESULTS}) for rendering into system or classification
// prompts.
func (s SearchSettings) PromptPairs() []prompt.Pair {
	return []prompt.Pair{
		{Placeholder: "{TABLE}", Value: s.TableName},
		{Placeholder: "{COLUMNS}", Value: strings.Join(s.SearchColumns, ", ")},
		{Placeholder: "{MAX_RESULTS}", Value: strconv.Itoa(s.Limit())},
	}
}

// QueryOutcome is the result of the Query operation. Keywords is non-empty
// whenever an outcome was produced via Query.
type QueryOutcome struct {
	Keywords []string `json:"keywords"`
	Results  any      `json:"results"`
	Response string   `json:"response"`
}

// Lookup turns a keyword list into an opaque structured result. It is the
// caller-supplied enrichment strategy; implementations decide what the
// keywords mean.
type Lookup interface {
	Search(ctx context.Context, keywords []string) (any, error)
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(ctx context.Context, keywords []string) (any, error)

func (f LookupFunc) Search(ctx context.Context, keywords []string) (any, error) {
	return f(ctx, keywords)
}
