package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"chatkit/internal/aierr"
	"chatkit/internal/prompt"
)

// Chat produces an answer to message, optionally enriched with externally
// looked-up data. When settings.AutoSearch is on and lookup is non-nil, the
// flow is: classify intent, extract keywords, call lookup, then render the
// final prompt with the serialized lookup result as a context block. Any
// enrichment failure (classification, keyword extraction, lookup) fails the
// whole call; there is no fallback to an unenriched answer.
func (a *Agent) Chat(ctx context.Context, message string, history []Message, settings ChatSettings, lookup Lookup) (string, error) {
	var contextBlock string

	if settings.AutoSearch && lookup != nil {
		needed, err := a.NeedsSearch(ctx, message, settings.SearchClassificationPrompt)
		if err != nil {
			return "", err
		}
		if needed {
			keywords, err := a.ExtractKeywords(ctx, message, "")
			if err != nil {
				return "", err
			}
			if len(keywords) > 0 {
				results, err := lookup.Search(ctx, keywords)
				if err != nil {
					return "", fmt.Errorf("lookup: %w", err)
				}
				contextBlock = serializeResults(results)
				a.log.Debug("chat enriched with lookup results", "keywords", keywords)
			}
		}
	}

	return a.llm.Generate(ctx, prompt.Chat{
		System:             settings.SystemPrompt,
		FormatInstructions: settings.ResponseFormatInstructions,
		History:            history,
		Context:            contextBlock,
		Message:            message,
	}.Assemble())
}

// SimpleChat skips all search orchestration: system prompt, optional
// history, and the message.
func (a *Agent) SimpleChat(ctx context.Context, message, systemPrompt string, history []Message) (string, error) {
	return a.llm.Generate(ctx, prompt.Chat{
		System:  systemPrompt,
		History: history,
		Message: message,
	}.Assemble())
}

// Query runs the enrichment pipeline unconditionally: extract keywords,
// look them up, and answer with the results as context. Zero extracted
// keywords is a DomainError since Query exists to search.
func (a *Agent) Query(ctx context.Context, message string, lookup Lookup) (QueryOutcome, error) {
	keywords, err := a.ExtractKeywords(ctx, message, "")
	if err != nil {
		return QueryOutcome{}, err
	}
	if len(keywords) == 0 {
		return QueryOutcome{}, &aierr.DomainError{Msg: "no keywords extracted from message"}
	}

	results, err := lookup.Search(ctx, keywords)
	if err != nil {
		return QueryOutcome{}, fmt.Errorf("lookup: %w", err)
	}

	response, err := a.llm.Generate(ctx, prompt.Chat{
		Context: serializeResults(results),
		Message: message,
	}.Assemble())
	if err != nil {
		return QueryOutcome{}, err
	}
	return QueryOutcome{Keywords: keywords, Results: results, Response: response}, nil
}

// serializeResults renders an opaque lookup result for inclusion in a
// prompt. JSON when possible, fmt otherwise.
func serializeResults(results any) string {
	if results == nil {
		return ""
	}
	if b, err := json.Marshal(results); err == nil {
		return string(b)
	}
	return fmt.Sprint(results)
}
