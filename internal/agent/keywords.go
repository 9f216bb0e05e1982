package agent

import (
	"context"
	"fmt"

	"chatkit/internal/genai"
	"chatkit/internal/prompt"
)

// ExtractKeywords asks the model for 1-3 lowercase search keywords for the
// message. template may be empty to use the default few-shot template; a
// custom template receives the sanitized message via {MESSAGE}. A response
// that is not a JSON string array surfaces as a ParseError; there is no
// retry on malformed output.
func (a *Agent) ExtractKeywords(ctx context.Context, message, template string) ([]string, error) {
	if template == "" {
		template = prompt.DefaultKeywordTemplate
	}
	rendered := prompt.Render(template, []prompt.Pair{
		{Placeholder: prompt.MessagePlaceholder, Value: prompt.SanitizeInput(message)},
	})

	raw, err := a.llm.Generate(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("keyword completion: %w", err)
	}
	keywords, err := genai.ParseStringArray(raw)
	if err != nil {
		return nil, err
	}
	a.log.Debug("extracted keywords", "count", len(keywords))
	return keywords, nil
}
