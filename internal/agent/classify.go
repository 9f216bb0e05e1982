package agent

import (
	"context"
	"fmt"
	"strings"

	"chatkit/internal/prompt"
)

// NeedsSearch classifies whether answering message requires a data lookup.
// The caller's classification prompt receives the message (via {MESSAGE},
// or appended when the placeholder is absent) and the fixed
// SEARCH_NEEDED/NO_SEARCH directive.
//
// The answer is matched loosely: after upper-casing and trimming, a
// response containing "NO_SEARCH" is false; otherwise any response
// containing the substring "SEARCH" is true, including partial or malformed
// model output. That looseness is part of the contract; callers relying on
// it should not expect stricter matching.
func (a *Agent) NeedsSearch(ctx context.Context, message, classificationPrompt string) (bool, error) {
	var rendered string
	if strings.Contains(classificationPrompt, prompt.MessagePlaceholder) {
		rendered = prompt.Render(classificationPrompt, []prompt.Pair{
			{Placeholder: prompt.MessagePlaceholder, Value: message},
		})
	} else {
		rendered = classificationPrompt + "\n\nMessage: " + message
	}
	rendered += prompt.ClassifyDirective

	resp, err := a.llm.Generate(ctx, rendered)
	if err != nil {
		return false, fmt.Errorf("classification completion: %w", err)
	}
	answer := strings.ToUpper(strings.TrimSpace(resp))
	needed := !strings.Contains(answer, "NO_SEARCH") && strings.Contains(answer, "SEARCH")
	a.log.Debug("classified intent", "search_needed", needed)
	return needed, nil
}
