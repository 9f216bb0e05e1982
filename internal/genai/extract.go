package genai

import (
	"encoding/json"
	"fmt"

	"chatkit/internal/aierr"
)

// ExtractText pulls the first candidate's first text part out of a raw
// generateContent response body. Each malformed level reports its own
// extraction reason: absent candidates, empty candidates, or a candidate
// with no content parts.
func ExtractText(data []byte) (string, error) {
	var resp struct {
		// Pointer distinguishes an absent candidates key from an empty list.
		Candidates *[]candidate `json:"candidates"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &aierr.ExtractionError{Reason: fmt.Errorf("decode completion response: %w", err)}
	}
	if resp.Candidates == nil {
		return "", &aierr.ExtractionError{Reason: aierr.ErrNoCandidates}
	}
	candidates := *resp.Candidates
	if len(candidates) == 0 {
		return "", &aierr.ExtractionError{Reason: aierr.ErrEmptyCandidates}
	}
	parts := candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", &aierr.ExtractionError{Reason: aierr.ErrNoContentParts}
	}
	return parts[0].Text, nil
}
