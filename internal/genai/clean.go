package genai

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"chatkit/internal/aierr"
)

// CleanResponse trims a raw model response and strips a surrounding markdown
// code fence if present, with or without a language tag. Unfenced input is
// only trimmed. The function is idempotent and does no JSON validation.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if i := strings.IndexByte(s, '\n'); i >= 0 && isLanguageTag(strings.TrimSpace(s[:i])) {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}

// isLanguageTag reports whether s looks like a fence annotation ("json",
// "javascript", ...). Anything beyond letters and digits is treated as
// content, not a tag.
func isLanguageTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ParseStringArray cleans raw model output and parses it as a JSON array of
// strings. Invalid JSON or any other JSON shape yields a ParseError.
func ParseStringArray(raw string) ([]string, error) {
	cleaned := CleanResponse(raw)
	var out []string
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &aierr.ParseError{Want: "JSON string array", Raw: cleaned, Err: err}
	}
	// json.Unmarshal accepts null into a slice without error.
	if out == nil {
		return nil, &aierr.ParseError{Want: "JSON string array", Raw: cleaned, Err: errors.New("null is not an array")}
	}
	return out, nil
}
