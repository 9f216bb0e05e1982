package prompt

import (
	"regexp"
	"strings"
)

// Message is a single turn in a conversation. Role is a free-form label
// ("user", "assistant", ...); ordering of a slice is conversation order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Pair binds a literal placeholder (e.g. "{MESSAGE}") to its value.
type Pair struct {
	Placeholder string
	Value       string
}

// Render substitutes each pair into the template in order. Replacement is
// literal and non-overlapping, scanning left to right; the replacement text
// is never re-scanned for the same placeholder. Unmatched placeholders are
// left verbatim. There is no escaping syntax.
func Render(template string, pairs []Pair) string {
	out := template
	for _, p := range pairs {
		if p.Placeholder == "" {
			continue
		}
		out = strings.ReplaceAll(out, p.Placeholder, p.Value)
	}
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeInput collapses runs of whitespace into single spaces and trims
// the ends. Used on user messages before they reach a template.
func SanitizeInput(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Chat describes the sections of a chat prompt. Zero-valued optional
// sections are omitted from assembly.
type Chat struct {
	System             string
	FormatInstructions string
	History            []Message
	Context            string
	Message            string
}

// Assemble builds the final chat prompt. Section order is fixed: system
// prompt, format instructions, history ("role: content" lines), context
// block, current message, then a "Respond:" suffix. Present sections are
// separated by a blank line.
func (c Chat) Assemble() string {
	sections := make([]string, 0, 6)
	if c.System != "" {
		sections = append(sections, c.System)
	}
	if c.FormatInstructions != "" {
		sections = append(sections, c.FormatInstructions)
	}
	if len(c.History) > 0 {
		sections = append(sections, renderHistory(c.History))
	}
	if c.Context != "" {
		sections = append(sections, c.Context)
	}
	sections = append(sections, c.Message, "Respond:")
	return strings.Join(sections, "\n\n")
}

func renderHistory(history []Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// TruncateWords caps text at maxWords whitespace-separated words. Page
// content fetched by the reader can exceed the completion token budget, so
// scrape prompts clamp it first. Inputs at or under the cap are returned
// unchanged, preserving their original spacing.
func TruncateWords(text string, maxWords int) string {
	if maxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}
