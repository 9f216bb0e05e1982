package prompt

// MessagePlaceholder is the token substituted with the sanitized user
// message in keyword and classification templates.
const MessagePlaceholder = "{MESSAGE}"

// ContentPlaceholder is the token substituted with fetched page content in
// scrape templates.
const ContentPlaceholder = "{CONTENT}"

// DefaultKeywordTemplate asks the model for a JSON array of 1-3 lowercase
// keywords. Callers may supply their own template as long as it produces
// the same output shape.
const DefaultKeywordTemplate = `Extract 1 to 3 search keywords from the user message.
Reply with only a JSON array of lowercase strings. No explanation, no markdown.

Examples:
Message: "Where can I buy fresh rice in Colombo?"
Keywords: ["rice", "colombo"]
Message: "Do you stock coconut oil from local suppliers?"
Keywords: ["coconut oil", "suppliers"]
Message: "hello there"
Keywords: ["greeting"]

Message: "{MESSAGE}"
Keywords:`

// ClassifyDirective is appended to the caller's classification prompt. The
// answer is matched loosely: any response containing "SEARCH" (after
// upper-casing) counts as search-needed.
const ClassifyDirective = `

Answer with exactly one word: SEARCH_NEEDED if answering requires a database search, or NO_SEARCH if it does not.`

// DefaultScrapeTemplate wraps fetched page content when the caller gives no
// instruction of their own.
const DefaultScrapeTemplate = `Summarize the following web page content. Highlight the key facts and leave out navigation noise.

{CONTENT}`

// BuildScrapePrompt combines an instruction with fetched page content. A
// custom instruction may reference the content with {CONTENT}; when it does
// not, the content is appended after a blank line.
func BuildScrapePrompt(instruction, content string) string {
	if instruction == "" {
		return Render(DefaultScrapeTemplate, []Pair{{ContentPlaceholder, content}})
	}
	if rendered := Render(instruction, []Pair{{ContentPlaceholder, content}}); rendered != instruction {
		return rendered
	}
	return instruction + "\n\n" + content
}
