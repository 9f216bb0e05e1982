package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"chatkit/internal/aierr"
	"chatkit/internal/genai"
	"chatkit/internal/prompt"
	"chatkit/internal/reader"
)

func newTestAgent(llm genai.Completer, fetcher reader.Fetcher) *Agent {
	return New(llm, fetcher, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Matchers for the three prompt shapes a chat flow can generate.
func isClassifyPrompt(p string) bool { return strings.Contains(p, "SEARCH_NEEDED") }
func isKeywordPrompt(p string) bool  { return strings.Contains(p, "Keywords:") }

func TestAsk(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, "raw prompt").Return("raw answer", nil).Once()

	got, err := newTestAgent(llm, nil).Ask(context.Background(), "raw prompt")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "raw answer" {
		t.Errorf("Ask = %q", got)
	}
	llm.AssertExpectations(t)
}

func TestNeedsSearch(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"exact positive", "SEARCH_NEEDED", true},
		{"exact negative", "NO_SEARCH", false},
		{"negative any case", "no_search", false},
		{"verbose positive kept loose", "please SEARCH the db", true},
		{"unrelated answer", "I cannot help with that", false},
		{"whitespace around answer", "  search_needed \n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(genai.MockCompleter)
			llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
				return strings.Contains(p, "Does this need a lookup?") && strings.Contains(p, "SEARCH_NEEDED")
			})).Return(tt.response, nil).Once()

			got, err := newTestAgent(llm, nil).NeedsSearch(context.Background(), "msg", "Does this need a lookup?")
			if err != nil {
				t.Fatalf("NeedsSearch: %v", err)
			}
			if got != tt.want {
				t.Errorf("NeedsSearch(%q) = %v, want %v", tt.response, got, tt.want)
			}
			llm.AssertExpectations(t)
		})
	}
}

func TestNeedsSearchRendersPlaceholder(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Classify: find rice") && !strings.Contains(p, "{MESSAGE}")
	})).Return("NO_SEARCH", nil).Once()

	_, err := newTestAgent(llm, nil).NeedsSearch(context.Background(), "find rice", "Classify: {MESSAGE}")
	if err != nil {
		t.Fatalf("NeedsSearch: %v", err)
	}
	llm.AssertExpectations(t)
}

func TestExtractKeywords(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		// The default template carries the message and asks for keywords.
		return strings.Contains(p, `Message: "find rice"`) && strings.Contains(p, "Keywords:")
	})).Return("```json\n[\"rice\",\"colombo\"]\n```", nil).Once()

	got, err := newTestAgent(llm, nil).ExtractKeywords(context.Background(), "find rice", "")
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	if len(got) != 2 || got[0] != "rice" || got[1] != "colombo" {
		t.Errorf("ExtractKeywords = %v", got)
	}
	llm.AssertExpectations(t)
}

func TestExtractKeywordsSanitizesMessage(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `"find rice now"`)
	})).Return(`["rice"]`, nil).Once()

	_, err := newTestAgent(llm, nil).ExtractKeywords(context.Background(), "find   rice\tnow", "")
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	llm.AssertExpectations(t)
}

func TestExtractKeywordsCustomTemplate(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, "terms for: find rice").Return(`["rice"]`, nil).Once()

	got, err := newTestAgent(llm, nil).ExtractKeywords(context.Background(), "find rice", "terms for: {MESSAGE}")
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	if len(got) != 1 || got[0] != "rice" {
		t.Errorf("ExtractKeywords = %v", got)
	}
	llm.AssertExpectations(t)
}

func TestExtractKeywordsParseError(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, mock.Anything).Return("not json", nil).Once()

	_, err := newTestAgent(llm, nil).ExtractKeywords(context.Background(), "msg", "")
	var pe *aierr.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestChatWithEnrichment(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.MatchedBy(isClassifyPrompt)).
		Return("SEARCH_NEEDED", nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(isKeywordPrompt)).
		Return("```json\n[\"rice\"]\n```", nil).Once()
	lookup.On("Search", mock.Anything, []string{"rice"}).
		Return(map[string]any{"count": 3}, nil).Once()
	// The final prompt must carry the serialized lookup result as context.
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `{"count":3}`) &&
			strings.Contains(p, "Find rice suppliers") &&
			strings.HasSuffix(p, "Respond:")
	})).Return("Here are 3 suppliers.", nil).Once()

	settings := NewChatSettings("You are a supplier assistant.", "Does this need a lookup?")
	got, err := newTestAgent(llm, nil).Chat(context.Background(), "Find rice suppliers", nil, settings, lookup)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "Here are 3 suppliers." {
		t.Errorf("Chat = %q", got)
	}
	llm.AssertExpectations(t)
	lookup.AssertExpectations(t)
}

func TestChatLookupFailureFailsWholeCall(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.MatchedBy(isClassifyPrompt)).
		Return("SEARCH_NEEDED", nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(isKeywordPrompt)).
		Return(`["rice"]`, nil).Once()
	lookup.On("Search", mock.Anything, []string{"rice"}).
		Return(nil, errors.New("db down")).Once()

	_, err := newTestAgent(llm, nil).Chat(context.Background(), "Find rice",
		nil, NewChatSettings("sys", "classify"), lookup)
	if err == nil {
		t.Fatal("expected error when lookup fails")
	}
	// No fallback to an unenriched answer: the final completion never runs.
	llm.AssertNumberOfCalls(t, "Generate", 2)
	lookup.AssertExpectations(t)
}

func TestChatClassificationFailureFailsWholeCall(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.MatchedBy(isClassifyPrompt)).
		Return("", errors.New("completion down")).Once()

	_, err := newTestAgent(llm, nil).Chat(context.Background(), "Find rice",
		nil, NewChatSettings("sys", "classify"), lookup)
	if err == nil {
		t.Fatal("expected error when classification fails")
	}
	llm.AssertNumberOfCalls(t, "Generate", 1)
	lookup.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestChatNoSearchNeeded(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.MatchedBy(isClassifyPrompt)).
		Return("NO_SEARCH", nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "hello") && !strings.Contains(p, "count")
	})).Return("hi", nil).Once()

	got, err := newTestAgent(llm, nil).Chat(context.Background(), "hello",
		nil, NewChatSettings("sys", "classify"), lookup)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "hi" {
		t.Errorf("Chat = %q", got)
	}
	lookup.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestChatZeroKeywordsSkipsLookup(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.MatchedBy(isClassifyPrompt)).
		Return("SEARCH_NEEDED", nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(isKeywordPrompt)).
		Return("[]", nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasSuffix(p, "Respond:")
	})).Return("answer", nil).Once()

	_, err := newTestAgent(llm, nil).Chat(context.Background(), "vague",
		nil, NewChatSettings("sys", "classify"), lookup)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	lookup.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestChatAutoSearchDisabled(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.Anything).Return("answer", nil).Once()

	settings := ChatSettings{SystemPrompt: "sys", SearchClassificationPrompt: "classify"}
	_, err := newTestAgent(llm, nil).Chat(context.Background(), "Find rice", nil, settings, lookup)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	llm.AssertNumberOfCalls(t, "Generate", 1)
	lookup.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestChatNilLookupSkipsOrchestration(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, mock.Anything).Return("answer", nil).Once()

	_, err := newTestAgent(llm, nil).Chat(context.Background(), "Find rice",
		nil, NewChatSettings("sys", "classify"), nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	llm.AssertNumberOfCalls(t, "Generate", 1)
}

func TestChatIncludesHistory(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "user: earlier question\nassistant: earlier answer")
	})).Return("answer", nil).Once()

	history := []Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	settings := ChatSettings{SystemPrompt: "sys"}
	_, err := newTestAgent(llm, nil).Chat(context.Background(), "follow-up", history, settings, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	llm.AssertExpectations(t)
}

func TestSimpleChat(t *testing.T) {
	llm := new(genai.MockCompleter)
	llm.On("Generate", mock.Anything, "sys\n\nuser: hi\n\nmsg\n\nRespond:").
		Return("answer", nil).Once()

	got, err := newTestAgent(llm, nil).SimpleChat(context.Background(), "msg", "sys",
		[]Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("SimpleChat: %v", err)
	}
	if got != "answer" {
		t.Errorf("SimpleChat = %q", got)
	}
	llm.AssertExpectations(t)
}

func TestQuery(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.MatchedBy(isKeywordPrompt)).
		Return(`["rice","colombo"]`, nil).Once()
	lookup.On("Search", mock.Anything, []string{"rice", "colombo"}).
		Return([]map[string]any{{"name": "Lanka Rice"}}, nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Lanka Rice")
	})).Return("One supplier found.", nil).Once()

	out, err := newTestAgent(llm, nil).Query(context.Background(), "rice suppliers in colombo", lookup)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(out.Keywords) != 2 || out.Response != "One supplier found." {
		t.Errorf("Query = %+v", out)
	}
	if out.Results == nil {
		t.Error("expected results preserved in outcome")
	}
	llm.AssertExpectations(t)
	lookup.AssertExpectations(t)
}

func TestQueryZeroKeywordsIsDomainError(t *testing.T) {
	llm := new(genai.MockCompleter)
	lookup := new(MockLookup)

	llm.On("Generate", mock.Anything, mock.Anything).Return("[]", nil).Once()

	_, err := newTestAgent(llm, nil).Query(context.Background(), "hmm", lookup)
	var de *aierr.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	lookup.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestScrape(t *testing.T) {
	llm := new(genai.MockCompleter)
	fetcher := new(reader.MockFetcher)

	fetcher.On("Fetch", mock.Anything, "https://example.com").
		Return("page about rice prices", nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "page about rice prices") && strings.Contains(p, "Summarize")
	})).Return("The page lists rice prices.", nil).Once()

	got, err := newTestAgent(llm, fetcher).Scrape(context.Background(), "https://example.com", "")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if got != "The page lists rice prices." {
		t.Errorf("Scrape = %q", got)
	}
	llm.AssertExpectations(t)
	fetcher.AssertExpectations(t)
}

func TestScrapeFetchFailure(t *testing.T) {
	llm := new(genai.MockCompleter)
	fetcher := new(reader.MockFetcher)

	fetcher.On("Fetch", mock.Anything, "https://example.com").
		Return("", &aierr.TransportError{Endpoint: "reader", Err: errors.New("timeout")}).Once()

	_, err := newTestAgent(llm, fetcher).Scrape(context.Background(), "https://example.com", "")
	var te *aierr.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestScrapeWithoutFetcher(t *testing.T) {
	llm := new(genai.MockCompleter)

	_, err := newTestAgent(llm, nil).Scrape(context.Background(), "https://example.com", "")
	var de *aierr.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestScrapeCustomInstruction(t *testing.T) {
	llm := new(genai.MockCompleter)
	fetcher := new(reader.MockFetcher)

	fetcher.On("Fetch", mock.Anything, "https://example.com").Return("content here", nil).Once()
	llm.On("Generate", mock.Anything, "List prices in: content here").Return("ok", nil).Once()

	_, err := newTestAgent(llm, fetcher).Scrape(context.Background(), "https://example.com",
		"List prices in: "+prompt.ContentPlaceholder)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	llm.AssertExpectations(t)
}

func TestSearchSettings(t *testing.T) {
	s := SearchSettings{TableName: "suppliers", SearchColumns: []string{"name", "city"}}
	if s.Limit() != DefaultMaxResults {
		t.Errorf("Limit = %d, want default %d", s.Limit(), DefaultMaxResults)
	}
	rendered := prompt.Render("search {TABLE} on {COLUMNS} (max {MAX_RESULTS})", s.PromptPairs())
	if rendered != "search suppliers on name, city (max 10)" {
		t.Errorf("rendered = %q", rendered)
	}
}

func TestLookupFuncAdapter(t *testing.T) {
	called := false
	fn := LookupFunc(func(ctx context.Context, keywords []string) (any, error) {
		called = true
		return len(keywords), nil
	})
	got, err := fn.Search(context.Background(), []string{"a", "b"})
	if err != nil || got != 2 || !called {
		t.Errorf("LookupFunc.Search = %v, %v (called=%v)", got, err, called)
	}
}
