// Package agent composes the completion client, the page reader, and an
// optional lookup strategy into chat, keyword, classification, query, and
// scrape operations. An Agent holds no mutable state; every operation is a
// pure function of its inputs plus the injected collaborators, so a single
// Agent is safe for concurrent use.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"chatkit/internal/aierr"
	"chatkit/internal/genai"
	"chatkit/internal/prompt"
	"chatkit/internal/reader"
)

// maxScrapeWords caps fetched page content before it enters a prompt.
const maxScrapeWords = 6000

type Agent struct {
	llm     genai.Completer
	fetcher reader.Fetcher
	log     *slog.Logger
}

// New builds an Agent. fetcher may be nil when scrape is not needed.
func New(llm genai.Completer, fetcher reader.Fetcher, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{llm: llm, fetcher: fetcher, log: log}
}

// Ask is a pass-through to the completion endpoint with no prompt assembly.
func (a *Agent) Ask(ctx context.Context, promptText string) (string, error) {
	return a.llm.Generate(ctx, promptText)
}

// Scrape fetches a page's extracted text and asks the model about it. When
// instruction is empty a default summarization instruction is used; a custom
// instruction may place the content with {CONTENT}.
func (a *Agent) Scrape(ctx context.Context, url, instruction string) (string, error) {
	if a.fetcher == nil {
		return "", &aierr.DomainError{Msg: "no page fetcher configured"}
	}
	content, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	a.log.Debug("fetched page", "url", url, "bytes", len(content))
	content = prompt.TruncateWords(content, maxScrapeWords)
	return a.llm.Generate(ctx, prompt.BuildScrapePrompt(instruction, content))
}
