package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chatkit/internal/agent"
	"chatkit/internal/aierr"
	"chatkit/internal/app"
	"chatkit/internal/httputil"
	"chatkit/internal/prompt"
)

// Server-side fallbacks when a chat request carries no prompts of its own.
const (
	defaultSystemPrompt   = "You are a helpful assistant. Answer using the conversation and any provided data."
	defaultClassifyPrompt = "Decide whether answering the user message requires searching the {TABLE} database (columns: {COLUMNS})."
)

type chatRequest struct {
	SessionID          string `json:"session_id" validate:"omitempty,uuid4"`
	Message            string `json:"message" validate:"required,min=1,max=4000"`
	SystemPrompt       string `json:"system_prompt" validate:"omitempty,max=8000"`
	ClassifyPrompt     string `json:"classification_prompt" validate:"omitempty,max=8000"`
	FormatInstructions string `json:"format_instructions" validate:"omitempty,max=4000"`
	AutoSearch         *bool  `json:"auto_search"`
}

type askRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1"`
}

type keywordsRequest struct {
	Message  string `json:"message" validate:"required,min=1,max=4000"`
	Template string `json:"template" validate:"omitempty,max=8000"`
}

type queryRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

type scrapeRequest struct {
	URL         string `json:"url" validate:"required,url"`
	Instruction string `json:"instruction" validate:"omitempty,max=8000"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	r := httputil.NewRouter(deps.Log)
	r.Post("/api/chat", chatHandler(deps))
	r.Post("/api/ask", askHandler(deps))
	r.Post("/api/keywords", keywordsHandler(deps))
	r.Post("/api/query", queryHandler(deps))
	r.Post("/api/scrape", scrapeHandler(deps))
	r.Post("/api/sessions", createSessionHandler(deps))
	r.Get("/api/sessions/{id}/messages", sessionMessagesHandler(deps))
	r.Delete("/api/sessions/{id}", clearSessionHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", deps.Config.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Log.Info("shutting down")
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server error", "err", err)
		os.Exit(1)
	}
}

func chatHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		settings := agent.NewChatSettings(
			orDefault(req.SystemPrompt, defaultSystemPrompt),
			renderClassifyPrompt(deps, req.ClassifyPrompt),
		)
		settings.ResponseFormatInstructions = req.FormatInstructions
		if req.AutoSearch != nil {
			settings.AutoSearch = *req.AutoSearch
		}

		ctx := r.Context()
		sessionID := req.SessionID

		var messages []agent.Message
		if deps.History != nil && sessionID != "" {
			var err error
			messages, err = deps.History.Recent(ctx, sessionID, deps.Config.HistoryLimit)
			if err != nil {
				httputil.Fail(deps.Log, w, "failed to load history", err, http.StatusInternalServerError)
				return
			}
		}
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		response, err := deps.Agent.Chat(ctx, req.Message, messages, settings, deps.Lookup)
		if err != nil {
			failForError(deps.Log, w, "chat failed", err)
			return
		}

		if deps.History != nil {
			err := deps.History.Append(ctx, sessionID,
				agent.Message{Role: "user", Content: req.Message},
				agent.Message{Role: "assistant", Content: response},
			)
			if err != nil {
				// The answer is already produced; losing one history write
				// should not fail the request.
				deps.Log.Warn("failed to append history", "session", sessionID, "err", err)
			}
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"response":   response,
		})
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		response, err := deps.Agent.Ask(r.Context(), req.Prompt)
		if err != nil {
			failForError(deps.Log, w, "completion failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"response": response})
	}
}

func keywordsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req keywordsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		keywords, err := deps.Agent.ExtractKeywords(r.Context(), req.Message, req.Template)
		if err != nil {
			failForError(deps.Log, w, "keyword extraction failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"keywords": keywords})
	}
}

func queryHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Lookup == nil {
			httputil.Fail(deps.Log, w, "search is not configured", nil, http.StatusServiceUnavailable)
			return
		}

		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		outcome, err := deps.Agent.Query(r.Context(), req.Message, deps.Lookup)
		if err != nil {
			failForError(deps.Log, w, "query failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, outcome)
	}
}

func scrapeHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		response, err := deps.Agent.Scrape(r.Context(), req.URL, req.Instruction)
		if err != nil {
			failForError(deps.Log, w, "scrape failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"response": response})
	}
}

// createSessionHandler mints a session id. Nothing is written to the
// history store until the first chat call, so this works even when sessions
// are not configured.
func createSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusCreated, map[string]any{
			"session_id": uuid.New().String(),
		})
	}
}

func sessionMessagesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.History == nil {
			httputil.Fail(deps.Log, w, "sessions are not configured", nil, http.StatusServiceUnavailable)
			return
		}
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			httputil.Fail(deps.Log, w, "invalid session id", err, http.StatusBadRequest)
			return
		}
		messages, err := deps.History.Recent(r.Context(), id, 0)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load session messages", err, http.StatusInternalServerError)
			return
		}
		if messages == nil {
			messages = []agent.Message{}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"session_id": id,
			"messages":   messages,
		})
	}
}

func clearSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.History == nil {
			httputil.Fail(deps.Log, w, "sessions are not configured", nil, http.StatusServiceUnavailable)
			return
		}
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			httputil.Fail(deps.Log, w, "invalid session id", err, http.StatusBadRequest)
			return
		}
		if err := deps.History.Clear(r.Context(), id); err != nil {
			httputil.Fail(deps.Log, w, "failed to clear session", err, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// failForError maps the error taxonomy to HTTP statuses: upstream transport
// failures become 502, malformed model output and domain preconditions
// become 422, everything else 500.
func failForError(log *slog.Logger, w http.ResponseWriter, message string, err error) {
	var te *aierr.TransportError
	var pe *aierr.ParseError
	var ee *aierr.ExtractionError
	var de *aierr.DomainError
	switch {
	case errors.As(err, &te):
		httputil.Fail(log, w, message, err, http.StatusBadGateway)
	case errors.As(err, &pe), errors.As(err, &ee), errors.As(err, &de):
		httputil.Fail(log, w, message, err, http.StatusUnprocessableEntity)
	default:
		httputil.Fail(log, w, message, err, http.StatusInternalServerError)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func renderClassifyPrompt(deps app.Deps, custom string) string {
	if custom != "" {
		return custom
	}
	return prompt.Render(defaultClassifyPrompt, deps.Search.PromptPairs())
}
