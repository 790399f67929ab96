package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/j840425/plan-estudio/core/state"
	"github.com/j840425/plan-estudio/internal/config"
	"github.com/j840425/plan-estudio/providers/ai"
	"github.com/j840425/plan-estudio/providers/search"
)

// Planner holds the collaborators shared by all node executors: the text
// generation provider, the web-search fallback, the configuration, and a
// structured logger.
type Planner struct {
	provider ai.Provider
	searcher search.Searcher
	cfg      config.Config
	logger   *slog.Logger

	mu    sync.Mutex
	calls int
	usage ai.Usage
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSearcher sets the web-search fallback used when grounded generation
// fails. Defaults to the DuckDuckGo searcher.
func WithSearcher(s search.Searcher) Option {
	return func(p *Planner) {
		if s != nil {
			p.searcher = s
		}
	}
}

// New creates a Planner around a text-generation provider.
func New(provider ai.Provider, cfg config.Config, opts ...Option) *Planner {
	p := &Planner{
		provider: provider,
		searcher: search.NewDuckDuckGo(),
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one complete planning run for a topic and level, honoring
// the configured wall-clock budget: when the budget expires mid-run the
// graph degrades to the forced (limited) output instead of aborting.
func (p *Planner) Run(ctx context.Context, topic string, level state.Level) (*state.State, error) {
	g, err := p.BuildGraph()
	if err != nil {
		return nil, fmt.Errorf("building workflow graph: %w", err)
	}

	if budget := p.cfg.RunTimeoutValue(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	st, err := g.Run(ctx, state.New(topic, level))

	calls, usage := p.Usage()
	p.logger.Info("provider usage",
		"calls", calls,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
		"total_tokens", usage.TotalTokens,
	)
	return st, err
}

// Usage returns the number of provider calls made so far and the accumulated
// token counts, as far as the provider reported them.
func (p *Planner) Usage() (calls int, usage ai.Usage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls, p.usage
}

func (p *Planner) recordUsage(u *ai.Usage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if u == nil {
		return
	}
	p.usage.PromptTokens += u.PromptTokens
	p.usage.CompletionTokens += u.CompletionTokens
	p.usage.TotalTokens += u.TotalTokens
}

// generate performs one provider call with the given prompts and sampling
// temperature. grounded enables provider-side web search. The per-call
// timeout comes from the configuration.
func (p *Planner) generate(ctx context.Context, system, prompt string, temperature float32, grounded bool) (string, error) {
	req := ai.ChatRequest{
		Model:        p.cfg.Model,
		SystemPrompt: system,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: prompt},
		},
		GenerationConfig: &ai.GenerationConfig{Temperature: temperature},
	}
	if grounded {
		req.Tools = []ai.ToolDescription{{Name: ai.ToolGoogleSearch}}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeoutValue())
	defer cancel()

	resp, err := p.provider.SendMessage(callCtx, req)
	if err != nil {
		return "", err
	}
	p.recordUsage(resp.Usage)
	if resp.Refusal != "" {
		return "", fmt.Errorf("generation blocked: %s", resp.Refusal)
	}
	return resp.Content, nil
}
