package planner

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/j840425/plan-estudio/core/state"
	"github.com/j840425/plan-estudio/internal/config"
	"github.com/j840425/plan-estudio/providers/ai"
	"github.com/j840425/plan-estudio/providers/search"
)

// stubProvider scripts the text-generation collaborator. respond receives the
// full request so scenarios can dispatch on the system prompt.
type stubProvider struct {
	mu      sync.Mutex
	calls   []ai.ChatRequest
	respond func(req ai.ChatRequest) (string, error)
}

var _ ai.Provider = (*stubProvider)(nil)

func (s *stubProvider) SendMessage(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	content, err := s.respond(req)
	if err != nil {
		return nil, err
	}
	return &ai.ChatResponse{Content: content, FinishReason: "stop"}, nil
}

func (s *stubProvider) IsStopMessage(resp *ai.ChatResponse) bool {
	return resp != nil && resp.FinishReason == "stop"
}

func (s *stubProvider) WithAPIKey(string) ai.Provider { return s }
func (s *stubProvider) WithBaseURL(string) ai.Provider { return s }
func (s *stubProvider) WithHttpClient(*http.Client) ai.Provider { return s }

// stubSearcher is the web-search fallback double.
type stubSearcher struct {
	result string
	err    error
}

var _ search.Searcher = stubSearcher{}

func (s stubSearcher) Search(context.Context, string) (string, error) {
	return s.result, s.err
}

func newTestPlanner(respond func(req ai.ChatRequest) (string, error)) (*Planner, *stubProvider) {
	provider := &stubProvider{respond: respond}
	p := New(provider, config.Default(),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithSearcher(stubSearcher{}),
	)
	return p, provider
}

func newPlannerWithSearcher(provider ai.Provider, s search.Searcher) *Planner {
	return New(provider, config.Default(),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithSearcher(s),
	)
}

const stagesText = `Stage 1: Fundamentos
Los conceptos esenciales desde cero.
Duration: 4 semanas
Prerequisites: none
Objectives: aprender fundamentos, practicar sintaxis

Stage 2: Práctica
Duration: 4 semanas
Prerequisites: Fundamentos
Objectives: construir proyectos

Stage 3: Avanzado
Duration: 3 semanas
Prerequisites: Práctica
Objectives: dominar concurrencia`

const goodBooksText = `Title: El Libro Uno
Author: Ana Autora
Year: 2020
Rating: 4.6/5
Reviews: 1,200 reviews
Why: Ideal para aprender fundamentos, practicar sintaxis, construir proyectos y dominar concurrencia.
---
Title: El Libro Dos
Author: Benito Autor
Year: 2022
Rating: 4.8/5
Reviews: 900 reviews
Why: Cubre fundamentos, proyectos guiados y concurrencia avanzada.`

const badBooksText = `Title: Libro Flojo
Author: Nadie
Rating: 3.0/5
Reviews: 40 reviews
Why: Material superficial.
---
Title: Libro Peor
Author: Alguien
Rating: 2.5/5
Reviews: 12 reviews
Why: Incompleto.`

// respondBySystem builds a respond function keyed on the system prompt of
// each node executor.
func respondBySystem(validation string, books string) func(req ai.ChatRequest) (string, error) {
	return func(req ai.ChatRequest) (string, error) {
		switch req.SystemPrompt {
		case systemAnalista:
			return "Área 1: fundamentos. Área 2: práctica. Área 3: temas avanzados.", nil
		case systemEvaluador:
			return "Progresión gradual con práctica constante.", nil
		case systemEstructurador:
			return stagesText, nil
		case systemInvestigador:
			return books, nil
		case systemValidador:
			return validation, nil
		case systemReplanificador:
			return "Reordena las etapas y añade prerrequisitos explícitos.", nil
		}
		return "", nil
	}
}

func TestBuildGraph_TopologyIsValid(t *testing.T) {
	p, _ := newTestPlanner(func(ai.ChatRequest) (string, error) { return "", nil })
	if _, err := p.BuildGraph(); err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
}

func TestRun_HappyPathProducesPlan(t *testing.T) {
	p, _ := newTestPlanner(respondBySystem(
		`{"score": 8.5, "critical": false, "issues": []}`, goodBooksText))

	st, err := p.Run(context.Background(), "Go", state.LevelBeginner)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.FinalOutput == "" || !strings.Contains(st.FinalOutput, "PLAN DE ESTUDIO PERSONALIZADO") {
		t.Errorf("final output missing document header:\n%s", st.FinalOutput)
	}
	if st.Limited {
		t.Error("happy path must not be limited")
	}
	if !st.AllStagesCovered {
		t.Error("AllStagesCovered = false after full run")
	}
	if got := len(st.Stages); got != 3 {
		t.Fatalf("stages = %d, want 3", got)
	}
	if st.ValidationIterations != 1 {
		t.Errorf("validation iterations = %d, want 1", st.ValidationIterations)
	}
	if st.PlanRefinements != 0 {
		t.Errorf("plan refinements = %d, want 0", st.PlanRefinements)
	}
	for _, stage := range st.Stages {
		if got := len(st.BooksByStage[stage.Name]); got != 2 {
			t.Errorf("stage %q books = %d, want 2", stage.Name, got)
		}
		if got := st.BookSearchIterations[stage.Name]; got != 1 {
			t.Errorf("stage %q search iterations = %d, want 1", stage.Name, got)
		}
	}
	if len(st.KnowledgeGaps) != 0 {
		t.Errorf("unexpected gaps: %v", st.KnowledgeGaps)
	}
}

func TestRun_BadBooksExhaustsBudgetAndStillTerminates(t *testing.T) {
	p, _ := newTestPlanner(respondBySystem(
		`{"score": 8, "critical": false, "issues": []}`, badBooksText))

	st, err := p.Run(context.Background(), "Go", state.LevelBeginner)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.FinalOutput == "" {
		t.Fatal("no final output")
	}
	if !strings.Contains(st.FinalOutput, "sin recomendaciones") {
		t.Error("document should state that no book passed the quality filter")
	}
	for _, stage := range st.Stages {
		if got := st.BookSearchIterations[stage.Name]; got != state.MaxBookSearchesPerStage {
			t.Errorf("stage %q search iterations = %d, want %d",
				stage.Name, got, state.MaxBookSearchesPerStage)
		}
		if got := len(st.BooksByStage[stage.Name]); got != 0 {
			t.Errorf("stage %q accepted %d low-rated books", stage.Name, got)
		}
	}
	if len(st.KnowledgeGaps) == 0 {
		t.Error("expected coverage gaps for empty stages")
	}
}

func TestRun_CriticalValidationReplansUpToBudget(t *testing.T) {
	p, _ := newTestPlanner(respondBySystem(
		`{"score": 3, "critical": true, "issues": ["orden ilógico de etapas"]}`, goodBooksText))

	st, err := p.Run(context.Background(), "Go", state.LevelIntermediate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.PlanRefinements != state.MaxPlanRefinements {
		t.Errorf("plan refinements = %d, want %d", st.PlanRefinements, state.MaxPlanRefinements)
	}
	// One validation per structuring pass: the initial one plus one per replan.
	if want := state.MaxPlanRefinements + 1; st.ValidationIterations != want {
		t.Errorf("validation iterations = %d, want %d", st.ValidationIterations, want)
	}
	if st.FinalOutput == "" {
		t.Error("exhausted refinement budget must still produce output")
	}
	if st.Limited {
		t.Error("formatted best-effort output must not be marked limited")
	}
}

func TestRun_DeadlineDegradesToLimitedPlan(t *testing.T) {
	// Every call blocks past the run budget, so the first loop iteration
	// after the entry node sees an expired context.
	provider := &stubProvider{respond: func(ai.ChatRequest) (string, error) {
		time.Sleep(100 * time.Millisecond)
		return "", context.DeadlineExceeded
	}}

	cfg := config.Default()
	cfg.RunTimeout = config.Duration{Duration: 50 * time.Millisecond}
	p := New(provider, cfg,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithSearcher(stubSearcher{}),
	)

	st, err := p.Run(context.Background(), "Go", state.LevelBeginner)
	if err != nil {
		t.Fatalf("Run() error = %v, want graceful degradation", err)
	}
	if !st.Limited {
		t.Error("deadline run must be marked limited")
	}
	if !strings.Contains(st.FinalOutput, "AVISO: PLAN GENERADO CON LIMITACIONES") {
		t.Errorf("limited output missing disclaimer:\n%s", st.FinalOutput)
	}
}

func TestGenerate_RefusalIsAnError(t *testing.T) {
	p := New(refusalProvider{}, config.Default(), WithLogger(slog.New(slog.DiscardHandler)))

	_, err := p.generate(context.Background(), systemAnalista, "hola", 0.7, false)
	if err == nil || !strings.Contains(err.Error(), "generation blocked") {
		t.Errorf("generate() error = %v, want refusal error", err)
	}
}

func TestGenerate_GroundedRequestsSearchTool(t *testing.T) {
	provider := &stubProvider{respond: func(ai.ChatRequest) (string, error) { return "ok", nil }}
	p := New(provider, config.Default(), WithLogger(slog.New(slog.DiscardHandler)))

	if _, err := p.generate(context.Background(), systemInvestigador, "libros", 1.0, true); err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	req := provider.calls[0]
	if len(req.Tools) != 1 || req.Tools[0].Name != ai.ToolGoogleSearch {
		t.Errorf("tools = %+v, want the web search tool", req.Tools)
	}
	if req.GenerationConfig == nil || req.GenerationConfig.Temperature != 1.0 {
		t.Errorf("generation config = %+v", req.GenerationConfig)
	}
}

func TestUsage_AccumulatesAcrossCalls(t *testing.T) {
	provider := &stubProvider{}
	provider.respond = func(ai.ChatRequest) (string, error) { return "ok", nil }
	p := New(usageProvider{inner: provider}, config.Default(), WithLogger(slog.New(slog.DiscardHandler)))

	for i := 0; i < 3; i++ {
		if _, err := p.generate(context.Background(), systemAnalista, "hola", 0.7, false); err != nil {
			t.Fatalf("generate() error = %v", err)
		}
	}

	calls, usage := p.Usage()
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if usage.TotalTokens != 90 || usage.PromptTokens != 30 || usage.CompletionTokens != 60 {
		t.Errorf("usage = %+v", usage)
	}
}

// usageProvider decorates a provider with fixed token counts per call.
type usageProvider struct {
	inner ai.Provider
}

var _ ai.Provider = usageProvider{}

func (u usageProvider) SendMessage(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	resp, err := u.inner.SendMessage(ctx, req)
	if resp != nil {
		resp.Usage = &ai.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}
	}
	return resp, err
}
func (u usageProvider) IsStopMessage(m *ai.ChatResponse) bool { return u.inner.IsStopMessage(m) }
func (u usageProvider) WithAPIKey(string) ai.Provider { return u }
func (u usageProvider) WithBaseURL(string) ai.Provider { return u }
func (u usageProvider) WithHttpClient(*http.Client) ai.Provider { return u }

// refusalProvider always reports a content-filter refusal.
type refusalProvider struct{}

var _ ai.Provider = refusalProvider{}

func (refusalProvider) SendMessage(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return &ai.ChatResponse{Refusal: "content_filter", FinishReason: "content_filter"}, nil
}
func (refusalProvider) IsStopMessage(*ai.ChatResponse) bool      { return true }
func (refusalProvider) WithAPIKey(string) ai.Provider { return refusalProvider{} }
func (refusalProvider) WithBaseURL(string) ai.Provider { return refusalProvider{} }
func (refusalProvider) WithHttpClient(*http.Client) ai.Provider { return refusalProvider{} }
