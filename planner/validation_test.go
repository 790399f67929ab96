package planner

import (
	"context"
	"strings"
	"testing"

	"github.com/j840425/plan-estudio/core/state"
	"github.com/j840425/plan-estudio/providers/ai"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantScore    float64
		wantCritical bool
	}{
		{
			name:         "clean json",
			text:         `{"score": 8.5, "critical": false, "issues": []}`,
			wantScore:    8.5,
			wantCritical: false,
		},
		{
			name:         "json key named critical does not escalate",
			text:         `{"score": 7, "critical": false, "issues": ["falta bibliografía"]}`,
			wantScore:    7,
			wantCritical: false,
		},
		{
			name:         "critical flag in json",
			text:         `{"score": 7, "critical": true, "issues": []}`,
			wantScore:    7,
			wantCritical: true,
		},
		{
			name:         "critical marker inside issues escalates",
			text:         `{"score": 7, "critical": false, "issues": ["major issue: etapas sin orden"]}`,
			wantScore:    7,
			wantCritical: true,
		},
		{
			name:         "low score is critical regardless of flag",
			text:         `{"score": 4, "critical": false, "issues": []}`,
			wantScore:    4,
			wantCritical: true,
		},
		{
			name:         "repairable json",
			text:         "```json\n{score: 9, critical: false, issues: []}\n```",
			wantScore:    9,
			wantCritical: false,
		},
		{
			name:         "prose with bare score",
			text:         "El plan es sólido, le doy un 8/10 en coherencia.",
			wantScore:    8,
			wantCritical: false,
		},
		{
			name:         "prose with low score and marker",
			text:         "Calidad baja: 3/10. El orden de etapas es crítico.",
			wantScore:    3,
			wantCritical: true,
		},
		{
			name:         "unscorable prose defaults to neutral",
			text:         "El plan parece razonable en general.",
			wantScore:    neutralScore,
			wantCritical: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := parseVerdict(tt.text)
			if v.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", v.Score, tt.wantScore)
			}
			if v.Critical != tt.wantCritical {
				t.Errorf("critical = %v, want %v", v.Critical, tt.wantCritical)
			}
		})
	}
}

func validationState() *state.State {
	st := state.New("Go", state.LevelBeginner)
	st.Stages = []state.Stage{{Name: "Fundamentos"}}
	st.BooksByStage["Fundamentos"] = []state.Book{
		{Title: "Uno", Rating: 4.5}, {Title: "Dos", Rating: 4.2},
	}
	return st
}

func TestValidadorGlobal_AcceptableVerdictLeavesNoFeedback(t *testing.T) {
	p, _ := newTestPlanner(func(ai.ChatRequest) (string, error) {
		return `{"score": 8, "critical": false, "issues": []}`, nil
	})
	st := p.validadorGlobal(t.Context(), validationState())

	if st.ValidationIterations != 1 {
		t.Errorf("iterations = %d, want 1", st.ValidationIterations)
	}
	if len(st.ValidationFeedback) != 0 {
		t.Errorf("unexpected feedback: %v", st.ValidationFeedback)
	}
}

func TestValidadorGlobal_CriticalVerdictRecordsMarkedFeedback(t *testing.T) {
	p, _ := newTestPlanner(func(ai.ChatRequest) (string, error) {
		return `{"score": 3, "critical": true, "issues": ["orden ilógico"]}`, nil
	})
	st := p.validadorGlobal(t.Context(), validationState())

	if len(st.ValidationFeedback) != 2 {
		t.Fatalf("feedback = %v, want score entry plus issue", st.ValidationFeedback)
	}
	if !strings.HasPrefix(st.ValidationFeedback[0], "critical:") {
		t.Errorf("first entry %q must carry the critical prefix", st.ValidationFeedback[0])
	}
	if !hasCriticalFeedback(st) {
		t.Error("recorded feedback must register as critical")
	}
}

func TestValidadorGlobal_ProviderErrorCountsIterationWithoutFeedback(t *testing.T) {
	p, _ := newTestPlanner(func(ai.ChatRequest) (string, error) {
		return "", context.DeadlineExceeded
	})
	st := p.validadorGlobal(t.Context(), validationState())

	if st.ValidationIterations != 1 {
		t.Errorf("iterations = %d, want 1 even on failure", st.ValidationIterations)
	}
	if len(st.ValidationFeedback) != 0 {
		t.Errorf("failed validation must stay neutral, got %v", st.ValidationFeedback)
	}
}
