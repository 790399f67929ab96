package planner

import (
	"reflect"
	"testing"

	"github.com/j840425/plan-estudio/core/graph"
	"github.com/j840425/plan-estudio/core/state"
)

// searchState builds a two-stage state positioned on "Fundamentos" with the
// given search-cycle counters.
func searchState(iterations, books int, gaps ...string) *state.State {
	st := state.New("Go", state.LevelBeginner)
	st.Stages = []state.Stage{{Name: "Fundamentos"}, {Name: "Práctica"}}
	st.StageBeingProcessed = "Fundamentos"
	st.BookSearchIterations["Fundamentos"] = iterations
	for i := 0; i < books; i++ {
		st.BooksByStage["Fundamentos"] = append(st.BooksByStage["Fundamentos"],
			state.Book{Title: string(rune('A' + i)), Rating: 4.5})
	}
	st.KnowledgeGaps = gaps
	return st
}

func TestDecisionBusquedaLibros(t *testing.T) {
	tests := []struct {
		name string
		st   *state.State
		want graph.Label
	}{
		{
			name: "budget exhausted with no books accepts anyway",
			st:   searchState(state.MaxBookSearchesPerStage, 0),
			want: LabelAceptarLibros,
		},
		{
			name: "budget exhausted wins over enough books",
			st:   searchState(state.MaxBookSearchesPerStage, state.MinBooksPerStage),
			want: LabelAceptarLibros,
		},
		{
			name: "enough books within budget",
			st:   searchState(1, state.MinBooksPerStage),
			want: LabelLibrosSuficientes,
		},
		{
			name: "gap naming the stage triggers targeted retry",
			st:   searchState(1, 0, "Etapa Fundamentos: objetivo sin cubrir: recursividad"),
			want: LabelBusquedaEspecifica,
		},
		{
			name: "gap naming another stage is ignored",
			st:   searchState(1, 0, "Etapa Práctica: cobertura de libros insuficiente"),
			want: LabelReintentarBusqueda,
		},
		{
			name: "no books and budget left retries",
			st:   searchState(0, 0),
			want: LabelReintentarBusqueda,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecisionBusquedaLibros(tt.st); got != tt.want {
				t.Errorf("DecisionBusquedaLibros() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecisionBusquedaLibros_NoStageSelected(t *testing.T) {
	st := searchState(0, 0)
	st.StageBeingProcessed = ""
	if got := DecisionBusquedaLibros(st); got != LabelAceptarLibros {
		t.Errorf("DecisionBusquedaLibros() = %q, want %q", got, LabelAceptarLibros)
	}
}

func TestDecisionCoberturaEtapas(t *testing.T) {
	st := searchState(1, state.MinBooksPerStage)
	if got := DecisionCoberturaEtapas(st); got != LabelSiguienteEtapa {
		t.Errorf("with Práctica uncovered: %q, want %q", got, LabelSiguienteEtapa)
	}

	// Second stage covered by an exhausted budget, not by books.
	st.BookSearchIterations["Práctica"] = state.MaxBookSearchesPerStage
	if got := DecisionCoberturaEtapas(st); got != LabelValidacionGlobal {
		t.Errorf("with all stages covered: %q, want %q", got, LabelValidacionGlobal)
	}
}

func TestDecisionValidacion(t *testing.T) {
	critical := []string{"critical: puntuación 3.0/10", "orden ilógico"}

	tests := []struct {
		name        string
		iterations  int
		refinements int
		feedback    []string
		want        graph.Label
	}{
		{
			name:       "ceiling reached forces exit even with critical feedback",
			iterations: state.MaxValidationCycles,
			feedback:   critical,
			want:       LabelForzarSalida,
		},
		{
			name:       "critical feedback with refinement budget replans",
			iterations: 1,
			feedback:   critical,
			want:       LabelReplantear,
		},
		{
			name:        "critical feedback without refinement budget formats",
			iterations:  3,
			refinements: state.MaxPlanRefinements,
			feedback:    critical,
			want:        LabelFormatear,
		},
		{
			name:       "no feedback formats",
			iterations: 1,
			want:       LabelFormatear,
		},
		{
			name:       "non-critical feedback formats",
			iterations: 1,
			feedback:   []string{"podría añadir más ejercicios"},
			want:       LabelFormatear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := searchState(1, state.MinBooksPerStage)
			st.ValidationIterations = tt.iterations
			st.PlanRefinements = tt.refinements
			st.ValidationFeedback = tt.feedback
			if got := DecisionValidacion(st); got != tt.want {
				t.Errorf("DecisionValidacion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldContinueOrEnd(t *testing.T) {
	st := searchState(0, 0)
	if got := ShouldContinueOrEnd(st); got != LabelContinuar {
		t.Errorf("without output: %q, want %q", got, LabelContinuar)
	}
	st.FinalOutput = "plan"
	if got := ShouldContinueOrEnd(st); got != LabelTerminar {
		t.Errorf("with output: %q, want %q", got, LabelTerminar)
	}
}

// Decision functions must be pure: same state in, label out, no mutation.
func TestDecisions_DoNotMutateState(t *testing.T) {
	st := searchState(2, 1, "Etapa Fundamentos: cobertura de libros insuficiente")
	st.ValidationIterations = 2
	st.ValidationFeedback = []string{"critical: puntuación 4.0/10"}
	snapshot := st.Clone()

	DecisionBusquedaLibros(st)
	DecisionCoberturaEtapas(st)
	DecisionValidacion(st)
	ShouldContinueOrEnd(st)

	if !reflect.DeepEqual(st, snapshot) {
		t.Errorf("decision mutated state:\n got: %+v\nwant: %+v", st, snapshot)
	}
}
