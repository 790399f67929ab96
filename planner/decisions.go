package planner

import (
	"github.com/j840425/plan-estudio/core/graph"
	"github.com/j840425/plan-estudio/core/state"
)

// Decision labels. The label set of each decision is fixed; every label maps
// to exactly one edge in the topology.
const (
	// Book-search cycle.
	LabelAceptarLibros      graph.Label = "aceptar_libros_actuales"
	LabelLibrosSuficientes  graph.Label = "libros_suficientes"
	LabelBusquedaEspecifica graph.Label = "busqueda_especifica"
	LabelReintentarBusqueda graph.Label = "reintentar_busqueda"

	// Stage-coverage cycle.
	LabelSiguienteEtapa   graph.Label = "siguiente_etapa"
	LabelValidacionGlobal graph.Label = "validacion_global"

	// Global refinement cycle.
	LabelForzarSalida graph.Label = "forzar_salida"
	LabelReplantear   graph.Label = "replantear"
	LabelFormatear    graph.Label = "formatear"

	// Auxiliary decision, unreachable in the shipped topology.
	LabelContinuar graph.Label = "continuar"
	LabelTerminar  graph.Label = "terminar"
)

// DecisionBusquedaLibros closes the book-search cycle, evaluated after the
// quality gate. Priority order, budget first:
//
//  1. aceptar_libros_actuales: search budget exhausted; takes priority over
//     any quality shortfall to guarantee termination.
//  2. libros_suficientes: the stage has enough accepted books.
//  3. busqueda_especifica: a recorded gap names this stage and budget
//     remains: retry with a targeted query.
//  4. reintentar_busqueda: generic retry while budget remains.
func DecisionBusquedaLibros(st *state.State) graph.Label {
	stage := st.StageBeingProcessed
	if stage == "" {
		// No stage selected: a replan left every stage covered, so the
		// search cycle has nothing to do. Fall through to the exit path.
		return LabelAceptarLibros
	}
	if st.BookSearchIterations[stage] >= state.MaxBookSearchesPerStage {
		return LabelAceptarLibros
	}
	if len(st.BooksByStage[stage]) >= state.MinBooksPerStage {
		return LabelLibrosSuficientes
	}
	if len(gapsForStage(st, stage)) > 0 {
		return LabelBusquedaEspecifica
	}
	return LabelReintentarBusqueda
}

// DecisionCoberturaEtapas closes the stage cycle: back to the selector while
// an uncovered stage remains, on to global validation otherwise.
func DecisionCoberturaEtapas(st *state.State) graph.Label {
	if st.NextUncoveredStage() != "" {
		return LabelSiguienteEtapa
	}
	return LabelValidacionGlobal
}

// DecisionValidacion closes the refinement cycle. Priority order, ceiling
// first:
//
//  1. forzar_salida: validation ceiling reached, regardless of quality.
//  2. replantear: critical feedback recorded and refinement budget remains.
//  3. formatear: quality acceptable or budget exhausted, accept best
//     effort.
func DecisionValidacion(st *state.State) graph.Label {
	if st.ValidationIterations >= state.MaxValidationCycles {
		return LabelForzarSalida
	}
	if hasCriticalFeedback(st) && st.PlanRefinements < state.MaxPlanRefinements {
		return LabelReplantear
	}
	return LabelFormatear
}

// ShouldContinueOrEnd is an auxiliary two-label decision kept for forward
// extensibility. No edge in the shipped topology reaches it; it must never
// alter routing.
func ShouldContinueOrEnd(st *state.State) graph.Label {
	if st.FinalOutput != "" {
		return LabelTerminar
	}
	return LabelContinuar
}

// hasCriticalFeedback reports whether any recorded feedback entry carries a
// critical marker. Feedback is cleared on replan, so only the current
// validation round is considered.
func hasCriticalFeedback(st *state.State) bool {
	for _, fb := range st.ValidationFeedback {
		if containsCriticalMarker(fb) {
			return true
		}
	}
	return false
}
