package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/j840425/plan-estudio/core/parse"
	"github.com/j840425/plan-estudio/core/state"
)

// Plan structure bounds. The parser only accepts headers numbered 1-7, but
// a model may still emit fewer than minStages usable entries.
const (
	minStages = 3
	maxStages = 7
)

// estructuradorPlan generates the staged plan structure. Malformed output
// (fewer than three parsed stages) falls back to a fixed default template
// sized to the level. Accepted books for stages that keep their name across
// a replan are preserved; coverage flags are recomputed by the selector.
func (p *Planner) estructuradorPlan(ctx context.Context, st *state.State) *state.State {
	text, err := p.generate(ctx, systemEstructurador, promptEstructuracion(st),
		p.cfg.Temperatures.Structuring, false)
	if err != nil {
		p.logger.Warn("plan structuring failed", "error", err)
	}

	stages := parse.ParseStages(text)
	if len(stages) < minStages {
		p.logger.Warn("structuring output unusable, using default stage template",
			"parsed_stages", len(stages), "level", string(st.Level))
		stages = defaultStages(st.Topic, st.Level)
	}
	if len(stages) > maxStages {
		stages = stages[:maxStages]
	}

	st.Stages = stages
	st.ReplanAdvice = ""
	st.StageBeingProcessed = ""
	st.AllStagesCovered = false

	// Book maps may only hold keys that are stage names; drop leftovers
	// from stages a replan renamed away.
	names := make(map[string]bool, len(stages))
	for _, stage := range stages {
		names[stage.Name] = true
	}
	for key := range st.BooksByStage {
		if !names[key] {
			delete(st.BooksByStage, key)
		}
	}
	for key := range st.BookSearchIterations {
		if !names[key] {
			delete(st.BookSearchIterations, key)
		}
	}
	return st
}

// defaultStages is the fallback plan template: more, broader stages for a
// beginner; fewer, deeper ones for intermediate and advanced students.
// Every template size is within the 3-7 invariant.
func defaultStages(topic string, level state.Level) []state.Stage {
	switch level {
	case state.LevelAdvanced:
		return []state.Stage{
			{
				Name:        fmt.Sprintf("Estado del arte de %s", topic),
				Description: "Revisión de la literatura y las técnicas de referencia actuales.",
				Duration:    "3 semanas",
				Objectives:  []string{"conocer las referencias principales", "identificar áreas de especialización"},
			},
			{
				Name:          "Profundización técnica",
				Description:   "Estudio detallado de los temas avanzados del área elegida.",
				Duration:      "6 semanas",
				Prerequisites: []string{fmt.Sprintf("Estado del arte de %s", topic)},
				Objectives:    []string{"dominar los temas avanzados", "leer literatura primaria"},
			},
			{
				Name:          "Proyecto de especialización",
				Description:   "Aplicación en un proyecto exigente con resultados evaluables.",
				Duration:      "6 semanas",
				Prerequisites: []string{"Profundización técnica"},
				Objectives:    []string{"completar un proyecto avanzado", "documentar y defender los resultados"},
			},
		}
	case state.LevelIntermediate:
		return []state.Stage{
			{
				Name:        fmt.Sprintf("Consolidación de fundamentos de %s", topic),
				Description: "Repaso dirigido de los fundamentos con atención a los huecos habituales.",
				Duration:    "3 semanas",
				Objectives:  []string{"afianzar los fundamentos", "detectar y cerrar huecos"},
			},
			{
				Name:          "Práctica intermedia",
				Description:   "Ejercicios y proyectos de dificultad media con material de referencia.",
				Duration:      "5 semanas",
				Prerequisites: []string{fmt.Sprintf("Consolidación de fundamentos de %s", topic)},
				Objectives:    []string{"resolver problemas de dificultad media", "trabajar con material de referencia"},
			},
			{
				Name:          "Temas avanzados",
				Description:   "Introducción gradual a los temas avanzados del área.",
				Duration:      "5 semanas",
				Prerequisites: []string{"Práctica intermedia"},
				Objectives:    []string{"abordar temas avanzados", "preparar la especialización"},
			},
		}
	default:
		return []state.Stage{
			{
				Name:        fmt.Sprintf("Introducción a %s", topic),
				Description: "Primer contacto con el tema: vocabulario, panorama y motivación.",
				Duration:    "2 semanas",
				Objectives:  []string{"entender el panorama general", "manejar el vocabulario básico"},
			},
			{
				Name:          "Fundamentos",
				Description:   "Los conceptos esenciales explicados desde cero.",
				Duration:      "4 semanas",
				Prerequisites: []string{fmt.Sprintf("Introducción a %s", topic)},
				Objectives:    []string{"dominar los conceptos esenciales", "completar ejercicios básicos"},
			},
			{
				Name:          "Práctica guiada",
				Description:   "Ejercicios progresivos con soluciones comentadas.",
				Duration:      "4 semanas",
				Prerequisites: []string{"Fundamentos"},
				Objectives:    []string{"aplicar los fundamentos en ejercicios", "ganar autonomía"},
			},
			{
				Name:          "Consolidación",
				Description:   "Un proyecto pequeño de principio a fin para asentar lo aprendido.",
				Duration:      "3 semanas",
				Prerequisites: []string{"Práctica guiada"},
				Objectives:    []string{"completar un proyecto sencillo", "repasar los puntos débiles"},
			},
		}
	}
}

// selectorEtapa is the iteration-control node of the stage cycle: it marks
// stages whose coverage predicate now holds, picks the next uncovered stage
// in plan order, and raises AllStagesCovered when none remain. It never
// calls a collaborator.
func (p *Planner) selectorEtapa(_ context.Context, st *state.State) *state.State {
	for i := range st.Stages {
		name := st.Stages[i].Name
		if !st.Stages[i].Covered && st.StageCovered(name) {
			st.Stages[i].Covered = true
			if st.StageBeingProcessed == name {
				st.StageBeingProcessed = ""
			}
		}
	}

	next := st.NextUncoveredStage()
	st.StageBeingProcessed = next
	st.AllStagesCovered = next == ""

	if next != "" {
		p.logger.Info("stage selected",
			"stage", next,
			"search_iterations", st.BookSearchIterations[next],
			"accepted_books", len(st.BooksByStage[next]),
		)
	} else {
		p.logger.Info("all stages covered")
	}
	return st
}

// replanificador consumes the validation feedback: it requests restructuring
// advice, increments the refinement counter, clears the feedback, and resets
// the under-covered stages (coverage flag, accepted books, search budget and
// their related gaps) so the next structuring pass can rework them.
func (p *Planner) replanificador(ctx context.Context, st *state.State) *state.State {
	advice, err := p.generate(ctx, systemReplanificador, promptReplanificacion(st),
		p.cfg.Temperatures.Replanning, false)
	if err != nil || advice == "" {
		p.logger.Warn("replanning advice failed, forwarding raw feedback", "error", err)
		advice = strings.Join(st.ValidationFeedback, "\n")
	}
	st.ReplanAdvice = advice
	st.PlanRefinements++
	st.ValidationFeedback = nil

	var reset []string
	for i := range st.Stages {
		name := st.Stages[i].Name
		if len(st.BooksByStage[name]) >= state.MinBooksPerStage {
			continue
		}
		st.Stages[i].Covered = false
		delete(st.BooksByStage, name)
		delete(st.BookSearchIterations, name)
		reset = append(reset, name)
	}
	st.KnowledgeGaps = dropGapsForStages(st.KnowledgeGaps, reset)
	st.AllStagesCovered = false

	p.logger.Info("plan refinement requested",
		"refinement", st.PlanRefinements,
		"reset_stages", len(reset),
	)
	return st
}

// dropGapsForStages removes gap entries naming any of the given stages.
func dropGapsForStages(gaps, stages []string) []string {
	if len(stages) == 0 {
		return gaps
	}
	var kept []string
	for _, gap := range gaps {
		lower := strings.ToLower(gap)
		named := false
		for _, stage := range stages {
			if strings.Contains(lower, strings.ToLower(stage)) {
				named = true
				break
			}
		}
		if !named {
			kept = append(kept, gap)
		}
	}
	return kept
}
