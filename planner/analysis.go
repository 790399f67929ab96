package planner

import (
	"context"
	"fmt"

	"github.com/j840425/plan-estudio/core/state"
)

// analizadorTema decomposes the topic into knowledge areas, adjusted to the
// student's level. On failure the analysis degrades to a one-line generic
// decomposition so the structurer still has something to work from.
func (p *Planner) analizadorTema(ctx context.Context, st *state.State) *state.State {
	text, err := p.generate(ctx, systemAnalista, promptAnalisisTema(st.Topic, st.Level),
		p.cfg.Temperatures.Analysis, false)
	if err != nil || text == "" {
		p.logger.Warn("topic analysis failed, using generic decomposition",
			"topic", st.Topic, "error", err)
		text = fmt.Sprintf(
			"Área 1: fundamentos de %s. Área 2: práctica aplicada. Área 3: profundización y temas avanzados.",
			st.Topic)
	}
	st.TopicAnalysis = text
	return st
}

// evaluadorNivel produces depth guidance for the student's level. The
// fallback is a fixed per-level guidance line.
func (p *Planner) evaluadorNivel(ctx context.Context, st *state.State) *state.State {
	text, err := p.generate(ctx, systemEvaluador, promptEvaluacionNivel(st.Topic, st.Level),
		p.cfg.Temperatures.Analysis, false)
	if err != nil || text == "" {
		p.logger.Warn("level evaluation failed, using fixed guidance",
			"level", string(st.Level), "error", err)
		text = defaultLevelGuidance(st.Level)
	}
	st.LevelGuidance = text
	return st
}

func defaultLevelGuidance(level state.Level) string {
	switch level {
	case state.LevelAdvanced:
		return "Omitir material introductorio; priorizar referencias profundas, literatura primaria y práctica exigente."
	case state.LevelIntermediate:
		return "Repasar brevemente los fundamentos y centrarse en práctica guiada con material de dificultad creciente."
	default:
		return "Partir de cero: material introductorio accesible, progresión gradual y mucha práctica elemental."
	}
}
