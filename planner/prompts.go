package planner

import (
	"fmt"
	"strings"

	"github.com/j840425/plan-estudio/core/state"
)

// System prompts, one per generation task. The user-facing plan is produced
// in Spanish, matching the output document.
const (
	systemAnalista = "Eres un analista educativo experto. Descompones temas de " +
		"estudio en áreas de conocimiento claras y bien delimitadas."

	systemEvaluador = "Eres un asesor pedagógico. Ajustas la profundidad y el " +
		"enfoque de un plan de estudio al nivel del estudiante."

	systemEstructurador = "Eres un diseñador curricular. Produces planes de " +
		"estudio por etapas, concretos y ordenados por dependencias."

	systemInvestigador = "Eres un bibliotecario especializado en literatura " +
		"técnica. Recomiendas libros reales, con valoraciones y reseñas " +
		"verificables."

	systemValidador = "Eres un revisor académico estricto. Evalúas la " +
		"coherencia global de planes de estudio y respondes únicamente en JSON."

	systemReplanificador = "Eres un diseñador curricular. Propones cómo " +
		"reestructurar un plan de estudio a partir de críticas concretas."
)

// promptAnalisisTema asks for a 4-7 area decomposition of the topic, with
// the depth adjusted to the level: advanced study skips introductory areas,
// beginner study includes everything.
func promptAnalisisTema(topic string, level state.Level) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analiza el tema %q y descomponlo en entre 4 y 7 áreas de conocimiento.\n", topic)
	fmt.Fprintf(&b, "Nivel del estudiante: %s.\n", levelSpanish(level))
	switch level {
	case state.LevelAdvanced:
		b.WriteString("Excluye las áreas introductorias: el estudiante ya domina los fundamentos.\n")
	case state.LevelIntermediate:
		b.WriteString("Resume brevemente las áreas introductorias y desarrolla las intermedias y avanzadas.\n")
	default:
		b.WriteString("Incluye todas las áreas, también las introductorias.\n")
	}
	b.WriteString("Para cada área: nombre, descripción de una línea y por qué es relevante para el tema.")
	return b.String()
}

// promptEvaluacionNivel asks for concrete depth guidance for the level.
func promptEvaluacionNivel(topic string, level state.Level) string {
	return fmt.Sprintf(
		"Para un estudiante de nivel %s que quiere aprender %q, describe en un "+
			"párrafo qué profundidad, ritmo y tipo de material le convienen, y qué "+
			"debe evitarse a su nivel.",
		levelSpanish(level), topic)
}

// promptEstructuracion asks for the staged plan. The strict output format is
// what core/parse expects.
func promptEstructuracion(st *state.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Diseña un plan de estudio por etapas para aprender %q (nivel %s).\n\n",
		st.Topic, levelSpanish(st.Level))

	if st.TopicAnalysis != "" {
		fmt.Fprintf(&b, "Análisis del tema:\n%s\n\n", st.TopicAnalysis)
	}
	if st.LevelGuidance != "" {
		fmt.Fprintf(&b, "Orientación de nivel:\n%s\n\n", st.LevelGuidance)
	}
	if st.ReplanAdvice != "" {
		fmt.Fprintf(&b, "El plan anterior fue rechazado. Instrucciones de reestructuración:\n%s\n\n", st.ReplanAdvice)
	}

	b.WriteString("Produce entre 3 y 7 etapas. Formato estricto, en inglés las palabras clave:\n\n")
	b.WriteString("Stage 1: <nombre de la etapa>\n")
	b.WriteString("<descripción en una o dos líneas>\n")
	b.WriteString("Duration: <duración estimada>\n")
	b.WriteString("Prerequisites: <lista separada por comas, o none>\n")
	b.WriteString("Objectives: <lista separada por comas>\n\n")
	b.WriteString("Stage 2: ...\n")
	return b.String()
}

// promptInvestigacion asks for rated book recommendations for one stage, in
// the structured record format the book parser expects. Related knowledge
// gaps sharpen the query on targeted retries.
func promptInvestigacion(st *state.State, stage *state.Stage, gaps []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Busca los mejores libros para la etapa %q de un plan de estudio de %q.\n",
		stage.Name, st.Topic)
	if stage.Description != "" {
		fmt.Fprintf(&b, "Contenido de la etapa: %s\n", stage.Description)
	}
	if len(stage.Objectives) > 0 {
		fmt.Fprintf(&b, "Objetivos: %s\n", strings.Join(stage.Objectives, "; "))
	}
	if len(gaps) > 0 {
		fmt.Fprintf(&b, "Cubre especialmente estas lagunas detectadas: %s\n", strings.Join(gaps, "; "))
	}
	b.WriteString("\nDevuelve hasta 5 libros reales y bien valorados. Formato estricto por libro,\n")
	b.WriteString("separando libros con una línea \"---\":\n\n")
	b.WriteString("Title: <título>\n")
	b.WriteString("Author: <autor>\n")
	b.WriteString("Year: <año>\n")
	b.WriteString("Rating: <valoración>/5\n")
	b.WriteString("Reviews: <número de reseñas>\n")
	b.WriteString("Why: <por qué encaja en esta etapa>\n")
	return b.String()
}

// promptValidacion asks for a structured JSON verdict over the whole plan.
func promptValidacion(st *state.State) string {
	var b strings.Builder
	b.WriteString("Evalúa la coherencia global de este plan de estudio:\n\n")
	b.WriteString(planSummary(st))
	b.WriteString("\nRúbrica (1-10): orden lógico de las etapas, cobertura de objetivos, suficiencia de libros.\n")
	b.WriteString("Responde SOLO con JSON: {\"score\": <1-10>, \"critical\": <true|false>, \"issues\": [\"...\"]}\n")
	b.WriteString("Marca critical=true únicamente ante problemas graves de estructura o cobertura.")
	return b.String()
}

// promptReplanificacion asks for restructuring advice from the feedback.
func promptReplanificacion(st *state.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "El plan de estudio de %q recibió estas críticas:\n", st.Topic)
	for _, fb := range st.ValidationFeedback {
		fmt.Fprintf(&b, "- %s\n", fb)
	}
	if len(st.KnowledgeGaps) > 0 {
		b.WriteString("Lagunas detectadas:\n")
		for _, gap := range st.KnowledgeGaps {
			fmt.Fprintf(&b, "- %s\n", gap)
		}
	}
	b.WriteString("\nEtapas actuales: " + strings.Join(st.StageNames(), ", ") + ".\n")
	b.WriteString("Describe en pocas líneas cómo reestructurar las etapas para resolver las críticas: qué dividir, fusionar, reordenar o reenfocar.")
	return b.String()
}

// planSummary renders the current plan compactly for validation prompts.
func planSummary(st *state.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tema: %s (nivel %s)\n", st.Topic, levelSpanish(st.Level))
	for i, stage := range st.Stages {
		fmt.Fprintf(&b, "%d. %s", i+1, stage.Name)
		if len(stage.Objectives) > 0 {
			fmt.Fprintf(&b, ". Objetivos: %s", strings.Join(stage.Objectives, "; "))
		}
		books := st.BooksByStage[stage.Name]
		fmt.Fprintf(&b, ". Libros aceptados: %d\n", len(books))
		for _, book := range books {
			fmt.Fprintf(&b, "   * %q de %s (%.1f/5)\n", book.Title, book.Author, book.Rating)
		}
	}
	if len(st.KnowledgeGaps) > 0 {
		fmt.Fprintf(&b, "Lagunas pendientes: %s\n", strings.Join(st.KnowledgeGaps, "; "))
	}
	return b.String()
}

// levelSpanish renders a level for user-facing text.
func levelSpanish(level state.Level) string {
	switch level {
	case state.LevelIntermediate:
		return "intermedio"
	case state.LevelAdvanced:
		return "avanzado"
	default:
		return "principiante"
	}
}
