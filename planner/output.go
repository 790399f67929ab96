package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/j840425/plan-estudio/core/state"
)

const separator = "================================================================"
const thinSeparator = "----------------------------------------------------------------"

// formateadorSalida is the normal terminal: it composes the final document
// from the full state. No other field is mutated.
func (p *Planner) formateadorSalida(_ context.Context, st *state.State) *state.State {
	st.FinalOutput = buildDocument(st, time.Now())
	p.logger.Info("plan formatted", "stages", len(st.Stages))
	return st
}

// salidaForzada is the limited terminal: the same document prefixed by a
// disclaimer naming exactly which limits were hit.
func (p *Planner) salidaForzada(_ context.Context, st *state.State) *state.State {
	var b strings.Builder
	b.WriteString(separator + "\n")
	b.WriteString("AVISO: PLAN GENERADO CON LIMITACIONES\n")
	b.WriteString(separator + "\n\n")
	b.WriteString("Se alcanzaron límites internos antes de validar el plan por completo:\n")
	for _, limit := range limitsReached(st) {
		fmt.Fprintf(&b, "  - %s\n", limit)
	}
	b.WriteString("\nEl plan siguiente es el mejor resultado disponible; revíselo con criterio.\n\n")
	b.WriteString(buildDocument(st, time.Now()))

	st.FinalOutput = b.String()
	st.Limited = true
	p.logger.Warn("forced output produced", "validation_iterations", st.ValidationIterations)
	return st
}

// limitsReached lists the exhausted budgets for the forced-output disclaimer.
func limitsReached(st *state.State) []string {
	var limits []string
	if st.ValidationIterations >= state.MaxValidationCycles {
		limits = append(limits, fmt.Sprintf(
			"ciclos de validación agotados (%d de %d)",
			st.ValidationIterations, state.MaxValidationCycles))
	}
	for _, stage := range st.Stages {
		if st.BookSearchIterations[stage.Name] >= state.MaxBookSearchesPerStage &&
			len(st.BooksByStage[stage.Name]) < state.MinBooksPerStage {
			limits = append(limits, fmt.Sprintf(
				"búsquedas agotadas para la etapa %q con solo %d libros aceptados",
				stage.Name, len(st.BooksByStage[stage.Name])))
		}
	}
	if len(limits) == 0 {
		limits = append(limits, "presupuesto de refinamiento agotado")
	}
	return limits
}

// buildDocument renders the plan as the final plain-text document.
func buildDocument(st *state.State, now time.Time) string {
	var b strings.Builder

	b.WriteString(separator + "\n")
	b.WriteString("               PLAN DE ESTUDIO PERSONALIZADO\n")
	b.WriteString(separator + "\n\n")
	fmt.Fprintf(&b, "Tema:  %s\n", st.Topic)
	fmt.Fprintf(&b, "Nivel: %s\n", levelSpanish(st.Level))
	fmt.Fprintf(&b, "Fecha: %s\n\n", now.Format("2006-01-02"))

	for i, stage := range st.Stages {
		b.WriteString(thinSeparator + "\n")
		fmt.Fprintf(&b, "ETAPA %d: %s\n", i+1, strings.ToUpper(stage.Name))
		b.WriteString(thinSeparator + "\n")

		if stage.Description != "" {
			fmt.Fprintf(&b, "Descripción: %s\n", stage.Description)
		}
		if stage.Duration != "" {
			fmt.Fprintf(&b, "Duración estimada: %s\n", stage.Duration)
		}
		if len(stage.Prerequisites) > 0 {
			fmt.Fprintf(&b, "Prerrequisitos: %s\n", strings.Join(stage.Prerequisites, ", "))
		}
		if len(stage.Objectives) > 0 {
			b.WriteString("Objetivos:\n")
			for _, objective := range stage.Objectives {
				fmt.Fprintf(&b, "  - %s\n", objective)
			}
		}

		books := st.BooksByStage[stage.Name]
		if len(books) > 0 {
			b.WriteString("Libros recomendados:\n")
			for j, book := range books {
				fmt.Fprintf(&b, "  %d. %q", j+1, book.Title)
				if book.Author != "" {
					fmt.Fprintf(&b, " - %s", book.Author)
				}
				if book.Year != "" {
					fmt.Fprintf(&b, " (%s)", book.Year)
				}
				b.WriteByte('\n')
				fmt.Fprintf(&b, "     Valoración: %.1f/5", book.Rating)
				if book.NumReviews > 0 {
					fmt.Fprintf(&b, " (%d reseñas)", book.NumReviews)
				}
				b.WriteByte('\n')
				if book.Reason != "" {
					fmt.Fprintf(&b, "     Por qué: %s\n", book.Reason)
				}
			}
		} else {
			b.WriteString("Libros recomendados: sin recomendaciones que superen el filtro de calidad.\n")
		}
		b.WriteByte('\n')
	}

	if len(st.KnowledgeGaps) > 0 {
		b.WriteString(thinSeparator + "\n")
		b.WriteString("LAGUNAS DETECTADAS\n")
		b.WriteString(thinSeparator + "\n")
		for _, gap := range st.KnowledgeGaps {
			fmt.Fprintf(&b, "  - %s\n", gap)
		}
		b.WriteByte('\n')
	}

	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "Generado tras %d validaciones y %d refinamientos del plan.\n",
		st.ValidationIterations, st.PlanRefinements)
	b.WriteString(separator + "\n")

	return b.String()
}
