package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/j840425/plan-estudio/core/parse"
	"github.com/j840425/plan-estudio/core/state"
)

// neutralScore is assumed when the validator produced nothing parseable: it
// neither fails the plan nor flatters it.
const neutralScore = 7.0

// acceptabilityThreshold is the score below which a verdict is recorded as
// critical feedback.
const acceptabilityThreshold = 6.0

// verdict is the structured validation result requested from the model.
type verdict struct {
	Score    float64  `json:"score"`
	Critical bool     `json:"critical"`
	Issues   []string `json:"issues"`
}

// criticalMarkers are the free-text phrases that flag a verdict as critical
// independently of the score.
var criticalMarkers = []string{"critical", "crítico", "critico", "major issue", "low quality", "baja calidad"}

// validadorGlobal scores the whole plan against the coherence rubric. The
// verdict is requested as JSON and recovered through JSON repair; when even
// that fails, a bare "N/10" in the text is accepted, and with no score at
// all the neutral default applies. Feedback is written only for verdicts
// below the acceptability threshold, with a "critical:" prefix the
// validation decision keys on.
func (p *Planner) validadorGlobal(ctx context.Context, st *state.State) *state.State {
	st.ValidationIterations++

	text, err := p.generate(ctx, systemValidador, promptValidacion(st),
		p.cfg.Temperatures.Validation, false)
	if err != nil {
		p.logger.Warn("global validation failed, assuming neutral score",
			"iteration", st.ValidationIterations, "error", err)
		return st
	}

	v := parseVerdict(text)
	p.logger.Info("plan validated",
		"iteration", st.ValidationIterations,
		"score", v.Score,
		"critical", v.Critical,
		"issues", len(v.Issues),
	)

	if !v.Critical && v.Score >= acceptabilityThreshold {
		return st
	}

	st.ValidationFeedback = append(st.ValidationFeedback,
		fmt.Sprintf("critical: puntuación %.1f/10", v.Score))
	for _, issue := range v.Issues {
		st.ValidationFeedback = append(st.ValidationFeedback, issue)
	}
	return st
}

// parseVerdict recovers a verdict from model output: structured JSON first,
// then the "N/10" regex, then the neutral default. Critical markers in the
// issues or the raw text escalate the verdict regardless of the score.
func parseVerdict(text string) verdict {
	v, err := parse.ParseStringAs[verdict](text)
	if err != nil {
		// Prose verdict: the raw text is all there is to scan.
		v = verdict{
			Score:    parse.ExtractScore(text),
			Critical: containsCriticalMarker(text),
		}
	}
	if v.Score == 0 {
		v.Score = neutralScore
	}
	if v.Score < acceptabilityThreshold {
		v.Critical = true
	}
	if !v.Critical && containsCriticalMarker(strings.Join(v.Issues, " ")) {
		v.Critical = true
	}
	return v
}

func containsCriticalMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range criticalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
