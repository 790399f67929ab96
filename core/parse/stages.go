package parse

import (
	"regexp"
	"strings"

	"github.com/j840425/plan-estudio/core/state"
)

// stageHeaderRe matches a stage header line. Only numbers 1-7 are accepted:
// the plan structure is defined to hold between three and seven stages, and
// a model hallucinating "Stage 12" must not inflate it.
var stageHeaderRe = regexp.MustCompile(`(?i)^(?:stage|phase)\s+([1-7]):\s*(.+)$`)

// Per-stage field prefixes, matched case-insensitively at line start.
var (
	durationRe      = regexp.MustCompile(`(?i)^duration:\s*(.+)$`)
	prerequisitesRe = regexp.MustCompile(`(?i)^prerequisites:\s*(.+)$`)
	objectivesRe    = regexp.MustCompile(`(?i)^objectives:\s*(.+)$`)
)

// ParseStages extracts the ordered stage list from generated plan text.
//
// A stage opens at a "Stage N:" or "Phase N:" header and closes at the next
// header or at end of input. Inside a stage, "Duration:", "Prerequisites:"
// and "Objectives:" lines fill the corresponding fields (list fields split
// on commas and semicolons); all remaining lines accumulate into the
// description. Text with no header at all yields an empty slice, which the
// caller replaces with the level-appropriate default plan.
func ParseStages(text string) []state.Stage {
	var stages []state.Stage
	var current *state.Stage
	var description []string

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(description, "\n"))
		stages = append(stages, *current)
		current = nil
		description = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*#"))
		if line == "" {
			continue
		}

		if m := stageHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &state.Stage{Name: strings.TrimSpace(m[2])}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case durationRe.MatchString(line):
			current.Duration = strings.TrimSpace(durationRe.FindStringSubmatch(line)[1])
		case prerequisitesRe.MatchString(line):
			current.Prerequisites = splitList(prerequisitesRe.FindStringSubmatch(line)[1])
		case objectivesRe.MatchString(line):
			current.Objectives = splitList(objectivesRe.FindStringSubmatch(line)[1])
		default:
			description = append(description, line)
		}
	}
	flush()

	return stages
}

// splitList breaks a comma- or semicolon-separated field into trimmed items,
// dropping empty ones and filler like "none".
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		item = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(item), "-"))
		if item == "" || strings.EqualFold(item, "none") || strings.EqualFold(item, "n/a") {
			continue
		}
		items = append(items, item)
	}
	return items
}
