// Package state defines the shared state record threaded through every node
// of the study-plan workflow graph, together with the workflow limits that
// bound each of its cycles.
//
// There is exactly one State per run. Nodes receive it, mutate the fields
// they declare as outputs, and return it; no other communication channel
// exists between nodes. Decision functions read it without mutating it.
package state

import (
	"math"
	"strings"
)

// Workflow limits. Every cycle in the graph has exactly one counter and one
// ceiling; the ceiling check is always the first branch of the decision
// function that closes the cycle.
const (
	// MaxBookSearchesPerStage bounds search attempts for a single stage
	// before the current results are accepted as-is.
	MaxBookSearchesPerStage = 3

	// MaxValidationCycles bounds global validation passes before the run is
	// forced to the limited terminal.
	MaxValidationCycles = 5

	// MaxPlanRefinements bounds how many times the plan structure may be
	// regenerated from validation feedback.
	MaxPlanRefinements = 2

	// MinBooksPerStage is the accepted-book count at which a stage counts
	// as covered.
	MinBooksPerStage = 2

	// QualityThreshold is the exclusive minimum rating (0-5 scale) for a
	// book to pass the quality gate.
	QualityThreshold = 4.0
)

// Level is the self-reported experience level of the student.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel normalizes a user-supplied level string. Unknown or empty input
// degrades to beginner rather than failing, so the workflow always has a
// valid level to work with.
func ParseLevel(raw string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(raw))) {
	case LevelIntermediate:
		return LevelIntermediate
	case LevelAdvanced:
		return LevelAdvanced
	default:
		return LevelBeginner
	}
}

// Valid reports whether the level is one of the three known values.
func (l Level) Valid() bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// Stage is one ordered phase of the learning roadmap.
type Stage struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Duration      string   `json:"duration"`
	Prerequisites []string `json:"prerequisites"`
	Objectives    []string `json:"objectives"`

	// Covered is set by the stage selector once the stage has enough
	// accepted books or has exhausted its search budget.
	Covered bool `json:"covered"`
}

// Book is a recommended resource attached to a stage.
type Book struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Year       string  `json:"year,omitempty"`
	Rating     float64 `json:"rating"`
	NumReviews int     `json:"num_reviews"`
	Reason     string  `json:"reason"`

	// Score is the ranking weight: rating scaled by the (log of the)
	// review count, so a 4.5 with thousands of reviews outranks a 4.8
	// with three.
	Score float64 `json:"score"`
}

// WeightedScore computes the ranking score for a rating/review pair.
func WeightedScore(rating float64, numReviews int) float64 {
	if numReviews < 1 {
		numReviews = 1
	}
	return rating * math.Log(float64(numReviews)+1)
}

// NormalizeTitle folds case and collapses whitespace so that duplicate
// detection treats "Clean  Code" and "clean code" as the same title.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// State is the single mutable record shared by all nodes of one run.
//
// Topic and Level are immutable after creation. Every other field is
// progressively filled as the run advances through the graph. The record is
// discarded after a terminal node writes FinalOutput.
type State struct {
	Topic string `json:"topic"`
	Level Level  `json:"user_level"`

	// TopicAnalysis is the knowledge-area decomposition written by the
	// topic analyzer; consumed by the plan structurer.
	TopicAnalysis string `json:"topic_analysis"`

	// LevelGuidance is the depth-adjustment advice written by the level
	// evaluator; consumed by the plan structurer.
	LevelGuidance string `json:"level_guidance"`

	// ReplanAdvice is the restructuring advice written by the replanner;
	// consumed (and then cleared) by the next structuring pass.
	ReplanAdvice string `json:"replan_advice"`

	// Stages is the ordered plan structure; 3-7 entries once the plan
	// structurer has run.
	Stages []Stage `json:"stages"`

	// BooksByStage holds accepted books per stage name. Entries are
	// deduplicated by normalized title and every entry has
	// Rating > QualityThreshold.
	BooksByStage map[string][]Book `json:"books_by_stage"`

	// Candidates is the pending pool written by the researcher and
	// consumed by the quality gate; never exposed in the final output.
	Candidates map[string][]Book `json:"book_candidates"`

	// KnowledgeGaps accumulates uncovered-objective descriptions; a
	// replan clears the ones naming stages it reset.
	KnowledgeGaps []string `json:"knowledge_gaps"`

	// ValidationFeedback accumulates validator verdicts; cleared by a
	// successful replan.
	ValidationFeedback []string `json:"validation_feedback"`

	// StageBeingProcessed names the stage the book-search cycle is
	// currently working on; empty when no stage is selected.
	StageBeingProcessed string `json:"stage_being_processed"`

	// BookSearchIterations counts searches per stage, each bounded by
	// MaxBookSearchesPerStage.
	BookSearchIterations map[string]int `json:"book_search_iterations"`

	// ValidationIterations counts global validation passes, bounded by
	// MaxValidationCycles. Monotonically non-decreasing.
	ValidationIterations int `json:"validation_iterations"`

	// PlanRefinements counts replans, bounded by MaxPlanRefinements.
	// Monotonically non-decreasing.
	PlanRefinements int `json:"plan_refinement_iterations"`

	// AllStagesCovered is true only when every stage either has at least
	// MinBooksPerStage accepted books or has exhausted its search budget.
	AllStagesCovered bool `json:"all_stages_covered"`

	// FinalOutput is written exactly once, by a terminal node.
	FinalOutput string `json:"final_output"`

	// Limited records that the forced terminal produced FinalOutput, so
	// the caller can mark the saved file accordingly.
	Limited bool `json:"limited"`
}

// New creates the initial state for a run. Only Topic and Level are
// populated; every collection starts empty and every counter at zero.
func New(topic string, level Level) *State {
	return &State{
		Topic:                topic,
		Level:                level,
		Stages:               nil,
		BooksByStage:         make(map[string][]Book),
		Candidates:           make(map[string][]Book),
		KnowledgeGaps:        nil,
		ValidationFeedback:   nil,
		BookSearchIterations: make(map[string]int),
	}
}

// StageNames returns the stage names in plan order.
func (s *State) StageNames() []string {
	names := make([]string, len(s.Stages))
	for i, stage := range s.Stages {
		names[i] = stage.Name
	}
	return names
}

// StageByName returns a pointer to the stage with the given name, or nil.
func (s *State) StageByName(name string) *Stage {
	for i := range s.Stages {
		if s.Stages[i].Name == name {
			return &s.Stages[i]
		}
	}
	return nil
}

// StageCovered is the coverage predicate shared by the stage selector and
// the coverage decision: a stage is covered once it has enough accepted
// books or its search budget is spent.
func (s *State) StageCovered(name string) bool {
	if len(s.BooksByStage[name]) >= MinBooksPerStage {
		return true
	}
	return s.BookSearchIterations[name] >= MaxBookSearchesPerStage
}

// NextUncoveredStage returns the first stage in plan order that fails the
// coverage predicate, or "" when every stage is covered.
func (s *State) NextUncoveredStage() string {
	for _, stage := range s.Stages {
		if !s.StageCovered(stage.Name) {
			return stage.Name
		}
	}
	return ""
}

// HasBook reports whether the stage already holds a book with the same
// normalized title.
func (s *State) HasBook(stage, title string) bool {
	normalized := NormalizeTitle(title)
	for _, book := range s.BooksByStage[stage] {
		if NormalizeTitle(book.Title) == normalized {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Tests use it to build literal fixtures and to
// assert that decision functions never mutate their input.
func (s *State) Clone() *State {
	clone := *s

	clone.Stages = make([]Stage, len(s.Stages))
	copy(clone.Stages, s.Stages)
	for i := range clone.Stages {
		clone.Stages[i].Prerequisites = append([]string(nil), s.Stages[i].Prerequisites...)
		clone.Stages[i].Objectives = append([]string(nil), s.Stages[i].Objectives...)
	}

	clone.BooksByStage = make(map[string][]Book, len(s.BooksByStage))
	for name, books := range s.BooksByStage {
		clone.BooksByStage[name] = append([]Book(nil), books...)
	}

	clone.Candidates = make(map[string][]Book, len(s.Candidates))
	for name, books := range s.Candidates {
		clone.Candidates[name] = append([]Book(nil), books...)
	}

	clone.KnowledgeGaps = append([]string(nil), s.KnowledgeGaps...)
	clone.ValidationFeedback = append([]string(nil), s.ValidationFeedback...)

	clone.BookSearchIterations = make(map[string]int, len(s.BookSearchIterations))
	for name, count := range s.BookSearchIterations {
		clone.BookSearchIterations[name] = count
	}

	return &clone
}
