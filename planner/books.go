package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/j840425/plan-estudio/core/parse"
	"github.com/j840425/plan-estudio/core/state"
)

// maxBooksPerStage caps how many accepted books a stage keeps after ranking.
const maxBooksPerStage = 5

// minReviewsForConfidence is the review count under which a stage's book
// list is flagged as weakly evidenced.
const minReviewsForConfidence = 100

// investigadorLibros issues a grounded book search for the selected stage
// and appends the parsed candidates to the pending pool. When the grounded
// call fails or yields nothing parseable, the direct web-search fallback is
// tried with the same parser. Total failure degrades to an empty candidate
// set; the quality gate still charges the attempt against the budget.
func (p *Planner) investigadorLibros(ctx context.Context, st *state.State) *state.State {
	stageName := st.StageBeingProcessed
	stage := st.StageByName(stageName)
	if stage == nil {
		// Possible when a replan left every stage covered; the search
		// decision exits the cycle right after.
		p.logger.Debug("no stage selected, skipping research")
		return st
	}

	gaps := gapsForStage(st, stageName)
	text, err := p.generate(ctx, systemInvestigador, promptInvestigacion(st, stage, gaps),
		p.cfg.Temperatures.Research, true)
	if err != nil {
		p.logger.Warn("grounded book search failed", "stage", stageName, "error", err)
	}

	candidates := parse.ParseBooks(text)
	if len(candidates) == 0 {
		candidates = p.searchFallback(ctx, st.Topic, stage)
	}

	st.Candidates[stageName] = append(st.Candidates[stageName], candidates...)
	p.logger.Info("book candidates gathered",
		"stage", stageName,
		"candidates", len(candidates),
		"targeted_gaps", len(gaps),
	)
	return st
}

// searchFallback queries the direct web searcher and runs the result through
// the same book parser. An empty result is fine; the budget logic handles it.
func (p *Planner) searchFallback(ctx context.Context, topic string, stage *state.Stage) []state.Book {
	query := fmt.Sprintf("mejores libros %s %s valoraciones", topic, stage.Name)
	summary, err := p.searcher.Search(ctx, query)
	if err != nil {
		p.logger.Warn("search fallback failed", "stage", stage.Name, "error", err)
		return nil
	}
	books := parse.ParseBooks(summary)
	if len(books) > 0 {
		p.logger.Info("search fallback produced candidates",
			"stage", stage.Name, "candidates", len(books))
	}
	return books
}

// validadorCalidad is the quality gate: it filters the pending pool for the
// current stage to books with rating strictly above the threshold and no
// duplicate normalized title, merges survivors into the accepted list ranked
// by weighted score, and charges the attempt against the stage's search
// budget. The pool entry is consumed either way.
func (p *Planner) validadorCalidad(_ context.Context, st *state.State) *state.State {
	stageName := st.StageBeingProcessed
	if stageName == "" {
		return st
	}

	accepted := 0
	for _, book := range st.Candidates[stageName] {
		if book.Rating <= state.QualityThreshold {
			continue
		}
		if st.HasBook(stageName, book.Title) {
			continue
		}
		book.Score = state.WeightedScore(book.Rating, book.NumReviews)
		st.BooksByStage[stageName] = append(st.BooksByStage[stageName], book)
		accepted++
	}
	delete(st.Candidates, stageName)

	books := st.BooksByStage[stageName]
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].Score > books[j].Score
	})
	if len(books) > maxBooksPerStage {
		books = books[:maxBooksPerStage]
	}
	if len(books) > 0 {
		st.BooksByStage[stageName] = books
	}

	st.BookSearchIterations[stageName]++
	p.logger.Info("quality gate applied",
		"stage", stageName,
		"accepted", accepted,
		"total", len(books),
		"iteration", st.BookSearchIterations[stageName],
	)
	return st
}

// detectorGaps compares the finished stage's objectives against the union of
// its accepted books' titles and rationales, and appends gap descriptions
// naming the stage for every objective without evidence. Two weaker signals
// are also flagged: too few accepted books, and books with uniformly low
// review counts.
func (p *Planner) detectorGaps(_ context.Context, st *state.State) *state.State {
	// The detector is the last node of the stage cycle, so it refreshes
	// the coverage flag the coverage decision is about to read.
	defer func() {
		st.AllStagesCovered = st.NextUncoveredStage() == ""
	}()

	stageName := st.StageBeingProcessed
	stage := st.StageByName(stageName)
	if stage == nil {
		return st
	}

	books := st.BooksByStage[stageName]
	evidence := bookEvidence(books)

	before := len(st.KnowledgeGaps)
	for _, objective := range stage.Objectives {
		if objectiveCovered(objective, evidence) {
			continue
		}
		appendGapOnce(st, fmt.Sprintf("Etapa %s: objetivo sin cubrir: %s", stageName, objective))
	}

	if len(books) < state.MinBooksPerStage {
		appendGapOnce(st, fmt.Sprintf("Etapa %s: cobertura de libros insuficiente", stageName))
	} else if maxReviews(books) < minReviewsForConfidence {
		appendGapOnce(st, fmt.Sprintf("Etapa %s: libros con pocas reseñas, evidencia débil", stageName))
	}

	if added := len(st.KnowledgeGaps) - before; added > 0 {
		p.logger.Info("knowledge gaps detected", "stage", stageName, "new_gaps", added)
	}
	return st
}

// bookEvidence folds titles and rationales into one lowercase haystack.
func bookEvidence(books []state.Book) string {
	var b strings.Builder
	for _, book := range books {
		b.WriteString(strings.ToLower(book.Title))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(book.Reason))
		b.WriteByte(' ')
	}
	return b.String()
}

// objectiveCovered reports whether any significant word of the objective
// appears in the evidence text. Words shorter than four runes are noise.
func objectiveCovered(objective, evidence string) bool {
	if evidence == "" {
		return false
	}
	for _, word := range strings.Fields(strings.ToLower(objective)) {
		if len([]rune(word)) < 4 {
			continue
		}
		if strings.Contains(evidence, word) {
			return true
		}
	}
	return false
}

func appendGapOnce(st *state.State, gap string) {
	for _, existing := range st.KnowledgeGaps {
		if existing == gap {
			return
		}
	}
	st.KnowledgeGaps = append(st.KnowledgeGaps, gap)
}

func maxReviews(books []state.Book) int {
	most := 0
	for _, book := range books {
		if book.NumReviews > most {
			most = book.NumReviews
		}
	}
	return most
}

// gapsForStage returns the recorded gaps naming the given stage.
func gapsForStage(st *state.State, stageName string) []string {
	if stageName == "" {
		return nil
	}
	lower := strings.ToLower(stageName)
	var related []string
	for _, gap := range st.KnowledgeGaps {
		if strings.Contains(strings.ToLower(gap), lower) {
			related = append(related, gap)
		}
	}
	return related
}
