package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/j840425/plan-estudio/core/state"
)

// Book record field prefixes in the structured search-result format. Records
// are separated by "---" lines.
var (
	titleFieldRe   = regexp.MustCompile(`(?i)^title:\s*(.+)$`)
	authorFieldRe  = regexp.MustCompile(`(?i)^author:\s*(.+)$`)
	yearFieldRe    = regexp.MustCompile(`(?i)^year:\s*(.+)$`)
	ratingFieldRe  = regexp.MustCompile(`(?i)^rating:\s*(.+)$`)
	reviewsFieldRe = regexp.MustCompile(`(?i)^reviews:\s*(.+)$`)
	whyFieldRe     = regexp.MustCompile(`(?i)^why:\s*(.+)$`)
)

// Rating substring forms accepted by ExtractRating, on the 0-5 scale.
var ratingFormsRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:/\s*5|out of 5|stars?)`)

// Free-text fallback: a quoted or asterisk-emphasized title followed by "by"
// and an author on the same line.
var looseBookRe = regexp.MustCompile(`(?i)["“*]([^"”*]{3,120})["”*]\s+(?:by|de)\s+([A-Z][^,.(\n]{2,60})`)

var reviewCountRe = regexp.MustCompile(`(?i)([\d.,]{1,12})\s*(?:\+\s*)?(?:reviews|ratings|reseñas|valoraciones)`)

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// scoreOutOfTenRe matches a validator verdict score on the 0-10 scale.
var scoreOutOfTenRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*/\s*10`)

// ParseBooks extracts book candidates from search-result text.
//
// The primary format is structured records of "Title:" / "Author:" / "Year:"
// / "Rating:" / "Reviews:" / "Why:" lines separated by "---". When no
// structured record yields a title, a loose free-text scan for quoted titles
// with authors runs instead. Either way a candidate without an extractable
// rating is dropped, never defaulted: a book the text does not rate cannot
// pass a rating gate, and keeping it would only feed the gate noise.
func ParseBooks(text string) []state.Book {
	books := parseStructured(text)
	if len(books) == 0 {
		books = parseLoose(text)
	}

	rated := books[:0]
	for _, book := range books {
		if book.Rating > 0 {
			book.Score = state.WeightedScore(book.Rating, book.NumReviews)
			rated = append(rated, book)
		}
	}
	return rated
}

func parseStructured(text string) []state.Book {
	var books []state.Book
	var current state.Book

	flush := func() {
		if strings.TrimSpace(current.Title) != "" {
			books = append(books, current)
		}
		current = state.Book{}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "---") {
			flush()
			continue
		}
		// Strip list bullets and emphasis before matching field prefixes.
		raw := strings.TrimSpace(strings.TrimLeft(trimmed, "-*#• \t"))

		switch {
		case titleFieldRe.MatchString(raw):
			// A new Title line opens a record even without a separator.
			if strings.TrimSpace(current.Title) != "" {
				flush()
			}
			current.Title = cleanField(titleFieldRe.FindStringSubmatch(raw)[1])
		case authorFieldRe.MatchString(raw):
			current.Author = cleanField(authorFieldRe.FindStringSubmatch(raw)[1])
		case yearFieldRe.MatchString(raw):
			if m := yearRe.FindString(yearFieldRe.FindStringSubmatch(raw)[1]); m != "" {
				current.Year = m
			}
		case ratingFieldRe.MatchString(raw):
			if rating, ok := ExtractRating(ratingFieldRe.FindStringSubmatch(raw)[1]); ok {
				current.Rating = rating
			}
		case reviewsFieldRe.MatchString(raw):
			current.NumReviews = parseCount(reviewsFieldRe.FindStringSubmatch(raw)[1])
		case whyFieldRe.MatchString(raw):
			current.Reason = cleanField(whyFieldRe.FindStringSubmatch(raw)[1])
		}
	}
	flush()

	return books
}

// parseLoose scans prose for quoted titles with authors, attaching the
// nearest rating and review count found on the same line.
func parseLoose(text string) []state.Book {
	var books []state.Book
	for _, line := range strings.Split(text, "\n") {
		m := looseBookRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		book := state.Book{
			Title:  cleanField(m[1]),
			Author: cleanField(m[2]),
		}
		if rating, ok := ExtractRating(line); ok {
			book.Rating = rating
		}
		book.NumReviews = parseCount(line)
		if year := yearRe.FindString(line); year != "" {
			book.Year = year
		}
		books = append(books, book)
	}
	return books
}

// ExtractRating finds a rating on the 0-5 scale in the text. Accepted forms
// are "4.5/5", "4.5 out of 5" and "4.5 stars"; a bare number is not a
// rating. Values outside [0,5] are rejected.
func ExtractRating(text string) (float64, bool) {
	m := ratingFormsRe.FindStringSubmatch(text)
	if m == nil {
		// A structured "Rating:" field often carries just the number.
		trimmed := strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil && v >= 0 && v <= 5 {
			return v, true
		}
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || v < 0 || v > 5 {
		return 0, false
	}
	return v, true
}

// ExtractScore finds a "N/10" plan score in validator text. When no score
// is present the neutral 7.0 is returned, so a validator that forgot to
// emit a number neither fails nor flatters the plan.
func ExtractScore(text string) float64 {
	m := scoreOutOfTenRe.FindStringSubmatch(text)
	if m == nil {
		return 7.0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || v < 0 || v > 10 {
		return 7.0
	}
	return v
}

// parseCount extracts a review count from text like "12,340 reviews" or a
// bare "Reviews: 850" field. Returns zero when nothing matches.
func parseCount(text string) int {
	candidate := text
	if m := reviewCountRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, candidate)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// cleanField strips quoting and emphasis leftovers from a field value.
func cleanField(raw string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'“”*`))
}
