package parse

import (
	"math"
	"testing"
)

func TestParseBooks_StructuredRecords(t *testing.T) {
	text := `Title: The Go Programming Language
Author: Alan Donovan
Year: 2015
Rating: 4.7/5
Reviews: 2,341
Why: The canonical reference, written by members of the Go team.
---
Title: Learning Go
Author: Jon Bodner
Year: 2021
Rating: 4.5 out of 5
Reviews: 890
Why: Modern idioms with practical examples.
---
Title: Unrated Pamphlet
Author: Nobody
Why: No rating anywhere.
`

	books := ParseBooks(text)
	if len(books) != 2 {
		t.Fatalf("expected 2 rated books, got %d: %+v", len(books), books)
	}

	first := books[0]
	if first.Title != "The Go Programming Language" || first.Author != "Alan Donovan" {
		t.Errorf("unexpected first book: %+v", first)
	}
	if first.Rating != 4.7 {
		t.Errorf("rating = %v, want 4.7", first.Rating)
	}
	if first.NumReviews != 2341 {
		t.Errorf("reviews = %d, want 2341", first.NumReviews)
	}
	if first.Year != "2015" {
		t.Errorf("year = %q", first.Year)
	}

	want := 4.7 * math.Log(2342)
	if math.Abs(first.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", first.Score, want)
	}
}

func TestParseBooks_RecordWithoutSeparator(t *testing.T) {
	text := "Title: First\nRating: 4.2/5\nTitle: Second\nRating: 4.8/5\n"
	books := ParseBooks(text)
	if len(books) != 2 {
		t.Fatalf("a new Title line should open a record, got %d: %+v", len(books), books)
	}
}

func TestParseBooks_LooseFallback(t *testing.T) {
	text := `For this stage I recommend "Clean Architecture" by Robert Martin, rated 4.4/5 with 5,120 reviews (2017).
You could also look at *Refactoring* by Martin Fowler, 4.6 stars, 3200 ratings.
And there is an unrated blog series too.`

	books := ParseBooks(text)
	if len(books) != 2 {
		t.Fatalf("expected 2 books from loose text, got %d: %+v", len(books), books)
	}
	if books[0].Title != "Clean Architecture" || books[0].Rating != 4.4 || books[0].NumReviews != 5120 {
		t.Errorf("unexpected loose book: %+v", books[0])
	}
	if books[1].Rating != 4.6 {
		t.Errorf(`"stars" rating form not extracted: %+v`, books[1])
	}
}

func TestParseBooks_DropsUnrated(t *testing.T) {
	if books := ParseBooks(`"Some Book" by Some Author, highly praised.`); len(books) != 0 {
		t.Errorf("unrated candidates must be dropped, got %+v", books)
	}
}

func TestExtractRating(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"4.5/5", 4.5, true},
		{"4.5 / 5", 4.5, true},
		{"4 out of 5", 4, true},
		{"4.8 stars", 4.8, true},
		{"3 star", 3, true},
		{"4,3/5", 4.3, true},
		{"4.6", 4.6, true},
		{"9/10", 0, false},
		{"great book", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractRating(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractRating(%q) = %v, %v; want %v, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractScore(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"Overall score: 8/10", 8},
		{"I would give this plan 6.5/10.", 6.5},
		{"Solid plan overall.", 7},
		{"score: 25/10", 7},
	}
	for _, tt := range tests {
		if got := ExtractScore(tt.text); got != tt.want {
			t.Errorf("ExtractScore(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
