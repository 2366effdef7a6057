package srs

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"github.com/conorfennell/mindzap/internal/domain"
)

// Due returns the cards whose due date is not after now, earliest first.
// Cards due at the same instant are ordered by ID.
//
// Every range over the returned sequence filters and sorts afresh, so it can be
// iterated any number of times and stopping early is cheap.
func Due(cards []domain.Flashcard, now time.Time) iter.Seq[domain.Flashcard] {
	return func(yield func(domain.Flashcard) bool) {
		due := make([]domain.Flashcard, 0, len(cards))
		for _, c := range cards {
			if !c.DueDate.After(now) {
				due = append(due, c)
			}
		}
		slices.SortFunc(due, compareDue)
		for _, c := range due {
			if !yield(c) {
				return
			}
		}
	}
}

// CountDue returns how many cards Due would yield.
func CountDue(cards []domain.Flashcard, now time.Time) int {
	n := 0
	for _, c := range cards {
		if !c.DueDate.After(now) {
			n++
		}
	}
	return n
}

func compareDue(a, b domain.Flashcard) int {
	if c := a.DueDate.Compare(b.DueDate); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
