// Package srs implements SM-2 spaced-repetition scheduling for flashcards.
package srs

import (
	"errors"
	"fmt"
)

// ErrInvalidGrade is returned when a grade falls outside 0-5.
var ErrInvalidGrade = errors.New("srs: invalid grade")

// Grade is the user's recall quality for one review, SM-2 convention.
type Grade int

const (
	Blackout          Grade = iota // no recall at all
	Incorrect                      // wrong, but recognised once shown
	IncorrectFamiliar              // wrong, answer felt familiar
	CorrectDifficult               // right after serious effort
	CorrectHesitant                // right after some hesitation
	Perfect                        // instant recall
)

// PassingGrade is the lowest grade that counts as a successful recall.
const PassingGrade = CorrectDifficult

// IsValid reports whether g is within 0-5.
func (g Grade) IsValid() bool {
	return g >= Blackout && g <= Perfect
}

// Passed reports whether g counts as a successful recall.
func (g Grade) Passed() bool {
	return g >= PassingGrade
}

// Validate returns an error wrapping ErrInvalidGrade for out-of-range grades.
func (g Grade) Validate() error {
	if !g.IsValid() {
		return fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidGrade, int(g), int(Blackout), int(Perfect))
	}
	return nil
}
