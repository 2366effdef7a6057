package srs

import (
	"math"
	"time"

	"github.com/conorfennell/mindzap/internal/domain"
)

const day = 24 * time.Hour

// MaxIntervalDays is the longest interval a due date can be computed for.
const MaxIntervalDays = int(math.MaxInt64 / int64(day))

// Params holds the tunables of the scheduler.
type Params struct {
	// MaxInterval caps the interval in days. Zero or anything above
	// MaxIntervalDays means MaxIntervalDays.
	MaxInterval int
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() *Params {
	return &Params{
		MaxInterval: 36500,
	}
}

// Next grades a card with the package defaults. See Params.Next.
func Next(state domain.ReviewState, grade Grade, now time.Time) (domain.ReviewState, error) {
	return DefaultParams().Next(state, grade, now)
}

// Next computes the review state that follows grading state with grade at now.
// It is pure: the input is not modified and equal inputs give equal outputs.
func (p *Params) Next(state domain.ReviewState, grade Grade, now time.Time) (domain.ReviewState, error) {
	if err := grade.Validate(); err != nil {
		return domain.ReviewState{}, err
	}

	ease := nextEaseFactor(state.EaseFactor, grade)

	var next domain.ReviewState
	if !grade.Passed() {
		next = domain.ReviewState{
			Interval:    1,
			Repetitions: 0,
			EaseFactor:  ease,
		}
	} else {
		reps := state.Repetitions + 1
		if reps < 1 {
			reps = 1
		}
		next = domain.ReviewState{
			Interval:    p.clamp(nextInterval(reps, state.Interval, ease)),
			Repetitions: reps,
			EaseFactor:  ease,
		}
	}

	next.DueDate = now.UTC().Add(time.Duration(next.Interval) * day)
	return next, nil
}

// nextEaseFactor applies EF' = EF + (0.1 - (5-q)(0.08 + (5-q)0.02)), floored at 1.3.
func nextEaseFactor(ease float64, grade Grade) float64 {
	if !(ease >= domain.MinEaseFactor) {
		ease = domain.MinEaseFactor
	}
	d := float64(Perfect - grade)
	ease += 0.1 - d*(0.08+d*0.02)
	return math.Max(domain.MinEaseFactor, ease)
}

// nextInterval returns the interval for the reps-th consecutive successful recall.
func nextInterval(reps, previous int, ease float64) int {
	switch reps {
	case 1:
		return 1
	case 2:
		return 6
	}
	if previous < 1 {
		previous = 1
	}
	next := math.Round(float64(previous) * ease)
	if next >= float64(MaxIntervalDays) {
		return MaxIntervalDays
	}
	return int(next)
}

func (p *Params) clamp(interval int) int {
	if interval < 1 {
		return 1
	}
	limit := MaxIntervalDays
	if p.MaxInterval > 0 && p.MaxInterval < limit {
		limit = p.MaxInterval
	}
	return min(interval, limit)
}
