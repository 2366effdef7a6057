package srs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/mindzap/internal/domain"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestNext_Scenarios(t *testing.T) {
	testCases := []struct {
		name      string
		state     domain.ReviewState
		grade     Grade
		wantReps  int
		wantIvl   int
		wantEase  float64
		wantDueIn time.Duration
	}{
		{
			name:      "first repetition is always one day",
			state:     domain.ReviewState{Interval: 1, Repetitions: 0, EaseFactor: 2.5, DueDate: t0},
			grade:     CorrectHesitant,
			wantReps:  1,
			wantIvl:   1,
			wantEase:  2.5,
			wantDueIn: day,
		},
		{
			name:      "second repetition is fixed at six days",
			state:     domain.ReviewState{Interval: 1, Repetitions: 1, EaseFactor: 2.5, DueDate: t0},
			grade:     Perfect,
			wantReps:  2,
			wantIvl:   6,
			wantEase:  2.6,
			wantDueIn: 6 * day,
		},
		{
			name:      "third repetition multiplies by the new ease factor",
			state:     domain.ReviewState{Interval: 6, Repetitions: 2, EaseFactor: 2.5, DueDate: t0},
			grade:     CorrectDifficult,
			wantReps:  3,
			wantIvl:   int(math.Round(6 * 2.36)),
			wantEase:  2.36,
			wantDueIn: 14 * day,
		},
		{
			name:      "failure resets repetitions and interval",
			state:     domain.ReviewState{Interval: 30, Repetitions: 7, EaseFactor: 2.5, DueDate: t0},
			grade:     Incorrect,
			wantReps:  0,
			wantIvl:   1,
			wantEase:  1.96,
			wantDueIn: day,
		},
		{
			name:      "blackout near the floor clamps the ease factor",
			state:     domain.ReviewState{Interval: 3, Repetitions: 3, EaseFactor: 1.4, DueDate: t0},
			grade:     Blackout,
			wantReps:  0,
			wantIvl:   1,
			wantEase:  1.3,
			wantDueIn: day,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.state, tc.grade, t0)
			require.NoError(t, err)
			assert.Equal(t, tc.wantReps, got.Repetitions)
			assert.Equal(t, tc.wantIvl, got.Interval)
			assert.InDelta(t, tc.wantEase, got.EaseFactor, 1e-9)
			assert.Equal(t, t0.Add(tc.wantDueIn), got.DueDate)
		})
	}
}

func TestNext_InvalidGrade(t *testing.T) {
	state := domain.NewReviewState(t0)
	for _, g := range []Grade{-1, 6, 42} {
		_, err := Next(state, g, t0)
		require.ErrorIs(t, err, ErrInvalidGrade, "grade %d", g)
	}
}

func TestNext_DoesNotMutateInput(t *testing.T) {
	state := domain.ReviewState{Interval: 6, Repetitions: 2, EaseFactor: 2.5, DueDate: t0}
	before := state
	_, err := Next(state, Perfect, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, before, state)
}

func TestNext_Deterministic(t *testing.T) {
	state := domain.ReviewState{Interval: 11, Repetitions: 4, EaseFactor: 2.1, DueDate: t0}
	a, err := Next(state, CorrectHesitant, t0)
	require.NoError(t, err)
	b, err := Next(state, CorrectHesitant, t0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNext_MaxInterval(t *testing.T) {
	p := &Params{MaxInterval: 30}
	state := domain.ReviewState{Interval: 25, Repetitions: 5, EaseFactor: 2.5, DueDate: t0}
	got, err := p.Next(state, Perfect, t0)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Interval)
	assert.Equal(t, t0.Add(30*day), got.DueDate)
}

func TestNext_UncappedIntervalStaysInFuture(t *testing.T) {
	p := &Params{MaxInterval: 0}
	state := domain.NewReviewState(t0)
	for i := 1; i <= 60; i++ {
		got, err := p.Next(state, Perfect, t0)
		require.NoError(t, err)
		require.True(t, got.DueDate.After(t0), "review %d: due %v is not after now", i, got.DueDate)
		require.GreaterOrEqual(t, got.Interval, state.Interval, "review %d: interval shrank", i)
		require.LessOrEqual(t, got.Interval, MaxIntervalDays)
		require.True(t, got.DueDate.Equal(t0.Add(time.Duration(got.Interval)*day)), "review %d", i)
		state = got
	}
	assert.Equal(t, MaxIntervalDays, state.Interval)
}

func TestNext_HugeMaxIntervalIsBounded(t *testing.T) {
	p := &Params{MaxInterval: math.MaxInt}
	state := domain.ReviewState{Interval: math.MaxInt / 2, Repetitions: 8, EaseFactor: 2.5, DueDate: t0}
	got, err := p.Next(state, Perfect, t0)
	require.NoError(t, err)
	assert.Equal(t, MaxIntervalDays, got.Interval)
	assert.True(t, got.DueDate.After(t0))
}

func TestNext_NaNEaseFactorIsNormalised(t *testing.T) {
	state := domain.ReviewState{Interval: 6, Repetitions: 2, EaseFactor: math.NaN(), DueDate: t0}
	got, err := Next(state, CorrectHesitant, t0)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got.EaseFactor))
	assert.GreaterOrEqual(t, got.EaseFactor, domain.MinEaseFactor)
	assert.Equal(t, 8, got.Interval)
}

func TestNext_NormalisesBrokenState(t *testing.T) {
	state := domain.ReviewState{Interval: 0, Repetitions: 4, EaseFactor: 0.5, DueDate: t0}
	got, err := Next(state, CorrectHesitant, t0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Interval, 1)
	assert.GreaterOrEqual(t, got.EaseFactor, domain.MinEaseFactor)
}

func TestNext_DueDateIsUTC(t *testing.T) {
	local := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, local)
	got, err := Next(domain.NewReviewState(now), Perfect, now)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.DueDate.Location())
	assert.True(t, got.DueDate.Equal(now.Add(day)))
}

// sampleStates covers fresh, young, mature and floor-level cards.
func sampleStates() []domain.ReviewState {
	var states []domain.ReviewState
	for _, ivl := range []int{1, 2, 6, 15, 120, 4000} {
		for _, reps := range []int{0, 1, 2, 3, 10} {
			for _, ease := range []float64{1.3, 1.31, 1.7, 2.5, 3.2} {
				states = append(states, domain.ReviewState{
					Interval:    ivl,
					Repetitions: reps,
					EaseFactor:  ease,
					DueDate:     t0,
				})
			}
		}
	}
	return states
}

func TestNext_Properties(t *testing.T) {
	for _, state := range sampleStates() {
		for g := Blackout; g <= Perfect; g++ {
			got, err := Next(state, g, t0)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, got.Interval, 1)
			assert.GreaterOrEqual(t, got.EaseFactor, domain.MinEaseFactor)
			assert.Equal(t, t0.Add(time.Duration(got.Interval)*day), got.DueDate)

			if g.Passed() {
				assert.Equal(t, state.Repetitions+1, got.Repetitions)
			} else {
				assert.Equal(t, 0, got.Repetitions)
				assert.Equal(t, 1, got.Interval)
			}

			if g == Incorrect {
				if state.EaseFactor > domain.MinEaseFactor {
					assert.Less(t, got.EaseFactor, state.EaseFactor)
				} else {
					assert.Equal(t, domain.MinEaseFactor, got.EaseFactor)
				}
			}
		}
	}
}

func FuzzNext(f *testing.F) {
	f.Add(1, 0, 2.5, 4)
	f.Add(6, 2, 2.5, 3)
	f.Add(100, 9, 1.3, 0)
	f.Add(0, -3, -1.0, 5)
	f.Add(math.MaxInt, math.MaxInt, 2.5, 5)
	f.Add(57299, 11, math.NaN(), 4)

	f.Fuzz(func(t *testing.T, interval, reps int, ease float64, grade int) {
		state := domain.ReviewState{Interval: interval, Repetitions: reps, EaseFactor: math.Min(ease, 100), DueDate: t0}
		got, err := (&Params{}).Next(state, Grade(grade), t0)
		if !Grade(grade).IsValid() {
			if err == nil {
				t.Fatalf("grade %d accepted", grade)
			}
			return
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got.Interval < 1 {
			t.Errorf("interval %d < 1", got.Interval)
		}
		if !(got.EaseFactor >= domain.MinEaseFactor) {
			t.Errorf("ease factor %f below floor", got.EaseFactor)
		}
		if got.Interval > MaxIntervalDays || !got.DueDate.After(t0) {
			t.Errorf("interval %d gives due date %v", got.Interval, got.DueDate)
		}
		if !got.DueDate.Equal(t0.Add(time.Duration(got.Interval) * day)) {
			t.Errorf("due date %v does not match interval %d", got.DueDate, got.Interval)
		}
	})
}
