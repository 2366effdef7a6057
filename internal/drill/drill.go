// Package drill runs an interactive review session in a terminal.
package drill

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/conorfennell/mindzap/internal/domain"
	"github.com/conorfennell/mindzap/internal/srs"
)

// Reviewer serves the due queue and grades cards. *review.Service implements it.
type Reviewer interface {
	Queue(ctx context.Context, userID int64, limit int) ([]domain.Flashcard, int, error)
	Grade(ctx context.Context, userID, cardID int64, grade srs.Grade) (*domain.Flashcard, error)
}

// Summary is what a session accomplished.
type Summary struct {
	Reviewed  int
	Passed    int
	Remaining int // cards still due when the session ended
}

var errQuit = errors.New("quit")

// Session drives one study session over in and out.
type Session struct {
	reviewer Reviewer
	userID   int64
	in       *bufio.Scanner
	out      io.Writer
}

// NewSession returns a session for the user reading answers from in.
func NewSession(r Reviewer, userID int64, in io.Reader, out io.Writer) *Session {
	return &Session{reviewer: r, userID: userID, in: bufio.NewScanner(in), out: out}
}

// Run reviews up to limit due cards. Typing q at any prompt, or closing the
// input, ends the session early without error.
func (s *Session) Run(ctx context.Context, limit int) (Summary, error) {
	var sum Summary
	queue, total, err := s.reviewer.Queue(ctx, s.userID, limit)
	if err != nil {
		return sum, err
	}
	sum.Remaining = total
	if len(queue) == 0 {
		fmt.Fprintln(s.out, "Nothing is due. Come back later.")
		return sum, nil
	}
	fmt.Fprintf(s.out, "%d card(s) due, reviewing %d.\n", total, len(queue))

	for i := range queue {
		card := &queue[i]
		graded, passed, err := s.review(ctx, i+1, len(queue), card)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			return sum, err
		}
		sum.Reviewed++
		sum.Remaining--
		if passed {
			sum.Passed++
		}
		fmt.Fprintf(s.out, "Next review in %d day(s).\n\n", graded.Interval)
	}

	fmt.Fprintf(s.out, "Reviewed %d, recalled %d, %d still due.\n", sum.Reviewed, sum.Passed, sum.Remaining)
	return sum, nil
}

func (s *Session) review(ctx context.Context, n, of int, card *domain.Flashcard) (*domain.Flashcard, bool, error) {
	fmt.Fprintf(s.out, "[%d/%d] Q: %s\n", n, of, card.Question)
	if _, err := s.prompt("Press Enter to show the answer (q to quit): "); err != nil {
		return nil, false, err
	}
	fmt.Fprintf(s.out, "A: %s\n", card.Answer)
	if card.Context != "" {
		fmt.Fprintf(s.out, "C: %s\n", card.Context)
	}

	for {
		line, err := s.prompt("Grade 0-5 (0 = blackout, 5 = perfect): ")
		if err != nil {
			return nil, false, err
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(s.out, "Please enter a number from 0 to 5.")
			continue
		}
		grade := srs.Grade(v)
		graded, err := s.reviewer.Grade(ctx, s.userID, card.ID, grade)
		if errors.Is(err, srs.ErrInvalidGrade) {
			fmt.Fprintln(s.out, "Please enter a number from 0 to 5.")
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return graded, grade.Passed(), nil
	}
}

// prompt prints p and returns the next trimmed input line.
func (s *Session) prompt(p string) (string, error) {
	fmt.Fprint(s.out, p)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	line := strings.TrimSpace(s.in.Text())
	if strings.EqualFold(line, "q") {
		return "", errQuit
	}
	return line, nil
}
