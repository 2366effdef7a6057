// Package parser reads flashcard decks written in markdown.
//
// A deck is a sequence of cards. Each card starts with a line beginning
// "Q:", followed by "A:" and optionally "C:" (context). Lines that do not
// start a field continue the current one. A line of "---" ends a card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/mindzap/internal/domain"
)

type field int

const (
	fieldNone field = iota
	fieldQuestion
	fieldAnswer
	fieldContext
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", fieldQuestion},
	{"A:", fieldAnswer},
	{"C:", fieldContext},
}

const separator = "---"

// ParseFile reads the deck at path.
func ParseFile(path string) ([]domain.Flashcard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a deck from r. Cards without a question are dropped. The
// returned cards carry content only; owner and review state are left zero.
func Parse(r io.Reader) ([]domain.Flashcard, error) {
	var d deck
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		d.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	d.endCard()
	return d.cards, nil
}

// deck accumulates cards line by line.
type deck struct {
	cards   []domain.Flashcard
	current domain.Flashcard
	field   field
	block   []string
}

func (d *deck) line(line string) {
	if line == separator {
		d.endCard()
		return
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			d.endField()
			if p.field == fieldQuestion && d.current.Question != "" {
				d.endCard()
			}
			d.field = p.field
			d.block = append(d.block, strings.TrimPrefix(rest, " "))
			return
		}
	}
	if d.field != fieldNone {
		d.block = append(d.block, line)
	}
}

func (d *deck) endField() {
	if d.field == fieldNone || len(d.block) == 0 {
		return
	}
	content := strings.TrimRight(strings.Join(d.block, "\n"), " \t\n")
	switch d.field {
	case fieldQuestion:
		d.current.Question = content
	case fieldAnswer:
		d.current.Answer = content
	case fieldContext:
		d.current.Context = content
	}
	d.block = nil
}

func (d *deck) endCard() {
	d.endField()
	if d.current.Question != "" {
		d.cards = append(d.cards, d.current)
	}
	d.current = domain.Flashcard{}
	d.field = fieldNone
}
