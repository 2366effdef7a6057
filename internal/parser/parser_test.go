package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedQ     string
		expectedA     string
		expectedC     string
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedQ:     "What is the capital of France?",
			expectedA:     "Paris",
		},
		{
			name:          "Q, A and C",
			input:         "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			expectedCards: 1,
			expectedQ:     "What is 1+1?",
			expectedA:     "2",
			expectedC:     "Basic arithmetic",
		},
		{
			name: "Multiline answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expectedQ:     "What are the primary colors?",
			expectedA:     "Red\nBlue\nYellow",
		},
		{
			name: "Two cards",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name: "Separator ends a card",
			input: `Q: Before
A: One
---
stray text is ignored
Q: After
A: Two`,
			expectedCards: 2,
		},
		{
			name: "Trailing blank lines are trimmed",
			input: `Q: Spaced out
A: Yes


`,
			expectedCards: 1,
			expectedQ:     "Spaced out",
			expectedA:     "Yes",
		},
		{
			name:          "No cards, just text",
			input:         "This is a file with no questions.",
			expectedCards: 0,
		},
		{
			name:          "Answer without question",
			input:         "A: orphan answer",
			expectedCards: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedCards: 1,
			expectedQ:     "Question",
			expectedA:     "Answer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}

			if tc.expectedCards == 1 {
				card := cards[0]
				if card.Question != tc.expectedQ {
					t.Errorf("Expected Question to be '%s', but got '%s'", tc.expectedQ, card.Question)
				}
				if card.Answer != tc.expectedA {
					t.Errorf("Expected Answer to be '%s', but got '%s'", tc.expectedA, card.Answer)
				}
				if card.Context != tc.expectedC {
					t.Errorf("Expected Context to be '%s', but got '%s'", tc.expectedC, card.Context)
				}
			}
		})
	}
}

func TestParse_TwoCardsKeepOrder(t *testing.T) {
	cards, err := Parse(strings.NewReader("Q: one\nA: 1\n\nQ: two\nA: 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 || cards[0].Question != "one" || cards[1].Question != "two" {
		t.Fatalf("unexpected cards: %+v", cards)
	}
	if cards[0].Answer != "1" {
		t.Errorf("Expected first answer '1', got '%s'", cards[0].Answer)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.md")
	if err := os.WriteFile(path, []byte("Q: file?\nA: yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cards, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(cards))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
