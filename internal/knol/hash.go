// Package knol derives a stable identity for flashcard content.
package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/conorfennell/mindzap/internal/domain"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizePart(part string) string {
	return strings.TrimSpace(strings.ToLower(lineEndings.Replace(part)))
}

// Normalize returns the canonical form of the card's content: each field
// lowercased, trimmed and with unix line endings, joined by newlines.
func Normalize(card *domain.Flashcard) string {
	return strings.Join([]string{
		normalizePart(card.Question),
		normalizePart(card.Answer),
		normalizePart(card.Context),
	}, "\n")
}

// Hash returns the hex SHA-256 of the card's normalized content. Cards that
// differ only in case, surrounding whitespace or line endings share a hash.
func Hash(card *domain.Flashcard) string {
	h := sha256.New()
	io.WriteString(h, Normalize(card))
	return hex.EncodeToString(h.Sum(nil))
}

// Stamp sets card.Hash and returns it.
func Stamp(card *domain.Flashcard) string {
	card.Hash = Hash(card)
	return card.Hash
}
