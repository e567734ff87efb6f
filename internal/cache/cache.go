// Package cache stores LLM answers for repeated questions.
package cache

import (
	"context"
	"regexp"
	"strings"

	"github.com/digitaldoctors/dda-assistant/internal/classifier"
)

// MaxKeyLength is the number of characters of the normalised query used as the key
const MaxKeyLength = 100

// Cache stores responses by normalised query. Implementations are safe for
// concurrent use and never surface backend errors: a failed read is a miss
// and a failed write is dropped.
type Cache interface {
	Get(ctx context.Context, key string) (classifier.Response, bool)
	Set(ctx context.Context, key string, resp classifier.Response)
}

var (
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases, trims, strips punctuation and collapses whitespace
func Normalize(query string) string {
	q := strings.TrimSpace(strings.ToLower(query))
	q = nonWord.ReplaceAllString(q, "")
	return whitespace.ReplaceAllString(q, " ")
}

// Key derives the cache key from an already normalised query
func Key(normalized string) string {
	runes := []rune(normalized)
	if len(runes) > MaxKeyLength {
		runes = runes[:MaxKeyLength]
	}
	return string(runes)
}

// Nop is a Cache that stores nothing
type Nop struct{}

func (Nop) Get(context.Context, string) (classifier.Response, bool) {
	return classifier.Response{}, false
}
func (Nop) Set(context.Context, string, classifier.Response) {}
