// Package contextfit scores how well a word fits free-text context hints.
// Scores are in [0,1]; the strategy is replaceable.
package contextfit

import (
	"context"
	"strings"
	"unicode"

	"github.com/abhisek/wordwise/internal/vocab"
)

// Matcher scores a word against context hints.
type Matcher interface {
	Fit(ctx context.Context, word string, hints []string) (float64, error)
}

// KeywordMatcher is the substring strategy: a hint matches when either
// side contains the other, or when any hint token does. The score is the
// fraction of matching hints; no hints scores 0.
type KeywordMatcher struct{}

// Fit implements Matcher.
func (KeywordMatcher) Fit(_ context.Context, word string, hints []string) (float64, error) {
	w := vocab.Fold(word)
	if w == "" {
		return 0, nil
	}
	var total, matched int
	for _, h := range hints {
		h = vocab.Fold(h)
		if h == "" {
			continue
		}
		total++
		if keywordMatch(w, h) {
			matched++
		}
	}
	if total == 0 {
		return 0, nil
	}
	return float64(matched) / float64(total), nil
}

func keywordMatch(word, hint string) bool {
	if strings.Contains(hint, word) || strings.Contains(word, hint) {
		return true
	}
	for _, tok := range tokens(hint) {
		if len(tok) >= 3 && strings.Contains(word, tok) {
			return true
		}
	}
	return false
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
