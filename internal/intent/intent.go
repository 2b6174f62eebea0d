// Package intent estimates purchase intent in short social media texts.
//
// Scoring is a fixed-lexicon heuristic: every matched phrase adds its weight
// independently, so overlapping phrases ("recommend", "recommendation")
// compound. Matching is case-insensitive substring matching.
package intent

import (
	"strings"

	"github.com/ibeckermayer/leadscout/internal/types"
)

const (
	highIntentWeight = 15
	questionWeight   = 10
	urgencyWeight    = 10
	purchaseWeight   = 12

	questionExcerptLen = 100

	// unscreenedFloor is the minimum score on the unscreened path only.
	// The primary path has no floor; the two are kept apart pending product review.
	unscreenedFloor = 20
)

var highIntentPhrases = []string{
	// recommendation requests
	"recommend", "recommendation", "recommendations", "suggest", "suggestion",
	"any advice", "anyone know",
	// need / want
	"need", "want", "looking for",
	// comparisons
	"best", "which", "worth it",
	// source seeking
	"where to buy", "where can i buy", "where can i find", "help me find",
	"seeking", "searching for",
}

var urgencyPhrases = []string{
	"urgent", "asap", "soon", "quickly", "immediately", "need help", "desperate",
}

var purchasePhrases = []string{
	"buy", "purchase", "price", "cost", "afford", "budget", "discount",
}

// Score rates text that has been pre-screened through a lexicon match.
// The result is clamped to [0,100].
func Score(text string) types.IntentScore {
	if strings.TrimSpace(text) == "" {
		return types.IntentScore{}
	}
	return types.IntentScore{
		Value:             clamp(raw(text), 0, 100),
		ExtractedQuestion: ExtractQuestion(text),
	}
}

// ScoreUnscreened rates text that reached scoring without a lexicon
// pre-screen, such as a raw comment scan. Non-empty text never scores
// below 20 on this path.
func ScoreUnscreened(text string) types.IntentScore {
	if strings.TrimSpace(text) == "" {
		return types.IntentScore{}
	}
	return types.IntentScore{
		Value:             clamp(raw(text), unscreenedFloor, 100),
		ExtractedQuestion: ExtractQuestion(text),
	}
}

func raw(text string) int {
	lower := strings.ToLower(text)
	score := highIntentWeight * countMatches(lower, highIntentPhrases)
	if strings.Contains(text, "?") {
		score += questionWeight
	}
	score += urgencyWeight * countMatches(lower, urgencyPhrases)
	score += purchaseWeight * countMatches(lower, purchasePhrases)
	return score
}

func countMatches(lower string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// ExtractQuestion returns the first sentence that ends in "?", or the first
// 100 characters of text when there is none.
func ExtractQuestion(text string) string {
	var fragment strings.Builder
	for _, r := range text {
		switch r {
		case '?':
			if q := strings.TrimSpace(fragment.String()); q != "" {
				return q + "?"
			}
			fragment.Reset()
		case '.', '!':
			fragment.Reset()
		default:
			fragment.WriteRune(r)
		}
	}
	return strings.TrimSpace(firstRunes(text, questionExcerptLen))
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
