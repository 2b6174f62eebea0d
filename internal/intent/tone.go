package intent

import (
	"github.com/jonreiter/govader"

	"github.com/ibeckermayer/leadscout/internal/textutil"
)

var sentiment = govader.NewSentimentIntensityAnalyzer()

// Tone labels
const (
	TonePositive = "positive"
	ToneNeutral  = "neutral"
	ToneNegative = "negative"
)

// Tone classifies the overall sentiment of a (possibly markdown) text.
func Tone(text string) string {
	plain := textutil.PlainText(text)
	if plain == "" {
		return ToneNeutral
	}
	score := sentiment.PolarityScores(plain).Compound
	switch {
	case score >= 0.20:
		return TonePositive
	case score <= -0.20:
		return ToneNegative
	default:
		return ToneNeutral
	}
}
