package intent

import (
	"strings"
	"testing"
)

func TestScoreEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := Score(text); got.Value != 0 || got.ExtractedQuestion != "" {
			t.Fatalf("Score(%q) = %+v, want zero value", text, got)
		}
		if got := ScoreUnscreened(text); got.Value != 0 {
			t.Fatalf("ScoreUnscreened(%q) = %d, want 0 (no floor for empty text)", text, got.Value)
		}
	}
}

func TestScoreRecommendationRequestHitsCeiling(t *testing.T) {
	text := "I need recommendations on the best skincare, where can I buy it?"
	got := Score(text)
	if got.Value != 100 {
		t.Fatalf("expected clamp ceiling 100, got %d", got.Value)
	}
	if !strings.HasSuffix(got.ExtractedQuestion, "?") {
		t.Fatalf("expected extracted question to end with '?', got %q", got.ExtractedQuestion)
	}
}

func TestScoreWeights(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"Nice weather today", 0},
		{"Looking for a good laptop", 15},
		{"thoughts?", 10},
		{"this is urgent", 10},
		{"what's the price", 12},
		// "need" (15) + "need help" (10) compound
		{"need help", 25},
		// "recommend" + "recommendation" overlap compounds
		{"a recommendation", 30},
	}
	for _, tc := range cases {
		if got := Score(tc.text).Value; got != tc.want {
			t.Errorf("Score(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestScoreIsCaseInsensitiveAndPure(t *testing.T) {
	lower := Score("which laptop should i buy")
	upper := Score("WHICH LAPTOP SHOULD I BUY")
	if lower.Value != upper.Value {
		t.Fatalf("case changed score: %d vs %d", lower.Value, upper.Value)
	}
	again := Score("which laptop should i buy")
	if again != lower {
		t.Fatalf("score not deterministic: %+v vs %+v", again, lower)
	}
}

func TestScoreBounds(t *testing.T) {
	texts := []string{
		"buy purchase price cost afford budget discount urgent asap soon quickly immediately desperate?",
		"a",
		"?",
		strings.Repeat("best which need want ", 50),
	}
	for _, text := range texts {
		for _, s := range []int{Score(text).Value, ScoreUnscreened(text).Value} {
			if s < 0 || s > 100 {
				t.Fatalf("score %d out of range for %q", s, text)
			}
		}
	}
}

func TestScoreUnscreenedFloor(t *testing.T) {
	if got := ScoreUnscreened("Nice weather today").Value; got != 20 {
		t.Fatalf("expected unscreened floor 20, got %d", got)
	}
	if got := Score("Nice weather today").Value; got != 0 {
		t.Fatalf("primary path must not apply the floor, got %d", got)
	}
	if got := ScoreUnscreened("Looking for a good laptop?").Value; got != 25 {
		t.Fatalf("expected 25 above the floor, got %d", got)
	}
}

func TestExtractQuestion(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Great post. Which one is cheaper? Thanks!", "Which one is cheaper?"},
		{"Wow! Really?", "Really?"},
		{"No questions here.", "No questions here."},
		// empty fragments are skipped, so the excerpt fallback applies
		{"??", "??"},
	}
	for _, tc := range cases {
		if got := ExtractQuestion(tc.text); got != tc.want {
			t.Errorf("ExtractQuestion(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}

	long := strings.Repeat("x", 150)
	if got := ExtractQuestion(long); len(got) != 100 {
		t.Fatalf("expected 100 char excerpt, got %d", len(got))
	}
}

func TestTone(t *testing.T) {
	if got := Tone(""); got != ToneNeutral {
		t.Fatalf("empty text tone = %q", got)
	}
	if got := Tone("I love this, it is wonderful and amazing!"); got != TonePositive {
		t.Fatalf("expected positive tone, got %q", got)
	}
	if got := Tone("This is terrible, I hate it and it is awful."); got != ToneNegative {
		t.Fatalf("expected negative tone, got %q", got)
	}
}
