package generator

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/generator/providers"
	"github.com/ibeckermayer/leadscout/internal/types"
)

type stubProvider struct {
	text string
	err  error
	last providers.Request
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-1" }

func (s *stubProvider) Generate(ctx context.Context, req providers.Request) (string, error) {
	s.last = req
	return s.text, s.err
}

func TestCompleteTrimsAndPassesSystemPrompt(t *testing.T) {
	p := &stubProvider{text: "  hello there \n"}
	g := NewWithProvider(p, 0)

	got, err := g.Complete(context.Background(), "say hi")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello there" {
		t.Errorf("Complete = %q", got)
	}
	if p.last.System == "" || p.last.Prompt != "say hi" || p.last.MaxTokens != 500 {
		t.Errorf("unexpected request %+v", p.last)
	}
}

func TestCompleteWrapsProviderError(t *testing.T) {
	g := NewWithProvider(&stubProvider{err: errors.New("boom")}, 100)
	_, err := g.Complete(context.Background(), "x")
	if !errors.Is(err, types.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should carry the provider message: %v", err)
	}
}

func TestCompleteEmptyIsError(t *testing.T) {
	g := NewWithProvider(&stubProvider{text: "   "}, 100)
	if _, err := g.Complete(context.Background(), "x"); !errors.Is(err, types.ErrGeneration) {
		t.Fatalf("expected ErrGeneration for empty output, got %v", err)
	}
}

func TestCompleteCachesExchange(t *testing.T) {
	dir := t.TempDir()
	g := NewWithProvider(&stubProvider{text: "ok"}, 100).WithCacheDir(dir)
	if _, err := g.Complete(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one cached exchange, got %d", len(entries))
	}
}

func TestKeywords(t *testing.T) {
	g := NewWithProvider(&stubProvider{text: `"standing desk, ergonomic   chair"`}, 100)
	got, err := Keywords(context.Background(), g, "An adjustable standing desk")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"standing", "desk", "ergonomic", "chair"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}

func TestKeywordsEmptyAfterCleaning(t *testing.T) {
	g := NewWithProvider(&stubProvider{text: `",,"`}, 100)
	if _, err := Keywords(context.Background(), g, "desk"); !errors.Is(err, types.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestCleanKeywords(t *testing.T) {
	tests := map[string]string{
		`"a, b,c"`:        "a b c",
		"  'one\n two'  ": "one two",
		"plain":           "plain",
		"":                "",
	}
	for in, want := range tests {
		if got := CleanKeywords(in); got != want {
			t.Errorf("CleanKeywords(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFallbackKeywords(t *testing.T) {
	got := FallbackKeywords("This product is an ergonomic standing desk with a quiet motor and memory presets")
	want := []string{"ergonomic", "standing", "desk", "quiet", "motor"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FallbackKeywords = %v, want %v", got, want)
	}

	if got := FallbackKeywords("the a an"); !reflect.DeepEqual(got, []string{"the a an"}) {
		t.Errorf("stop-word-only text should fall back to its head, got %v", got)
	}
	if got := FallbackKeywords("   "); got != nil {
		t.Errorf("blank text should yield nothing, got %v", got)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), configFor("nope", "")); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := New(context.Background(), configFor("anthropic", "")); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error for missing key, got %v", err)
	}
}

func configFor(provider, key string) config.GeneratorConfig {
	return config.GeneratorConfig{Provider: provider, APIKey: key, Model: "m"}
}
