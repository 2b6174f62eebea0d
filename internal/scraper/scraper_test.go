package scraper

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ibeckermayer/leadscout/internal/auth"
)

func TestSearchURL(t *testing.T) {
	got := SearchURL("https://www.reddit.com/", "standing desk & chair")
	want := "https://www.reddit.com/search/?q=standing+desk+%26+chair&type=link"
	if got != want {
		t.Fatalf("SearchURL = %q, want %q", got, want)
	}
}

func TestAbsoluteURL(t *testing.T) {
	cases := map[string]string{
		"/r/desks/comments/abc/title/":           "https://www.reddit.com/r/desks/comments/abc/title/",
		"https://old.reddit.com/r/x/comments/1/": "https://old.reddit.com/r/x/comments/1/",
		"":                                       "",
		"   ":                                    "",
	}
	for in, want := range cases {
		if got := AbsoluteURL(DefaultBaseURL, in); got != want {
			t.Errorf("AbsoluteURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got := ParseTimestamp("2025-03-04T05:06:07.000+0000")
	if !got.Equal(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Fatalf("ParseTimestamp = %v", got)
	}
	if !ParseTimestamp("2025-03-04T05:06:07Z").Equal(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Fatal("RFC3339 not parsed")
	}
	if !ParseTimestamp("yesterday").IsZero() {
		t.Fatal("garbage should parse to zero time")
	}
}

func TestFormatContent(t *testing.T) {
	if got := FormatContent(" Title ", " body "); got != "Title\n\nbody" {
		t.Fatalf("FormatContent = %q", got)
	}
	if got := FormatContent("", "body"); got != "body" {
		t.Fatalf("FormatContent = %q", got)
	}
	if got := FormatContent("Title", ""); got != "Title" {
		t.Fatalf("FormatContent = %q", got)
	}
}

func TestMarkReplyTargetEscapesText(t *testing.T) {
	js := markReplyTargetJS(`he said "hi"`)
	if !strings.Contains(js, `"he said \"hi\""`) {
		t.Fatalf("target not JSON-escaped:\n%s", js)
	}
}

func TestCloseAndStatusBeforeBrowserStarts(t *testing.T) {
	store := auth.NewRedditCookieStore(filepath.Join(t.TempDir(), "cookies.json"))
	s := New(Options{Headless: true}, auth.NewManager(store, t.TempDir(), time.Second))

	if err := s.Close(); err != nil {
		t.Fatalf("Close on idle scraper: %v", err)
	}
	st := s.Status()
	if st.BrowserStarted || st.LoggedIn {
		t.Fatalf("Status = %+v, want nothing started", st)
	}
}
