package textutil

import "testing"

func TestPlainText(t *testing.T) {
	in := "**Looking for** a [good laptop](https://example.com/x) under $500\n\n- fast\n- light"
	got := PlainText(in)
	want := "Looking for a good laptop under $500 fast light"
	if got != want {
		t.Fatalf("PlainText = %q, want %q", got, want)
	}
	if PlainText("   ") != "" {
		t.Fatal("expected empty output for blank input")
	}
}

func TestRemoveLinks(t *testing.T) {
	if got := RemoveLinks("see https://example.com now"); got != "see  now" {
		t.Fatalf("RemoveLinks = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("héllo", 2); got != "hé" {
		t.Fatalf("Excerpt = %q", got)
	}
	if got := Excerpt("hi", 10); got != "hi" {
		t.Fatalf("Excerpt = %q", got)
	}
}
