// Package textutil normalizes platform text before it is scored or prompted.
package textutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// RemoveLinks keeps link text and drops bare URLs
func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return strings.TrimSpace(urlPattern.ReplaceAllString(input, ""))
}

// PlainText renders markdown and strips the resulting markup, collapsing whitespace.
func PlainText(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	out := blackfriday.Run([]byte(RemoveLinks(markdown)), blackfriday.WithNoExtensions())
	text := html.UnescapeString(tagPattern.ReplaceAllString(string(out), " "))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns at most n runes of s
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
