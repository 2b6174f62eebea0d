package generator

import (
	"regexp"
	"strings"

	"github.com/ibeckermayer/leadscout/internal/textutil"
)

const systemPrompt = "You help a small business find and talk to potential customers on online forums. " +
	"Follow the requested output format exactly."

// KeywordPrompt builds the prompt that derives search keywords from a product description
func KeywordPrompt(productDescription string) string {
	var sb strings.Builder
	sb.WriteString("Generate search keywords for finding forum posts written by people who might buy this product.\n\n")
	sb.WriteString("## Product\n")
	sb.WriteString(textutil.Excerpt(productDescription, 1000))
	sb.WriteString("\n\n## Task\n\n")
	sb.WriteString("Return 2 to 5 short keywords separated by spaces, the way a person would type them into a search box. ")
	sb.WriteString("Do not number them, quote them or explain them.\n")
	return sb.String()
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	wordRe       = regexp.MustCompile(`\w+`)
)

// CleanKeywords strips surrounding quotes, turns commas into spaces and
// collapses whitespace.
func CleanKeywords(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	text = strings.ReplaceAll(text, ",", " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var stopWords = map[string]bool{
	"product": true, "description": true, "suitable": true, "can": true, "able": true,
	"has": true, "provide": true, "include": true, "contain": true,
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"for": true, "with": true, "from": true, "this": true, "that": true,
	"these": true, "those": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"had": true, "having": true,
}

// FallbackKeywords extracts up to five keywords from text without an LLM.
// When nothing survives the stop list it returns the first 20 characters.
func FallbackKeywords(text string) []string {
	var keywords []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopWords[w] || len([]rune(w)) < 2 {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == 5 {
			break
		}
	}
	if len(keywords) > 0 {
		return keywords
	}
	head := strings.TrimSpace(textutil.Excerpt(text, 20))
	if head == "" {
		return nil
	}
	return []string{head}
}
