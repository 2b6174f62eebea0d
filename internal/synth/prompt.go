package synth

import (
	"fmt"
	"strings"

	"github.com/ibeckermayer/leadscout/internal/textutil"
	"github.com/ibeckermayer/leadscout/internal/types"
)

var typeGuidance = map[types.CommentType]string{
	types.CommentLeadGen:      "Be genuinely helpful first, then mention the product as one option and invite them to reach out.",
	types.CommentLike:         "Show appreciation for the post. Do not pitch anything.",
	types.CommentConsult:      "Ask a thoughtful follow-up question that shows interest in their situation.",
	types.CommentProfessional: "Answer as an experienced practitioner with one concrete, specific tip.",
}

// BuildPrompt constructs the reply-drafting prompt for lead
func BuildPrompt(lead types.Lead, opts Options) string {
	var sb strings.Builder
	item := lead.Item

	sb.WriteString(fmt.Sprintf("You are writing a reply to a %s on %s.\n\n", item.SourceType, item.Platform))

	if opts.ProductDescription != "" {
		sb.WriteString("## Product\n")
		sb.WriteString(textutil.Excerpt(opts.ProductDescription, 500))
		sb.WriteString("\n\n")
	}

	sb.WriteString("## What they wrote\n")
	if item.Title != "" {
		sb.WriteString(fmt.Sprintf("Title: %s\n", item.Title))
	}
	if item.Author != "" {
		sb.WriteString(fmt.Sprintf("Author: %s\n", item.Author))
	}
	if q := lead.Score.ExtractedQuestion; q != "" {
		sb.WriteString(fmt.Sprintf("Their question: %s\n", q))
	}
	sb.WriteString(fmt.Sprintf("Text: %s\n\n", textutil.Excerpt(textutil.PlainText(item.BodyText), 500)))

	sb.WriteString("## Task\n\n")
	sb.WriteString(typeGuidance[opts.commentType()])
	sb.WriteString("\nWrite 2 to 4 casual sentences that fit the community's tone. ")
	sb.WriteString("Reply with the comment text only, without quotes or a preamble.\n")
	return sb.String()
}
