package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ibeckermayer/leadscout/internal/generator"
	"github.com/ibeckermayer/leadscout/internal/intent"
	"github.com/ibeckermayer/leadscout/internal/leads"
	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/promote"
	"github.com/ibeckermayer/leadscout/internal/synth"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// Search limits accepted by SearchNotes
const (
	MinSearchLimit = 1
	MaxSearchLimit = 500
)

// LoginResult reports a login attempt
type LoginResult struct {
	Result
	Login platform.LoginResult `json:"login"`
}

// KeywordsResult carries generated search keywords
type KeywordsResult struct {
	Result
	Keywords []string `json:"keywords"`
	// Degraded is set when the keywords came from the local fallback.
	Degraded bool `json:"degraded"`
}

// SearchResult lists posts matching a search
type SearchResult struct {
	Result
	Results []types.SearchResult `json:"results"`
}

// ContentResult carries a post's text
type ContentResult struct {
	Result
	Content string `json:"content"`
}

// CommentsResult lists a post's comments and the leads they produced
type CommentsResult struct {
	Result
	Comments []types.Comment `json:"comments"`
	Leads    []types.Lead    `json:"leads"`
}

// PostResult reports a posted comment
type PostResult struct {
	Result
	Text string `json:"text,omitempty"`
	// Templated is set when the text came from a template because
	// generation failed.
	Templated bool `json:"templated,omitempty"`
}

// Login signs the session into the platform
func (a *App) Login(ctx context.Context) LoginResult {
	var res platform.LoginResult
	err := a.withClient(ctx, func(c platform.Client) error {
		var err error
		res, err = c.Login(ctx)
		return err
	})
	if err != nil {
		logFailure("login", err)
		return LoginResult{Result: failure(err)}
	}
	msg := "Logged in"
	if res.AlreadyLoggedIn {
		msg = "Already logged in"
	}
	if res.Username != "" {
		msg += " as " + res.Username
	}
	slog.Info("[app] "+strings.ToLower(msg), "platform", res.Platform)
	return LoginResult{Result: ok(msg), Login: res}
}

// GenerateKeywords derives search keywords from a product description.
// When the generator is unavailable or fails, keywords are extracted
// locally and the result is marked degraded.
func (a *App) GenerateKeywords(ctx context.Context, productDescription string) KeywordsResult {
	desc, err := requireText("product description", productDescription)
	if err != nil {
		return KeywordsResult{Result: failure(err)}
	}

	if a.gen != nil {
		kws, err := generator.Keywords(ctx, a.gen, desc)
		if err == nil {
			return KeywordsResult{Result: ok(fmt.Sprintf("Generated %d keywords", len(kws))), Keywords: kws}
		}
		slog.Warn("[app] keyword generation failed, using fallback", "error", err)
	}

	kws := generator.FallbackKeywords(desc)
	return KeywordsResult{
		Result:   ok("Keyword generation unavailable; extracted keywords from the description"),
		Keywords: kws,
		Degraded: true,
	}
}

// SearchNotes searches the platform for posts matching keywords
func (a *App) SearchNotes(ctx context.Context, keywords []string, limit int) SearchResult {
	var kws []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) == 0 {
		return SearchResult{Result: failure(fmt.Errorf("keywords are required: %w", types.ErrValidation))}
	}
	if limit < MinSearchLimit || limit > MaxSearchLimit {
		return SearchResult{Result: failure(fmt.Errorf("limit %d not in [%d,%d]: %w", limit, MinSearchLimit, MaxSearchLimit, types.ErrValidation))}
	}

	var results []types.SearchResult
	err := a.withClient(ctx, func(c platform.Client) error {
		var err error
		results, err = c.Search(ctx, types.SearchQuery{Keywords: kws, Limit: limit})
		return err
	})
	if err != nil {
		logFailure("search", err)
		return SearchResult{Result: failure(err)}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return SearchResult{Result: ok(fmt.Sprintf("Found %d posts", len(results))), Results: results}
}

// NoteContent fetches a post's title and body
func (a *App) NoteContent(ctx context.Context, url string) ContentResult {
	url, err := requireText("url", url)
	if err != nil {
		return ContentResult{Result: failure(err)}
	}

	var content string
	err = a.withClient(ctx, func(c platform.Client) error {
		var err error
		content, err = c.GetContent(ctx, url)
		return err
	})
	if err != nil {
		logFailure("content", err)
		return ContentResult{Result: failure(err)}
	}
	return ContentResult{Result: ok("Content fetched"), Content: content}
}

// NoteComments fetches a post's comments and adds them to the lead
// collection through the unscreened scoring path.
func (a *App) NoteComments(ctx context.Context, url string) CommentsResult {
	url, err := requireText("url", url)
	if err != nil {
		return CommentsResult{Result: failure(err)}
	}

	var comments []types.Comment
	err = a.withClient(ctx, func(c platform.Client) error {
		var err error
		comments, err = c.GetComments(ctx, url)
		return err
	})
	if err != nil {
		logFailure("comments", err)
		return CommentsResult{Result: failure(err)}
	}
	if len(comments) == 0 {
		return CommentsResult{Result: ok("No comments found"), Comments: []types.Comment{}, Leads: []types.Lead{}}
	}

	items := make([]types.ContentItem, 0, len(comments))
	for i, c := range comments {
		items = append(items, promote.CommentItem(a.PlatformName(), url, i, c))
	}
	added := a.leads.Add(items, leads.AddOptions{SourceQuery: url, Unscreened: true})

	return CommentsResult{
		Result:   ok(fmt.Sprintf("Found %d comments, %d new leads", len(comments), len(added))),
		Comments: comments,
		Leads:    added,
	}
}

// PostComment posts a top-level comment on url. Without overrideText a
// reply is generated for the post, falling back to a template comment
// when generation fails.
func (a *App) PostComment(ctx context.Context, url, commentType, overrideText string) PostResult {
	url, err := requireText("url", url)
	if err != nil {
		return PostResult{Result: failure(err)}
	}
	ct, valid := types.ParseCommentType(commentType)
	if !valid {
		return PostResult{Result: failure(fmt.Errorf("comment type %q: %w", commentType, types.ErrValidation))}
	}

	var res PostResult
	err = a.withClient(ctx, func(c platform.Client) error {
		text := strings.TrimSpace(overrideText)
		if text == "" {
			var err error
			if text, res.Templated, err = a.composeFor(ctx, c, url, ct); err != nil {
				return err
			}
		}

		msg, err := c.PostComment(ctx, url, text)
		if err != nil {
			return err
		}
		res.Result = ok(msg)
		res.Text = text
		return nil
	})
	if err != nil {
		logFailure("post comment", err)
		return PostResult{Result: failure(err)}
	}
	a.recordPost(ctx, a.PlatformName(), url, "")
	slog.Info("[app] comment posted", "url", url, "templated", res.Templated)
	return res
}

// PreviewComment returns the comment PostComment would generate for url
// without posting it
func (a *App) PreviewComment(ctx context.Context, url, commentType string) PostResult {
	url, err := requireText("url", url)
	if err != nil {
		return PostResult{Result: failure(err)}
	}
	ct, valid := types.ParseCommentType(commentType)
	if !valid {
		return PostResult{Result: failure(fmt.Errorf("comment type %q: %w", commentType, types.ErrValidation))}
	}

	var res PostResult
	err = a.withClient(ctx, func(c platform.Client) error {
		var err error
		res.Text, res.Templated, err = a.composeFor(ctx, c, url, ct)
		return err
	})
	if err != nil {
		logFailure("preview comment", err)
		return PostResult{Result: failure(err)}
	}
	res.Result = ok("Comment generated")
	return res
}

// composeFor fetches the post and drafts a comment for it
func (a *App) composeFor(ctx context.Context, c platform.Client, url string, ct types.CommentType) (string, bool, error) {
	content, err := c.GetContent(ctx, url)
	if err != nil {
		return "", false, fmt.Errorf("get content: %w", err)
	}
	text, templated := a.draftFor(ctx, c.Name(), url, content, ct)
	return text, templated, nil
}

// draftFor writes a reply to a post, falling back to a template
func (a *App) draftFor(ctx context.Context, platformName, url, content string, ct types.CommentType) (string, bool) {
	item := promote.PostItem(platformName, types.SearchResult{URL: url}, content)
	if a.gen != nil {
		lead := leads.NewLead(item, intent.Score(item.ScoringText()), "", a.now())
		text, err := a.gen.Complete(ctx, synth.BuildPrompt(lead, synth.Options{CommentType: ct}))
		if err == nil {
			if text = synth.CleanReply(text); text != "" {
				return text, false
			}
		}
		slog.Warn("[app] comment generation failed, using template", "url", url, "error", err)
	}
	return synth.Template(ct, item), true
}

// ReplyToComment replies beneath the comment under url containing target
func (a *App) ReplyToComment(ctx context.Context, url, target, reply string) PostResult {
	url, err := requireText("url", url)
	if err == nil {
		target, err = requireText("target", target)
	}
	if err == nil {
		reply, err = requireText("reply", reply)
	}
	if err != nil {
		return PostResult{Result: failure(err)}
	}

	var msg string
	err = a.withClient(ctx, func(c platform.Client) error {
		var err error
		msg, err = c.ReplyToComment(ctx, url, target, reply)
		return err
	})
	if err != nil {
		logFailure("reply", err)
		return PostResult{Result: failure(err)}
	}
	return PostResult{Result: ok(msg), Text: reply}
}
