// Package scraper drives a real browser against Reddit. It implements
// platform.Client for the "web" adapter.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/leadscout/internal/auth"
	"github.com/ibeckermayer/leadscout/internal/browser"
	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/textutil"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// DefaultBaseURL is the Reddit web origin
const DefaultBaseURL = "https://www.reddit.com"

// Options configures the browser-backed client
type Options struct {
	Headless    bool
	ProfileDir  string
	PageTimeout time.Duration
	BaseURL     string
}

// Scraper handles browsing, reading and commenting on Reddit
type Scraper struct {
	opts Options
	auth *auth.Manager

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

var _ platform.Client = (*Scraper)(nil)

// New creates a new scraper. The browser starts lazily on first use.
func New(opts Options, authManager *auth.Manager) *Scraper {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = time.Minute
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Scraper{opts: opts, auth: authManager}
}

func (s *Scraper) Name() string {
	return "reddit"
}

// Login reuses stored cookies when they are still valid, otherwise opens a
// visible browser for the user to sign in
func (s *Scraper) Login(ctx context.Context) (platform.LoginResult, error) {
	result := platform.LoginResult{Platform: s.Name()}
	if s.auth.IsAuthenticated() {
		result.AlreadyLoggedIn = true
		return result, nil
	}

	// The login window shares the profile directory, so the headless
	// browser has to let go of it first.
	if err := s.Close(); err != nil {
		slog.Warn("[scraper] failed to close browser before login", "error", err)
	}

	if err := s.auth.Login(ctx); err != nil {
		return result, fmt.Errorf("%w: %v", types.ErrNotAuthenticated, err)
	}
	return result, nil
}

// Search collects post links from the Reddit search page
func (s *Scraper) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	tab, cancel, err := s.tab(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	target := SearchURL(s.opts.BaseURL, q.Text())
	if err := chromedp.Run(tab,
		chromedp.Navigate(target),
		chromedp.WaitReady(WaitForSearch, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to load search page: %w: %v", types.ErrNetwork, err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	var results []types.SearchResult
	seen := make(map[string]bool)
	maxScrollAttempts := limit/5 + 2

	for attempt := 0; len(results) < limit && attempt < maxScrollAttempts; attempt++ {
		var raw []rawSearchResult
		if err := chromedp.Run(tab, chromedp.Evaluate(extractSearchJS, &raw)); err != nil {
			return nil, fmt.Errorf("failed to extract search results: %w: %v", types.ErrNetwork, err)
		}
		for _, r := range raw {
			u := AbsoluteURL(s.opts.BaseURL, r.URL)
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			results = append(results, types.SearchResult{URL: u, Title: strings.TrimSpace(r.Title)})
		}

		if err := s.scroll(tab); err != nil {
			return nil, err
		}
		if err := sleepCtx(ctx, time.Duration(500+attempt*100)*time.Millisecond); err != nil {
			break
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	slog.Debug("[scraper] search finished", "query", q.Text(), "results", len(results))
	return results, nil
}

// GetContent returns the title and body text of a post
func (s *Scraper) GetContent(ctx context.Context, postURL string) (string, error) {
	tab, cancel, err := s.tab(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	if err := s.openPost(tab, postURL); err != nil {
		return "", err
	}

	var raw rawPostContent
	if err := chromedp.Run(tab, chromedp.Evaluate(extractPostJS, &raw)); err != nil {
		return "", fmt.Errorf("failed to extract post: %w: %v", types.ErrNetwork, err)
	}
	return FormatContent(raw.Title, raw.Body), nil
}

// GetComments returns the comments currently rendered under a post
func (s *Scraper) GetComments(ctx context.Context, postURL string) ([]types.Comment, error) {
	tab, cancel, err := s.tab(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if err := s.openPost(tab, postURL); err != nil {
		return nil, err
	}

	// Let lazy-loaded comment trees render
	_ = s.scroll(tab)
	_ = sleepCtx(ctx, 1500*time.Millisecond)

	var raw []rawComment
	if err := chromedp.Run(tab, chromedp.Evaluate(extractCommentsJS, &raw)); err != nil {
		return nil, fmt.Errorf("failed to extract comments: %w: %v", types.ErrNetwork, err)
	}

	comments := make([]types.Comment, 0, len(raw))
	for _, rc := range raw {
		if strings.TrimSpace(rc.Content) == "" {
			continue
		}
		comments = append(comments, types.Comment{
			ID:       rc.ID,
			Username: rc.Author,
			Content:  strings.TrimSpace(rc.Content),
			Time:     ParseTimestamp(rc.Timestamp),
			URL:      AbsoluteURL(s.opts.BaseURL, rc.Permalink),
		})
	}
	return comments, nil
}

// PostComment writes a top-level comment on a post
func (s *Scraper) PostComment(ctx context.Context, postURL, text string) (string, error) {
	if !s.auth.IsAuthenticated() {
		return "", types.ErrNotAuthenticated
	}
	tab, cancel, err := s.tab(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	if err := s.openPost(tab, postURL); err != nil {
		return "", err
	}
	if err := s.ensureLoggedIn(tab); err != nil {
		return "", err
	}

	err = chromedp.Run(tab,
		chromedp.Click(ComposerTrigger, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.WaitVisible(ComposerEditable, chromedp.ByQuery),
		chromedp.SendKeys(ComposerEditable, text, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(ComposerSubmit, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("failed to submit comment: %w: %v", types.ErrNetwork, err)
	}
	slog.Info("[scraper] comment posted", "url", postURL)
	return fmt.Sprintf("Comment posted on %s", postURL), nil
}

// ReplyToComment finds the comment containing target and replies to it
func (s *Scraper) ReplyToComment(ctx context.Context, postURL, target, reply string) (string, error) {
	if !s.auth.IsAuthenticated() {
		return "", types.ErrNotAuthenticated
	}
	tab, cancel, err := s.tab(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	if err := s.openPost(tab, postURL); err != nil {
		return "", err
	}
	if err := s.ensureLoggedIn(tab); err != nil {
		return "", err
	}

	var found bool
	if err := chromedp.Run(tab, chromedp.Evaluate(markReplyTargetJS(target), &found)); err != nil {
		return "", fmt.Errorf("failed to search comments: %w: %v", types.ErrNetwork, err)
	}
	if !found {
		return "", fmt.Errorf("no comment containing %q on %s", textutil.Excerpt(target, 40), postURL)
	}

	scope := fmt.Sprintf(`%s[%s="1"] `, CommentElement, replyTargetAttr)
	err = chromedp.Run(tab,
		chromedp.Evaluate(clickReplyJS, nil),
		chromedp.WaitVisible(scope+`div[contenteditable="true"]`, chromedp.ByQuery),
		chromedp.SendKeys(scope+`div[contenteditable="true"]`, reply, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(scope+`button[slot="submit-button"]`, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("failed to submit reply: %w: %v", types.ErrNetwork, err)
	}
	slog.Info("[scraper] reply posted", "url", postURL)
	return fmt.Sprintf("Reply posted on %s", postURL), nil
}

// Close shuts the browser down. It is safe to call when nothing is running.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.browserCancel != nil {
		err = chromedp.Cancel(s.browserCtx)
		s.browserCancel()
		s.browserCancel = nil
		s.browserCtx = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	return err
}

// Status reports whether the browser is running and cookies are still valid
func (s *Scraper) Status() platform.ClientStatus {
	s.mu.Lock()
	started := s.browserCtx != nil
	s.mu.Unlock()
	return platform.ClientStatus{BrowserStarted: started, LoggedIn: s.auth.IsAuthenticated()}
}

// tab returns a browser context bound to ctx and the page timeout
func (s *Scraper) tab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	browserCtx, err := s.ensureBrowser()
	if err != nil {
		return nil, nil, err
	}
	tctx, cancel := context.WithTimeout(browserCtx, s.opts.PageTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}, nil
}

func (s *Scraper) ensureBrowser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), browser.Options(s.opts.Headless, s.opts.ProfileDir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser and restore the stored session, if any
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if cookies, err := s.auth.GetCookies(); err == nil && len(cookies) > 0 {
		if err := auth.InjectCookies(browserCtx, cookies); err != nil {
			slog.Warn("[scraper] failed to inject cookies", "error", err)
		}
	}

	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	return browserCtx, nil
}

func (s *Scraper) openPost(tab context.Context, postURL string) error {
	if err := chromedp.Run(tab,
		chromedp.Navigate(postURL),
		chromedp.WaitVisible(WaitForPost, chromedp.ByQuery),
	); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("timed out loading %s: %w", postURL, types.ErrNetwork)
		}
		return fmt.Errorf("failed to load post: %w: %v", types.ErrNetwork, err)
	}
	return nil
}

func (s *Scraper) ensureLoggedIn(tab context.Context) error {
	var loggedIn bool
	js := fmt.Sprintf(`document.querySelector(%q) !== null`, UserMenu)
	if err := chromedp.Run(tab, chromedp.Evaluate(js, &loggedIn)); err != nil {
		return fmt.Errorf("failed to check login state: %w: %v", types.ErrNetwork, err)
	}
	if !loggedIn {
		return types.ErrNotAuthenticated
	}
	return nil
}

// scroll scrolls the page down
func (s *Scraper) scroll(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil),
	)
}

// SearchURL builds the post search URL for a query
func SearchURL(base, query string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("type", "link")
	return strings.TrimRight(base, "/") + "/search/?" + v.Encode()
}

// AbsoluteURL resolves a possibly relative Reddit link against base
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// ParseTimestamp reads the ISO timestamps Reddit renders, zero if absent
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatContent joins a post title and body into one block of text
func FormatContent(title, body string) string {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + "\n\n" + body
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
