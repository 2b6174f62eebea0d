// Package redditapi implements platform.Client on top of Reddit's OAuth2
// JSON API. Reads work with app-only credentials; posting needs a user
// account (password grant).
package redditapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/types"
)

const (
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL   = "https://oauth.reddit.com"
	DefaultWebURL   = "https://www.reddit.com"
)

// Config holds the app credentials and endpoints
type Config struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string

	TokenURL string
	APIURL   string
	WebURL   string
}

// Client talks to oauth.reddit.com
type Client struct {
	cfg Config

	mu   sync.Mutex
	http *http.Client
	user string
}

var _ platform.Client = (*Client)(nil)

// New creates an API client. No network traffic happens until first use.
func New(cfg Config) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.WebURL == "" {
		cfg.WebURL = DefaultWebURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "leadscout/0.1"
	}
	return &Client{cfg: cfg}
}

func (c *Client) Name() string {
	return "reddit"
}

func (c *Client) hasUser() bool {
	return c.cfg.Username != "" && c.cfg.Password != ""
}

// httpClient returns the authorized client, fetching a token on first use
func (c *Client) httpClient(ctx context.Context) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		return c.http, nil
	}
	if c.cfg.ClientID == "" {
		return nil, fmt.Errorf("reddit client_id not configured: %w", types.ErrNotAuthenticated)
	}

	// Token refreshes outlive the request that triggered the first fetch
	tokenCtx := context.WithoutCancel(ctx)

	if !c.hasUser() {
		conf := &clientcredentials.Config{
			ClientID:     c.cfg.ClientID,
			ClientSecret: c.cfg.ClientSecret,
			TokenURL:     c.cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ts := conf.TokenSource(tokenCtx)
		if _, err := ts.Token(); err != nil {
			return nil, classifyTokenError(err)
		}
		c.http = oauth2.NewClient(tokenCtx, ts)
		return c.http, nil
	}

	conf := &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	tok, err := conf.PasswordCredentialsToken(tokenCtx, c.cfg.Username, c.cfg.Password)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	c.http = conf.Client(tokenCtx, tok)
	return c.http, nil
}

// Status reports whether a token has been obtained
func (c *Client) Status() platform.ClientStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return platform.ClientStatus{LoggedIn: c.http != nil}
}

// Login fetches a token and, for user credentials, the account name
func (c *Client) Login(ctx context.Context) (platform.LoginResult, error) {
	c.mu.Lock()
	already := c.http != nil
	c.mu.Unlock()

	result := platform.LoginResult{Platform: c.Name(), AlreadyLoggedIn: already}
	if _, err := c.httpClient(ctx); err != nil {
		return result, err
	}
	if !c.hasUser() {
		return result, nil
	}

	var me struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/api/v1/me", nil, &me); err != nil {
		return result, err
	}
	c.mu.Lock()
	c.user = me.Name
	c.mu.Unlock()
	result.Username = me.Name
	slog.Info("[redditapi] logged in", "user", me.Name)
	return result, nil
}

func (c *Client) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}
	params := url.Values{}
	params.Set("q", q.Text())
	params.Set("type", "link")
	params.Set("sort", "relevance")
	params.Set("limit", strconv.Itoa(min(limit, 100)))

	var page listing
	if err := c.get(ctx, "/search", params, &page); err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Text(), err)
	}

	results := make([]types.SearchResult, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		var p postData
		if err := json.Unmarshal(child.Data, &p); err != nil || p.Permalink == "" {
			continue
		}
		results = append(results, types.SearchResult{
			URL:   c.webURL(p.Permalink),
			Title: p.Title,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (c *Client) GetContent(ctx context.Context, postURL string) (string, error) {
	post, _, err := c.thread(ctx, postURL)
	if err != nil {
		return "", err
	}
	return formatContent(post.Title, post.Selftext), nil
}

func (c *Client) GetComments(ctx context.Context, postURL string) ([]types.Comment, error) {
	_, comments, err := c.thread(ctx, postURL)
	if err != nil {
		return nil, err
	}
	out := make([]types.Comment, 0, len(comments))
	for _, cd := range comments {
		out = append(out, types.Comment{
			ID:       cd.ID,
			Username: cd.Author,
			Content:  cd.Body,
			Time:     time.Unix(int64(cd.CreatedUTC), 0).UTC(),
			URL:      c.webURL(cd.Permalink),
		})
	}
	return out, nil
}

func (c *Client) PostComment(ctx context.Context, postURL, text string) (string, error) {
	if !c.hasUser() {
		return "", fmt.Errorf("posting needs a user account: %w", types.ErrNotAuthenticated)
	}
	id, err := ArticleID(postURL)
	if err != nil {
		return "", err
	}
	if err := c.comment(ctx, "t3_"+id, text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Comment posted on %s", postURL), nil
}

func (c *Client) ReplyToComment(ctx context.Context, postURL, target, reply string) (string, error) {
	if !c.hasUser() {
		return "", fmt.Errorf("replying needs a user account: %w", types.ErrNotAuthenticated)
	}
	_, comments, err := c.thread(ctx, postURL)
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(strings.TrimSpace(target))
	for _, cd := range comments {
		if needle != "" && strings.Contains(strings.ToLower(cd.Body), needle) {
			if err := c.comment(ctx, "t1_"+cd.ID, reply); err != nil {
				return "", err
			}
			return fmt.Sprintf("Reply posted to %s on %s", cd.Author, postURL), nil
		}
	}
	return "", fmt.Errorf("no comment containing %q on %s", target, postURL)
}

// thread loads a post and its flattened comment tree
func (c *Client) thread(ctx context.Context, postURL string) (postData, []commentData, error) {
	id, err := ArticleID(postURL)
	if err != nil {
		return postData{}, nil, err
	}
	params := url.Values{}
	params.Set("raw_json", "1")

	var listings []listing
	if err := c.get(ctx, "/comments/"+id, params, &listings); err != nil {
		return postData{}, nil, fmt.Errorf("load %s: %w", postURL, err)
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return postData{}, nil, fmt.Errorf("load %s: empty thread: %w", postURL, types.ErrNetwork)
	}

	var post postData
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return postData{}, nil, fmt.Errorf("decode post: %w", err)
	}

	var comments []commentData
	if len(listings) > 1 {
		comments = flattenComments(listings[1].Data.Children)
	}
	return post, comments, nil
}

func (c *Client) comment(ctx context.Context, thingID, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", thingID)
	form.Set("text", text)

	var resp struct {
		JSON struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/comment", nil, strings.NewReader(form.Encode()), &resp); err != nil {
		return err
	}
	if len(resp.JSON.Errors) > 0 {
		if isRateLimitError(resp.JSON.Errors) {
			return fmt.Errorf("comment rejected: %v: %w", resp.JSON.Errors[0], types.ErrRateLimited)
		}
		return fmt.Errorf("comment rejected: %v", resp.JSON.Errors[0])
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader, out any) error {
	hc, err := c.httpClient(ctx)
	if err != nil {
		return err
	}

	u := strings.TrimRight(c.cfg.APIURL, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, types.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func (c *Client) webURL(permalink string) string {
	if strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return strings.TrimRight(c.cfg.WebURL, "/") + permalink
}

// statusError maps HTTP status codes onto the platform error kinds
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", code, types.ErrNotAuthenticated)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", code, types.ErrRateLimited)
	case code >= 500:
		return fmt.Errorf("status %d: %w", code, types.ErrNetwork)
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}

func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		if serr := statusError(re.Response.StatusCode); serr != nil {
			return fmt.Errorf("token: %w", serr)
		}
	}
	return fmt.Errorf("token: %w: %v", types.ErrNotAuthenticated, err)
}

func isRateLimitError(errs [][]any) bool {
	for _, e := range errs {
		if len(e) > 0 {
			if s, ok := e[0].(string); ok && s == "RATELIMIT" {
				return true
			}
		}
	}
	return false
}

// ArticleID extracts the post ID from a Reddit permalink
func ArticleID(postURL string) (string, error) {
	u, err := url.Parse(postURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", postURL, types.ErrValidation)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "comments" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no post id in %q: %w", postURL, types.ErrValidation)
}

func formatContent(title, body string) string {
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
