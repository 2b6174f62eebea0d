// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// Post is a canned post served by Fake
type Post struct {
	Title    string
	Content  string
	Comments []types.Comment
	// ContentErr fails GetContent for this post.
	ContentErr error
}

// Posted records one successful posting call
type Posted struct {
	URL    string
	Target string
	Text   string
}

// Fake serves canned search results and records posting calls. Every
// field may be set before use; methods are safe for concurrent use.
type Fake struct {
	PlatformName string
	// Order is the search result order; Posts holds their data by URL.
	Order []string
	Posts map[string]Post

	LoginErr  error
	SearchErr error
	// PostErr fails posting to a given URL.
	PostErr map[string]error
	// Hook runs at the start of every call, keyed by method name.
	Hook func(method string)

	mu       sync.Mutex
	Queries  []types.SearchQuery
	Posted   []Posted
	Calls    map[string]int
	loggedIn bool
}

var _ platform.Client = (*Fake)(nil)

// NewFake returns a reddit-named fake with no content
func NewFake() *Fake {
	return &Fake{PlatformName: "reddit", Posts: map[string]Post{}, PostErr: map[string]error{}}
}

// AddPost registers a post and appends it to the search order
func (f *Fake) AddPost(url string, p Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Posts == nil {
		f.Posts = map[string]Post{}
	}
	f.Order = append(f.Order, url)
	f.Posts[url] = p
}

// PostedCount returns how many posting calls succeeded
func (f *Fake) PostedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Posted)
}

// CallCount returns how many times method was invoked
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *Fake) enter(method string) {
	f.mu.Lock()
	if f.Calls == nil {
		f.Calls = map[string]int{}
	}
	f.Calls[method]++
	hook := f.Hook
	f.mu.Unlock()
	if hook != nil {
		hook(method)
	}
}

// Status reports logged in once Login has succeeded
func (f *Fake) Status() platform.ClientStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return platform.ClientStatus{LoggedIn: f.loggedIn}
}

func (f *Fake) Name() string {
	if f.PlatformName == "" {
		return "reddit"
	}
	return f.PlatformName
}

func (f *Fake) Login(ctx context.Context) (platform.LoginResult, error) {
	f.enter("Login")
	if f.LoginErr != nil {
		return platform.LoginResult{}, f.LoginErr
	}
	f.mu.Lock()
	already := f.loggedIn
	f.loggedIn = true
	f.mu.Unlock()
	return platform.LoginResult{Platform: f.Name(), Username: "tester", AlreadyLoggedIn: already}, nil
}

func (f *Fake) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	f.enter("Search")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries = append(f.Queries, q)
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	var out []types.SearchResult
	for _, url := range f.Order {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		out = append(out, types.SearchResult{URL: url, Title: f.Posts[url].Title})
	}
	return out, nil
}

func (f *Fake) GetContent(ctx context.Context, url string) (string, error) {
	f.enter("GetContent")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Posts[url]
	if !ok {
		return "", fmt.Errorf("no post at %s: %w", url, types.ErrNetwork)
	}
	if p.ContentErr != nil {
		return "", p.ContentErr
	}
	return p.Content, nil
}

func (f *Fake) GetComments(ctx context.Context, url string) ([]types.Comment, error) {
	f.enter("GetComments")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Posts[url]
	if !ok {
		return nil, fmt.Errorf("no post at %s: %w", url, types.ErrNetwork)
	}
	out := make([]types.Comment, len(p.Comments))
	copy(out, p.Comments)
	return out, nil
}

func (f *Fake) PostComment(ctx context.Context, url, text string) (string, error) {
	f.enter("PostComment")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.PostErr[url]; err != nil {
		return "", err
	}
	f.Posted = append(f.Posted, Posted{URL: url, Text: text})
	return "comment posted", nil
}

func (f *Fake) ReplyToComment(ctx context.Context, url, target, reply string) (string, error) {
	f.enter("ReplyToComment")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.PostErr[url]; err != nil {
		return "", err
	}
	f.Posted = append(f.Posted, Posted{URL: url, Target: target, Text: reply})
	return "reply posted", nil
}
