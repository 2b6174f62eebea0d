// Package platform defines the contract every content platform adapter
// implements, plus the session handle that serializes access to it.
package platform

import (
	"context"

	"github.com/ibeckermayer/leadscout/internal/types"
)

// LoginResult describes the outcome of an interactive or token login
type LoginResult struct {
	Platform string `json:"platform"`
	Username string `json:"username,omitempty"`
	// AlreadyLoggedIn is set when stored credentials were still valid.
	AlreadyLoggedIn bool `json:"already_logged_in"`
}

// Client is one platform's capability surface. Implementations wrap failures
// in types.ErrNotAuthenticated, types.ErrRateLimited or types.ErrNetwork so
// callers can classify them with errors.Is.
type Client interface {
	Name() string
	Login(ctx context.Context) (LoginResult, error)
	Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error)
	GetContent(ctx context.Context, url string) (string, error)
	GetComments(ctx context.Context, url string) ([]types.Comment, error)
	// PostComment posts a top-level comment and returns a confirmation message.
	PostComment(ctx context.Context, url, text string) (string, error)
	// ReplyToComment finds the comment under url whose text contains target
	// and posts reply beneath it.
	ReplyToComment(ctx context.Context, url, target, reply string) (string, error)
}

// Closer is implemented by clients holding resources such as a browser process
type Closer interface {
	Close() error
}

// ClientStatus is what a client knows about its own connection
type ClientStatus struct {
	BrowserStarted bool `json:"browser_started"`
	LoggedIn       bool `json:"logged_in"`
}

// StatusReporter is implemented by clients that can describe their connection
type StatusReporter interface {
	Status() ClientStatus
}
