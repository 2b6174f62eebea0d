package platform

import (
	"context"
	"log/slog"
	"time"

	"github.com/ibeckermayer/leadscout/internal/types"
)

// RetryPolicy bounds the backoff applied to transient read failures
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy is used when a zero policy is given
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    4,
	InitialBackoff: time.Second,
	MaxBackoff:     16 * time.Second,
}

// WithRetry wraps client so that Search, GetContent and GetComments are
// retried with exponential backoff on types.ErrRateLimited and
// types.ErrNetwork. Login and posting calls pass straight through.
func WithRetry(client Client, policy RetryPolicy) Client {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}
	return &retryClient{Client: client, policy: policy, sleep: sleepCtx}
}

type retryClient struct {
	Client
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// Close forwards to the wrapped client so sessions can still release it
func (r *retryClient) Close() error {
	if c, ok := r.Client.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *retryClient) Status() ClientStatus {
	if sr, ok := r.Client.(StatusReporter); ok {
		return sr.Status()
	}
	return ClientStatus{}
}

func (r *retryClient) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	var out []types.SearchResult
	err := r.do(ctx, "search", func() error {
		var err error
		out, err = r.Client.Search(ctx, q)
		return err
	})
	return out, err
}

func (r *retryClient) GetContent(ctx context.Context, url string) (string, error) {
	var out string
	err := r.do(ctx, "content", func() error {
		var err error
		out, err = r.Client.GetContent(ctx, url)
		return err
	})
	return out, err
}

func (r *retryClient) GetComments(ctx context.Context, url string) ([]types.Comment, error) {
	var out []types.Comment
	err := r.do(ctx, "comments", func() error {
		var err error
		out, err = r.Client.GetComments(ctx, url)
		return err
	})
	return out, err
}

func (r *retryClient) do(ctx context.Context, op string, fn func() error) error {
	backoff := r.policy.InitialBackoff
	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !types.IsTransient(err) || attempt == r.policy.MaxAttempts {
			return err
		}
		slog.Warn("[platform] transient failure, retrying",
			"op", op,
			"attempt", attempt,
			"backoff", backoff,
			"error", err)
		if serr := r.sleep(ctx, backoff); serr != nil {
			return err
		}
		backoff *= 2
		if backoff > r.policy.MaxBackoff {
			backoff = r.policy.MaxBackoff
		}
	}
	return err
}
