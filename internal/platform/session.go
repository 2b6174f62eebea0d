package platform

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ibeckermayer/leadscout/internal/types"
)

// Session owns a Client exclusively. Callers take a Lease before touching
// the client and release it when done; only one lease exists at a time.
type Session struct {
	client   Client
	sem      chan struct{}
	throttle *Throttle
}

// NewSession wraps client. engageDelay is the minimum spacing enforced
// between successive posting actions, across leases.
func NewSession(client Client, engageDelay time.Duration) *Session {
	return &Session{
		client:   client,
		sem:      make(chan struct{}, 1),
		throttle: NewThrottle(engageDelay),
	}
}

// Name returns the underlying platform name
func (s *Session) Name() string {
	return s.client.Name()
}

// Acquire waits for the session to become free
func (s *Session) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case s.sem <- struct{}{}:
		return &Lease{session: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire takes the session only if nobody holds it
func (s *Session) TryAcquire() (*Lease, error) {
	select {
	case s.sem <- struct{}{}:
		return &Lease{session: s}, nil
	default:
		return nil, types.ErrSessionBusy
	}
}

// Busy reports whether a lease is currently held
func (s *Session) Busy() bool {
	return len(s.sem) == 1
}

// Status combines lease state with whatever the client reports about itself
type Status struct {
	Platform string `json:"platform"`
	Busy     bool   `json:"busy"`
	ClientStatus
}

// Status snapshots the session without taking a lease
func (s *Session) Status() Status {
	st := Status{Platform: s.client.Name(), Busy: s.Busy()}
	if r, ok := s.client.(StatusReporter); ok {
		st.ClientStatus = r.Status()
	}
	return st
}

// Close releases the client's resources, if it holds any
func (s *Session) Close() error {
	if c, ok := s.client.(Closer); ok {
		return c.Close()
	}
	return nil
}

// Lease is a held session. It implements Client by forwarding to the owned
// client and applies the engagement throttle to posting calls.
type Lease struct {
	session *Session
	once    sync.Once
}

var _ Client = (*Lease)(nil)

// Release hands the session back. Calling it more than once is harmless.
func (l *Lease) Release() {
	l.once.Do(func() {
		<-l.session.sem
	})
}

func (l *Lease) Name() string {
	return l.session.client.Name()
}

func (l *Lease) Login(ctx context.Context) (LoginResult, error) {
	return l.session.client.Login(ctx)
}

func (l *Lease) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	return l.session.client.Search(ctx, q)
}

func (l *Lease) GetContent(ctx context.Context, url string) (string, error) {
	return l.session.client.GetContent(ctx, url)
}

func (l *Lease) GetComments(ctx context.Context, url string) ([]types.Comment, error) {
	return l.session.client.GetComments(ctx, url)
}

func (l *Lease) PostComment(ctx context.Context, url, text string) (string, error) {
	if err := l.session.throttle.Wait(ctx); err != nil {
		return "", err
	}
	slog.Debug("[platform] posting comment", "platform", l.Name(), "url", url)
	return l.session.client.PostComment(ctx, url, text)
}

func (l *Lease) ReplyToComment(ctx context.Context, url, target, reply string) (string, error) {
	if err := l.session.throttle.Wait(ctx); err != nil {
		return "", err
	}
	slog.Debug("[platform] replying to comment", "platform", l.Name(), "url", url)
	return l.session.client.ReplyToComment(ctx, url, target, reply)
}
