package platform_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/platform/platformtest"
	"github.com/ibeckermayer/leadscout/internal/types"
)

func TestTryAcquireRejectsSecondHolder(t *testing.T) {
	s := platform.NewSession(platformtest.NewFake(), 0)

	lease, err := s.TryAcquire()
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if !s.Busy() {
		t.Fatal("session should report busy")
	}
	if _, err := s.TryAcquire(); !errors.Is(err, types.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	lease.Release()
	lease.Release()

	again, err := s.TryAcquire()
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again.Release()
}

func TestAcquireQueuesUntilRelease(t *testing.T) {
	s := platform.NewSession(platformtest.NewFake(), 0)
	first, err := s.TryAcquire()
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan error, 1)
	go func() {
		lease, err := s.Acquire(context.Background())
		if err == nil {
			lease.Release()
		}
		got <- err
	}()

	select {
	case err := <-got:
		t.Fatalf("acquire returned while session held: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	first.Release()
	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("queued acquire failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued acquire never completed")
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	s := platform.NewSession(platformtest.NewFake(), 0)
	held, _ := s.TryAcquire()
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := s.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestLeaseForwardsCalls(t *testing.T) {
	fake := platformtest.NewFake()
	fake.AddPost("https://reddit.com/r/a/1", platformtest.Post{Title: "t", Content: "body"})
	s := platform.NewSession(fake, 0)
	lease, _ := s.TryAcquire()
	defer lease.Release()

	ctx := context.Background()
	results, err := lease.Search(ctx, types.SearchQuery{Keywords: []string{"x"}, Limit: 5})
	if err != nil || len(results) != 1 {
		t.Fatalf("search = %v, %v", results, err)
	}
	if _, err := lease.PostComment(ctx, results[0].URL, "hello"); err != nil {
		t.Fatal(err)
	}
	if fake.PostedCount() != 1 {
		t.Fatalf("posted = %d", fake.PostedCount())
	}
}

type flaky struct {
	*platformtest.Fake
	failures int
	err      error
}

func (f *flaky) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	if f.failures > 0 {
		f.failures--
		f.Fake.Calls["Search"]++
		return nil, f.err
	}
	return f.Fake.Search(ctx, q)
}

func (f *flaky) PostComment(ctx context.Context, url, text string) (string, error) {
	f.Fake.Calls["PostComment"]++
	return "", f.err
}

func newFlaky(failures int, err error) *flaky {
	fake := platformtest.NewFake()
	fake.Calls = map[string]int{}
	fake.AddPost("https://reddit.com/r/a/1", platformtest.Post{Title: "t"})
	return &flaky{Fake: fake, failures: failures, err: err}
}

var fastPolicy = platform.RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func TestRetryRecoversFromTransientReads(t *testing.T) {
	f := newFlaky(2, fmt.Errorf("search: %w", types.ErrRateLimited))
	c := platform.WithRetry(f, fastPolicy)

	results, err := c.Search(context.Background(), types.SearchQuery{Keywords: []string{"x"}, Limit: 1})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
	if n := f.CallCount("Search"); n != 3 {
		t.Fatalf("search calls = %d, want 3", n)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFlaky(10, fmt.Errorf("search: %w", types.ErrNetwork))
	c := platform.WithRetry(f, fastPolicy)

	if _, err := c.Search(context.Background(), types.SearchQuery{Keywords: []string{"x"}}); !errors.Is(err, types.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if n := f.CallCount("Search"); n != 3 {
		t.Fatalf("search calls = %d, want 3", n)
	}
}

func TestRetrySkipsAuthErrors(t *testing.T) {
	f := newFlaky(5, types.ErrNotAuthenticated)
	c := platform.WithRetry(f, fastPolicy)

	if _, err := c.Search(context.Background(), types.SearchQuery{Keywords: []string{"x"}}); !errors.Is(err, types.ErrNotAuthenticated) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if n := f.CallCount("Search"); n != 1 {
		t.Fatalf("auth errors must not be retried, calls = %d", n)
	}
}

func TestRetryNeverRetriesPosting(t *testing.T) {
	f := newFlaky(0, fmt.Errorf("post: %w", types.ErrNetwork))
	c := platform.WithRetry(f, fastPolicy)

	if _, err := c.PostComment(context.Background(), "https://reddit.com/r/a/1", "hi"); err == nil {
		t.Fatal("expected posting error")
	}
	if n := f.CallCount("PostComment"); n != 1 {
		t.Fatalf("posting must not be retried, calls = %d", n)
	}
}

func TestStatusReportsLeaseAndLogin(t *testing.T) {
	fake := platformtest.NewFake()
	s := platform.NewSession(platform.WithRetry(fake, platform.RetryPolicy{}), 0)

	st := s.Status()
	if st.Platform != "reddit" || st.Busy || st.LoggedIn {
		t.Fatalf("fresh status = %+v", st)
	}

	lease, err := s.TryAcquire()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lease.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	st = s.Status()
	if !st.Busy || !st.LoggedIn {
		t.Fatalf("status while held after login = %+v", st)
	}
	lease.Release()
	if s.Status().Busy {
		t.Fatal("status should not be busy after release")
	}
}
