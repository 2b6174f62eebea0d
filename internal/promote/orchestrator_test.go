package promote_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/leads"
	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/platform/platformtest"
	"github.com/ibeckermayer/leadscout/internal/promote"
	"github.com/ibeckermayer/leadscout/internal/synth"
	"github.com/ibeckermayer/leadscout/internal/types"
)

const (
	deskURL    = "https://www.reddit.com/r/desks/comments/abc/looking/"
	weatherURL = "https://www.reddit.com/r/misc/comments/def/weather/"
	hotComment = "Can anyone recommend the best desk? Need to buy soon, budget $300"
)

type genFunc func(ctx context.Context, prompt string) (string, error)

func (f genFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func isKeywordPrompt(prompt string) bool {
	return strings.Contains(prompt, "Generate search keywords")
}

// okGen answers keyword prompts with "standing desk" and drafts a fixed reply
var okGen = genFunc(func(ctx context.Context, prompt string) (string, error) {
	if isKeywordPrompt(prompt) {
		return "standing desk", nil
	}
	return "Check out Acme desks", nil
})

type memRuns struct {
	mu      sync.Mutex
	saved   []*types.PromotionReport
	engaged map[string]bool
}

func (m *memRuns) SaveRun(ctx context.Context, r *types.PromotionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return nil
}

func (m *memRuns) HasEngaged(ctx context.Context, platform, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engaged[url], nil
}

type harness struct {
	fake    *platformtest.Fake
	session *platform.Session
	agg     *leads.Aggregator
	synth   *synth.Synthesizer
	runs    *memRuns
	orch    *promote.Orchestrator
}

func newHarness(t *testing.T, gen genFunc) *harness {
	t.Helper()
	h := &harness{
		fake:  platformtest.NewFake(),
		agg:   leads.New(),
		synth: synth.New(gen),
		runs:  &memRuns{engaged: map[string]bool{}},
	}
	h.fake.AddPost(deskURL, platformtest.Post{
		Title:   "Looking for a standing desk",
		Content: "Looking for a standing desk\n\nWhich one should I buy? Budget is tight",
		Comments: []types.Comment{
			{ID: "c1", Username: "bob", Content: "I need one too, asap", URL: deskURL + "c1/"},
			{ID: "c2", Username: "carol", Content: hotComment, URL: deskURL + "c2/"},
		},
	})
	h.fake.AddPost(weatherURL, platformtest.Post{
		Title:   "Nice weather today",
		Content: "Nice weather today\n\nSunny",
	})
	h.session = platform.NewSession(h.fake, 0)

	defaults := config.Default().Promotion
	h.orch = promote.New(promote.Deps{
		Session:   h.session,
		Generator: gen,
		Synth:     h.synth,
		Leads:     h.agg,
		Runs:      h.runs,
		Defaults:  defaults,
	})
	return h
}

func checkAccounting(t *testing.T, r *types.PromotionReport) {
	t.Helper()
	if r.Attempted != r.Succeeded+r.Failed+r.Skipped || r.Attempted != len(r.Outcomes) {
		t.Fatalf("report accounting broken: %+v", r)
	}
}

func ptr[T any](v T) *T { return &v }

func TestRunEngagesLeadsBestFirst(t *testing.T) {
	h := newHarness(t, okGen)
	run, err := h.orch.Start(context.Background(), promote.Request{ProductDescription: "Acme standing desks"})
	if err != nil {
		t.Fatal(err)
	}

	var states []promote.State
	for ev := range run.Events() {
		states = append(states, ev.State)
	}
	report, err := run.Wait()
	if err != nil {
		t.Fatal(err)
	}

	want := []promote.State{promote.StateInit, promote.StateKeywordsResolved, promote.StateSearching,
		promote.StateScoring, promote.StateEngaging, promote.StateDone}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}

	checkAccounting(t, report)
	if report.Succeeded != 2 || report.PostsScanned != 2 || report.KeywordsDegraded {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Outcomes[0].URL != deskURL+"c2/" || report.Outcomes[1].URL != deskURL {
		t.Fatalf("leads should be engaged best first: %+v", report.Outcomes)
	}

	posted := h.fake.Posted
	if posted[0].URL != deskURL || posted[0].Target != hotComment {
		t.Errorf("comment lead should be answered with a reply, got %+v", posted[0])
	}
	if posted[1].URL != deskURL || posted[1].Target != "" {
		t.Errorf("post lead should get a top-level comment, got %+v", posted[1])
	}

	if h.agg.Count() != 2 {
		t.Errorf("retained leads should be merged into the aggregator, have %d", h.agg.Count())
	}
	if len(h.runs.saved) != 1 || h.runs.saved[0].FinalState != string(promote.StateDone) {
		t.Errorf("run should be recorded as DONE")
	}
	if h.fake.Queries[0].Text() != "standing desk" || h.fake.Queries[0].Limit != 5 {
		t.Errorf("unexpected query %+v", h.fake.Queries[0])
	}
	if h.session.Busy() {
		t.Error("session should be released after the run")
	}
}

func TestRunNoLeadsAboveThreshold(t *testing.T) {
	h := newHarness(t, okGen)
	report, err := h.orch.Run(context.Background(), promote.Request{
		ProductDescription: "Acme standing desks",
		MaxPosts:           2,
		MinMatchScore:      ptr(90.0),
	})
	if err != nil {
		t.Fatalf("an empty result is not a failure: %v", err)
	}
	checkAccounting(t, report)
	if report.Succeeded != 0 || len(report.Leads) != 0 || report.FinalState != string(promote.StateDone) {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestKeywordFailureFallsBackToDescription(t *testing.T) {
	gen := genFunc(func(ctx context.Context, prompt string) (string, error) {
		if isKeywordPrompt(prompt) {
			return "", types.ErrGeneration
		}
		return "reply", nil
	})
	h := newHarness(t, gen)
	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme standing desks"})
	if err != nil {
		t.Fatal(err)
	}
	if !report.KeywordsDegraded || report.FinalState != string(promote.StateDone) {
		t.Fatalf("expected degraded DONE run, got %+v", report)
	}
	if got := h.fake.Queries[0].Text(); got != "Acme standing desks" {
		t.Fatalf("query = %q, want the raw description", got)
	}
}

func TestExplicitKeywordsUsedVerbatim(t *testing.T) {
	calls := 0
	gen := genFunc(func(ctx context.Context, prompt string) (string, error) {
		if isKeywordPrompt(prompt) {
			calls++
		}
		return "reply", nil
	})
	h := newHarness(t, gen)
	_, err := h.orch.Run(context.Background(), promote.Request{
		ProductDescription: "Acme standing desks",
		Keywords:           []string{"sit stand", " desk "},
		AnalyzeOnly:        true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Error("generator should not be asked for keywords when the caller gives them")
	}
	if got := h.fake.Queries[0].Text(); got != "sit stand desk" {
		t.Fatalf("query = %q", got)
	}
}

func TestEngagementCap(t *testing.T) {
	h := newHarness(t, okGen)
	report, err := h.orch.Run(context.Background(), promote.Request{
		ProductDescription: "Acme",
		Keywords:           []string{"desk"},
		MaxEngagements:     ptr(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, report)
	if report.Succeeded != 1 || report.Skipped != 1 || report.Outcomes[1].Reason != "engagement cap reached" {
		t.Fatalf("unexpected outcomes %+v", report.Outcomes)
	}
}

func TestAlreadyEngagedIsSkipped(t *testing.T) {
	h := newHarness(t, okGen)
	h.runs.engaged[deskURL] = true
	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}})
	if err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, report)
	if report.Succeeded != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected outcomes %+v", report.Outcomes)
	}
	if h.fake.PostedCount() != 1 {
		t.Fatalf("expected one post, got %d", h.fake.PostedCount())
	}
}

func TestDryRunPostsNothing(t *testing.T) {
	h := newHarness(t, okGen)
	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, report)
	if report.Skipped != 2 || h.fake.PostedCount() != 0 {
		t.Fatalf("dry run should skip every lead, got %+v", report.Outcomes)
	}
	d, ok := h.synth.Draft(report.Outcomes[0].LeadID)
	if !ok || d.Status != types.DraftReady {
		t.Fatal("dry run should leave ready drafts for review")
	}
}

func TestDraftFailureIsFailedOutcome(t *testing.T) {
	gen := genFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", types.ErrGeneration
	})
	h := newHarness(t, gen)
	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}})
	if err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, report)
	if report.Failed != 2 || report.FinalState != string(promote.StateDone) {
		t.Fatalf("draft failures should be per-lead, got %+v", report)
	}
}

func TestSendFailureDoesNotAbortRun(t *testing.T) {
	h := newHarness(t, okGen)
	h.fake.PostErr[deskURL] = types.ErrNetwork
	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}})
	if err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, report)
	if report.Failed != 2 || report.Succeeded != 0 {
		t.Fatalf("unexpected outcomes %+v", report.Outcomes)
	}
	if h.fake.CallCount("ReplyToComment")+h.fake.CallCount("PostComment") != 2 {
		t.Fatal("each lead should be attempted exactly once")
	}
}

func TestSearchAuthFailureFailsRun(t *testing.T) {
	h := newHarness(t, okGen)
	h.fake.SearchErr = types.ErrNotAuthenticated
	run, err := h.orch.Start(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}})
	if err != nil {
		t.Fatal(err)
	}
	var last promote.Event
	for ev := range run.Events() {
		last = ev
	}
	report, err := run.Wait()
	if !errors.Is(err, types.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if last.State != promote.StateFailed || report.FinalState != string(promote.StateFailed) || report.FailureReason == "" {
		t.Fatalf("unexpected end state %v / %+v", last, report)
	}
	checkAccounting(t, report)
}

func TestPostFetchFailureIsRecorded(t *testing.T) {
	h := newHarness(t, okGen)
	p := h.fake.Posts[weatherURL]
	p.ContentErr = types.ErrNetwork
	h.fake.Posts[weatherURL] = p

	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}, AnalyzeOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.PostErrors) != 1 || report.PostErrors[0].URL != weatherURL || report.PostsScanned != 1 {
		t.Fatalf("unexpected post errors %+v", report)
	}
	if len(report.Leads) != 2 {
		t.Fatalf("the healthy post should still be scored, got %d leads", len(report.Leads))
	}
}

func TestSecondRunIsRejectedWhileBusy(t *testing.T) {
	h := newHarness(t, okGen)
	lease, err := h.session.TryAcquire()
	if err != nil {
		t.Fatal(err)
	}
	defer lease.Release()

	if _, err := h.orch.Start(context.Background(), promote.Request{ProductDescription: "Acme"}); !errors.Is(err, types.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
}

func TestCancellationEndsDone(t *testing.T) {
	h := newHarness(t, okGen)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.fake.Hook = func(method string) {
		if method == "GetContent" {
			cancel()
		}
	}

	report, err := h.orch.Run(ctx, promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}})
	if err != nil {
		t.Fatalf("cancellation must not fail the run: %v", err)
	}
	checkAccounting(t, report)
	if !report.Cancelled || report.FinalState != string(promote.StateDone) {
		t.Fatalf("expected cancelled DONE report, got %+v", report)
	}
	if report.PostsScanned != 1 || h.fake.PostedCount() != 0 {
		t.Fatalf("in-flight fetch should finish and nothing more run: %+v", report)
	}
	if h.agg.Count() != len(report.Leads) {
		t.Fatal("partial leads should still be merged")
	}
}

func TestCancellationDuringEngagingStopsAfterInFlightPost(t *testing.T) {
	h := newHarness(t, okGen)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.fake.Hook = func(method string) {
		if method == "PostComment" || method == "ReplyToComment" {
			cancel()
		}
	}

	report, err := h.orch.Run(ctx, promote.Request{
		ProductDescription: "Acme",
		Keywords:           []string{"desk"},
		MaxEngagements:     ptr(5),
	})
	if err != nil {
		t.Fatalf("cancellation must not fail the run: %v", err)
	}
	checkAccounting(t, report)
	if !report.Cancelled || report.FinalState != string(promote.StateDone) {
		t.Fatalf("expected cancelled DONE report, got %+v", report)
	}
	if h.fake.PostedCount() != 1 || report.Succeeded != 1 {
		t.Fatalf("only the in-flight post should land, posted=%d outcomes=%+v", h.fake.PostedCount(), report.Outcomes)
	}
	if len(report.Leads) < 2 {
		t.Fatalf("expected more than one engageable lead, got %d", len(report.Leads))
	}
}

func TestManuallyRepliedLeadIsNotPostedAgain(t *testing.T) {
	h := newHarness(t, okGen)
	comment := promote.CommentItem("reddit", deskURL, 1, h.fake.Posts[deskURL].Comments[1])
	added := h.agg.Add([]types.ContentItem{comment}, leads.AddOptions{SourceQuery: "desk"})
	if len(added) != 1 {
		t.Fatalf("expected hot comment stored, got %d", len(added))
	}
	original := added[0]

	lease, err := h.session.TryAcquire()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.synth.Generate(context.Background(), original, synth.Options{ProductDescription: "Acme"}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.synth.Send(context.Background(), lease, original, ""); err != nil {
		t.Fatal(err)
	}
	lease.Release()

	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}})
	if err != nil {
		t.Fatal(err)
	}
	checkAccounting(t, report)

	if n := h.fake.CallCount("ReplyToComment"); n != 1 {
		t.Fatalf("comment replied to %d times, want 1", n)
	}
	if h.fake.PostedCount() != 2 {
		t.Fatalf("expected the manual reply plus the post reply, got %d", h.fake.PostedCount())
	}
	if _, ok := h.agg.Get(original.ID); !ok {
		t.Fatal("original lead id should still resolve after the run")
	}
	var seen bool
	for _, o := range report.Outcomes {
		if o.LeadID == original.ID {
			seen = true
			if o.Outcome != types.OutcomeSkipped || o.Reason != "already replied" {
				t.Fatalf("sent lead outcome = %+v", o)
			}
		}
	}
	if !seen {
		t.Fatalf("report lost the stored lead id: %+v", report.Outcomes)
	}
}

func TestAnalyzeOnlyStopsAfterScoring(t *testing.T) {
	h := newHarness(t, okGen)
	report, err := h.orch.Run(context.Background(), promote.Request{ProductDescription: "Acme", Keywords: []string{"desk"}, AnalyzeOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.Attempted != 0 || len(report.Leads) != 2 || h.fake.PostedCount() != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Leads[0].Score.Value < report.Leads[1].Score.Value {
		t.Fatal("leads should be sorted by score")
	}
}

func TestCommentsPerPostCap(t *testing.T) {
	h := newHarness(t, okGen)
	report, err := h.orch.Run(context.Background(), promote.Request{
		ProductDescription: "Acme",
		Keywords:           []string{"desk"},
		CommentsPerPost:    1,
		MinMatchScore:      ptr(0.0),
		AnalyzeOnly:        true,
	})
	if err != nil {
		t.Fatal(err)
	}
	// two posts plus only the first comment of the desk post
	if len(report.Leads) != 3 {
		t.Fatalf("expected 3 leads, got %d", len(report.Leads))
	}
	for _, l := range report.Leads {
		if l.Item.URL == deskURL+"c2/" {
			t.Fatal("comment beyond the cap was scored")
		}
	}
}

func TestValidation(t *testing.T) {
	h := newHarness(t, okGen)
	bad := []promote.Request{
		{ProductDescription: ""},
		{ProductDescription: "x", MaxPosts: 21},
		{ProductDescription: "x", MaxPosts: -1},
		{ProductDescription: "x", MinMatchScore: ptr(100.5)},
		{ProductDescription: "x", MinMatchScore: ptr(-1.0)},
		{ProductDescription: "x", MinMatchScore: ptr(math.NaN())},
		{ProductDescription: "x", CommentType: "shouty"},
	}
	for _, req := range bad {
		if _, err := h.orch.Start(context.Background(), req); !errors.Is(err, types.ErrValidation) {
			t.Errorf("%+v: expected ErrValidation, got %v", req, err)
		}
	}
	if h.session.Busy() {
		t.Fatal("rejected requests must not hold the session")
	}
}

func TestPostItemSplitsTitle(t *testing.T) {
	item := promote.PostItem("reddit", types.SearchResult{URL: deskURL, Title: "Title"}, "Title\n\nBody text")
	if item.Title != "Title" || item.BodyText != "Body text" || item.SourceType != types.SourcePost {
		t.Fatalf("unexpected item %+v", item)
	}
}
