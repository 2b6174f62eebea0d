// Package promote runs the auto-promotion workflow: resolve keywords, search,
// score what comes back and engage the best leads.
package promote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/generator"
	"github.com/ibeckermayer/leadscout/internal/intent"
	"github.com/ibeckermayer/leadscout/internal/leads"
	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/store"
	"github.com/ibeckermayer/leadscout/internal/synth"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// RunLog remembers finished runs. *store.Store implements it.
type RunLog interface {
	SaveRun(ctx context.Context, r *types.PromotionReport) error
	HasEngaged(ctx context.Context, platform, url string) (bool, error)
}

// Deps are the orchestrator's collaborators. Generator, Runs and
// ArtifactDir are optional.
type Deps struct {
	Session   *platform.Session
	Generator generator.TextGenerator
	Synth     *synth.Synthesizer
	Leads     *leads.Aggregator
	Runs      RunLog
	// ArtifactDir receives per-stage JSON snapshots when set.
	ArtifactDir string
	Defaults    config.PromotionConfig
}

// Orchestrator starts runs. It holds no per-run state, so one value serves
// any number of sequential runs.
type Orchestrator struct {
	deps Deps
	now  func() time.Time
}

// New creates an orchestrator
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, now: time.Now}
}

// Run is a started run
type Run struct {
	ID     string
	events chan Event
	done   chan struct{}
	report *types.PromotionReport
	err    error
}

// Events yields each stage transition once and is closed when the run ends
func (r *Run) Events() <-chan Event {
	return r.events
}

// Wait blocks until the run ends. The report is always non-nil; err is set
// when the run ended FAILED.
func (r *Run) Wait() (*types.PromotionReport, error) {
	<-r.done
	return r.report, r.err
}

// Start validates req, takes the platform session and runs in the
// background. A second run while one is active fails with ErrSessionBusy.
// Cancelling ctx stops the run between posts or leads; it still ends DONE.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Run, error) {
	s, err := req.resolve(o.deps.Defaults)
	if err != nil {
		return nil, err
	}
	lease, err := o.deps.Session.TryAcquire()
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:     uuid.NewString(),
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	r := &runner{
		o:       o,
		run:     run,
		s:       s,
		client:  lease,
		ctx:     ctx,
		callCtx: context.WithoutCancel(ctx),
		report: &types.PromotionReport{
			RunID:       run.ID,
			Platform:    lease.Name(),
			ProductDesc: s.description,
			Outcomes:    []types.LeadOutcome{},
			StartedAt:   o.now(),
		},
	}

	go func() {
		defer close(run.done)
		defer close(run.events)
		defer lease.Release()
		run.err = r.execute()
		run.report = r.report
	}()
	return run, nil
}

// Run starts a run and waits for it
func (o *Orchestrator) Run(ctx context.Context, req Request) (*types.PromotionReport, error) {
	run, err := o.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return run.Wait()
}

// runner carries one run's state through the stages
type runner struct {
	o      *Orchestrator
	run    *Run
	s      settings
	client platform.Client
	// ctx is checked for cancellation between steps; callCtx is passed to
	// collaborators so an in-flight call finishes even after cancellation.
	ctx     context.Context
	callCtx context.Context
	report  *types.PromotionReport
}

func (r *runner) emit(state State, msg string) {
	r.report.FinalState = string(state)
	r.run.events <- Event{RunID: r.run.ID, State: state, Message: msg, At: r.o.now()}
}

func (r *runner) cancelled() bool {
	return r.ctx.Err() != nil
}

func (r *runner) execute() error {
	r.emit(StateInit, "")
	slog.Info("[orchestrator] run started", "run", r.run.ID, "platform", r.report.Platform)

	query := r.resolveKeywords()
	r.emit(StateKeywordsResolved, query.Text())
	if r.cancelled() {
		return r.finish()
	}

	r.emit(StateSearching, "")
	results, err := r.client.Search(r.callCtx, query)
	if err != nil {
		return r.fail(fmt.Errorf("search %q: %w", query.Text(), err))
	}
	if len(results) > r.s.maxPosts {
		results = results[:r.s.maxPosts]
	}
	r.saveArtifact(store.StepSearch, results)
	if r.cancelled() {
		return r.finish()
	}

	r.emit(StateScoring, fmt.Sprintf("%d posts", len(results)))
	if err := r.score(results, query.Text()); err != nil {
		return r.fail(err)
	}
	r.saveArtifact(store.StepLeads, r.report.Leads)
	if r.cancelled() || r.s.analyzeOnly {
		return r.finish()
	}

	r.emit(StateEngaging, fmt.Sprintf("%d leads", len(r.report.Leads)))
	if err := r.engage(); err != nil {
		return r.fail(err)
	}
	return r.finish()
}

// resolveKeywords uses the caller's keywords verbatim, else asks the
// generator, else falls back to the raw description.
func (r *runner) resolveKeywords() types.SearchQuery {
	q := types.SearchQuery{Limit: r.s.maxPosts}
	switch {
	case len(r.s.keywords) > 0:
		q.Keywords = r.s.keywords
	case r.o.deps.Generator != nil:
		kws, err := generator.Keywords(r.callCtx, r.o.deps.Generator, r.s.description)
		if err == nil {
			q.Keywords = kws
			break
		}
		slog.Warn("[orchestrator] keyword generation failed, searching with the description", "run", r.run.ID, "error", err)
		fallthrough
	default:
		q.Keywords = []string{r.s.description}
		r.report.KeywordsDegraded = true
	}
	r.report.Keywords = q.Keywords
	r.saveArtifact(store.StepKeywords, q.Keywords)
	return q
}

// score fetches every post and keeps items scoring at least minMatchScore
func (r *runner) score(results []types.SearchResult, sourceQuery string) error {
	var found []types.Lead
	for _, res := range results {
		if r.cancelled() {
			break
		}
		items, err := r.fetchPost(res)
		if err != nil {
			if errors.Is(err, types.ErrNotAuthenticated) {
				return err
			}
			slog.Warn("[orchestrator] skipping post", "run", r.run.ID, "url", res.URL, "error", err)
			r.report.PostErrors = append(r.report.PostErrors, types.PostError{URL: res.URL, Error: err.Error()})
			continue
		}
		r.report.PostsScanned++

		for _, item := range items {
			score := intent.Score(item.ScoringText())
			if float64(score.Value) < r.s.minMatchScore {
				continue
			}
			lead := leads.NewLead(item, score, sourceQuery, r.o.now())
			if prev, ok := r.o.deps.Leads.Lookup(item.Platform, item.URL); ok {
				lead.ID = prev.ID
			}
			found = append(found, lead)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Score.Value > found[j].Score.Value
	})
	r.report.Leads = found
	slog.Info("[orchestrator] scoring complete", "run", r.run.ID, "posts", r.report.PostsScanned, "leads", len(found))
	return nil
}

// fetchPost returns the post followed by up to commentsPerPost comments
func (r *runner) fetchPost(res types.SearchResult) ([]types.ContentItem, error) {
	content, err := r.client.GetContent(r.callCtx, res.URL)
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	comments, err := r.client.GetComments(r.callCtx, res.URL)
	if err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}
	if len(comments) > r.s.commentsPerPost {
		comments = comments[:r.s.commentsPerPost]
	}

	platformName := r.report.Platform
	items := make([]types.ContentItem, 0, len(comments)+1)
	items = append(items, PostItem(platformName, res, content))
	for i, c := range comments {
		items = append(items, CommentItem(platformName, res.URL, i, c))
	}
	return items, nil
}

// engage drafts and posts a reply for each lead, best first
func (r *runner) engage() error {
	engagements := 0
	for _, lead := range r.report.Leads {
		if r.cancelled() {
			break
		}
		outcome := types.LeadOutcome{LeadID: lead.ID, URL: lead.Item.URL, Score: lead.Score.Value}

		if engagements >= r.s.maxEngagements {
			outcome.Outcome, outcome.Reason = types.OutcomeSkipped, "engagement cap reached"
			r.report.Record(outcome)
			continue
		}
		if r.alreadyEngaged(lead) {
			outcome.Outcome, outcome.Reason = types.OutcomeSkipped, "already engaged in an earlier run"
			r.report.Record(outcome)
			continue
		}
		if d, ok := r.o.deps.Synth.Draft(lead.ID); ok && d.Status == types.DraftSent {
			outcome.Outcome, outcome.Reason = types.OutcomeSkipped, "already replied"
			r.report.Record(outcome)
			continue
		}

		draft, err := r.o.deps.Synth.Generate(r.callCtx, lead, synth.Options{
			CommentType:        r.s.commentType,
			ProductDescription: r.s.description,
		})
		switch {
		case err != nil:
			outcome.Outcome, outcome.Reason = types.OutcomeSkipped, err.Error()
			r.report.Record(outcome)
			continue
		case draft.Status != types.DraftReady:
			outcome.Outcome, outcome.Reason = types.OutcomeFailed, draft.Message
			r.report.Record(outcome)
			continue
		}

		if r.s.dryRun {
			engagements++
			outcome.Outcome, outcome.Reason = types.OutcomeSkipped, "dry run"
			r.report.Record(outcome)
			continue
		}

		if _, err := r.o.deps.Synth.Send(r.callCtx, r.client, lead, ""); err != nil {
			outcome.Outcome, outcome.Reason = types.OutcomeFailed, err.Error()
			r.report.Record(outcome)
			if errors.Is(err, types.ErrNotAuthenticated) {
				return fmt.Errorf("posting to %s: %w", lead.Item.URL, err)
			}
			continue
		}
		engagements++
		outcome.Outcome = types.OutcomePosted
		r.report.Record(outcome)
	}
	return nil
}

func (r *runner) alreadyEngaged(lead types.Lead) bool {
	if r.o.deps.Runs == nil {
		return false
	}
	engaged, err := r.o.deps.Runs.HasEngaged(r.callCtx, lead.Item.Platform, lead.Item.URL)
	if err != nil {
		slog.Warn("[orchestrator] run history lookup failed", "url", lead.Item.URL, "error", err)
		return false
	}
	return engaged
}

func (r *runner) finish() error {
	r.report.Cancelled = r.cancelled()
	r.complete()
	msg := fmt.Sprintf("%d attempted, %d posted, %d failed, %d skipped",
		r.report.Attempted, r.report.Succeeded, r.report.Failed, r.report.Skipped)
	if r.report.Cancelled {
		msg += " (cancelled)"
	}
	slog.Info("[orchestrator] run done", "run", r.run.ID, "summary", msg)
	r.emit(StateDone, msg)
	r.persist()
	return nil
}

func (r *runner) fail(err error) error {
	r.report.FailureReason = err.Error()
	r.complete()
	slog.Error("[orchestrator] run failed", "run", r.run.ID, "error", err)
	r.emit(StateFailed, err.Error())
	r.persist()
	return err
}

func (r *runner) complete() {
	r.report.FinishedAt = r.o.now()
	r.o.deps.Leads.Merge(r.report.Leads)
}

func (r *runner) persist() {
	if r.o.deps.Runs != nil {
		if err := r.o.deps.Runs.SaveRun(r.callCtx, r.report); err != nil {
			slog.Warn("[orchestrator] failed to record run", "run", r.run.ID, "error", err)
		}
	}
	r.saveArtifact(store.StepReports, r.report)
}

func (r *runner) saveArtifact(step store.StepName, data any) {
	if r.o.deps.ArtifactDir == "" {
		return
	}
	if path, err := store.SaveStepOutput(r.o.deps.ArtifactDir, step, data); err != nil {
		slog.Warn("[orchestrator] failed to save step output", "step", step, "error", err)
	} else {
		slog.Debug("[orchestrator] saved step output", "step", step, "path", path)
	}
}

// PostItem builds the content item for a fetched post. Adapters return the
// title and body joined, so the title is split back off.
func PostItem(platformName string, res types.SearchResult, content string) types.ContentItem {
	body := strings.TrimSpace(content)
	if res.Title != "" {
		body = strings.TrimSpace(strings.TrimPrefix(body, strings.TrimSpace(res.Title)))
	}
	return types.ContentItem{
		ID:         res.URL,
		Platform:   platformName,
		URL:        res.URL,
		Title:      res.Title,
		BodyText:   body,
		SourceType: types.SourcePost,
	}
}

// CommentItem builds the content item for the i-th comment under postURL
func CommentItem(platformName, postURL string, i int, c types.Comment) types.ContentItem {
	id := c.ID
	if id == "" {
		id = fmt.Sprintf("%d", i)
	}
	url := c.URL
	if url == "" {
		url = postURL + "#" + id
	}
	return types.ContentItem{
		ID:         id,
		Author:     c.Username,
		Platform:   platformName,
		URL:        url,
		ParentURL:  postURL,
		CreatedAt:  c.Time,
		BodyText:   c.Content,
		SourceType: types.SourceComment,
	}
}
