// Package app is the boundary the transports call into. Every operation
// returns a result carrying Success and Message and never a raw error.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/generator"
	"github.com/ibeckermayer/leadscout/internal/leads"
	"github.com/ibeckermayer/leadscout/internal/notifier"
	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/promote"
	"github.com/ibeckermayer/leadscout/internal/report"
	"github.com/ibeckermayer/leadscout/internal/synth"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// Result codes let transports map failures without parsing messages
const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeNotAuthenticated = "not_authenticated"
	CodeRateLimited      = "rate_limited"
	CodeNetwork          = "network"
	CodeGeneration       = "generation"
	CodeBusy             = "busy"
	CodeDraftState       = "draft_state"
	CodeInternal         = "internal"
)

// Result is the outcome every boundary operation reports
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func ok(msg string) Result {
	return Result{Success: true, Message: msg}
}

func failure(err error) Result {
	return Result{Message: err.Error(), Code: codeOf(err)}
}

func codeOf(err error) string {
	switch {
	case errors.Is(err, types.ErrValidation):
		return CodeValidation
	case errors.Is(err, errNotFound):
		return CodeNotFound
	case errors.Is(err, types.ErrNotAuthenticated):
		return CodeNotAuthenticated
	case errors.Is(err, types.ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, types.ErrNetwork):
		return CodeNetwork
	case errors.Is(err, types.ErrGeneration):
		return CodeGeneration
	case errors.Is(err, types.ErrSessionBusy):
		return CodeBusy
	case errors.Is(err, types.ErrDraftState):
		return CodeDraftState
	}
	return CodeInternal
}

var errNotFound = errors.New("not found")

// RunHistory reads finished runs. *store.Store implements it.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]types.PromotionReport, error)
}

// PostLog records comments posted outside a promotion run so later runs
// treat those targets as engaged. *store.Store implements it.
type PostLog interface {
	RecordPost(ctx context.Context, platform, url, leadID string) error
}

// Deps wires the boundary to the pipeline. Generator, Runs, Posts and
// Notifier are optional.
type Deps struct {
	Config       *config.Config
	Session      *platform.Session
	Generator    generator.TextGenerator
	Leads        *leads.Aggregator
	Synth        *synth.Synthesizer
	Orchestrator *promote.Orchestrator
	Runs         RunHistory
	Posts        PostLog
	Notifier     *notifier.Notifier
	Reports      *report.Builder
	// ArtifactDir holds rendered reports and the orchestrator's report
	// snapshots. It defaults to the cache dir.
	ArtifactDir string
}

// App holds the application state
type App struct {
	cfg      *config.Config
	session  *platform.Session
	gen      generator.TextGenerator
	leads    *leads.Aggregator
	synth    *synth.Synthesizer
	orch     *promote.Orchestrator
	runs     RunHistory
	posts    PostLog
	notifier *notifier.Notifier
	reports  *report.Builder

	artifactDir string
	openFile    func(path string) error
	now         func() time.Time
}

// New creates a new App instance
func New(deps Deps) *App {
	a := &App{
		cfg:         deps.Config,
		session:     deps.Session,
		gen:         deps.Generator,
		leads:       deps.Leads,
		synth:       deps.Synth,
		orch:        deps.Orchestrator,
		runs:        deps.Runs,
		posts:       deps.Posts,
		notifier:    deps.Notifier,
		reports:     deps.Reports,
		artifactDir: deps.ArtifactDir,
		openFile:    openInBrowser,
		now:         time.Now,
	}
	if a.artifactDir == "" {
		if dir, err := config.CacheDir(); err == nil {
			a.artifactDir = dir
		}
	}
	return a
}

// PlatformName names the platform the session is bound to
func (a *App) PlatformName() string {
	return a.session.Name()
}

// StatusResult describes the platform session
type StatusResult struct {
	Result
	Status platform.Status `json:"status"`
}

// BrowserStatus reports whether the session is held and what the client
// knows about its browser and login. It never waits for the session.
func (a *App) BrowserStatus() StatusResult {
	st := a.session.Status()
	msg := "Idle"
	if st.Busy {
		msg = "Busy"
	}
	return StatusResult{Result: ok(msg), Status: st}
}

// withClient runs fn holding the platform session. Direct calls queue
// behind a running promotion instead of failing.
func (a *App) withClient(ctx context.Context, fn func(platform.Client) error) error {
	lease, err := a.session.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	return fn(lease)
}

// recordPost notes a manual post so promotion runs skip its target
func (a *App) recordPost(ctx context.Context, platformName, url, leadID string) {
	if a.posts == nil {
		return
	}
	if err := a.posts.RecordPost(ctx, platformName, url, leadID); err != nil {
		slog.Warn("[app] failed to record post", "url", url, "error", err)
	}
}

func requireText(name, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s is required: %w", name, types.ErrValidation)
	}
	return v, nil
}

func logFailure(op string, err error) {
	if errors.Is(err, types.ErrValidation) {
		slog.Debug("[app] rejected request", "op", op, "error", err)
		return
	}
	slog.Error("[app] operation failed", "op", op, "error", err)
}
