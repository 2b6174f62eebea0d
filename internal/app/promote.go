package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkg/browser"

	"github.com/ibeckermayer/leadscout/internal/promote"
	"github.com/ibeckermayer/leadscout/internal/store"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// Bounds for Runs
const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 200
)

// PromoteResult carries a finished run's report
type PromoteResult struct {
	Result
	Report *types.PromotionReport `json:"report,omitempty"`
}

// RunsResult lists recent runs, newest first
type RunsResult struct {
	Result
	Runs []types.PromotionReport `json:"runs"`
}

// AutoPromote runs the full promotion workflow and waits for it. Only one
// run may be active; a second is rejected rather than queued.
func (a *App) AutoPromote(ctx context.Context, req promote.Request) PromoteResult {
	r, err := a.orch.Run(ctx, req)
	if r == nil {
		logFailure("auto promote", err)
		return PromoteResult{Result: failure(err)}
	}
	if err != nil {
		logFailure("auto promote", err)
		return PromoteResult{Result: failure(err), Report: r}
	}

	msg := fmt.Sprintf("%s: %d leads, %d posted, %d failed, %d skipped",
		r.FinalState, len(r.Leads), r.Succeeded, r.Failed, r.Skipped)
	if r.Cancelled {
		msg += " (cancelled)"
	}
	return PromoteResult{Result: ok(msg), Report: r}
}

// AnalyzeProduct searches and scores like AutoPromote but engages nobody
func (a *App) AnalyzeProduct(ctx context.Context, req promote.Request) PromoteResult {
	req.AnalyzeOnly = true
	return a.AutoPromote(ctx, req)
}

// Runs lists recorded runs, newest first
func (a *App) Runs(ctx context.Context, limit int) RunsResult {
	if limit == 0 {
		limit = DefaultRunsLimit
	}
	if limit < 1 || limit > MaxRunsLimit {
		return RunsResult{Result: failure(fmt.Errorf("limit %d not in [1,%d]: %w", limit, MaxRunsLimit, types.ErrValidation))}
	}
	if a.runs == nil {
		return RunsResult{Result: ok("Run history is disabled"), Runs: []types.PromotionReport{}}
	}
	runs, err := a.runs.RecentRuns(ctx, limit)
	if err != nil {
		logFailure("runs", err)
		return RunsResult{Result: failure(err)}
	}
	return RunsResult{Result: ok(fmt.Sprintf("%d runs", len(runs))), Runs: runs}
}

// ScheduledPromotion is the scheduler job: it runs the configured
// promotion, saves the rendered report and emails it when configured.
func (a *App) ScheduledPromotion(ctx context.Context) error {
	sc := a.cfg.Schedule
	res := a.AutoPromote(ctx, promote.Request{
		ProductDescription: sc.ProductDescription,
		Keywords:           sc.Keywords,
	})
	if res.Report == nil {
		return errors.New(res.Message)
	}

	if _, err := a.saveReport(res.Report); err != nil {
		slog.Warn("[app] failed to save report", "run", res.Report.RunID, "error", err)
	}
	if a.notifier != nil && a.reports != nil {
		rendered, err := a.reports.Build(res.Report)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		if err := a.notifier.SendReport(rendered); err != nil {
			slog.Error("[app] failed to email report", "run", res.Report.RunID, "error", err)
		}
	}

	if !res.Success {
		return errors.New(res.Message)
	}
	return nil
}

// OpenLastReport renders the most recent run and opens it in the browser.
// Without run history it falls back to the newest report snapshot the
// orchestrator left in the artifact dir.
func (a *App) OpenLastReport(ctx context.Context) Result {
	last, err := a.lastReport(ctx)
	if err != nil {
		logFailure("open report", err)
		return failure(err)
	}

	path, err := a.saveReport(last)
	if err != nil {
		logFailure("open report", err)
		return failure(err)
	}
	slog.Info("[app] opening report", "path", path)
	if err := a.openFile(path); err != nil {
		return failure(err)
	}
	return ok(path)
}

func (a *App) lastReport(ctx context.Context) (*types.PromotionReport, error) {
	if a.runs != nil {
		runs, err := a.runs.RecentRuns(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(runs) > 0 {
			return &runs[0], nil
		}
	}
	if a.artifactDir != "" {
		r, path, err := store.LoadLatestStepOutput[types.PromotionReport](a.artifactDir, store.StepReports)
		if err == nil {
			slog.Debug("[app] using report snapshot", "path", path)
			return &r, nil
		}
	}
	return nil, fmt.Errorf("no runs recorded yet: %w", errNotFound)
}

// saveReport writes r as HTML under the artifact dir
func (a *App) saveReport(r *types.PromotionReport) (string, error) {
	if a.reports == nil || a.artifactDir == "" {
		return "", errors.New("report rendering is not configured")
	}
	rendered, err := a.reports.Build(r)
	if err != nil {
		return "", err
	}
	return store.SaveTextOutput(a.artifactDir, store.StepRendered, rendered.HTMLBody, ".html")
}

func openInBrowser(path string) error {
	return browser.OpenFile(path)
}
