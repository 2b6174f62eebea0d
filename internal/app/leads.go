package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ibeckermayer/leadscout/internal/synth"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// LeadsResult lists aggregated leads
type LeadsResult struct {
	Result
	Leads []types.Lead `json:"leads"`
	Count int          `json:"count"`
}

// DraftResult carries a lead's live draft
type DraftResult struct {
	Result
	Draft types.CommentDraft `json:"draft"`
}

// DraftOptions shape draft generation
type DraftOptions struct {
	CommentType        string `json:"comment_type,omitempty"`
	ProductDescription string `json:"product_description,omitempty"`
}

func (o DraftOptions) resolve() (synth.Options, error) {
	ct, valid := types.ParseCommentType(o.CommentType)
	if !valid {
		return synth.Options{}, fmt.Errorf("comment type %q: %w", o.CommentType, types.ErrValidation)
	}
	return synth.Options{CommentType: ct, ProductDescription: strings.TrimSpace(o.ProductDescription)}, nil
}

// Leads lists the session's leads, best first. filter is "all" (or empty)
// or "high_intent".
func (a *App) Leads(filter string) LeadsResult {
	f := types.LeadFilter(strings.ToLower(strings.TrimSpace(filter)))
	switch f {
	case "":
		f = types.FilterAll
	case types.FilterAll, types.FilterHighIntent:
	default:
		return LeadsResult{Result: failure(fmt.Errorf("filter %q: %w", filter, types.ErrValidation))}
	}
	list := a.leads.List(f)
	return LeadsResult{Result: ok(fmt.Sprintf("%d leads", len(list))), Leads: list, Count: len(list)}
}

// ResetLeads clears the lead collection and every draft
func (a *App) ResetLeads() Result {
	n := a.leads.Count()
	a.leads.Reset()
	a.synth.Forget()
	return ok(fmt.Sprintf("Cleared %d leads", n))
}

func (a *App) lead(id string) (types.Lead, error) {
	id, err := requireText("lead id", id)
	if err != nil {
		return types.Lead{}, err
	}
	l, found := a.leads.Get(id)
	if !found {
		return types.Lead{}, fmt.Errorf("lead %s: %w", id, errNotFound)
	}
	return l, nil
}

func draftResult(d types.CommentDraft, err error) DraftResult {
	if err != nil {
		logFailure("draft", err)
		return DraftResult{Result: failure(err), Draft: d}
	}
	if d.Status == types.DraftError {
		return DraftResult{Result: Result{Message: d.Message, Code: CodeGeneration}, Draft: d}
	}
	return DraftResult{Result: ok(string(d.Status)), Draft: d}
}

// GenerateDraft returns the lead's ready draft, generating one if needed
func (a *App) GenerateDraft(ctx context.Context, leadID string, opts DraftOptions) DraftResult {
	l, err := a.lead(leadID)
	if err != nil {
		return DraftResult{Result: failure(err)}
	}
	so, err := opts.resolve()
	if err != nil {
		return DraftResult{Result: failure(err)}
	}
	return draftResult(a.synth.Generate(ctx, l, so))
}

// RegenerateDraft replaces the lead's draft with a fresh one
func (a *App) RegenerateDraft(ctx context.Context, leadID string, opts DraftOptions) DraftResult {
	l, err := a.lead(leadID)
	if err != nil {
		return DraftResult{Result: failure(err)}
	}
	so, err := opts.resolve()
	if err != nil {
		return DraftResult{Result: failure(err)}
	}
	return draftResult(a.synth.Regenerate(ctx, l, so))
}

// EditDraft replaces the text that will be sent for a ready draft
func (a *App) EditDraft(leadID, text string) DraftResult {
	l, err := a.lead(leadID)
	if err != nil {
		return DraftResult{Result: failure(err)}
	}
	return draftResult(a.synth.Edit(l.ID, text))
}

// SendDraft posts the draft, or text when given, to the lead
func (a *App) SendDraft(ctx context.Context, leadID, text string) DraftResult {
	l, err := a.lead(leadID)
	if err != nil {
		return DraftResult{Result: failure(err)}
	}

	lease, err := a.session.Acquire(ctx)
	if err != nil {
		return DraftResult{Result: failure(err)}
	}
	res, err := a.synth.Send(ctx, lease, l, text)
	lease.Release()

	d, _ := a.synth.Draft(l.ID)
	if err != nil {
		logFailure("send draft", err)
		return DraftResult{Result: failure(err), Draft: d}
	}
	a.recordPost(ctx, l.Item.Platform, l.Item.URL, l.ID)
	return DraftResult{Result: ok(res.Message), Draft: d}
}
