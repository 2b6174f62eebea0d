// Package synth drafts, edits and sends replies to leads.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ibeckermayer/leadscout/internal/generator"
	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/textutil"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// replyTargetLen is how much of a comment's text identifies it when replying
const replyTargetLen = 80

// Options shape a generated reply
type Options struct {
	CommentType        types.CommentType
	ProductDescription string
}

func (o Options) commentType() types.CommentType {
	if o.CommentType == "" {
		return types.CommentLeadGen
	}
	return o.CommentType
}

// SendResult is a successful post
type SendResult struct {
	Message string `json:"message"`
	Text    string `json:"text"`
}

// Synthesizer keeps one live draft per lead. Safe for concurrent use; the
// generator and platform are called without holding the lock.
type Synthesizer struct {
	gen generator.TextGenerator

	mu      sync.Mutex
	drafts  map[string]types.CommentDraft
	sending map[string]bool
	now     func() time.Time
}

// New creates a synthesizer backed by gen
func New(gen generator.TextGenerator) *Synthesizer {
	return &Synthesizer{
		gen:     gen,
		drafts:  map[string]types.CommentDraft{},
		sending: map[string]bool{},
		now:     time.Now,
	}
}

// Draft returns the live draft for leadID
func (s *Synthesizer) Draft(leadID string) (types.CommentDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[leadID]
	return d, ok
}

// Generate returns the lead's READY draft if one exists, otherwise drafts a
// new reply. A generation failure yields an ERROR draft, not an error; the
// error return is reserved for requests the draft state refuses.
func (s *Synthesizer) Generate(ctx context.Context, lead types.Lead, opts Options) (types.CommentDraft, error) {
	s.mu.Lock()
	if d, ok := s.drafts[lead.ID]; ok && d.Status == types.DraftReady {
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()
	return s.generate(ctx, lead, opts)
}

// Regenerate discards the current draft and drafts a fresh one. It is
// refused once the draft has been sent.
func (s *Synthesizer) Regenerate(ctx context.Context, lead types.Lead, opts Options) (types.CommentDraft, error) {
	return s.generate(ctx, lead, opts)
}

func (s *Synthesizer) generate(ctx context.Context, lead types.Lead, opts Options) (types.CommentDraft, error) {
	s.mu.Lock()
	if err := s.checkReplaceableLocked(lead.ID); err != nil {
		s.mu.Unlock()
		return types.CommentDraft{}, err
	}
	s.drafts[lead.ID] = types.CommentDraft{LeadID: lead.ID, Status: types.DraftGenerating, UpdatedAt: s.now()}
	s.mu.Unlock()

	text, err := s.gen.Complete(ctx, BuildPrompt(lead, opts))
	if err == nil {
		if text = CleanReply(text); text == "" {
			err = fmt.Errorf("empty reply: %w", types.ErrGeneration)
		}
	}

	d := types.CommentDraft{LeadID: lead.ID, UpdatedAt: s.now()}
	if err != nil {
		slog.Warn("[synth] draft generation failed", "lead", lead.ID, "error", err)
		d.Status = types.DraftError
		d.Message = err.Error()
	} else {
		d.Status = types.DraftReady
		d.GeneratedText = text
	}

	s.mu.Lock()
	s.drafts[lead.ID] = d
	s.mu.Unlock()
	return d, nil
}

func (s *Synthesizer) checkReplaceableLocked(leadID string) error {
	d, ok := s.drafts[leadID]
	if !ok {
		return nil
	}
	switch {
	case d.Status == types.DraftSent:
		return fmt.Errorf("draft for %s was already sent: %w", leadID, types.ErrDraftState)
	case d.Status == types.DraftGenerating:
		return fmt.Errorf("draft for %s is still generating: %w", leadID, types.ErrDraftState)
	case s.sending[leadID]:
		return fmt.Errorf("draft for %s is being sent: %w", leadID, types.ErrDraftState)
	}
	return nil
}

// Edit replaces the text that will be sent for a READY draft
func (s *Synthesizer) Edit(leadID, text string) (types.CommentDraft, error) {
	if strings.TrimSpace(text) == "" {
		return types.CommentDraft{}, fmt.Errorf("edited text is empty: %w", types.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[leadID]
	if !ok || d.Status != types.DraftReady || s.sending[leadID] {
		return types.CommentDraft{}, fmt.Errorf("no ready draft for %s: %w", leadID, types.ErrDraftState)
	}
	d.EditedText = text
	d.UpdatedAt = s.now()
	s.drafts[leadID] = d
	return d, nil
}

// Send posts text for lead through client. An empty text sends the draft's
// final text. Success marks the draft SENT; failure leaves it READY with the
// reason in Message. Sends are never retried here.
func (s *Synthesizer) Send(ctx context.Context, client platform.Client, lead types.Lead, text string) (SendResult, error) {
	s.mu.Lock()
	d, ok := s.drafts[lead.ID]
	switch {
	case s.sending[lead.ID]:
		s.mu.Unlock()
		return SendResult{}, fmt.Errorf("draft for %s is being sent: %w", lead.ID, types.ErrDraftState)
	case ok && d.Status != types.DraftReady:
		s.mu.Unlock()
		return SendResult{}, fmt.Errorf("draft for %s is %s: %w", lead.ID, d.Status, types.ErrDraftState)
	}
	if strings.TrimSpace(text) == "" {
		text = d.FinalText()
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return SendResult{}, fmt.Errorf("nothing to send for %s: %w", lead.ID, types.ErrValidation)
	}
	if !ok {
		d = types.CommentDraft{LeadID: lead.ID, GeneratedText: text, Status: types.DraftReady}
	}
	s.sending[lead.ID] = true
	s.mu.Unlock()

	msg, err := post(ctx, client, lead.Item, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sending, lead.ID)
	d.UpdatedAt = s.now()
	if err != nil {
		d.Message = err.Error()
		s.drafts[lead.ID] = d
		return SendResult{}, err
	}
	d.Status = types.DraftSent
	d.Message = msg
	if text != d.GeneratedText {
		d.EditedText = text
	}
	s.drafts[lead.ID] = d
	slog.Info("[synth] reply sent", "lead", lead.ID, "url", lead.Item.URL)
	return SendResult{Message: msg, Text: text}, nil
}

// Forget drops every draft
func (s *Synthesizer) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = map[string]types.CommentDraft{}
}

// post replies under a comment when the lead is one, otherwise comments on the post
func post(ctx context.Context, client platform.Client, item types.ContentItem, text string) (string, error) {
	if item.SourceType == types.SourceComment && item.ParentURL != "" {
		return client.ReplyToComment(ctx, item.ParentURL, ReplyTarget(item.BodyText), text)
	}
	return client.PostComment(ctx, item.URL, text)
}

// ReplyTarget is the leading text used to find a comment on its page
func ReplyTarget(body string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	return strings.TrimSpace(textutil.Excerpt(line, replyTargetLen))
}

// CleanReply trims a generated reply and strips one pair of wrapping quotes
func CleanReply(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}
