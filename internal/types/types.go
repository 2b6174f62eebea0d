package types

import (
	"strings"
	"time"
)

// SourceType distinguishes posts from comments
type SourceType string

const (
	SourcePost    SourceType = "post"
	SourceComment SourceType = "comment"
)

// SearchQuery is one search against a platform
type SearchQuery struct {
	Keywords []string `json:"keywords"`
	Limit    int      `json:"limit"`
}

// Text returns the keywords as a single query string
func (q SearchQuery) Text() string {
	return strings.Join(q.Keywords, " ")
}

// SearchResult is a single hit returned by a platform search
type SearchResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Comment is a raw comment as returned by a platform
type Comment struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Content  string    `json:"content"`
	Time     time.Time `json:"time"`
	URL      string    `json:"url"`
}

// ContentItem is a fetched post or comment. It is never modified after fetch.
type ContentItem struct {
	ID         string     `json:"id"`
	Author     string     `json:"author"`
	Platform   string     `json:"platform"`
	URL        string     `json:"url"`
	ParentURL  string     `json:"parent_url,omitempty"` // post URL for comments
	Title      string     `json:"title,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	BodyText   string     `json:"body_text"`
	SourceType SourceType `json:"source_type"`
}

// ScoringText is the text fed to the intent scorer
func (c ContentItem) ScoringText() string {
	if c.Title == "" {
		return c.BodyText
	}
	if c.BodyText == "" {
		return c.Title
	}
	return c.Title + "\n" + c.BodyText
}

// IntentScore is the heuristic purchase-intent estimate for a piece of text
type IntentScore struct {
	Value             int    `json:"value"`
	ExtractedQuestion string `json:"extracted_question,omitempty"`
}

// Lead is a scored content item judged to express potential customer intent
type Lead struct {
	ID           string      `json:"id"`
	Item         ContentItem `json:"item"`
	Score        IntentScore `json:"score"`
	Tone         string      `json:"tone,omitempty"`
	SourceQuery  string      `json:"source_query,omitempty"`
	DiscoveredAt time.Time   `json:"discovered_at"`
}

// LeadFilter selects a view over the aggregated leads
type LeadFilter string

const (
	FilterAll        LeadFilter = "all"
	FilterHighIntent LeadFilter = "high_intent"
)

// HighIntentThreshold is the minimum score kept by FilterHighIntent
const HighIntentThreshold = 80

// Outcome is the result of trying to engage one lead
type Outcome string

const (
	OutcomePosted  Outcome = "POSTED"
	OutcomeSkipped Outcome = "SKIPPED"
	OutcomeFailed  Outcome = "FAILED"
)

// LeadOutcome records what happened to one lead during a run
type LeadOutcome struct {
	LeadID  string  `json:"lead_id"`
	URL     string  `json:"url"`
	Score   int     `json:"score"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// PostError records a post that could not be fetched during scoring
type PostError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// PromotionReport summarizes one auto-promotion run
type PromotionReport struct {
	RunID            string        `json:"run_id"`
	Platform         string        `json:"platform"`
	ProductDesc      string        `json:"product_description"`
	Keywords         []string      `json:"keywords"`
	KeywordsDegraded bool          `json:"keywords_degraded"`
	PostsScanned     int           `json:"posts_scanned"`
	PostErrors       []PostError   `json:"post_errors,omitempty"`
	Leads            []Lead        `json:"leads,omitempty"`
	Attempted        int           `json:"attempted"`
	Succeeded        int           `json:"succeeded"`
	Failed           int           `json:"failed"`
	Skipped          int           `json:"skipped"`
	Outcomes         []LeadOutcome `json:"outcomes"`
	Cancelled        bool          `json:"cancelled"`
	FinalState       string        `json:"final_state"`
	FailureReason    string        `json:"failure_reason,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
}

// Record appends an outcome and keeps the counters consistent
func (r *PromotionReport) Record(o LeadOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Attempted++
	switch o.Outcome {
	case OutcomePosted:
		r.Succeeded++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
}

// DraftStatus is the lifecycle state of a comment draft
type DraftStatus string

const (
	DraftGenerating DraftStatus = "GENERATING"
	DraftReady      DraftStatus = "READY"
	DraftError      DraftStatus = "ERROR"
	DraftSent       DraftStatus = "SENT"
)

// CommentDraft is the live reply draft for one lead
type CommentDraft struct {
	LeadID        string      `json:"lead_id"`
	GeneratedText string      `json:"generated_text"`
	EditedText    string      `json:"edited_text,omitempty"`
	Status        DraftStatus `json:"status"`
	Message       string      `json:"message,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// FinalText is the text that would be sent: the edit if present, else the generated text
func (d CommentDraft) FinalText() string {
	if strings.TrimSpace(d.EditedText) != "" {
		return d.EditedText
	}
	return d.GeneratedText
}

// CommentType selects the flavor of a generated comment
type CommentType string

const (
	CommentLeadGen      CommentType = "lead_gen"
	CommentLike         CommentType = "like"
	CommentConsult      CommentType = "consult"
	CommentProfessional CommentType = "professional"
)

// ParseCommentType maps a string to a CommentType, defaulting to lead_gen
func ParseCommentType(s string) (CommentType, bool) {
	switch CommentType(strings.ToLower(strings.TrimSpace(s))) {
	case "", CommentLeadGen:
		return CommentLeadGen, true
	case CommentLike:
		return CommentLike, true
	case CommentConsult:
		return CommentConsult, true
	case CommentProfessional:
		return CommentProfessional, true
	}
	return CommentLeadGen, false
}
