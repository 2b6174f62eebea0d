// Package report renders a finished promotion run for email and the cache dir.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ibeckermayer/leadscout/internal/textutil"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// Builder renders PromotionReports
type Builder struct {
	maxLeads int
	template *template.Template
}

// New creates a new report builder listing at most maxLeads leads
func New(maxLeads int) (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if maxLeads <= 0 {
		maxLeads = 20
	}

	return &Builder{
		maxLeads: maxLeads,
		template: tmpl,
	}, nil
}

// Rendered is a report ready for sending
type Rendered struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	CreatedAt time.Time
}

// Data is the template data structure
type Data struct {
	Title         string
	Date          string
	State         string
	Keywords      string
	Degraded      bool
	Cancelled     bool
	FailureReason string
	Stats         StatsData
	Leads         []LeadData
	PostErrors    []types.PostError
}

// LeadData represents one lead row
type LeadData struct {
	Score   int
	Kind    string
	Author  string
	Excerpt string
	URL     string
	Outcome string
	Reason  string
}

// StatsData contains run counters
type StatsData struct {
	PostsScanned int
	LeadsFound   int
	Attempted    int
	Succeeded    int
	Failed       int
	Skipped      int
	Duration     string
}

// Build renders r as HTML and plain text
func (b *Builder) Build(r *types.PromotionReport) (*Rendered, error) {
	if r == nil {
		return nil, fmt.Errorf("no report to render")
	}

	outcomes := make(map[string]types.LeadOutcome, len(r.Outcomes))
	for _, o := range r.Outcomes {
		outcomes[o.LeadID] = o
	}

	leads := r.Leads
	if len(leads) > b.maxLeads {
		leads = leads[:b.maxLeads]
	}

	data := Data{
		Title:         fmt.Sprintf("Lead report for %q", textutil.Excerpt(r.ProductDesc, 60)),
		Date:          r.StartedAt.Format("Monday, January 2 15:04"),
		State:         r.FinalState,
		Keywords:      strings.Join(r.Keywords, " "),
		Degraded:      r.KeywordsDegraded,
		Cancelled:     r.Cancelled,
		FailureReason: r.FailureReason,
		PostErrors:    r.PostErrors,
		Stats: StatsData{
			PostsScanned: r.PostsScanned,
			LeadsFound:   len(r.Leads),
			Attempted:    r.Attempted,
			Succeeded:    r.Succeeded,
			Failed:       r.Failed,
			Skipped:      r.Skipped,
			Duration:     r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
		},
		Leads: make([]LeadData, len(leads)),
	}

	for i, l := range leads {
		o := outcomes[l.ID]
		data.Leads[i] = LeadData{
			Score:   l.Score.Value,
			Kind:    string(l.Item.SourceType),
			Author:  l.Item.Author,
			Excerpt: truncate(textutil.PlainText(l.Item.ScoringText()), 200),
			URL:     l.Item.URL,
			Outcome: string(o.Outcome),
			Reason:  o.Reason,
		}
	}

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Rendered{
		Subject:   fmt.Sprintf("leadscout: %d leads, %d posted (%s)", len(r.Leads), r.Succeeded, r.StartedAt.Format("Jan 2")),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		CreatedAt: time.Now(),
	}, nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func buildPlainText(data Data) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s\n%s\n\n", data.Title, data.Date))
	buf.WriteString(fmt.Sprintf("State: %s", data.State))
	if data.Cancelled {
		buf.WriteString(" (cancelled)")
	}
	buf.WriteString("\n")
	if data.FailureReason != "" {
		buf.WriteString(fmt.Sprintf("Failure: %s\n", data.FailureReason))
	}
	buf.WriteString(fmt.Sprintf("Keywords: %s", data.Keywords))
	if data.Degraded {
		buf.WriteString(" (fallback)")
	}
	buf.WriteString("\n")
	s := data.Stats
	buf.WriteString(fmt.Sprintf("Scanned %d posts, found %d leads. %d attempted: %d posted, %d failed, %d skipped. Took %s.\n\n",
		s.PostsScanned, s.LeadsFound, s.Attempted, s.Succeeded, s.Failed, s.Skipped, s.Duration))

	for i, l := range data.Leads {
		buf.WriteString(fmt.Sprintf("%d. [%d] %s", i+1, l.Score, l.Excerpt))
		if l.Outcome != "" {
			buf.WriteString(fmt.Sprintf(" -> %s", l.Outcome))
			if l.Reason != "" {
				buf.WriteString(fmt.Sprintf(" (%s)", l.Reason))
			}
		}
		buf.WriteString(fmt.Sprintf("\n   %s\n\n", l.URL))
	}

	for _, pe := range data.PostErrors {
		buf.WriteString(fmt.Sprintf("Could not read %s: %s\n", pe.URL, pe.Error))
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 640px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #ff4500; margin-bottom: 5px; font-size: 20px; }
        .date { color: #666; margin-bottom: 12px; }
        .summary { margin-bottom: 16px; line-height: 1.5; }
        .warn { color: #b45309; }
        .lead { border-bottom: 1px solid #eee; padding: 12px 0; }
        .lead:last-child { border-bottom: none; }
        .score { font-weight: bold; color: #ff4500; }
        .kind { color: #666; font-size: 12px; text-transform: uppercase; }
        .excerpt { margin: 6px 0; line-height: 1.4; }
        .outcome { font-size: 13px; color: #333; }
        .link { color: #0079d3; text-decoration: none; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}} · {{.State}}{{if .Cancelled}} (cancelled){{end}}</div>

        <div class="summary">
            Keywords: <b>{{.Keywords}}</b>{{if .Degraded}} <span class="warn">(fallback to description)</span>{{end}}<br>
            Scanned {{.Stats.PostsScanned}} posts and found {{.Stats.LeadsFound}} leads.
            {{.Stats.Succeeded}} posted · {{.Stats.Failed}} failed · {{.Stats.Skipped}} skipped
            {{if .FailureReason}}<div class="warn">{{.FailureReason}}</div>{{end}}
        </div>

        {{range .Leads}}
        <div class="lead">
            <span class="score">{{.Score}}</span> <span class="kind">{{.Kind}}{{if .Author}} by {{.Author}}{{end}}</span>
            <div class="excerpt">{{.Excerpt}}</div>
            {{if .Outcome}}<div class="outcome">{{.Outcome}}{{if .Reason}}: {{.Reason}}{{end}}</div>{{end}}
            <a href="{{.URL}}" class="link">Open thread →</a>
        </div>
        {{end}}

        {{range .PostErrors}}<div class="warn">Could not read {{.URL}}: {{.Error}}</div>{{end}}

        <div class="footer">
            Run took {{.Stats.Duration}} · Generated by leadscout
        </div>
    </div>
</body>
</html>`
