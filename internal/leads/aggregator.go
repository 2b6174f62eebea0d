// Package leads holds the session's ranked, deduplicated collection of leads.
package leads

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ibeckermayer/leadscout/internal/intent"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// DefaultCommentMinScore is the floor applied to comment-sourced items when
// the caller gives no explicit minimum. Posts have no default floor.
const DefaultCommentMinScore = 40

// AddOptions tunes a single Add call
type AddOptions struct {
	SourceQuery string
	// MinScore overrides the per-source default minimum when non-nil.
	MinScore *int
	// AllowDuplicates keeps items whose (platform, url) is already stored.
	AllowDuplicates bool
	// Unscreened scores through the fallback path (floor of 20).
	Unscreened bool
}

type entry struct {
	seq  uint64
	lead types.Lead
}

type key struct {
	platform string
	url      string
}

// Aggregator is safe for concurrent use. Every write appends and re-sorts
// under one lock so readers never observe a partially sorted slice.
type Aggregator struct {
	mu      sync.Mutex
	entries []entry
	nextSeq uint64
	now     func() time.Time
}

// New creates an empty aggregator
func New() *Aggregator {
	return &Aggregator{now: time.Now}
}

// Add scores items, drops those below the minimum and stores the rest.
// It returns only the leads that were actually added.
func (a *Aggregator) Add(items []types.ContentItem, opts AddOptions) []types.Lead {
	scored := make([]types.Lead, 0, len(items))
	for _, item := range items {
		score := scoreItem(item, opts.Unscreened)
		if score.Value < minScoreFor(item, opts.MinScore) {
			continue
		}
		scored = append(scored, NewLead(item, score, opts.SourceQuery, a.now()))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	added := make([]types.Lead, 0, len(scored))
	for _, lead := range scored {
		if !opts.AllowDuplicates && a.indexOfLocked(keyOf(lead)) >= 0 {
			continue
		}
		a.appendLocked(lead)
		added = append(added, lead)
	}
	a.sortLocked()
	return added
}

// Merge stores already-scored leads. A lead whose (platform, url) is
// already present replaces the stored one but keeps its ID and its position
// in insertion order, so drafts keyed by that ID stay attached.
func (a *Aggregator) Merge(leads []types.Lead) {
	if len(leads) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, lead := range leads {
		if i := a.indexOfLocked(keyOf(lead)); i >= 0 {
			lead.ID = a.entries[i].lead.ID
			a.entries[i].lead = lead
			continue
		}
		a.appendLocked(lead)
	}
	a.sortLocked()
}

// List returns a copy of the leads, highest score first. Equal scores keep
// insertion order.
func (a *Aggregator) List(filter types.LeadFilter) []types.Lead {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]types.Lead, 0, len(a.entries))
	for _, e := range a.entries {
		if filter == types.FilterHighIntent && e.lead.Score.Value < types.HighIntentThreshold {
			continue
		}
		out = append(out, e.lead)
	}
	return out
}

// Get looks a lead up by ID
func (a *Aggregator) Get(id string) (types.Lead, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		if e.lead.ID == id {
			return e.lead, true
		}
	}
	return types.Lead{}, false
}

// Lookup finds the stored lead for a (platform, url) pair
func (a *Aggregator) Lookup(platform, url string) (types.Lead, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.indexOfLocked(key{platform: platform, url: url}); i >= 0 {
		return a.entries[i].lead, true
	}
	return types.Lead{}, false
}

// Count returns the number of stored leads
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Reset drops every lead. It is the only way leads are removed.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = nil
}

func (a *Aggregator) appendLocked(lead types.Lead) {
	a.entries = append(a.entries, entry{seq: a.nextSeq, lead: lead})
	a.nextSeq++
}

func (a *Aggregator) sortLocked() {
	sort.SliceStable(a.entries, func(i, j int) bool {
		si, sj := a.entries[i].lead.Score.Value, a.entries[j].lead.Score.Value
		if si != sj {
			return si > sj
		}
		return a.entries[i].seq < a.entries[j].seq
	})
}

func (a *Aggregator) indexOfLocked(k key) int {
	for i, e := range a.entries {
		if keyOf(e.lead) == k {
			return i
		}
	}
	return -1
}

// NewLead wraps an already-scored item in a Lead with a fresh ID
func NewLead(item types.ContentItem, score types.IntentScore, sourceQuery string, at time.Time) types.Lead {
	return types.Lead{
		ID:           uuid.NewString(),
		Item:         item,
		Score:        score,
		Tone:         intent.Tone(item.BodyText),
		SourceQuery:  sourceQuery,
		DiscoveredAt: at,
	}
}

func keyOf(l types.Lead) key {
	return key{platform: l.Item.Platform, url: l.Item.URL}
}

func scoreItem(item types.ContentItem, unscreened bool) types.IntentScore {
	if unscreened {
		return intent.ScoreUnscreened(item.ScoringText())
	}
	return intent.Score(item.ScoringText())
}

func minScoreFor(item types.ContentItem, override *int) int {
	if override != nil {
		return *override
	}
	if item.SourceType == types.SourceComment {
		return DefaultCommentMinScore
	}
	return 0
}
