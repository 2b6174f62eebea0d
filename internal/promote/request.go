package promote

import (
	"fmt"
	"strings"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// Limits on caller-supplied run parameters. Out-of-range values are
// rejected, never clamped.
const (
	MaxPostsLimit = 20
	MinScoreFloor = 0.0
	MinScoreCeil  = 100.0
)

// Request describes one auto-promotion run. Zero numeric fields take the
// configured defaults; MinMatchScore is a pointer because 0 is meaningful.
type Request struct {
	ProductDescription string            `json:"product_description"`
	Keywords           []string          `json:"search_keywords,omitempty"`
	MaxPosts           int               `json:"max_posts,omitempty"`
	CommentsPerPost    int               `json:"comments_per_post,omitempty"`
	MinMatchScore      *float64          `json:"min_match_score,omitempty"`
	MaxEngagements     *int              `json:"max_engagements,omitempty"`
	CommentType        types.CommentType `json:"comment_type,omitempty"`
	DryRun             bool              `json:"dry_run,omitempty"`
	// AnalyzeOnly stops after scoring; nothing is drafted or posted.
	AnalyzeOnly bool `json:"analyze_only,omitempty"`
}

// settings is a validated Request with defaults filled in
type settings struct {
	description     string
	keywords        []string
	maxPosts        int
	commentsPerPost int
	minMatchScore   float64
	maxEngagements  int
	commentType     types.CommentType
	dryRun          bool
	analyzeOnly     bool
}

func (r Request) resolve(defaults config.PromotionConfig) (settings, error) {
	s := settings{
		description:     strings.TrimSpace(r.ProductDescription),
		maxPosts:        defaults.MaxPosts,
		commentsPerPost: defaults.CommentsPerPost,
		minMatchScore:   defaults.MinMatchScore,
		maxEngagements:  defaults.MaxEngagements,
		dryRun:          r.DryRun || defaults.DryRun,
		analyzeOnly:     r.AnalyzeOnly,
	}

	if s.description == "" {
		return s, fmt.Errorf("product description is required: %w", types.ErrValidation)
	}
	for _, kw := range r.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			s.keywords = append(s.keywords, kw)
		}
	}

	if r.MaxPosts != 0 {
		s.maxPosts = r.MaxPosts
	}
	if s.maxPosts < 1 || s.maxPosts > MaxPostsLimit {
		return s, fmt.Errorf("max posts %d not in [1,%d]: %w", s.maxPosts, MaxPostsLimit, types.ErrValidation)
	}

	if r.CommentsPerPost != 0 {
		s.commentsPerPost = r.CommentsPerPost
	}
	if s.commentsPerPost < 1 {
		return s, fmt.Errorf("comments per post must be positive: %w", types.ErrValidation)
	}

	if r.MinMatchScore != nil {
		s.minMatchScore = *r.MinMatchScore
	}
	if !(s.minMatchScore >= MinScoreFloor && s.minMatchScore <= MinScoreCeil) {
		return s, fmt.Errorf("min match score %v not in [0,100]: %w", s.minMatchScore, types.ErrValidation)
	}

	if r.MaxEngagements != nil {
		s.maxEngagements = *r.MaxEngagements
	}
	if s.maxEngagements < 0 {
		return s, fmt.Errorf("max engagements must not be negative: %w", types.ErrValidation)
	}

	ct := string(r.CommentType)
	if ct == "" {
		ct = defaults.CommentType
	}
	parsed, ok := types.ParseCommentType(ct)
	if !ok {
		return s, fmt.Errorf("comment type %q: %w", ct, types.ErrValidation)
	}
	s.commentType = parsed

	return s, nil
}
