package synth

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/ibeckermayer/leadscout/internal/textutil"
	"github.com/ibeckermayer/leadscout/internal/types"
)

type domainKeywords struct {
	domain   string
	keywords []string
}

// Checked in order; the first match names the domain used in templates.
var domains = []domainKeywords{
	{"beauty", []string{"makeup", "cosmetics", "skincare", "beauty", "lipstick", "foundation", "moisturizer"}},
	{"fashion", []string{"fashion", "outfit", "style", "clothing", "wardrobe", "trend"}},
	{"food", []string{"food", "recipe", "restaurant", "cooking", "baking", "cuisine"}},
	{"travel", []string{"travel", "trip", "destination", "guide", "vacation", "hotel"}},
	{"parenting", []string{"baby", "parenting", "children", "toddler", "toys"}},
	{"tech", []string{"tech", "phone", "computer", "camera", "smart", "device"}},
	{"home", []string{"home", "decor", "furniture", "design", "interior"}},
	{"fitness", []string{"fitness", "workout", "exercise", "training", "gym"}},
}

const defaultDomain = "lifestyle"

// DetectDomains returns every content domain whose keywords appear in the
// title or body, or "lifestyle" when none do.
func DetectDomains(title, content string) []string {
	lower := strings.ToLower(title + " " + content)
	var found []string
	for _, d := range domains {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				found = append(found, d.domain)
				break
			}
		}
	}
	if len(found) == 0 {
		return []string{defaultDomain}
	}
	return found
}

var domainTerms = map[string][]string{
	"beauty":    {"finish", "texture", "pigmentation", "longevity", "application"},
	"fashion":   {"fit", "cut", "silhouette", "layering", "color palette"},
	"food":      {"flavor", "texture", "technique", "temperature", "seasoning"},
	"travel":    {"itinerary", "guide", "experience", "local culture", "hidden spots"},
	"parenting": {"early education", "development", "nutrition", "interaction"},
	"tech":      {"performance", "experience", "specs", "compatibility", "efficiency"},
	"home":      {"space planning", "lighting", "color scheme", "functional areas"},
	"fitness":   {"training plan", "sets", "intensity", "recovery", "metabolism"},
}

var dmEndings = []string{
	"Feel free to DM me if you have more questions~",
	"Check out my profile if you're interested",
	"DM me if you want to know more",
	"Follow me for more related content",
	"DM me for surprises~",
}

func templates(ct types.CommentType, domain, author, title string) []string {
	byAuthor := func(with, without string) string {
		if author == "" {
			return without
		}
		return fmt.Sprintf(with, author)
	}
	switch ct {
	case types.CommentLike:
		return []string{
			byAuthor("Awesome! %s's shares are always so practical", "Awesome! This is so practical"),
			byAuthor("Every time I see %s's shares I learn something, keep it up!", "I learn something new every time, keep it up!"),
			"This content is super detailed, learned a lot, thanks for sharing!",
			fmt.Sprintf("Love this in-depth share, much more meaningful than typical %s posts", domain),
			"Saved and upvoted, very valuable reference",
			"This kind of high-quality content is rare, thanks for sharing",
		}
	case types.CommentConsult:
		return []string{
			fmt.Sprintf("Hey OP, any beginner tips for %s?", domain),
			fmt.Sprintf("This %s technique looks practical, is it suitable for beginners?", domain),
			"OP's shared experience is so valuable, can you elaborate on how you got started?",
			byAuthor("Very inspiring, would like to ask %s, how did you reach such a professional level?", "Very inspiring! How did you reach such a professional level?"),
			"Very interested in this field, any recommended learning resources to share?",
			"OP's insights are unique, could you share your learning path?",
		}
	case types.CommentProfessional:
		about := "this"
		if title != "" {
			about = textutil.Excerpt(title, 10)
		}
		return []string{
			fmt.Sprintf("As a %s practitioner, I agree with OP's points, especially about %s", domain, about),
			"From a professional perspective, this share covers key points, I'd like to add...",
			"This analysis is spot on, I've found similar patterns in practice, totally agree",
			"Very professional share! I've been in related work for years, these methods really work",
			"The depth of this content is impressive, shows OP's professional expertise",
			"From a technical perspective, the methods OP shared are very feasible, worth trying",
		}
	default:
		return []string{
			fmt.Sprintf("This %s share is great! I'm also researching related content, feel free to DM me~", domain),
			byAuthor("Thanks for sharing, %s's insights are unique! I've also compiled some related materials, interested to chat?", "Thanks for sharing! I've also compiled some related materials, interested to chat?"),
			"Your share is very insightful! I've written similar content, feel free to reach out",
			fmt.Sprintf("Really like your sharing style! I also do %s related content, we can follow each other", domain),
			"Totally relate! I've encountered similar situations, DM me if you want to know more",
			"This post has so much info! Saved it, we can discuss if you have questions~",
		}
	}
}

// Template returns a canned comment for item. The choice is a pure function
// of the comment type and the item, so the same lead always gets the same text.
func Template(ct types.CommentType, item types.ContentItem) string {
	domain := DetectDomains(item.Title, item.BodyText)[0]
	h := fnv.New64a()
	h.Write([]byte(string(ct) + "|" + item.URL + "|" + item.ID))
	seed := h.Sum64()

	options := templates(ct, domain, item.Author, item.Title)
	text := options[seed%uint64(len(options))]
	seed /= uint64(len(options))

	if ct == types.CommentProfessional {
		if terms, ok := domainTerms[domain]; ok && seed%2 == 1 {
			text += fmt.Sprintf(", especially insights on %s are unique", terms[(seed/2)%uint64(len(terms))])
		}
		seed /= 2
	}

	if ct == types.CommentLeadGen || (ct == types.CommentConsult && seed%10 >= 7) {
		text += " " + dmEndings[(seed/10)%uint64(len(dmEndings))]
	}
	return text
}
