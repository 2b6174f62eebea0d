package synth

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ibeckermayer/leadscout/internal/types"
)

func TestDetectDomains(t *testing.T) {
	tests := []struct {
		title, body string
		want        []string
	}{
		{"My skincare routine", "", []string{"beauty"}},
		{"Gym outfit ideas", "", []string{"fashion", "fitness"}},
		{"Random musings", "nothing to see", []string{"lifestyle"}},
		{"", "New phone for my home office", []string{"tech", "home"}},
	}
	for _, tt := range tests {
		if got := DetectDomains(tt.title, tt.body); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DetectDomains(%q, %q) = %v, want %v", tt.title, tt.body, got, tt.want)
		}
	}
}

func TestTemplateDeterministic(t *testing.T) {
	item := types.ContentItem{URL: "https://r/a", Author: "sam", Title: "Best camera for travel vlogs", BodyText: "Need a camera"}
	for _, ct := range []types.CommentType{types.CommentLeadGen, types.CommentLike, types.CommentConsult, types.CommentProfessional} {
		a, b := Template(ct, item), Template(ct, item)
		if a != b || a == "" {
			t.Errorf("%s: template not deterministic: %q vs %q", ct, a, b)
		}
	}
}

func TestTemplateLeadGenHasDMEnding(t *testing.T) {
	for _, url := range []string{"https://r/a", "https://r/b", "https://r/c", "https://r/d"} {
		text := Template(types.CommentLeadGen, types.ContentItem{URL: url})
		found := false
		for _, ending := range dmEndings {
			if strings.HasSuffix(text, ending) {
				found = true
			}
		}
		if !found {
			t.Errorf("lead_gen template lacks a DM ending: %q", text)
		}
	}
}

func TestTemplateConsultWithoutAuthor(t *testing.T) {
	for _, url := range []string{"https://r/a", "https://r/b", "https://r/c", "https://r/d", "https://r/e"} {
		text := Template(types.CommentConsult, types.ContentItem{URL: url, Title: "Travel tips"})
		if strings.Contains(text, "%!") || strings.Contains(text, "ask ,") {
			t.Errorf("badly formatted template %q", text)
		}
	}
}
