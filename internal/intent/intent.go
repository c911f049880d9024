// Package intent maps an incoming request to exactly one query intent.
//
// An explicit operation field wins outright. Free text runs through an
// ordered rule list, first match wins; the order is a designed tie-break.
// When nothing matches the request degrades to raw_query rather than
// failing, because user text is inherently ambiguous.
package intent

import (
	"strings"

	"github.com/rchen/bookmind/internal/model"
	"github.com/rchen/bookmind/internal/schema"
)

type rule struct {
	name    string
	intent  model.Intent
	matches func(req *model.Request, text string) bool
}

// Classifier assigns one intent per request.
type Classifier struct {
	reg   *schema.Registry
	rules []rule
}

// NewClassifier builds the default rule list. New rules slot into the list
// without touching existing ones.
func NewClassifier(reg *schema.Registry) *Classifier {
	c := &Classifier{reg: reg}
	c.rules = []rule{
		{
			name:   "structured-log",
			intent: model.IntentLogBook,
			matches: func(req *model.Request, text string) bool {
				return c.payloadHas(req, schema.FieldBookTitle) && !mentionsRecommend(text)
			},
		},
		{
			name:   "similar",
			intent: model.IntentRecommendSimilar,
			matches: func(req *model.Request, text string) bool {
				return containsAny(text, "similar to", "books like", "something like")
			},
		},
		{
			name:   "by-genre",
			intent: model.IntentRecommendByGenre,
			matches: func(req *model.Request, text string) bool {
				return mentionsRecommend(text) && c.payloadHas(req, schema.FieldGenre)
			},
		},
		{
			name:   "by-author",
			intent: model.IntentRecommendByAuthor,
			matches: func(req *model.Request, text string) bool {
				return mentionsRecommend(text) && c.payloadHas(req, schema.FieldAuthor)
			},
		},
		{
			name:   "analytics",
			intent: model.IntentAnalytics,
			matches: func(req *model.Request, text string) bool {
				return containsAny(text, "how many", "stats", "statistics",
					"average rating", "reading progress", "my progress", "timeline")
			},
		},
		{
			name:   "recommend",
			intent: model.IntentRecommend,
			matches: func(req *model.Request, text string) bool {
				return mentionsRecommend(text)
			},
		},
	}
	return c
}

// Classify selects the intent for a request. Only an explicit but unknown
// operation errors; ambiguous free text falls back to raw_query.
func (c *Classifier) Classify(req *model.Request) (model.Intent, error) {
	if strings.TrimSpace(req.Operation) != "" {
		return model.ParseIntent(req.Operation)
	}

	text := strings.ToLower(req.Text)
	for _, r := range c.rules {
		if r.matches(req, text) {
			return r.intent, nil
		}
	}
	return model.IntentRawQuery, nil
}

func (c *Classifier) payloadHas(req *model.Request, field string) bool {
	for key, v := range req.Payload {
		if c.reg.Canonical(key) != field {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if v == nil {
			continue
		}
		return true
	}
	return false
}

func mentionsRecommend(text string) bool {
	return containsAny(text, "recommend", "suggest", "what should i read")
}

func containsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
