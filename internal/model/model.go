// Package model defines the request/response contract, the query intents,
// and the operation descriptors exchanged with the memory backend.
package model

import "strings"

// Intent is the classified purpose of an incoming request. Exactly one
// intent is selected per request.
type Intent string

const (
	IntentLogBook           Intent = "log_book"
	IntentUpdateBook        Intent = "update_book"
	IntentRecommend         Intent = "recommend"
	IntentRecommendSimilar  Intent = "recommend_similar"
	IntentRecommendByGenre  Intent = "recommend_by_genre"
	IntentRecommendByAuthor Intent = "recommend_by_author"
	IntentAnalytics         Intent = "analytics"
	IntentRawQuery          Intent = "raw_query"
)

// ParseIntent matches an explicit operation string against the intent enum,
// case-insensitively. Returns an UnrecognizedOperationError for anything
// outside the enum.
func ParseIntent(op string) (Intent, error) {
	switch Intent(strings.ToLower(strings.TrimSpace(op))) {
	case IntentLogBook:
		return IntentLogBook, nil
	case IntentUpdateBook:
		return IntentUpdateBook, nil
	case IntentRecommend:
		return IntentRecommend, nil
	case IntentRecommendSimilar:
		return IntentRecommendSimilar, nil
	case IntentRecommendByGenre:
		return IntentRecommendByGenre, nil
	case IntentRecommendByAuthor:
		return IntentRecommendByAuthor, nil
	case IntentAnalytics:
		return IntentAnalytics, nil
	case IntentRawQuery:
		return IntentRawQuery, nil
	}
	return "", &UnrecognizedOperationError{Operation: op}
}

// Request is the single input contract with the presentation layer.
// Operation, when present, is authoritative; otherwise the classifier
// infers the intent from Text and Payload hints.
type Request struct {
	Operation string         `json:"operation,omitempty"`
	Text      string         `json:"text,omitempty"`
	User      string         `json:"user,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Response is the single output contract with the presentation layer.
type Response struct {
	Intent Intent `json:"intent"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Verb is the backend operation kind a descriptor maps to.
type Verb string

const (
	VerbStore  Verb = "store"
	VerbFetch  Verb = "fetch"
	VerbSearch Verb = "search"
)

// Descriptor is the query builder's pure output: one backend call to be made
// by the external collaborator. For fetch the Tag is a prefix or exact tag;
// for search it is the scope tag and Query carries free text or a similarity
// anchor tag.
type Descriptor struct {
	Verb           Verb              `json:"verb"`
	Tag            string            `json:"tag"`
	Features       map[string]string `json:"features,omitempty"`
	AppendFeatures []string          `json:"append_features,omitempty"`
	Query          string            `json:"query,omitempty"`
	Filters        map[string]string `json:"filters,omitempty"`
}

// Record is one entity as returned by the backend: its tag, its feature
// values, and a relevance score for search results. Ordering of a result
// slice is owned by the backend; the core never re-sorts ranked results.
type Record struct {
	Tag      string            `json:"tag"`
	Features map[string]string `json:"features"`
	Score    float64           `json:"score,omitempty"`
}

// ValidStatuses are the allowed reading status values.
var ValidStatuses = map[string]bool{
	"to-read":   true,
	"reading":   true,
	"finished":  true,
	"abandoned": true,
	"on-hold":   true,
}
