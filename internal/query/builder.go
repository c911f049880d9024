// Package query turns (intent, request) pairs into backend operation
// descriptors. Building is a pure transformation: no I/O, no retries, and no
// descriptor is emitted once validation fails.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rchen/bookmind/internal/model"
	"github.com/rchen/bookmind/internal/schema"
)

// unifiedKeyOrder fixes the concatenation order when several payload keys
// fold into additional_info, so store descriptors are deterministic.
var unifiedKeyOrder = []string{
	schema.FieldAdditionalInfo, "review", "thoughts", "notes", "quotes", "preferences",
}

// Builder constructs operation descriptors against the registry schema.
type Builder struct {
	reg *schema.Registry
}

func NewBuilder(reg *schema.Registry) *Builder {
	return &Builder{reg: reg}
}

// Build emits the descriptors for one classified request. Every intent
// currently maps to exactly one descriptor; callers execute descriptors
// independently.
func (b *Builder) Build(in model.Intent, req *model.Request) ([]model.Descriptor, error) {
	switch in {
	case model.IntentLogBook, model.IntentUpdateBook:
		return b.buildStore(req)
	case model.IntentRecommend:
		return b.scopedSearch(req, req.Text, nil)
	case model.IntentRecommendSimilar:
		return b.buildSimilar(req)
	case model.IntentRecommendByGenre:
		return b.buildFiltered(req, schema.FieldGenre)
	case model.IntentRecommendByAuthor:
		return b.buildFiltered(req, schema.FieldAuthor)
	case model.IntentAnalytics:
		return []model.Descriptor{{
			Verb: model.VerbFetch,
			Tag:  b.reg.TagPrefix(schema.KindBook) + "-",
		}}, nil
	case model.IntentRawQuery:
		return b.scopedSearch(req, req.Text, nil)
	}
	return nil, &model.UnrecognizedOperationError{Operation: string(in)}
}

// buildStore validates hard fields against the registry and emits one store
// descriptor. additional_info is marked for append semantics so notes
// accumulate instead of overwriting.
func (b *Builder) buildStore(req *model.Request) ([]model.Descriptor, error) {
	features := b.collectFeatures(req.Payload)

	title := features[schema.FieldBookTitle]
	if strings.TrimSpace(title) == "" {
		return nil, &model.ValidationError{Field: schema.FieldBookTitle, Reason: "required"}
	}

	for _, spec := range b.reg.FieldsFor(schema.KindBook) {
		value, ok := features[spec.Name]
		if !ok || spec.Validate == nil {
			continue
		}
		if err := spec.Validate(value); err != nil {
			return nil, &model.ValidationError{Field: spec.Name, Reason: err.Error()}
		}
	}

	if status, ok := features[schema.FieldStatus]; ok {
		features[schema.FieldStatus] = strings.ToLower(strings.TrimSpace(status))
	}

	tag, err := b.reg.TagFor(schema.KindBook, title)
	if err != nil {
		return nil, err
	}

	desc := model.Descriptor{
		Verb:     model.VerbStore,
		Tag:      tag,
		Features: features,
	}
	if _, ok := features[schema.FieldAdditionalInfo]; ok {
		desc.AppendFeatures = []string{schema.FieldAdditionalInfo}
	}
	return []model.Descriptor{desc}, nil
}

func (b *Builder) buildSimilar(req *model.Request) ([]model.Descriptor, error) {
	ref := b.payloadValue(req.Payload, "reference_title")
	if ref == "" {
		ref = b.payloadValue(req.Payload, schema.FieldBookTitle)
	}
	if ref == "" {
		return nil, &model.MissingParameterError{Parameter: "reference_title"}
	}
	anchor, err := b.reg.TagFor(schema.KindBook, ref)
	if err != nil {
		return nil, err
	}
	// The anchor book's tag rides in Query so the backend can use it as a
	// similarity seed.
	return b.scopedSearch(req, anchor, nil)
}

func (b *Builder) buildFiltered(req *model.Request, field string) ([]model.Descriptor, error) {
	value := b.payloadValue(req.Payload, field)
	if value == "" {
		return nil, &model.MissingParameterError{Parameter: field}
	}
	return b.scopedSearch(req, req.Text, map[string]string{field: value})
}

func (b *Builder) scopedSearch(req *model.Request, query string, filters map[string]string) ([]model.Descriptor, error) {
	scope, err := b.userTag(req)
	if err != nil {
		return nil, err
	}
	return []model.Descriptor{{
		Verb:    model.VerbSearch,
		Tag:     scope,
		Query:   query,
		Filters: filters,
	}}, nil
}

func (b *Builder) userTag(req *model.Request) (string, error) {
	if strings.TrimSpace(req.User) == "" {
		return "", nil
	}
	return b.reg.TagFor(schema.KindUser, req.User)
}

// collectFeatures canonicalizes payload keys and folds all unified-field
// aliases into a single additional_info value. Non-schema keys (derived
// fields from the backend's extraction step) pass through untouched.
func (b *Builder) collectFeatures(payload map[string]any) map[string]string {
	features := make(map[string]string)
	unified := make(map[string]string)

	for key, raw := range payload {
		value := strings.TrimSpace(stringify(raw))
		if value == "" {
			continue
		}
		canon := b.reg.Canonical(key)
		if canon == schema.FieldAdditionalInfo {
			unified[strings.ToLower(strings.TrimSpace(key))] = value
			continue
		}
		features[canon] = value
	}

	if len(unified) > 0 {
		var parts []string
		for _, key := range unifiedKeyOrder {
			if v, ok := unified[key]; ok {
				parts = append(parts, v)
				delete(unified, key)
			}
		}
		rest := make([]string, 0, len(unified))
		for key := range unified {
			rest = append(rest, key)
		}
		sort.Strings(rest)
		for _, key := range rest {
			parts = append(parts, unified[key])
		}
		features[schema.FieldAdditionalInfo] = strings.Join(parts, "\n")
	}

	return features
}

func (b *Builder) payloadValue(payload map[string]any, field string) string {
	for key, raw := range payload {
		if b.reg.Canonical(key) == field {
			if v := strings.TrimSpace(stringify(raw)); v != "" {
				return v
			}
		}
	}
	return ""
}

// stringify renders payload values as feature strings. JSON numbers arrive
// as float64; integral ones print without a fraction so ratings round-trip.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
