// Package schema is the single source of truth for entity kinds, field
// specs, field aliases, and the tag naming convention. The registry is built
// once at startup and is read-only afterwards; the classifier, builder, and
// formatter all consume it rather than hardcoding field names.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rchen/bookmind/internal/model"
)

// Kind is an entity kind known to the registry.
type Kind string

const (
	KindBook Kind = "book"
	KindUser Kind = "user"
)

// Tag prefixes per entity kind, shared so nothing drifts from the
// registry's tag templates.
const (
	BookTagPrefix = "bk"
	UserTagPrefix = "user"
)

// Field names interpreted by the core. Anything else accompanying a write is
// passed through to the backend unaltered (derived fields like genre and the
// reading dates arrive this way).
const (
	FieldBookTitle      = "book_title"
	FieldAuthor         = "author"
	FieldRating         = "rating"
	FieldStatus         = "status"
	FieldGenre          = "genre"
	FieldStartDate      = "start_date"
	FieldFinishDate     = "finish_date"
	FieldAdditionalInfo = "additional_info"
	FieldUserName       = "user_name"
)

// FieldSpec describes one field of an entity kind. Validate is nil for
// free-form fields.
type FieldSpec struct {
	Name     string
	Required bool
	Validate func(value string) error
}

// Registry holds the per-kind field specs and tag templates.
type Registry struct {
	fields   map[Kind][]FieldSpec
	prefixes map[Kind]string
	aliases  map[string]string
}

// NewRegistry builds the book/user schema.
func NewRegistry() *Registry {
	return &Registry{
		fields: map[Kind][]FieldSpec{
			KindBook: {
				{Name: FieldBookTitle, Required: true, Validate: validateNonEmpty},
				{Name: FieldAuthor},
				{Name: FieldRating, Validate: ValidateRating},
				{Name: FieldStatus, Validate: ValidateStatus},
				{Name: FieldGenre},
				{Name: FieldStartDate},
				{Name: FieldFinishDate},
				{Name: FieldAdditionalInfo},
			},
			KindUser: {
				{Name: FieldUserName, Required: true, Validate: validateNonEmpty},
				{Name: FieldAdditionalInfo},
			},
		},
		prefixes: map[Kind]string{
			KindBook: BookTagPrefix,
			KindUser: UserTagPrefix,
		},
		aliases: map[string]string{
			"title":          FieldBookTitle,
			"score":          FieldRating,
			"stars":          FieldRating,
			"reading_status": FieldStatus,
			"category":       FieldGenre,
			"started":        FieldStartDate,
			"finished":       FieldFinishDate,
			"completed":      FieldFinishDate,
			"review":         FieldAdditionalInfo,
			"notes":          FieldAdditionalInfo,
			"quotes":         FieldAdditionalInfo,
			"thoughts":       FieldAdditionalInfo,
			"preferences":    FieldAdditionalInfo,
		},
	}
}

// FieldsFor returns the ordered field specs for a kind. The slice is shared;
// callers must not mutate it.
func (r *Registry) FieldsFor(kind Kind) []FieldSpec {
	return r.fields[kind]
}

// FieldFor returns the spec for a single field of a kind.
func (r *Registry) FieldFor(kind Kind, name string) (FieldSpec, bool) {
	for _, f := range r.fields[kind] {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Canonical resolves a payload key to its canonical field name. Unknown keys
// are returned lower-cased as-is so derived fields pass through.
func (r *Registry) Canonical(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if canon, ok := r.aliases[k]; ok {
		return canon
	}
	return k
}

// TagPrefix returns the tag prefix for a kind, without the separator.
func (r *Registry) TagPrefix(kind Kind) string {
	return r.prefixes[kind]
}

// TagFor builds the canonical tag for an entity: the kind prefix plus the
// normalized identifying name. Normalization is idempotent, so logging
// "Scythe" and "scythe" address the same entity.
func (r *Registry) TagFor(kind Kind, name string) (string, error) {
	prefix, ok := r.prefixes[kind]
	if !ok {
		return "", &model.InvalidIdentifierError{Name: name, Reason: fmt.Sprintf("unknown entity kind %q", kind)}
	}
	if strings.ContainsAny(name, ":/") {
		return "", &model.InvalidIdentifierError{Name: name, Reason: "contains a reserved tag delimiter"}
	}
	norm := Normalize(name)
	if norm == "" {
		return "", &model.InvalidIdentifierError{Name: name, Reason: "empty identifying name"}
	}
	return prefix + "-" + norm, nil
}

// Normalize lower-cases a name and collapses whitespace and underscore runs
// into single hyphens.
func Normalize(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '_'
	})
	return strings.Join(fields, "-")
}

// ValidateRating checks that a rating is an integer in [1,5].
func ValidateRating(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("must be an integer between 1 and 5, got %q", value)
	}
	if n < 1 || n > 5 {
		return fmt.Errorf("must be between 1 and 5, got %d", n)
	}
	return nil
}

// ValidateStatus checks a reading status against the enumerated set.
func ValidateStatus(value string) error {
	if !model.ValidStatuses[strings.ToLower(strings.TrimSpace(value))] {
		return fmt.Errorf("must be one of to-read, reading, finished, abandoned, on-hold; got %q", value)
	}
	return nil
}

func validateNonEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}
