// Package backend provides the external-call collaborator the core routes
// through: a Client interface plus a local SQLite feature store and a remote
// HTTP client. The core itself never talks to the network; it hands a
// descriptor to a Client and consumes the result records.
package backend

import (
	"context"

	"github.com/rchen/bookmind/internal/model"
)

// Client is the boundary with the profile-memory backend. Implementations
// own timeouts and retries; callers map failures to BackendUnavailableError.
type Client interface {
	// Store writes features for a tag. Features listed in appendFeatures
	// accumulate across calls; all others are last-write-wins per feature.
	// The entity is created implicitly on first store.
	Store(ctx context.Context, tag string, features map[string]string, appendFeatures []string) error

	// Fetch returns entities by tag. A tag ending in "-" is treated as a
	// prefix; anything else matches exactly.
	Fetch(ctx context.Context, tag string) ([]model.Record, error)

	// Search returns a ranked sequence of entities matching the query text
	// and feature filters, scoped to a user tag. Ranking is owned by the
	// backend.
	Search(ctx context.Context, scopeTag, query string, filters map[string]string) ([]model.Record, error)

	// Close releases any held resources.
	Close() error
}
