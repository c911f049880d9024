package backend

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rchen/bookmind/internal/model"
	"github.com/rchen/bookmind/internal/schema"
)

const defaultSearchLimit = 20

// SQLiteBackend implements Client on a local tag/feature/value store. It is
// a stand-in for the remote profile-memory service: search here is substring
// matching, not semantic ranking, and scores are match counts.
type SQLiteBackend struct {
	db      *sql.DB
	entropy *rand.Rand
	log     *zap.Logger
	limit   int
}

// NewSQLiteBackend opens or creates the feature store at the given path.
func NewSQLiteBackend(dbPath string, log *zap.Logger) (*SQLiteBackend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	b := &SQLiteBackend{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     log,
		limit:   defaultSearchLimit,
	}

	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return b, nil
}

func (b *SQLiteBackend) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String()
}

func (b *SQLiteBackend) migrate() error {
	stmt := `
	CREATE TABLE IF NOT EXISTS features (
		id         TEXT PRIMARY KEY,
		tag        TEXT NOT NULL,
		feature    TEXT NOT NULL,
		value      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		deleted_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_features_tag ON features(tag);
	CREATE INDEX IF NOT EXISTS idx_features_tag_feature ON features(tag, feature);
	CREATE INDEX IF NOT EXISTS idx_features_deleted ON features(deleted_at);
	`
	_, err := b.db.Exec(stmt)
	return err
}

// Store applies features for a tag in one transaction. Append features keep
// their history as extra rows; all others supersede previous values.
func (b *SQLiteBackend) Store(ctx context.Context, tag string, features map[string]string, appendFeatures []string) error {
	if tag == "" {
		return fmt.Errorf("store: empty tag")
	}

	appendSet := make(map[string]bool, len(appendFeatures))
	for _, f := range appendFeatures {
		appendSet[f] = true
	}

	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, name := range names {
		if !appendSet[name] {
			_, err = tx.ExecContext(ctx,
				`UPDATE features SET deleted_at = ? WHERE tag = ? AND feature = ? AND deleted_at IS NULL`,
				now, tag, name)
			if err != nil {
				return fmt.Errorf("supersede %s: %w", name, err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO features (id, tag, feature, value, created_at) VALUES (?, ?, ?, ?, ?)`,
			b.newID(), tag, name, features[name], now)
		if err != nil {
			return fmt.Errorf("insert %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	b.log.Debug("stored features", zap.String("tag", tag), zap.Int("count", len(names)))
	return nil
}

// Fetch returns entities grouped by tag. Append-feature history is joined
// newline-separated in insertion order.
func (b *SQLiteBackend) Fetch(ctx context.Context, tag string) ([]model.Record, error) {
	where := "tag = ?"
	arg := tag
	if strings.HasSuffix(tag, "-") {
		where = "tag LIKE ?"
		arg = tag + "%"
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT tag, feature, value FROM features
		 WHERE `+where+` AND deleted_at IS NULL
		 ORDER BY tag, created_at, id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return groupRows(rows)
}

// Search ranks stored books by substring match count against the query
// terms. A query that is itself a stored tag acts as a similarity anchor:
// its genre and author become the terms and the anchor is excluded.
func (b *SQLiteBackend) Search(ctx context.Context, scopeTag, query string, filters map[string]string) ([]model.Record, error) {
	// Single-user store: the scope tag carries no extra information here.
	if scopeTag != "" {
		b.log.Debug("search scope ignored by local backend", zap.String("scope", scopeTag))
	}

	terms, exclude, err := b.resolveTerms(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := b.Fetch(ctx, schema.BookTagPrefix+"-")
	if err != nil {
		return nil, err
	}

	var results []model.Record
	for _, rec := range candidates {
		if rec.Tag == exclude {
			continue
		}
		if !matchesFilters(rec, filters) {
			continue
		}
		score := scoreRecord(rec, terms)
		if len(terms) > 0 && score == 0 {
			continue
		}
		rec.Score = score
		results = append(results, rec)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Tag < results[j].Tag
	})
	if len(results) > b.limit {
		results = results[:b.limit]
	}
	return results, nil
}

// Remove soft-deletes every feature row of a tag.
func (b *SQLiteBackend) Remove(ctx context.Context, tag string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := b.db.ExecContext(ctx,
		`UPDATE features SET deleted_at = ? WHERE tag = ? AND deleted_at IS NULL`, now, tag)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("tag not found: %s", tag)
	}
	return nil
}

// ExportAll returns every live entity, ordered by tag.
func (b *SQLiteBackend) ExportAll(ctx context.Context) ([]model.Record, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT tag, feature, value FROM features
		 WHERE deleted_at IS NULL
		 ORDER BY tag, created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return groupRows(rows)
}

// ImportRecords stores records from an export. additional_info keeps append
// semantics so repeated imports do not clobber history.
func (b *SQLiteBackend) ImportRecords(ctx context.Context, records []model.Record) (int, error) {
	imported := 0
	for _, rec := range records {
		if err := b.Store(ctx, rec.Tag, rec.Features, []string{schema.FieldAdditionalInfo}); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// resolveTerms turns the query into lowercase search terms. An exact tag
// match makes the query an anchor book.
func (b *SQLiteBackend) resolveTerms(ctx context.Context, query string) (terms []string, exclude string, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, "", nil
	}

	anchor, err := b.Fetch(ctx, query)
	if err != nil {
		return nil, "", err
	}
	if len(anchor) == 1 && anchor[0].Tag == query {
		for _, f := range []string{schema.FieldGenre, schema.FieldAuthor} {
			if v := anchor[0].Features[f]; v != "" {
				terms = append(terms, strings.ToLower(v))
			}
		}
		return terms, query, nil
	}

	for _, w := range strings.Fields(strings.ToLower(query)) {
		terms = append(terms, w)
	}
	return terms, "", nil
}

func matchesFilters(rec model.Record, filters map[string]string) bool {
	for feature, want := range filters {
		if !strings.EqualFold(strings.TrimSpace(rec.Features[feature]), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

func scoreRecord(rec model.Record, terms []string) float64 {
	var score float64
	for _, term := range terms {
		if strings.Contains(rec.Tag, term) {
			score++
		}
		for _, value := range rec.Features {
			if strings.Contains(strings.ToLower(value), term) {
				score++
			}
		}
	}
	return score
}

func groupRows(rows *sql.Rows) ([]model.Record, error) {
	var records []model.Record
	index := make(map[string]int)

	for rows.Next() {
		var tag, feature, value string
		if err := rows.Scan(&tag, &feature, &value); err != nil {
			return nil, err
		}
		i, ok := index[tag]
		if !ok {
			records = append(records, model.Record{Tag: tag, Features: make(map[string]string)})
			i = len(records) - 1
			index[tag] = i
		}
		if prev, ok := records[i].Features[feature]; ok {
			records[i].Features[feature] = prev + "\n" + value
		} else {
			records[i].Features[feature] = value
		}
	}
	return records, rows.Err()
}
