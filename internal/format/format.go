// Package format shapes raw backend results into the intent-specific output
// contract. Aggregation for analytics is the one place the core computes
// rather than passes through; it is deterministic and read-only.
package format

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rchen/bookmind/internal/model"
	"github.com/rchen/bookmind/internal/schema"
)

const snippetLimit = 140

// Confirmation acknowledges a store.
type Confirmation struct {
	Status        string   `json:"status"`
	Tag           string   `json:"tag"`
	AppliedFields []string `json:"applied_fields"`
}

// Recommendation is one ranked suggestion. Order within a slice is the
// backend's ranking, preserved as-is.
type Recommendation struct {
	Title     string  `json:"title"`
	Author    string  `json:"author,omitempty"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
	Rationale string  `json:"rationale,omitempty"`
}

// TimelineEntry is one dated reading period.
type TimelineEntry struct {
	Title    string `json:"title"`
	Started  string `json:"started"`
	Finished string `json:"finished,omitempty"`
}

// AnalyticsReport aggregates the user's logged books.
type AnalyticsReport struct {
	TotalBooks      int             `json:"total_books"`
	ByStatus        map[string]int  `json:"by_status"`
	RatingHistogram map[int]int     `json:"rating_histogram"`
	AverageRating   float64         `json:"average_rating,omitempty"`
	Timeline        []TimelineEntry `json:"timeline,omitempty"`
}

// RawEnvelope wraps an unshaped backend payload.
type RawEnvelope struct {
	Intent    model.Intent   `json:"intent"`
	RawResult []model.Record `json:"raw_result"`
}

// Formatter shapes backend result payloads per intent.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format dispatches on the originating intent. desc is the descriptor that
// produced the records (used for store confirmations).
func (f *Formatter) Format(in model.Intent, desc *model.Descriptor, records []model.Record) (any, error) {
	switch in {
	case model.IntentLogBook, model.IntentUpdateBook:
		return f.Confirmation(desc), nil
	case model.IntentRecommend, model.IntentRecommendSimilar,
		model.IntentRecommendByGenre, model.IntentRecommendByAuthor:
		return f.Recommendations(in, records)
	case model.IntentAnalytics:
		return f.Analytics(records)
	default:
		return &RawEnvelope{Intent: in, RawResult: records}, nil
	}
}

// Confirmation reports which fields a successful store applied, sorted for
// stable output.
func (f *Formatter) Confirmation(desc *model.Descriptor) *Confirmation {
	applied := make([]string, 0, len(desc.Features))
	for name := range desc.Features {
		applied = append(applied, name)
	}
	sort.Strings(applied)
	return &Confirmation{Status: "ok", Tag: desc.Tag, AppliedFields: applied}
}

// Recommendations reshapes ranked search results. The backend owns ranking;
// record order is preserved.
func (f *Formatter) Recommendations(in model.Intent, records []model.Record) ([]Recommendation, error) {
	recs := make([]Recommendation, 0, len(records))
	for i, r := range records {
		title := r.Features[schema.FieldBookTitle]
		if title == "" {
			return nil, &model.MalformedResultError{Intent: in, Tag: r.Tag, Missing: schema.FieldBookTitle}
		}
		rationale := r.Features["recommendation_reason"]
		if rationale == "" {
			rationale = r.Features[schema.FieldAdditionalInfo]
		}
		recs = append(recs, Recommendation{
			Title:     title,
			Author:    r.Features[schema.FieldAuthor],
			Score:     r.Score,
			Rank:      i + 1,
			Rationale: Snippet(rationale, snippetLimit),
		})
	}
	return recs, nil
}

// Analytics aggregates fetched book entities: totals, per-status counts, a
// 1-5 rating histogram, and a timeline from the reading dates. Books without
// dates stay in the totals but not the timeline. A book without a status is
// surfaced as a malformed result rather than miscounted.
func (f *Formatter) Analytics(records []model.Record) (*AnalyticsReport, error) {
	report := &AnalyticsReport{
		ByStatus:        make(map[string]int),
		RatingHistogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	var ratingSum, rated int
	for _, r := range records {
		status, ok := r.Features[schema.FieldStatus]
		if !ok || strings.TrimSpace(status) == "" {
			return nil, &model.MalformedResultError{Intent: model.IntentAnalytics, Tag: r.Tag, Missing: schema.FieldStatus}
		}
		report.TotalBooks++
		report.ByStatus[strings.ToLower(strings.TrimSpace(status))]++

		if raw, ok := r.Features[schema.FieldRating]; ok && strings.TrimSpace(raw) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || n < 1 || n > 5 {
				return nil, &model.MalformedResultError{Intent: model.IntentAnalytics, Tag: r.Tag, Missing: schema.FieldRating}
			}
			report.RatingHistogram[n]++
			ratingSum += n
			rated++
		}

		if entry, ok := timelineEntry(r); ok {
			report.Timeline = append(report.Timeline, entry)
		}
	}

	if rated > 0 {
		report.AverageRating = float64(ratingSum) / float64(rated)
	}
	sort.Slice(report.Timeline, func(i, j int) bool {
		if report.Timeline[i].Started != report.Timeline[j].Started {
			return report.Timeline[i].Started < report.Timeline[j].Started
		}
		return report.Timeline[i].Title < report.Timeline[j].Title
	})
	return report, nil
}

func timelineEntry(r model.Record) (TimelineEntry, bool) {
	start := strings.TrimSpace(r.Features[schema.FieldStartDate])
	if _, err := time.Parse("2006-01-02", start); err != nil {
		return TimelineEntry{}, false
	}
	title := r.Features[schema.FieldBookTitle]
	if title == "" {
		title = r.Tag
	}
	entry := TimelineEntry{Title: title, Started: start}
	finish := strings.TrimSpace(r.Features[schema.FieldFinishDate])
	if _, err := time.Parse("2006-01-02", finish); err == nil {
		entry.Finished = finish
	}
	return entry, true
}

// Snippet clips free text for rationale display, breaking on a word
// boundary and never mid-rune.
func Snippet(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	clip := string(runes[:limit])
	if cut := strings.LastIndex(clip, " "); cut > 0 {
		clip = clip[:cut]
	}
	return clip + "..."
}
