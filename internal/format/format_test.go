package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rchen/bookmind/internal/model"
)

func book(tag string, features map[string]string) model.Record {
	return model.Record{Tag: tag, Features: features}
}

func TestConfirmation(t *testing.T) {
	f := NewFormatter()

	conf := f.Confirmation(&model.Descriptor{
		Verb: model.VerbStore,
		Tag:  "bk-scythe",
		Features: map[string]string{
			"status":     "finished",
			"book_title": "Scythe",
			"rating":     "5",
			"author":     "Neal Shusterman",
		},
	})
	assert.Equal(t, "ok", conf.Status)
	assert.Equal(t, "bk-scythe", conf.Tag)
	assert.Equal(t, []string{"author", "book_title", "rating", "status"}, conf.AppliedFields)
}

func TestRecommendationsPreserveBackendOrder(t *testing.T) {
	f := NewFormatter()

	records := []model.Record{
		{Tag: "bk-hyperion", Features: map[string]string{"book_title": "Hyperion", "author": "Dan Simmons"}, Score: 0.4},
		{Tag: "bk-foundation", Features: map[string]string{"book_title": "Foundation", "recommendation_reason": "epic scope"}, Score: 0.9},
	}

	recs, err := f.Recommendations(model.IntentRecommend, records)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// Backend returned the lower score first; the formatter must not re-sort.
	assert.Equal(t, "Hyperion", recs[0].Title)
	assert.Equal(t, 1, recs[0].Rank)
	assert.Equal(t, "Foundation", recs[1].Title)
	assert.Equal(t, "epic scope", recs[1].Rationale)
}

func TestRecommendationsMissingTitle(t *testing.T) {
	f := NewFormatter()

	_, err := f.Recommendations(model.IntentRecommend, []model.Record{
		book("bk-mystery", map[string]string{"author": "Unknown"}),
	})
	require.Error(t, err)
	var malformed *model.MalformedResultError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "book_title", malformed.Missing)
}

func TestAnalyticsAggregation(t *testing.T) {
	f := NewFormatter()

	records := []model.Record{
		book("bk-a", map[string]string{"status": "finished", "rating": "5"}),
		book("bk-b", map[string]string{"status": "finished", "rating": "4"}),
		book("bk-c", map[string]string{"status": "reading"}),
	}

	report, err := f.Analytics(records)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalBooks)
	assert.Equal(t, 2, report.ByStatus["finished"])
	assert.Equal(t, 1, report.ByStatus["reading"])
	assert.Equal(t, 1, report.RatingHistogram[5])
	assert.Equal(t, 1, report.RatingHistogram[4])
	assert.Equal(t, 0, report.RatingHistogram[1])
	assert.InDelta(t, 4.5, report.AverageRating, 0.001)
}

func TestAnalyticsMissingStatusSurfaced(t *testing.T) {
	f := NewFormatter()

	_, err := f.Analytics([]model.Record{
		book("bk-a", map[string]string{"status": "finished"}),
		book("bk-b", map[string]string{"rating": "3"}),
	})
	require.Error(t, err)
	var malformed *model.MalformedResultError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "status", malformed.Missing)
	assert.Equal(t, "bk-b", malformed.Tag)
}

func TestAnalyticsTimeline(t *testing.T) {
	f := NewFormatter()

	records := []model.Record{
		book("bk-later", map[string]string{"book_title": "Later", "status": "finished", "start_date": "2026-03-01", "finish_date": "2026-03-20"}),
		book("bk-early", map[string]string{"book_title": "Early", "status": "finished", "start_date": "2026-01-10"}),
		book("bk-undated", map[string]string{"book_title": "Undated", "status": "to-read"}),
	}

	report, err := f.Analytics(records)
	require.NoError(t, err)
	// Dateless entries still count toward totals but stay off the timeline.
	assert.Equal(t, 3, report.TotalBooks)
	require.Len(t, report.Timeline, 2)
	assert.Equal(t, "Early", report.Timeline[0].Title)
	assert.Equal(t, "Later", report.Timeline[1].Title)
	assert.Equal(t, "2026-03-20", report.Timeline[1].Finished)
	assert.Empty(t, report.Timeline[0].Finished)
}

func TestAnalyticsEmpty(t *testing.T) {
	f := NewFormatter()

	report, err := f.Analytics(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalBooks)
	assert.Equal(t, 0, report.RatingHistogram[3])
	assert.Zero(t, report.AverageRating)
}

func TestFormatRawEnvelope(t *testing.T) {
	f := NewFormatter()

	records := []model.Record{book("bk-x", map[string]string{"book_title": "X"})}
	out, err := f.Format(model.IntentRawQuery, &model.Descriptor{Verb: model.VerbSearch}, records)
	require.NoError(t, err)

	env, ok := out.(*RawEnvelope)
	require.True(t, ok)
	assert.Equal(t, model.IntentRawQuery, env.Intent)
	assert.Equal(t, records, env.RawResult)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet("short", 140))
	assert.Equal(t, "a b", Snippet("  a \n b ", 140))

	long := "The quick brown fox jumps over the lazy dog and keeps going for quite a while"
	clipped := Snippet(long, 20)
	assert.LessOrEqual(t, len(clipped), 24)
	assert.True(t, clipped[len(clipped)-3:] == "...")
}

func TestSnippetKeepsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 30)
	clipped := Snippet(s, 10)
	assert.True(t, utf8.ValidString(clipped))
	assert.Equal(t, strings.Repeat("é", 10)+"...", clipped)

	accented := "Una reseña magnífica sobre la condición humana y el paso del tiempo en América"
	clipped = Snippet(accented, 25)
	assert.True(t, utf8.ValidString(clipped))
}
