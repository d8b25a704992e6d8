package results

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speaksure/analysis"
)

func resp(score, words, wpm float64, transcript string, issues ...string) ResponseMetrics {
	r := ResponseMetrics{
		AvgPrediction: analysis.Value(score),
		NumOfWords:    analysis.Value(words),
		SpeechRateWPM: analysis.Value(wpm),
		Transcript:    transcript,
	}
	for _, is := range issues {
		r.Issues = append(r.Issues, analysis.Issue{Message: is})
	}
	return r
}

func TestOverallScore(t *testing.T) {
	assert.Equal(t, "0", OverallScore(nil))
	assert.Equal(t, "3.0", OverallScore([]ResponseMetrics{resp(4, 0, 0, ""), resp(2, 0, 0, "")}))
	assert.Equal(t, "4.0", OverallScore([]ResponseMetrics{resp(4, 0, 0, ""), resp(3, 0, 0, ""), resp(5, 0, 0, "")}))
	assert.Equal(t, "3.7", OverallScore([]ResponseMetrics{resp(3.5, 0, 0, ""), resp(3.9, 0, 0, "")}))

	// Exact ties round up, as the dashboard always displayed them.
	assert.Equal(t, "2.3", OverallScore([]ResponseMetrics{resp(2.5, 0, 0, ""), resp(2, 0, 0, "")}))
	assert.Equal(t, "4.3", OverallScore([]ResponseMetrics{resp(4.5, 0, 0, ""), resp(4, 0, 0, "")}))

	missing := ResponseMetrics{}
	assert.Equal(t, "2.0", OverallScore([]ResponseMetrics{resp(4, 0, 0, ""), missing}), "a missing score counts as 0")
}

func TestWordAndIssueTotals(t *testing.T) {
	rs := []ResponseMetrics{
		resp(3, 10, 100, "", "a", "b"),
		resp(3, 15, 121, ""),
		{Feedback: "- x\n- y\n- z"},
	}
	assert.Equal(t, 25, TotalWords(rs))
	assert.Equal(t, 5, TotalIssues(rs))
	assert.Equal(t, 8, AverageWords(rs)) // 25/3 = 8.33
	assert.Equal(t, "73.7", AverageSpeechRate(rs))

	assert.Equal(t, 0, AverageWords(nil))
	assert.Equal(t, "0", AverageSpeechRate(nil))
	assert.Equal(t, "120.3", AverageSpeechRate([]ResponseMetrics{resp(0, 0, 120.25, "")}))
	assert.Equal(t, "120.3", AverageSpeechRate([]ResponseMetrics{resp(0, 0, 120, ""), resp(0, 0, 120.5, "")}))
	assert.Equal(t, 0, AverageFillerWords(nil))
	assert.Equal(t, 13, AverageWords([]ResponseMetrics{resp(0, 12, 0, ""), resp(0, 13, 0, "")}), "12.5 rounds half up")
}

func TestOneDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{0.04, "0.0"},
		{0.05, "0.1"},
		{2.25, "2.3"},
		{2.55, "2.5"}, // stored just below the tie
		{3.7, "3.7"},
		{4.96, "5.0"},
		{120.25, "120.3"},
		{-1.25, "-1.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OneDecimal(tt.in), "%v", tt.in)
	}
}

func TestCountFillerWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"um, I think, like, basically yes", 3},
		{"UM Like BASICALLY", 3},
		{"alike unlike likely", 0},
		{"You know, I mean, it was kind of sort of fine", 4},
		{"you  know", 1},
		{"so so so", 3},
		{"umbrella hummus erase", 0},
		{"", 0},
		{"okay, well, right, hmm, uh, er, ah, actually, literally", 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CountFillerWords(tt.text), tt.text)
	}
}

func TestAverageFillerWords(t *testing.T) {
	rs := []ResponseMetrics{
		resp(0, 0, 0, "um like so"),
		resp(0, 0, 0, "clean answer"),
	}
	assert.Equal(t, 2, AverageFillerWords(rs)) // 1.5 rounds up
}

func TestBand(t *testing.T) {
	tests := []struct {
		score      float64
		label      string
		confidence string
	}{
		{4.5, "Excellent", "Very Confident"},
		{4.0, "Excellent", "Very Confident"},
		{3.99, "Good", "Confident"},
		{3.0, "Good", "Confident"},
		{2.0, "Fair", "Somewhat Confident"},
		{1.5, "Needs Improvement", "Not Confident"},
		{0, "Needs Improvement", "Not Confident"},
	}
	for _, tt := range tests {
		b := BandFor(tt.score)
		assert.Equal(t, tt.label, b.String(), "score %v", tt.score)
		assert.Equal(t, tt.confidence, b.ConfidenceLabel(), "score %v", tt.score)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "N/A", FormatDate(""))
	assert.Equal(t, "N/A", FormatDate("yesterday"))
	assert.Equal(t, "Mar 5, 2024, 02:30 PM", FormatDate("2024-03-05T14:30:00Z"))
	assert.Equal(t, "Mar 5, 2024, 09:05 AM", FormatDate("2024-03-05 09:05:00"))
	assert.Equal(t, "Jan 1, 2024, 12:00 AM", FormatDate("2024-01-01"))
}

func TestSummarize(t *testing.T) {
	rec := InterviewRecord{
		ID:   "iid",
		Name: "ada",
		Date: "2024-03-05T14:30:00Z",
		Responses: []ResponseMetrics{
			resp(4, 10, 100, "um"),
			resp(3, 20, 110, ""),
			resp(5, 30, 120, ""),
			resp(1, 40, 130, ""),
			resp(2, 50, 140, ""),
		},
	}
	s := Summarize(rec)
	assert.Equal(t, "A", s.Initial)
	assert.Equal(t, "ada", s.Name)
	assert.Equal(t, 5, s.Questions)
	assert.Equal(t, "3.0", s.OverallScore)
	assert.Equal(t, Good, s.Band)
	assert.Equal(t, 150, s.TotalWords)
	assert.Equal(t, "120.0", s.AverageSpeechRate)
	assert.Equal(t, []Band{Excellent, Good, Excellent}, s.ScoreStrip)
	assert.Equal(t, 2, s.Extra)

	empty := Summarize(InterviewRecord{})
	assert.Equal(t, "U", empty.Initial)
	assert.Equal(t, "Unknown Candidate", empty.Name)
	assert.Equal(t, "N/A", empty.Date)
	assert.Equal(t, "0", empty.OverallScore)
	assert.Equal(t, NeedsImprovement, empty.Band)
	assert.Zero(t, empty.Extra)
}

type fakeFetcher struct {
	recs []analysis.InterviewRecord
	err  error
}

func (f fakeFetcher) FetchResults(context.Context) ([]analysis.InterviewRecord, *analysis.NetworkMetrics, error) {
	return f.recs, &analysis.NetworkMetrics{}, f.err
}

func TestFetchAllDegradesToEmpty(t *testing.T) {
	agg := NewAggregator(fakeFetcher{err: &analysis.NetworkError{Op: "fetch results", Err: errors.New("refused")}})
	recs := agg.FetchAll(context.Background())
	require.NotNil(t, recs)
	assert.Empty(t, recs)

	agg = NewAggregator(fakeFetcher{})
	assert.NotNil(t, agg.FetchAll(context.Background()))
}

func TestFetchAllAndFind(t *testing.T) {
	agg := NewAggregator(fakeFetcher{recs: []analysis.InterviewRecord{{ID: "a"}, {ID: "b", Name: "Bo"}}})
	recs := agg.FetchAll(context.Background())
	require.Len(t, recs, 2)

	rec, ok := Find(recs, "b")
	require.True(t, ok)
	assert.Equal(t, "Bo", rec.Name)
	_, ok = Find(recs, "zzz")
	assert.False(t, ok)
}
