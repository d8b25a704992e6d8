package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speaksure/analysis"
	"speaksure/results"
)

func response(score float64, q, transcript string) results.ResponseMetrics {
	return results.ResponseMetrics{
		AvgPrediction: analysis.Value(score),
		NumOfWords:    analysis.Value(20),
		SpeechRateWPM: analysis.Value(120),
		Question:      q,
		Transcript:    transcript,
	}
}

func sampleRecord() results.InterviewRecord {
	r1 := response(4, "Tell me about pressure.", "um I kept calm, you know")
	r1.Prediction = []float64{3, 4, 5}
	r1.Issues = []analysis.Issue{{Message: "Possible typo"}}
	return results.InterviewRecord{
		ID:        "iv-1",
		Name:      "Ada",
		Date:      "2024-03-05T14:07:00Z",
		Responses: []results.ResponseMetrics{r1, response(3, "", "fine"), response(5, "Leadership?", "")},
	}
}

func TestRenderResultsList(t *testing.T) {
	out := renderResultsList(nil, 80)
	assert.Contains(t, out, "No interviews yet")

	rec := sampleRecord()
	rec.Responses = append(rec.Responses, response(2, "", ""), response(1, "", ""))
	out = renderResultsList([]results.InterviewRecord{rec, {}}, 80)
	assert.Contains(t, out, "2 interviews")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Overall 3.0 Good")
	assert.Contains(t, out, "+2")
	assert.Contains(t, out, "Unknown Candidate")
	assert.Contains(t, out, "id: N/A")
}

func TestRenderResultDetail(t *testing.T) {
	out := renderResultDetail(sampleRecord(), 80)
	assert.Contains(t, out, "Overall 4.0 · Excellent · Very Confident")
	assert.Contains(t, out, "Tell me about pressure.")
	assert.Contains(t, out, "Question 2")
	assert.Contains(t, out, "segments: 3 4 5")
	assert.Contains(t, out, "Possible typo")
	assert.Contains(t, out, "2 filler words")
	assert.Contains(t, out, "Total words")
}

func TestSummaryText(t *testing.T) {
	text := summaryText(sampleRecord())
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Ada - Mar 5, 2024, 02:07 PM", lines[0])
	assert.Equal(t, "Overall score 4.0 (Excellent, Very Confident)", lines[1])
	assert.Equal(t, "Q2 3.0 fine", lines[4])
}

func resultsServer(t *testing.T) *httptest.Server {
	t.Helper()
	body, err := json.Marshal(map[string]any{"results": []any{
		map[string]any{
			"_id":  map[string]string{"$oid": "65f0c0ffee"},
			"name": "Ada",
			"date": "2024-03-05T14:07:00Z",
			"responses": []any{
				map[string]any{"avg_prediction": 4, "numofwords": 10, "speech_rate_wpm": 100, "transcript": "so um yes"},
			},
		},
	}})
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != analysis.ResultsPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunResultsJSON(t *testing.T) {
	srv := resultsServer(t)
	agg := results.NewAggregator(analysis.NewClient(srv.URL))

	var buf bytes.Buffer
	require.NoError(t, runResults(context.Background(), &buf, agg, resultsOptions{asJSON: true}))
	var sums []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &sums))
	require.Len(t, sums, 1)
	assert.Equal(t, "65f0c0ffee", sums[0]["id"])
	assert.Equal(t, "4.0", sums[0]["overall_score"])
	assert.Equal(t, "Excellent", sums[0]["band"])
	assert.EqualValues(t, 2, sums[0]["average_filler_words"])

	buf.Reset()
	require.NoError(t, runResults(context.Background(), &buf, agg, resultsOptions{id: "65f0c0ffee", asJSON: true}))
	var detail struct {
		Summary   map[string]any   `json:"summary"`
		Responses []map[string]any `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &detail))
	assert.Equal(t, "Ada", detail.Summary["name"])
	require.Len(t, detail.Responses, 1)
	assert.EqualValues(t, 4, detail.Responses[0]["avg_prediction"])
}

func TestRunResultsUnknownID(t *testing.T) {
	srv := resultsServer(t)
	agg := results.NewAggregator(analysis.NewClient(srv.URL))
	err := runResults(context.Background(), &bytes.Buffer{}, agg, resultsOptions{id: "nope"})
	assert.ErrorContains(t, err, `no interview with id "nope"`)
}

func TestRunResultsServiceDown(t *testing.T) {
	srv := resultsServer(t)
	srv.Close()
	var buf bytes.Buffer
	err := runResults(context.Background(), &buf, results.NewAggregator(analysis.NewClient(srv.URL)), resultsOptions{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No interviews yet")
}
