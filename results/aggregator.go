package results

import (
	"context"
	"fmt"

	"speaksure/analysis"
	"speaksure/log"
)

type (
	InterviewRecord = analysis.InterviewRecord
	ResponseMetrics = analysis.Result
)

// Fetcher is the part of analysis.Client the aggregator needs.
type Fetcher interface {
	FetchResults(ctx context.Context) ([]analysis.InterviewRecord, *analysis.NetworkMetrics, error)
}

type Aggregator struct {
	fetcher Fetcher
}

func NewAggregator(f Fetcher) *Aggregator {
	return &Aggregator{fetcher: f}
}

// FetchAll returns every stored interview. A failed fetch is logged and
// degrades to an empty list.
func (a *Aggregator) FetchAll(ctx context.Context) []InterviewRecord {
	recs, metrics, err := a.fetcher.FetchResults(ctx)
	if err != nil {
		log.Warnf("results fetch failed: %v", err)
		return []InterviewRecord{}
	}
	if metrics != nil {
		log.Info(fmt.Sprintf("results_fetched count=%d total_ms=%d", len(recs), metrics.Total.Milliseconds()))
	}
	if recs == nil {
		recs = []InterviewRecord{}
	}
	return recs
}

// Find returns the record with the given id.
func Find(recs []InterviewRecord, id string) (InterviewRecord, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return InterviewRecord{}, false
}
