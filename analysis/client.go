package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

const (
	PredictPath = "/api/predict"
	ResultsPath = "/api/get_results"
)

// Answer is one recorded response ready for upload.
type Answer struct {
	Index         int // zero-based question index
	Question      string
	CandidateName string
	InterviewID   string
	Audio         []byte
	MimeType      string
}

// Client talks to the external analysis service.
type Client struct {
	http     *TracedClient
	inflight atomic.Bool
}

func NewClient(baseURL string) *Client {
	return &Client{http: NewTracedClient(strings.TrimRight(baseURL, "/"))}
}

func (c *Client) BaseURL() string { return c.http.BaseURL() }

// Pending reports whether a submission is in flight.
func (c *Client) Pending() bool { return c.inflight.Load() }

// ExtensionFor maps a capture container type to the upload file extension.
func ExtensionFor(mime string) string {
	mime = strings.ToLower(mime)
	switch {
	case strings.Contains(mime, "mp4"):
		return "mp4"
	case strings.Contains(mime, "ogg"):
		return "ogg"
	case strings.Contains(mime, "mpeg"):
		return "mp3"
	case strings.Contains(mime, "wav"):
		return "wav"
	default:
		return "webm"
	}
}

// FileName is the multipart file name for the answer, numbered from 1.
func (a Answer) FileName() string {
	return fmt.Sprintf("answer_%d.%s", a.Index+1, ExtensionFor(a.MimeType))
}

// SubmitAnswer uploads one answer and returns the validated analysis. Only one
// submission may be in flight per client.
func (c *Client) SubmitAnswer(ctx context.Context, a Answer) (*Result, error) {
	if !c.inflight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionPending
	}
	defer c.inflight.Store(false)

	const op = "submit answer"
	mime := a.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}

	req := c.http.R(ctx).
		SetMultipartField("audio", a.FileName(), mime, bytes.NewReader(a.Audio)).
		SetMultipartFormData(map[string]string{
			"interview_id": a.InterviewID,
			"name":         a.CandidateName,
			"question":     a.Question,
		})

	resp, err := c.http.Do(req, http.MethodPost, PredictPath)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	result, err := DecodeResult(resp.Body)
	if err != nil {
		return nil, &ServiceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Reason:     "malformed result: " + err.Error(),
			Err:        fmt.Errorf("%w: %v", ErrMalformedResult, err),
		}
	}
	if result.Question == "" {
		result.Question = a.Question
	}
	result.Metrics = resp.Metrics
	return result, nil
}

type resultsPage struct {
	Results []InterviewRecord `json:"results"`
}

// FetchResults returns every stored interview.
func (c *Client) FetchResults(ctx context.Context) ([]InterviewRecord, *NetworkMetrics, error) {
	const op = "fetch results"
	resp, err := c.http.Do(c.http.R(ctx), http.MethodGet, ResultsPath)
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.Metrics, &ServiceError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	var page resultsPage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, resp.Metrics, &ServiceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Reason:     "malformed results: " + err.Error(),
			Err:        fmt.Errorf("%w: %v", ErrMalformedResult, err),
		}
	}
	return page.Results, resp.Metrics, nil
}
