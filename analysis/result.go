package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Metric is a numeric field the service may omit, send as null, or send as a
// string ("N/A" on some deployments).
type Metric struct {
	Value float64
	Valid bool
}

func Value(v float64) Metric { return Metric{Value: v, Valid: true} }

func (m *Metric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*m = Metric{}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*m = Metric{Value: v, Valid: true}
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("metric: %w", err)
	}
	*m = Metric{Value: v, Valid: true}
	return nil
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Issue is one detected problem. The service sends either a bare string or a
// grammar-rule object.
type Issue struct {
	Message     string   `json:"message,omitempty"`
	RuleID      string   `json:"ruleId,omitempty"`
	Mistake     string   `json:"mistake,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (i *Issue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*i = Issue{}
		return json.Unmarshal(b, &i.Message)
	}
	type plain Issue
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Issue(p)
	return nil
}

// Text is the display form of the issue.
func (i Issue) Text() string {
	switch {
	case i.Message != "":
		return i.Message
	case i.Mistake != "":
		return fmt.Sprintf("%q", i.Mistake)
	default:
		return i.RuleID
	}
}

type Variant string

const (
	VariantIssues   Variant = "issues"
	VariantFeedback Variant = "feedback"
	VariantNone     Variant = "none"
)

// Result is the analysis of one answer. AvgPrediction, NumOfWords and
// SpeechRateWPM are required on a fresh submission; Issues and Feedback are
// alternative shapes of the same findings.
type Result struct {
	AvgPrediction Metric    `json:"avg_prediction"`
	NumOfWords    Metric    `json:"numofwords"`
	SpeechRateWPM Metric    `json:"speech_rate_wpm"`
	Transcript    string    `json:"transcript,omitempty"`
	Question      string    `json:"question,omitempty"`
	Prediction    []float64 `json:"prediction,omitempty"`
	Issues        []Issue   `json:"issues,omitempty"`
	Feedback      string    `json:"feedback,omitempty"`

	Metrics *NetworkMetrics `json:"-"`
}

func (r *Result) Variant() Variant {
	switch {
	case len(r.Issues) > 0:
		return VariantIssues
	case strings.TrimSpace(r.Feedback) != "":
		return VariantFeedback
	case r.Issues != nil:
		return VariantIssues
	default:
		return VariantNone
	}
}

// Findings normalizes either variant to a list of display strings.
func (r *Result) Findings() []string {
	var out []string
	switch r.Variant() {
	case VariantIssues:
		for _, is := range r.Issues {
			if t := strings.TrimSpace(is.Text()); t != "" {
				out = append(out, t)
			}
		}
	case VariantFeedback:
		for _, line := range strings.Split(r.Feedback, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimLeft(line, "-*• ")
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// Validate checks the fields a fresh submission must carry.
func (r *Result) Validate() error {
	var missing []string
	if !r.AvgPrediction.Valid {
		missing = append(missing, "avg_prediction")
	}
	if !r.NumOfWords.Valid {
		missing = append(missing, "numofwords")
	}
	if !r.SpeechRateWPM.Valid {
		missing = append(missing, "speech_rate_wpm")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Score is avg_prediction, or 0 when absent.
func (r *Result) Score() float64 { return r.AvgPrediction.Value }

func (r *Result) Words() int { return int(r.NumOfWords.Value) }

// DecodeResult parses and validates a submission response.
func DecodeResult(body []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// InterviewRecord is one stored interview as returned by the results endpoint.
type InterviewRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Date      string   `json:"date"`
	Responses []Result `json:"responses"`
}

func (rec *InterviewRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		UnderscoreID json.RawMessage `json:"_id"`
		InterviewID  json.RawMessage `json:"interview_id"`
		ID           json.RawMessage `json:"id"`
		Name         string          `json:"name"`
		Date         json.RawMessage `json:"date"`
		Responses    []Result        `json:"responses"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*rec = InterviewRecord{
		ID:        firstID(raw.UnderscoreID, raw.InterviewID, raw.ID),
		Name:      raw.Name,
		Date:      flexString(raw.Date),
		Responses: raw.Responses,
	}
	return nil
}

func firstID(candidates ...json.RawMessage) string {
	for _, c := range candidates {
		if s := flexString(c); s != "" {
			return s
		}
	}
	return ""
}

// flexString reads a string, a number, or an extended-JSON wrapper such as
// {"$oid": "..."} or {"$date": "..."}.
func flexString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, k := range []string{"$oid", "$date"} {
			if v, ok := obj[k]; ok {
				return flexString(v)
			}
		}
	}
	return ""
}
