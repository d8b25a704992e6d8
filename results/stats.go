package results

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// OverallScore is the mean avg_prediction with one decimal, "0" when empty.
func OverallScore(responses []ResponseMetrics) string {
	if len(responses) == 0 {
		return "0"
	}
	var sum float64
	for i := range responses {
		sum += responses[i].Score()
	}
	return OneDecimal(sum / float64(len(responses)))
}

func TotalWords(responses []ResponseMetrics) int {
	total := 0
	for i := range responses {
		total += responses[i].Words()
	}
	return total
}

func TotalIssues(responses []ResponseMetrics) int {
	total := 0
	for i := range responses {
		total += len(responses[i].Findings())
	}
	return total
}

func AverageWords(responses []ResponseMetrics) int {
	if len(responses) == 0 {
		return 0
	}
	return roundHalfUp(float64(TotalWords(responses)) / float64(len(responses)))
}

// AverageSpeechRate is the mean words per minute with one decimal.
func AverageSpeechRate(responses []ResponseMetrics) string {
	if len(responses) == 0 {
		return "0"
	}
	var sum float64
	for i := range responses {
		sum += responses[i].SpeechRateWPM.Value
	}
	return OneDecimal(sum / float64(len(responses)))
}

func AverageFillerWords(responses []ResponseMetrics) int {
	if len(responses) == 0 {
		return 0
	}
	total := 0
	for i := range responses {
		total += CountFillerWords(responses[i].Transcript)
	}
	return roundHalfUp(float64(total) / float64(len(responses)))
}

// Summary holds the per-interview figures shown on the dashboard.
type Summary struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Initial            string `json:"initial"`
	Date               string `json:"date"`
	Questions          int    `json:"questions"`
	OverallScore       string `json:"overall_score"`
	Band               Band   `json:"band"`
	TotalWords         int    `json:"total_words"`
	TotalIssues        int    `json:"total_issues"`
	AverageWords       int    `json:"average_words"`
	AverageSpeechRate  string `json:"average_speech_rate"`
	AverageFillerWords int    `json:"average_filler_words"`
	// ScoreStrip is the band of the first few responses; Extra counts the rest.
	ScoreStrip []Band `json:"score_strip"`
	Extra      int    `json:"extra"`
}

const stripLen = 3

func Summarize(rec InterviewRecord) Summary {
	overall := OverallScore(rec.Responses)
	score, _ := strconv.ParseFloat(overall, 64)

	s := Summary{
		ID:                 rec.ID,
		Name:               DisplayName(rec.Name),
		Initial:            Initial(rec.Name),
		Date:               FormatDate(rec.Date),
		Questions:          len(rec.Responses),
		OverallScore:       overall,
		Band:               BandFor(score),
		TotalWords:         TotalWords(rec.Responses),
		TotalIssues:        TotalIssues(rec.Responses),
		AverageWords:       AverageWords(rec.Responses),
		AverageSpeechRate:  AverageSpeechRate(rec.Responses),
		AverageFillerWords: AverageFillerWords(rec.Responses),
	}
	for i := range rec.Responses {
		if i == stripLen {
			s.Extra = len(rec.Responses) - stripLen
			break
		}
		s.ScoreStrip = append(s.ScoreStrip, BandFor(rec.Responses[i].Score()))
	}
	return s
}

func DisplayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Unknown Candidate"
	}
	return name
}

func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "U"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// FormatDate renders a stored timestamp as "Jan 2, 2006, 03:04 PM", or "N/A"
// when it is missing or unreadable.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "N/A"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006, 03:04 PM")
		}
	}
	return "N/A"
}

// OneDecimal formats v with one decimal place, rounding the exact binary
// value with ties away from zero: 2.25 gives "2.3", while 2.55 (stored as
// 2.5499...) gives "2.5".
func OneDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	x := new(big.Float).SetPrec(128).SetFloat64(math.Abs(v))
	x.Mul(x, big.NewFloat(10))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	digits := n.String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	out := digits[:len(digits)-1] + "." + digits[len(digits)-1:]
	if v < 0 {
		out = "-" + out
	}
	return out
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
