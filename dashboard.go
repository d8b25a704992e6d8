package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"speaksure/results"
)

var (
	avatarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("33")).Padding(0, 1)
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	statLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	statValue   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

func bandStyle(b results.Band) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color())).Bold(true)
}

func scoreStrip(s results.Summary) string {
	var dots []string
	for _, b := range s.ScoreStrip {
		dots = append(dots, bandStyle(b).Render("●"))
	}
	strip := strings.Join(dots, " ")
	if s.Extra > 0 {
		strip += dimStyle.Render(fmt.Sprintf(" +%d", s.Extra))
	}
	return strip
}

func renderResultsList(recs []results.InterviewRecord, width int) string {
	if width <= 0 || width > maxBodyWidth {
		width = maxBodyWidth
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Interview Results") + dimStyle.Render(fmt.Sprintf("  %d interviews", len(recs))) + "\n\n")
	if len(recs) == 0 {
		b.WriteString(dimStyle.Render("No interviews yet. Run `speaksure interview` to record one.") + "\n")
		return b.String()
	}
	for _, rec := range recs {
		s := results.Summarize(rec)
		header := avatarStyle.Render(s.Initial) + " " + nameStyle.Render(s.Name) + "  " + dimStyle.Render(s.Date)
		line := bandStyle(s.Band).Render("Overall "+s.OverallScore+" "+s.Band.String()) + "   " +
			scoreStrip(s) + "   " +
			dimStyle.Render(fmt.Sprintf("%d questions", s.Questions))
		id := dimStyle.Render("id: " + orNA(s.ID))
		b.WriteString(cardStyle.Width(width).Render(header+"\n"+line+"\n"+id) + "\n")
	}
	return b.String()
}

func renderResultDetail(rec results.InterviewRecord, width int) string {
	if width <= 0 || width > maxBodyWidth {
		width = maxBodyWidth
	}
	s := results.Summarize(rec)
	var b strings.Builder

	b.WriteString(avatarStyle.Render(s.Initial) + " " + nameStyle.Render(s.Name) + "  " + dimStyle.Render(s.Date) + "\n")
	b.WriteString(bandStyle(s.Band).Render(fmt.Sprintf("Overall %s · %s · %s", s.OverallScore, s.Band, s.Band.ConfidenceLabel())) + "\n\n")

	stats := []struct{ label, value string }{
		{"Questions", strconv.Itoa(s.Questions)},
		{"Total words", strconv.Itoa(s.TotalWords)},
		{"Issues", strconv.Itoa(s.TotalIssues)},
		{"Avg words", strconv.Itoa(s.AverageWords)},
		{"Avg speech rate", s.AverageSpeechRate + " wpm"},
		{"Avg filler words", strconv.Itoa(s.AverageFillerWords)},
	}
	var cells []string
	for _, st := range stats {
		cells = append(cells, statLabel.Render(st.label+" ")+statValue.Render(st.value))
	}
	b.WriteString(strings.Join(cells[:3], "   ") + "\n" + strings.Join(cells[3:], "   ") + "\n")

	for i := range rec.Responses {
		r := &rec.Responses[i]
		band := results.BandFor(r.Score())
		q := strings.TrimSpace(r.Question)
		if q == "" {
			q = fmt.Sprintf("Question %d", i+1)
		}

		var card strings.Builder
		label := fmt.Sprintf("Q%d ", i+1)
		for j, line := range wrapText(q, width-len(label)-4) {
			if j == 0 {
				card.WriteString(statLabel.Render(label))
			} else {
				card.WriteString(strings.Repeat(" ", len(label)))
			}
			card.WriteString(nameStyle.Render(line) + "\n")
		}
		card.WriteString(bandStyle(band).Render(results.OneDecimal(r.Score())+" "+band.String()) +
			dimStyle.Render(fmt.Sprintf("  %d words · %s wpm · %d filler words",
				r.Words(), metricString(r.SpeechRateWPM.Value, r.SpeechRateWPM.Valid),
				results.CountFillerWords(r.Transcript))) + "\n")
		if len(r.Prediction) > 0 {
			card.WriteString(dimStyle.Render("segments: "+formatPrediction(r.Prediction)) + "\n")
		}
		if t := strings.TrimSpace(r.Transcript); t != "" {
			for _, line := range wrapText(t, width-4) {
				card.WriteString(textStyle.Render(line) + "\n")
			}
		}
		for _, f := range r.Findings() {
			for j, line := range wrapText(f, width-6) {
				prefix := "  "
				if j == 0 {
					prefix = "• "
				}
				card.WriteString(warnStyle.Render(prefix+line) + "\n")
			}
		}
		b.WriteString("\n" + cardStyle.Width(width).Render(strings.TrimRight(card.String(), "\n")))
	}
	b.WriteString("\n")
	return b.String()
}

// summaryText is the unstyled one-paragraph summary used for the clipboard.
func summaryText(rec results.InterviewRecord) string {
	s := results.Summarize(rec)
	lines := []string{
		fmt.Sprintf("%s - %s", s.Name, s.Date),
		fmt.Sprintf("Overall score %s (%s, %s)", s.OverallScore, s.Band, s.Band.ConfidenceLabel()),
		fmt.Sprintf("%d questions, %d words, %d issues, %s wpm average, %d filler words per answer",
			s.Questions, s.TotalWords, s.TotalIssues, s.AverageSpeechRate, s.AverageFillerWords),
	}
	for i := range rec.Responses {
		r := &rec.Responses[i]
		lines = append(lines, fmt.Sprintf("Q%d %s %s", i+1, results.OneDecimal(r.Score()), strings.TrimSpace(r.Transcript)))
	}
	return strings.Join(lines, "\n")
}

func formatPrediction(p []float64) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func metricString(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
