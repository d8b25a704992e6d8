package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"speaksure/analysis"
	"speaksure/audio"
	"speaksure/beep"
	"speaksure/clipboard"
	"speaksure/interview"
	"speaksure/results"
	"speaksure/visualizer"
)

type tickMsg time.Time
type acquiredMsg struct{ err error }
type submittedMsg struct {
	res *analysis.Result
	err error
}

// frameSlot hands the newest visualizer frame to the UI without ever
// blocking the frame loop.
type frameSlot struct{ p atomic.Pointer[visualizer.Frame] }

func (s *frameSlot) Store(f visualizer.Frame) { s.p.Store(&f) }

func (s *frameSlot) Load() visualizer.Frame {
	if f := s.p.Load(); f != nil {
		return *f
	}
	return visualizer.Frame{}
}

const (
	spectrumHeight = 6
	maxBodyWidth   = 72
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	stageOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	stageOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

type interviewModel struct {
	ctx     context.Context
	machine *interview.Machine
	frames  *frameSlot
	silence *silenceMonitor

	width, height int
	ticks         int
	name          []rune
	snap          interview.State

	busy      string
	status    string
	statusErr bool

	frame      visualizer.Frame
	recording  bool
	recElapsed float64
	noVoice    bool

	last   *analysis.Result
	copied bool
}

func newInterviewModel(ctx context.Context, machine *interview.Machine, frames *frameSlot, name string) interviewModel {
	return interviewModel{
		ctx:     ctx,
		machine: machine,
		frames:  frames,
		silence: newSilenceMonitor(true),
		name:    []rune(name),
		snap:    machine.Snapshot(),
	}
}

func uiTick() tea.Cmd {
	return tea.Tick(tickInterval/2, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m interviewModel) Init() tea.Cmd {
	return uiTick()
}

func (m interviewModel) acquireCmd() tea.Cmd {
	machine, ctx := m.machine, m.ctx
	return func() tea.Msg {
		return acquiredMsg{err: machine.AcquireDevices(ctx)}
	}
}

func (m interviewModel) submitCmd() tea.Cmd {
	machine, ctx := m.machine, m.ctx
	return func() tea.Msg {
		res, err := machine.Submit(ctx)
		return submittedMsg{res: res, err: err}
	}
}

func (m *interviewModel) setInfo(s string) {
	m.status, m.statusErr = s, false
}

func (m *interviewModel) setError(err error) {
	m.status, m.statusErr = describeError(err), true
}

func (m interviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.ticks++
		m.frame = m.frames.Load()
		m.recording = m.machine.Recording()
		if m.recording {
			m.recElapsed = m.machine.Recorder().Elapsed().Seconds()
			if m.ticks%2 == 0 {
				m.onSilence(m.silence.Tick(hasSpeech(m.frame.Level)))
			}
		}
		return m, uiTick()

	case acquiredMsg:
		m.busy = ""
		m.snap = m.machine.Snapshot()
		if msg.err != nil {
			beep.Play(beep.Error)
			m.setError(msg.err)
			break
		}
		m.setInfo("Microphone ready. Speak to check the level, then press enter.")

	case submittedMsg:
		m.busy = ""
		m.snap = m.machine.Snapshot()
		m.recording = m.machine.Recording()
		if msg.err != nil {
			beep.Play(beep.Error)
			m.setError(msg.err)
			break
		}
		beep.Play(beep.Submitted)
		m.last = msg.res
		m.copied = false
		m.noVoice = false
		if m.snap.Stage == interview.Complete {
			m.setInfo("Interview complete.")
		} else {
			m.setInfo(fmt.Sprintf("Answer analyzed: score %s. On to question %d.", results.OneDecimal(msg.res.Score()), m.snap.Index+1))
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy != "" {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *interviewModel) onSilence(ev SilenceEvent) {
	switch ev {
	case SilenceWarn:
		m.noVoice = true
		beep.Play(beep.Error)
	case SilenceRepeat:
		beep.Play(beep.Error)
	case SilenceWarnClear:
		m.noVoice = false
	case SilenceAutoStop:
		if err := m.machine.StopRecording(); err != nil {
			m.setError(err)
			return
		}
		beep.Play(beep.RecordStop)
		m.recording = false
		m.setInfo("Recording stopped after 30s without voice.")
	}
}

func (m interviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.snap.Stage {
	case interview.Welcome:
		switch msg.Type {
		case tea.KeyEnter:
			if err := m.machine.Begin(string(m.name)); err != nil {
				m.setError(err)
				return m, nil
			}
			m.snap = m.machine.Snapshot()
			m.status = ""
			m.busy = "Requesting microphone access"
			return m, m.acquireCmd()
		case tea.KeyBackspace:
			if len(m.name) > 0 {
				m.name = m.name[:len(m.name)-1]
			}
		case tea.KeySpace:
			m.name = append(m.name, ' ')
		case tea.KeyRunes:
			m.name = append(m.name, msg.Runes...)
		}

	case interview.Setup:
		if msg.Type != tea.KeyEnter {
			return m, nil
		}
		if !m.snap.DevicesReady {
			m.status = ""
			m.busy = "Requesting microphone access"
			return m, m.acquireCmd()
		}
		if err := m.machine.EnterInterview(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.snap = m.machine.Snapshot()
		m.setInfo("Press r to start recording your answer.")

	case interview.Interviewing:
		switch msg.String() {
		case "r":
			m.toggleRecording()
		case "enter":
			if m.machine.Recording() {
				beep.Play(beep.RecordStop)
			}
			m.status = ""
			m.busy = "Analyzing answer"
			return m, m.submitCmd()
		case "s":
			skipped := m.snap.Index + 1
			if err := m.machine.Skip(); err != nil {
				m.setError(err)
				return m, nil
			}
			m.snap = m.machine.Snapshot()
			m.recording = false
			m.noVoice = false
			m.setInfo(fmt.Sprintf("Skipped question %d.", skipped))
		case "c":
			m.copyTranscript()
		}

	case interview.Complete:
		switch msg.String() {
		case "n":
			if err := m.machine.Restart(); err != nil {
				m.setError(err)
				return m, nil
			}
			m.snap = m.machine.Snapshot()
			m.name = []rune(m.snap.CandidateName)
			m.last = nil
			m.frames.Store(visualizer.Frame{})
			m.setInfo("New interview. Confirm your name to start.")
		case "c":
			m.copyTranscript()
		}
	}
	return m, nil
}

func (m *interviewModel) toggleRecording() {
	if m.machine.Recording() {
		if err := m.machine.StopRecording(); err != nil {
			m.setError(err)
			return
		}
		beep.Play(beep.RecordStop)
		m.recording = false
		m.setInfo("Stopped. Press enter to submit, r to record again, s to skip.")
		return
	}
	if err := m.machine.StartRecording(); err != nil {
		m.setError(err)
		return
	}
	beep.Play(beep.RecordStart)
	m.recording = true
	m.recElapsed = 0
	m.noVoice = false
	m.silence.Reset()
	m.status = ""
}

func (m *interviewModel) copyTranscript() {
	if m.last == nil || strings.TrimSpace(m.last.Transcript) == "" {
		m.setInfo("No transcript to copy yet.")
		return
	}
	if err := clipboard.Copy(m.last.Transcript); err != nil {
		m.setError(err)
		return
	}
	m.copied = true
	m.setInfo("Transcript copied to clipboard.")
}

func describeError(err error) string {
	var netErr *analysis.NetworkError
	var svcErr *analysis.ServiceError
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		return "Microphone access was denied. Allow access and press enter to retry."
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return "No microphone available. Connect one and press enter to retry."
	case errors.Is(err, interview.ErrEmptyName):
		return "Please enter your name."
	case errors.Is(err, interview.ErrEmptyRecording):
		return "Nothing recorded yet. Press r to record your answer."
	case errors.Is(err, interview.ErrSubmissionPending):
		return "Still analyzing the previous answer."
	case errors.As(err, &netErr):
		return "Could not reach the analysis service. Press enter to retry. (" + netErr.Err.Error() + ")"
	case errors.Is(err, analysis.ErrMalformedResult):
		return "The service replied without a score (avg_prediction, numofwords, speech_rate_wpm), " +
			"so this answer cannot be recorded. Check that --api points at the analysis endpoint; " +
			"press enter to retry or s to skip."
	case errors.As(err, &svcErr):
		return "Analysis failed. Press enter to retry. (" + svcErr.Error() + ")"
	case errors.Is(err, clipboard.ErrUnavailable):
		return "No clipboard available (install xclip or wl-clipboard)."
	default:
		return err.Error()
	}
}

func (m interviewModel) bodyWidth() int {
	w := m.width - 4
	if w <= 0 || w > maxBodyWidth {
		w = maxBodyWidth
	}
	return w
}

func (m interviewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	width := m.bodyWidth()

	var b strings.Builder
	b.WriteString(titleStyle.Render("SpeakSure") + "  " + m.stageBar() + "\n\n")

	switch m.snap.Stage {
	case interview.Welcome:
		m.viewWelcome(&b)
	case interview.Setup:
		m.viewSetup(&b, width)
	case interview.Interviewing:
		m.viewInterview(&b, width)
	case interview.Complete:
		m.viewComplete(&b, width)
	}

	b.WriteString("\n")
	switch {
	case m.busy != "":
		spin := spinnerFrames[m.ticks%len(spinnerFrames)]
		b.WriteString(dimStyle.Render(spin+" "+m.busy+"...") + "\n")
	case m.status != "" && m.statusErr:
		for _, line := range wrapText(m.status, width) {
			b.WriteString(errStyle.Render(line) + "\n")
		}
	case m.status != "":
		for _, line := range wrapText(m.status, width) {
			b.WriteString(dimStyle.Render(line) + "\n")
		}
	}
	b.WriteString("\n" + m.helpLine())

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m interviewModel) stageBar() string {
	stages := []interview.Stage{interview.Welcome, interview.Setup, interview.Interviewing, interview.Complete}
	parts := make([]string, len(stages))
	for i, s := range stages {
		if s == m.snap.Stage {
			parts[i] = stageOnStyle.Render(s.String())
		} else {
			parts[i] = stageOffStyle.Render(s.String())
		}
	}
	return strings.Join(parts, stageOffStyle.Render(" › "))
}

func (m interviewModel) viewWelcome(b *strings.Builder) {
	fmt.Fprintf(b, "%s\n\n", textStyle.Render(fmt.Sprintf(
		"Practice interview: %d questions, answered out loud.", m.snap.Total())))
	cursor := " "
	if m.ticks%8 < 4 {
		cursor = "█"
	}
	b.WriteString(dimStyle.Render("Your name: ") + textStyle.Render(string(m.name)) + cursor + "\n")
}

func (m interviewModel) viewSetup(b *strings.Builder, width int) {
	b.WriteString(textStyle.Render("Hi "+m.snap.CandidateName+". Let's check your microphone.") + "\n\n")
	sess := m.machine.Session()
	if !m.snap.DevicesReady || !sess.Active() {
		b.WriteString(dimStyle.Render("Waiting for microphone access.") + "\n")
		return
	}
	device := "🎙 " + sess.DeviceName
	if audio.IsBluetooth(sess.DeviceName) {
		device += warnStyle.Render("  ⚠ Bluetooth: lower audio quality")
	}
	if sess.HasVideo() {
		device += dimStyle.Render("  + camera")
	}
	b.WriteString(device + "\n\n")
	b.WriteString(visualizer.RenderBars(m.frame.Bins, width, spectrumHeight) + "\n")
}

func (m interviewModel) viewInterview(b *strings.Builder, width int) {
	q, _ := m.snap.Current()
	progress := fmt.Sprintf("Question %d of %d  ", q.Index+1, m.snap.Total())
	var dots strings.Builder
	for i := 0; i < m.snap.Total(); i++ {
		switch {
		case i < q.Index:
			dots.WriteString(okStyle.Render("■"))
		case i == q.Index:
			dots.WriteString(stageOnStyle.Render("■"))
		default:
			dots.WriteString(stageOffStyle.Render("□"))
		}
	}
	b.WriteString(dimStyle.Render(progress) + dots.String() + "\n\n")
	for _, line := range wrapText(q.Text, width) {
		b.WriteString(stageOnStyle.Render(line) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(visualizer.RenderBars(m.frame.Bins, width, spectrumHeight) + "\n")

	switch {
	case m.recording:
		b.WriteString(recStyle.Render(fmt.Sprintf("● REC %.1fs", m.recElapsed)) + "\n")
		if m.noVoice {
			b.WriteString(warnStyle.Render("  ⚠ no voice detected") + "\n")
		}
	case m.machine.Recorder().HasData():
		b.WriteString(dimStyle.Render(fmt.Sprintf("■ recorded %.1fs", m.machine.Recorder().Elapsed().Seconds())) + "\n")
	default:
		b.WriteString(dimStyle.Render("○ ready") + "\n")
	}

	if m.last != nil {
		b.WriteString("\n" + dimStyle.Render("Previous answer") + "\n")
		m.viewResult(b, m.last, width)
	}
}

func (m interviewModel) viewResult(b *strings.Builder, res *analysis.Result, width int) {
	band := results.BandFor(res.Score())
	score := lipgloss.NewStyle().Foreground(lipgloss.Color(band.Color())).Bold(true).
		Render(results.OneDecimal(res.Score()) + " " + band.String())
	fmt.Fprintf(b, "%s  %s\n", score, dimStyle.Render(fmt.Sprintf("%d words · %.0f wpm · %s",
		res.Words(), res.SpeechRateWPM.Value, band.ConfidenceLabel())))
	if t := strings.TrimSpace(res.Transcript); t != "" {
		lines := wrapText(t, width)
		for i, line := range lines {
			b.WriteString(textStyle.Render(line))
			if i == len(lines)-1 && m.copied {
				b.WriteString(" " + okStyle.Render("[✓ copied]"))
			}
			b.WriteString("\n")
		}
	}
	for _, f := range res.Findings() {
		for i, line := range wrapText(f, width-2) {
			prefix := "  "
			if i == 0 {
				prefix = "• "
			}
			b.WriteString(warnStyle.Render(prefix+line) + "\n")
		}
	}
}

func (m interviewModel) viewComplete(b *strings.Builder, width int) {
	b.WriteString(okStyle.Render("Interview complete") + "\n")
	fmt.Fprintf(b, "%s\n\n", dimStyle.Render(fmt.Sprintf("Answered %d of %d questions", m.snap.Answered(), m.snap.Total())))
	if m.snap.Answered() == 0 {
		b.WriteString(dimStyle.Render("No answers were submitted.") + "\n")
		return
	}

	responses := make([]results.ResponseMetrics, 0, len(m.snap.Answers))
	for _, a := range m.snap.Answers {
		if a.Result != nil {
			responses = append(responses, *a.Result)
		}
	}
	overall := results.OverallScore(responses)
	score, _ := strconv.ParseFloat(overall, 64)
	band := results.BandFor(score)
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(band.Color())).Bold(true).
		Render("Overall "+overall+" · "+band.String()) + "\n\n")

	for _, a := range m.snap.Answers {
		if a.Result == nil {
			continue
		}
		qb := results.BandFor(a.Result.Score())
		label := fmt.Sprintf("Q%d ", a.Question.Index+1)
		line := truncate(a.Question.Text, width-len(label)-12)
		b.WriteString(dimStyle.Render(label) + textStyle.Render(line) + "  " +
			lipgloss.NewStyle().Foreground(lipgloss.Color(qb.Color())).Render(results.OneDecimal(a.Result.Score())) + "\n")
	}
	fmt.Fprintf(b, "\n%s\n", dimStyle.Render("Interview id: "+m.snap.InterviewID))
}

func (m interviewModel) helpLine() string {
	key := func(k, what string) string {
		return helpKeyStyle.Render(k) + helpStyle.Render(" "+what)
	}
	var parts []string
	switch m.snap.Stage {
	case interview.Welcome:
		parts = []string{key("enter", "continue")}
	case interview.Setup:
		if m.snap.DevicesReady {
			parts = []string{key("enter", "start interview")}
		} else {
			parts = []string{key("enter", "retry microphone")}
		}
	case interview.Interviewing:
		rec := "record"
		if m.recording {
			rec = "stop"
		}
		parts = []string{key("r", rec), key("enter", "submit"), key("s", "skip"), key("c", "copy transcript")}
	case interview.Complete:
		parts = []string{key("n", "new interview"), key("c", "copy transcript")}
	}
	parts = append(parts, key("ctrl+c", "quit"))
	return strings.Join(parts, helpStyle.Render("  ")) + "\n" + helpStyle.Render("speaksure "+version)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}
