package interview

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"speaksure/analysis"
	"speaksure/recorder"
)

var (
	ErrEmptyName         = errors.New("candidate name is required")
	ErrDevicesNotReady   = errors.New("camera/microphone not acquired yet")
	ErrInvalidTransition = errors.New("action not allowed in this stage")
	ErrEmptyRecording    = errors.New("nothing recorded for this question")
	ErrSubmissionPending = analysis.ErrSubmissionPending
	ErrAcquiring         = errors.New("device acquisition already in progress")
)

type Stage int

const (
	Welcome Stage = iota
	Setup
	Interviewing
	Complete
)

func (s Stage) String() string {
	switch s {
	case Setup:
		return "setup"
	case Interviewing:
		return "interview"
	case Complete:
		return "complete"
	default:
		return "welcome"
	}
}

type Question struct {
	Index int
	Text  string
}

// AnsweredResponse is appended once per submitted question, in question order.
type AnsweredResponse struct {
	Question Question
	Result   *analysis.Result
	Audio    recorder.Artifact
}

// State is the whole interview flow as a value. Transitions return a new
// State and never modify the receiver; a rejected transition returns the
// receiver unchanged together with the error.
type State struct {
	Stage         Stage
	Questions     []Question
	Index         int
	CandidateName string
	InterviewID   string
	DevicesReady  bool
	Answers       []AnsweredResponse
}

func NewState(questions []string) State {
	qs := make([]Question, len(questions))
	for i, q := range questions {
		qs[i] = Question{Index: i, Text: q}
	}
	return State{Stage: Welcome, Questions: qs}
}

func (s State) invalid(action string) error {
	return fmt.Errorf("%s in %s: %w", action, s.Stage, ErrInvalidTransition)
}

func (s State) Total() int    { return len(s.Questions) }
func (s State) Answered() int { return len(s.Answers) }

// Current returns the question being asked, if any.
func (s State) Current() (Question, bool) {
	if s.Stage != Interviewing || s.Index < 0 || s.Index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

func (s State) Begin(name string) (State, error) {
	if s.Stage != Welcome {
		return s, s.invalid("begin")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s, ErrEmptyName
	}
	s.CandidateName = name
	s.Stage = Setup
	return s, nil
}

func (s State) DevicesAcquired(interviewID string) (State, error) {
	if s.Stage != Setup {
		return s, s.invalid("acquire devices")
	}
	s.DevicesReady = true
	s.InterviewID = interviewID
	return s, nil
}

func (s State) EnterInterview() (State, error) {
	if s.Stage != Setup {
		return s, s.invalid("start interview")
	}
	if !s.DevicesReady {
		return s, ErrDevicesNotReady
	}
	s.Stage = Interviewing
	s.Index = 0
	if len(s.Questions) == 0 {
		s.Stage = Complete
	}
	return s, nil
}

func (s State) Submitted(a AnsweredResponse) (State, error) {
	if s.Stage != Interviewing {
		return s, s.invalid("submit")
	}
	s.Answers = append(slices.Clip(s.Answers), a)
	return s.advance(), nil
}

func (s State) Skipped() (State, error) {
	if s.Stage != Interviewing {
		return s, s.invalid("skip")
	}
	return s.advance(), nil
}

func (s State) advance() State {
	if s.Index < len(s.Questions)-1 {
		s.Index++
	} else {
		s.Stage = Complete
	}
	return s
}

// Restart returns to the welcome stage. The candidate name is kept so the
// form can be prefilled; everything tied to the previous attempt is dropped.
func (s State) Restart() (State, error) {
	if s.Stage != Complete {
		return s, s.invalid("restart")
	}
	return State{
		Stage:         Welcome,
		Questions:     s.Questions,
		CandidateName: s.CandidateName,
	}, nil
}

// Clone returns a copy whose answer list does not share storage.
func (s State) Clone() State {
	s.Answers = slices.Clone(s.Answers)
	return s
}
