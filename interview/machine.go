package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"speaksure/analysis"
	"speaksure/audio"
	"speaksure/log"
	"speaksure/recorder"
	"speaksure/visualizer"
)

// Devices hands out and takes back live media sessions. *audio.Manager
// satisfies it.
type Devices interface {
	Acquire(ctx context.Context) (*audio.MediaSession, error)
	Release(s *audio.MediaSession)
}

// Submitter uploads one answer. *analysis.Client satisfies it.
type Submitter interface {
	SubmitAnswer(ctx context.Context, a analysis.Answer) (*analysis.Result, error)
}

type Options struct {
	Questions  []string
	Devices    Devices
	Recorder   *recorder.Controller
	Visualizer *visualizer.Visualizer
	Submitter  Submitter
}

// Machine owns one State and the services that act on it. All methods are
// safe for concurrent use; blocking work (device acquisition, uploads) runs
// without holding the lock.
type Machine struct {
	devices   Devices
	rec       *recorder.Controller
	vis       *visualizer.Visualizer
	submitter Submitter

	mu        sync.Mutex
	state     State
	session   *audio.MediaSession
	acquiring bool
	pending   bool
	closed    bool
}

func New(opts Options) *Machine {
	rec := opts.Recorder
	if rec == nil {
		rec = recorder.New()
	}
	return &Machine{
		devices:   opts.Devices,
		rec:       rec,
		vis:       opts.Visualizer,
		submitter: opts.Submitter,
		state:     NewState(opts.Questions),
	}
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *Machine) Questions() []Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Question(nil), m.state.Questions...)
}

// Session is the live media session, or nil before acquisition.
func (m *Machine) Session() *audio.MediaSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *Machine) Recorder() *recorder.Controller { return m.rec }

func (m *Machine) Recording() bool { return m.rec.State() == recorder.Recording }

func (m *Machine) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *Machine) Begin(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := m.state.Begin(name)
	if err != nil {
		return err
	}
	m.setState(next)
	return nil
}

// AcquireDevices asks for microphone (and camera) access. Failures leave the
// machine in setup so the user can retry.
func (m *Machine) AcquireDevices(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.state.Stage != Setup:
		err := m.state.invalid("acquire devices")
		m.mu.Unlock()
		return err
	case m.acquiring:
		m.mu.Unlock()
		return ErrAcquiring
	case m.state.DevicesReady && m.session.Active():
		m.mu.Unlock()
		return nil
	}
	if m.devices == nil {
		m.mu.Unlock()
		return audio.ErrDeviceUnavailable
	}
	m.acquiring = true
	m.mu.Unlock()

	sess, err := m.devices.Acquire(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquiring = false
	if err != nil {
		log.Warnf("device acquisition failed: %v", err)
		return err
	}
	if m.closed || m.state.Stage != Setup {
		m.devices.Release(sess)
		return m.state.invalid("acquire devices")
	}
	next, err := m.state.DevicesAcquired(sess.InterviewID)
	if err != nil {
		m.devices.Release(sess)
		return err
	}
	m.session = sess
	m.setState(next)

	log.DeviceEvent("device_acquired", sess.DeviceName)
	log.SessionStart(next.CandidateName, next.InterviewID, next.Total())
	return nil
}

func (m *Machine) EnterInterview() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.DevicesReady && !m.session.Active() {
		return ErrDevicesNotReady
	}
	next, err := m.state.EnterInterview()
	if err != nil {
		return err
	}
	m.setState(next)
	return nil
}

func (m *Machine) StartRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Stage != Interviewing {
		return m.state.invalid("record")
	}
	if m.pending {
		return ErrSubmissionPending
	}
	if !m.session.Active() {
		return ErrDevicesNotReady
	}
	return m.rec.Start(m.session)
}

func (m *Machine) StopRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Stage != Interviewing {
		return m.state.invalid("stop recording")
	}
	return m.rec.Stop()
}

// Submit uploads the current recording and advances on success. On failure
// the stage, question index and recording are left as they were so the
// answer can be resubmitted.
func (m *Machine) Submit(ctx context.Context) (*analysis.Result, error) {
	m.mu.Lock()
	if m.state.Stage != Interviewing {
		err := m.state.invalid("submit")
		m.mu.Unlock()
		return nil, err
	}
	if m.pending {
		m.mu.Unlock()
		return nil, ErrSubmissionPending
	}
	if err := m.rec.Stop(); err != nil {
		log.Warnf("stopping recorder: %v", err)
	}
	art, ok := m.rec.Artifact()
	if !ok || len(art.Data) == 0 {
		m.mu.Unlock()
		return nil, ErrEmptyRecording
	}
	q, _ := m.state.Current()
	answer := analysis.Answer{
		Index:         q.Index,
		Question:      q.Text,
		CandidateName: m.state.CandidateName,
		InterviewID:   m.state.InterviewID,
		Audio:         art.Data,
		MimeType:      art.MimeType,
	}
	m.pending = true
	m.mu.Unlock()

	res, err := m.submit(ctx, answer)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false
	if err != nil {
		log.Errorf("submitting answer %d: %v", q.Index+1, err)
		return nil, fmt.Errorf("submitting answer %d: %w", q.Index+1, err)
	}
	if m.closed || m.state.Stage != Interviewing || m.state.Index != q.Index {
		return res, m.state.invalid("submit")
	}

	next, err := m.state.Submitted(AnsweredResponse{Question: q, Result: res, Audio: art})
	if err != nil {
		return nil, err
	}
	encode := m.rec.EncodeTime()
	m.rec.Discard()
	m.setState(next)

	logAnswer(answer, art, encode, res)
	if next.Stage == Complete {
		log.SessionEnd(next.Answered(), next.Total())
	}
	return res, nil
}

func (m *Machine) submit(ctx context.Context, a analysis.Answer) (*analysis.Result, error) {
	if m.submitter == nil {
		return nil, errors.New("no analysis service configured")
	}
	return m.submitter.SubmitAnswer(ctx, a)
}

// Skip drops the current recording and moves on without an answer.
func (m *Machine) Skip() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending {
		return ErrSubmissionPending
	}
	next, err := m.state.Skipped()
	if err != nil {
		return err
	}
	m.rec.Discard()
	m.setState(next)
	if next.Stage == Complete {
		log.SessionEnd(next.Answered(), next.Total())
	}
	return nil
}

// Restart releases the devices and returns to the welcome stage.
func (m *Machine) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := m.state.Restart()
	if err != nil {
		return err
	}
	m.rec.Discard()
	m.releaseSession()
	m.setState(next)
	return nil
}

// Close stops everything and releases the media session. Safe to call more
// than once.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.rec.Discard()
	m.vis.Stop()
	m.releaseSession()
}

func (m *Machine) releaseSession() {
	if m.session == nil {
		return
	}
	if m.devices != nil {
		m.devices.Release(m.session)
	}
	log.DeviceEvent("device_released", m.session.DeviceName)
	m.session = nil
}

// setState installs next and re-arms the visualizer for it.
func (m *Machine) setState(next State) {
	m.state = next
	if m.vis == nil {
		return
	}
	switch {
	case m.closed:
		m.vis.Stop()
	case (next.Stage == Setup || next.Stage == Interviewing) && m.session.Active():
		m.vis.Start(m.session)
	default:
		m.vis.Stop()
	}
}

func logAnswer(a analysis.Answer, art recorder.Artifact, encode time.Duration, res *analysis.Result) {
	am := log.AnswerMetrics{
		InterviewID:   a.InterviewID,
		QuestionIndex: a.Index,
		Format:        art.MimeType,
		AudioLengthS:  art.Duration.Seconds(),
		SizeKB:        float64(len(art.Data)) / 1024,
		EncodeTimeMs:  float64(encode.Microseconds()) / 1000,
		Score:         res.Score(),
		Words:         res.Words(),
		SpeechRateWPM: res.SpeechRateWPM.Value,
		Findings:      len(res.Findings()),
	}
	if nm := res.Metrics; nm != nil {
		am.DNSTimeMs = ms(nm.DNS)
		am.TCPTimeMs = ms(nm.TCP)
		am.TLSTimeMs = ms(nm.TLS)
		am.ServerTimeMs = ms(nm.Server)
		am.TotalTimeMs = ms(nm.Total)
		am.ConnReused = nm.ConnReused
	}
	log.Answer(am)
	if res.Transcript != "" {
		log.Transcript(a.InterviewID, a.Index, res.Transcript)
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
