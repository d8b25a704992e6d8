package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	ErrPermissionDenied  = errors.New("camera/microphone access denied")
	ErrDeviceUnavailable = errors.New("no camera/microphone available")
)

type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Track is one live source inside a MediaSession. Stopping is idempotent.
type Track struct {
	kind  TrackKind
	label string
	stop  func()
	ended atomic.Bool
}

func (t *Track) Kind() TrackKind { return t.kind }
func (t *Track) Label() string   { return t.label }
func (t *Track) Active() bool    { return !t.ended.Load() }

func (t *Track) Stop() {
	if t.ended.CompareAndSwap(false, true) && t.stop != nil {
		t.stop()
	}
}

// Constraints describe what Acquire asks the platform for.
type Constraints struct {
	Device     string // preferred device name; empty means system default
	Video      bool
	SampleRate uint32
	Channels   uint32
}

// MediaSession owns the live stream for one interview attempt. Visualizer and
// recorder consume it through Subscribe; only the Manager ends it.
type MediaSession struct {
	InterviewID string
	DeviceName  string
	Config      CaptureConfig

	capture CaptureDevice
	tracks  []*Track

	mu     sync.RWMutex
	subs   map[int]DataCallback
	nextID int

	active      atomic.Bool
	releaseOnce sync.Once
}

func (s *MediaSession) Active() bool {
	return s != nil && s.active.Load()
}

func (s *MediaSession) Tracks() []*Track {
	if s == nil {
		return nil
	}
	out := make([]*Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *MediaSession) SampleRate() uint32 {
	if s == nil {
		return 0
	}
	return s.Config.SampleRate
}

// HasVideo reports whether the session carries a live camera track.
func (s *MediaSession) HasVideo() bool {
	for _, t := range s.Tracks() {
		if t.Kind() == TrackVideo && t.Active() {
			return true
		}
	}
	return false
}

// Subscribe registers cb for every captured buffer. The buffer is shared
// between subscribers and must be treated as read-only.
func (s *MediaSession) Subscribe(cb DataCallback) (unsubscribe func()) {
	if !s.Active() || cb == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = cb
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *MediaSession) dispatch(data []byte, frameCount uint32) {
	if !s.active.Load() {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cb := range s.subs {
		cb(data, frameCount)
	}
}

func (s *MediaSession) release() {
	s.releaseOnce.Do(func() {
		s.active.Store(false)
		for _, t := range s.tracks {
			t.Stop()
		}
		s.mu.Lock()
		clear(s.subs)
		s.mu.Unlock()
	})
}

// Manager acquires and releases media sessions on top of a platform Context.
type Manager struct {
	ctx         Context
	constraints Constraints
	newID       func() string
}

func NewManager(ctx Context, c Constraints) *Manager {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	return &Manager{ctx: ctx, constraints: c, newID: uuid.NewString}
}

func (m *Manager) Constraints() Constraints { return m.constraints }

// Acquire opens the microphone (and camera when requested), starts the live
// stream and mints a fresh interview id. No retry is attempted on failure.
func (m *Manager) Acquire(ctx context.Context) (*MediaSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.ctx == nil {
		return nil, ErrDeviceUnavailable
	}

	devices, err := m.ctx.Devices()
	if err != nil {
		return nil, classify(err)
	}
	if len(devices) == 0 {
		return nil, ErrDeviceUnavailable
	}

	var selected *DeviceInfo
	if m.constraints.Device != "" {
		for i := range devices {
			if devices[i].Name == m.constraints.Device {
				selected = &devices[i]
				break
			}
		}
	}

	cfg := CaptureConfig{SampleRate: m.constraints.SampleRate, Channels: m.constraints.Channels}
	capture, err := m.ctx.NewCapture(selected, cfg)
	if err != nil {
		return nil, classify(err)
	}

	sess := &MediaSession{
		DeviceName: capture.DeviceName(),
		Config:     cfg,
		capture:    capture,
		subs:       make(map[int]DataCallback),
	}
	sess.tracks = append(sess.tracks, &Track{
		kind:  TrackAudio,
		label: capture.DeviceName(),
		stop: func() {
			capture.Stop()
			capture.ClearCallback()
			capture.Close()
		},
	})
	sess.active.Store(true)

	capture.SetCallback(sess.dispatch)
	if err := capture.Start(); err != nil {
		sess.release()
		return nil, classify(err)
	}

	if m.constraints.Video {
		cc, ok := m.ctx.(CameraContext)
		if !ok {
			sess.release()
			return nil, fmt.Errorf("%w: camera capture not supported on this platform", ErrDeviceUnavailable)
		}
		cam, err := cc.OpenCamera()
		if err != nil {
			sess.release()
			return nil, classify(err)
		}
		sess.tracks = append(sess.tracks, &Track{kind: TrackVideo, label: cam.Name(), stop: cam.Close})
	}

	sess.InterviewID = m.newID()
	return sess, nil
}

// Release stops every track and invalidates the session. Safe on nil and on
// an already released session.
func (m *Manager) Release(s *MediaSession) {
	if s == nil {
		return
	}
	s.release()
}

func classify(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"permission", "access denied", "not authorized", "not allowed"} {
		if strings.Contains(msg, kw) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}
