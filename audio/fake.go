package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays PCM instead of opening a real microphone. It also
// offers a fake camera so video constraints can be exercised.
type FakeContext struct {
	pcm      []byte
	realtime bool

	// Devices reported by Devices(); defaults to a single fake microphone.
	DeviceList []DeviceInfo
	// CaptureErr, when set, is returned by NewCapture.
	CaptureErr error
	// CameraErr, when set, is returned by OpenCamera.
	CameraErr error
	// NoCamera hides the camera capability entirely.
	NoCamera bool

	mu       sync.Mutex
	captures []*FakeCapture
	cameras  []*FakeCamera
}

func NewFakeContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{
		pcm:        pcm,
		realtime:   realtime,
		DeviceList: []DeviceInfo{{ID: "fake-0", Name: "Fake Microphone"}},
	}
}

// NewFakeContextFromWAV loads a 16 kHz mono WAV and strips its header.
func NewFakeContextFromWAV(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakeContext(data, realtime), nil
}

// DeniedFakeContext behaves like a platform whose permission prompt was refused.
func DeniedFakeContext() *FakeContext {
	f := NewFakeContext(nil, false)
	f.CaptureErr = errors.New("microphone permission denied by user")
	return f
}

// GenTone returns durationMs of a sine wave as 16-bit little-endian PCM.
func GenTone(freq float64, sampleRate, durationMs int) []byte {
	n := sampleRate * durationMs / 1000
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		sample := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.DeviceList, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(device *DeviceInfo, cfg CaptureConfig) (CaptureDevice, error) {
	if f.CaptureErr != nil {
		return nil, f.CaptureErr
	}
	rate := cfg.SampleRate
	if rate == 0 {
		rate = 16000
	}
	name := "Fake Microphone"
	if device != nil {
		name = device.Name
	}
	c := &FakeCapture{pcm: f.pcm, realtime: f.realtime, rate: rate, name: name, audioDone: make(chan struct{})}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

func (f *FakeContext) OpenCamera() (Camera, error) {
	if f.NoCamera {
		return nil, ErrDeviceUnavailable
	}
	if f.CameraErr != nil {
		return nil, f.CameraErr
	}
	cam := &FakeCamera{}
	f.mu.Lock()
	f.cameras = append(f.cameras, cam)
	f.mu.Unlock()
	return cam, nil
}

// Captures returns every capture handed out so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

func (f *FakeContext) Cameras() []*FakeCamera {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCamera(nil), f.cameras...)
}

type FakeCamera struct {
	mu     sync.Mutex
	closed int
}

func (c *FakeCamera) Name() string { return "Fake Camera" }

func (c *FakeCamera) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func (c *FakeCamera) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type FakeCapture struct {
	pcm       []byte
	realtime  bool
	rate      uint32
	name      string
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	running  bool
	closed   bool
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return f.name }

// Running reports whether the feed goroutine is active.
func (f *FakeCapture) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *FakeCapture) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos, chunkBytes int) int {
	end := min(pos+chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	return end
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	f.running = true
	stopCh, feedDone := f.stopCh, f.feedDone
	f.mu.Unlock()

	chunkBytes := fakeFrameSize * fakeBytesPerFrame

	if !f.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos, chunkBytes)
			}
		}
		close(f.audioDone)

		go func() {
			defer close(feedDone)
			silence := make([]byte, chunkBytes)
			for {
				select {
				case <-stopCh:
					return
				case <-time.After(time.Millisecond):
				}
				if cb := f.callback(); cb != nil {
					cb(silence, fakeFrameSize)
				}
			}
		}()
		return nil
	}

	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(f.rate)
	go func() {
		defer close(feedDone)
		pos := 0
		silence := make([]byte, chunkBytes)
		audioFinished := false

		for {
			select {
			case <-stopCh:
				return
			default:
			}

			cb := f.callback()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if pos < len(f.pcm) {
				pos = f.feedChunk(cb, pos, chunkBytes)
			} else {
				if !audioFinished {
					audioFinished = true
					close(f.audioDone)
				}
				cb(silence, fakeFrameSize)
			}

			select {
			case <-stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stopCh, feedDone := f.stopCh, f.feedDone
	f.running = false
	f.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	<-feedDone
}

func (f *FakeCapture) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
