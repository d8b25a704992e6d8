package visualizer

import (
	"sync"
	"time"

	"speaksure/audio"
)

const DefaultFPS = 60

// Source is the live stream being visualized. *audio.MediaSession satisfies it.
type Source interface {
	Active() bool
	Subscribe(cb audio.DataCallback) (unsubscribe func())
}

// Frame is one redraw: the byte spectrum plus the RMS level of the window.
type Frame struct {
	Bins  []byte
	Level float64
}

type RenderFunc func(Frame)

// Handle cancels one frame loop. Stop is idempotent and returns once the loop
// has exited.
type Handle struct {
	src         Source
	stop        chan struct{}
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func noopHandle() *Handle {
	h := &Handle{stop: make(chan struct{}), done: make(chan struct{})}
	close(h.done)
	return h
}

func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		close(h.stop)
		if h.unsubscribe != nil {
			h.unsubscribe()
		}
	})
	<-h.done
}

// Running reports whether the loop is still drawing.
func (h *Handle) Running() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Visualizer owns at most one frame loop at a time.
type Visualizer struct {
	fps      int
	render   RenderFunc
	analyser *Analyser

	mu      sync.Mutex
	current *Handle
}

func New(fps int, render RenderFunc) *Visualizer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Visualizer{fps: fps, render: render, analyser: NewAnalyser()}
}

func (v *Visualizer) Analyser() *Analyser { return v.analyser }

// Start arms the frame loop for src. Calling it again for the running source
// returns the same handle; a different source replaces the old loop.
func (v *Visualizer) Start(src Source) *Handle {
	if v == nil || v.analyser == nil || src == nil || !src.Active() {
		return noopHandle()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current != nil {
		if v.current.src == src && v.current.Running() {
			return v.current
		}
		v.current.Stop()
		v.current = nil
	}

	v.analyser.Reset()
	h := &Handle{
		src:  src,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	h.unsubscribe = src.Subscribe(v.analyser.Write)
	v.current = h
	go v.loop(h)
	return h
}

// Stop cancels the current loop, if any.
func (v *Visualizer) Stop() {
	if v == nil {
		return
	}
	v.mu.Lock()
	h := v.current
	v.current = nil
	v.mu.Unlock()
	h.Stop()
}

func (v *Visualizer) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current.Running()
}

func (v *Visualizer) loop(h *Handle) {
	defer close(h.done)
	ticker := time.NewTicker(time.Second / time.Duration(v.fps))
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}
		if !h.src.Active() {
			return
		}
		bins := make([]byte, FrequencyBinCount)
		v.analyser.ByteFrequencyData(bins)
		if v.render != nil {
			v.render(Frame{Bins: bins, Level: v.analyser.Level()})
		}
	}
}
