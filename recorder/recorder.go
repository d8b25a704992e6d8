package recorder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"speaksure/audio"
	"speaksure/encoder"
)

type State int

const (
	Idle State = iota
	Recording
	Stopped
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// DefaultMimeType is used when none of the preferred types can be produced.
const DefaultMimeType = "audio/wav"

// Source is the live stream a recording taps into. *audio.MediaSession
// satisfies it.
type Source interface {
	Active() bool
	SampleRate() uint32
	Subscribe(cb audio.DataCallback) (unsubscribe func())
}

// Artifact is one finished answer recording.
type Artifact struct {
	Data     []byte
	MimeType string
	Duration time.Duration
	Frames   uint64
}

// Controller drives at most one recording at a time on top of a Source.
// Encoded output accumulates as ordered, non-empty chunks.
type Controller struct {
	preferred []string

	mu          sync.Mutex
	state       State
	mimeType    string
	enc         encoder.Encoder
	unsubscribe func()
	started     time.Time
	duration    time.Duration
	frames      uint64
	encodeTime  time.Duration
	encodeErr   error

	bufMu      sync.Mutex
	sampleBuf  []int16
	blockChan  chan []int16
	encodeDone chan struct{}

	chunkMu sync.Mutex
	chunks  [][]byte
}

func New(preferred ...string) *Controller {
	return &Controller{preferred: preferred}
}

// SelectType returns the first preferred type the encoder package supports.
func SelectType(preferred []string) string {
	for _, t := range preferred {
		if encoder.IsTypeSupported(t) {
			return encoder.BaseType(t)
		}
	}
	return DefaultMimeType
}

type chunkSink struct{ c *Controller }

func (s chunkSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)
	s.c.chunkMu.Lock()
	s.c.chunks = append(s.c.chunks, chunk)
	s.c.chunkMu.Unlock()
	return len(p), nil
}

// Start begins a new recording, discarding the previous one. A nil or
// inactive source, or an already running recording, is ignored.
func (c *Controller) Start(src Source) error {
	if src == nil || !src.Active() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Recording {
		return nil
	}

	c.clearChunks()
	mime := SelectType(c.preferred)
	enc, err := encoder.New(mime, chunkSink{c}, src.SampleRate())
	if err != nil {
		return fmt.Errorf("opening %s encoder: %w", mime, err)
	}

	c.enc = enc
	c.mimeType = mime
	c.frames = 0
	c.encodeTime = 0
	c.encodeErr = nil
	c.duration = 0
	c.sampleBuf = c.sampleBuf[:0]
	c.blockChan = make(chan []int16, 64)
	c.encodeDone = make(chan struct{})

	go c.encodeLoop(enc, c.blockChan, c.encodeDone)

	c.state = Recording
	c.started = time.Now()
	c.unsubscribe = src.Subscribe(c.feed)
	return nil
}

func (c *Controller) encodeLoop(enc encoder.Encoder, blocks <-chan []int16, done chan<- struct{}) {
	defer close(done)
	var firstErr error
	var spent time.Duration
	for block := range blocks {
		start := time.Now()
		if err := enc.EncodeBlock(block); err != nil && firstErr == nil {
			firstErr = err
		}
		spent += time.Since(start)
	}
	c.encodeErr = firstErr
	c.encodeTime = spent
}

func (c *Controller) feed(pcm []byte, _ uint32) {
	c.bufMu.Lock()
	for i := 0; i+1 < len(pcm); i += 2 {
		c.sampleBuf = append(c.sampleBuf, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	var blocks [][]int16
	for len(c.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, c.sampleBuf[:encoder.BlockSize])
		c.sampleBuf = c.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	ch := c.blockChan
	c.bufMu.Unlock()

	for _, block := range blocks {
		ch <- block
	}
}

// Stop ends the running recording and flushes the encoder so the final
// fragments land in the chunk list. Outside Recording it does nothing.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if c.state != Recording {
		return nil
	}

	// No callback is in flight once unsubscribe returns.
	c.unsubscribe()
	c.unsubscribe = nil

	c.bufMu.Lock()
	if len(c.sampleBuf) > 0 {
		partial := make([]int16, len(c.sampleBuf))
		copy(partial, c.sampleBuf)
		c.sampleBuf = c.sampleBuf[:0]
		c.blockChan <- partial
	}
	close(c.blockChan)
	c.bufMu.Unlock()
	<-c.encodeDone

	closeErr := c.enc.Close()
	c.frames = c.enc.TotalFrames()
	c.duration = time.Since(c.started)
	c.state = Stopped
	c.enc = nil

	if c.encodeErr != nil {
		return fmt.Errorf("encoding: %w", c.encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("flushing encoder: %w", closeErr)
	}
	return nil
}

// Discard stops capture if needed and drops everything recorded so far.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.clearChunks()
	c.frames = 0
	c.duration = 0
	c.state = Idle
}

func (c *Controller) clearChunks() {
	c.chunkMu.Lock()
	c.chunks = nil
	c.chunkMu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) MimeType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mimeType == "" {
		return SelectType(c.preferred)
	}
	return c.mimeType
}

func (c *Controller) ChunkCount() int {
	c.chunkMu.Lock()
	defer c.chunkMu.Unlock()
	return len(c.chunks)
}

func (c *Controller) HasData() bool {
	return c.ChunkCount() > 0
}

// Elapsed is the running duration while recording, or the final duration.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Recording {
		return time.Since(c.started)
	}
	return c.duration
}

func (c *Controller) EncodeTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encodeTime
}

// Artifact assembles the chunks into a single blob. It returns false when
// nothing has been recorded.
func (c *Controller) Artifact() (Artifact, bool) {
	c.mu.Lock()
	mime, dur, frames := c.mimeType, c.duration, c.frames
	c.mu.Unlock()

	c.chunkMu.Lock()
	if len(c.chunks) == 0 {
		c.chunkMu.Unlock()
		return Artifact{}, false
	}
	blob := bytes.Join(c.chunks, nil)
	c.chunkMu.Unlock()

	return Artifact{
		Data:     encoder.Finalize(mime, blob),
		MimeType: mime,
		Duration: dur,
		Frames:   frames,
	}, true
}
