package encoder

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

const wavHeaderSize = 44

// WavEncoder streams 16-bit PCM in a RIFF container. While streaming the
// size fields are unknown; Finalize patches them on the assembled blob.
type WavEncoder struct {
	w           io.Writer
	sampleRate  uint32
	started     bool
	closed      bool
	totalFrames uint64
	mu          sync.Mutex
}

func newWav(w io.Writer, sampleRate uint32) Encoder {
	return &WavEncoder{w: w, sampleRate: sampleRate}
}

func (e *WavEncoder) MimeType() string { return "audio/wav" }

func wavHeader(sampleRate uint32, dataSize uint32) []byte {
	buf := make([]byte, wavHeaderSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], dataSize+wavHeaderSize-8)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], Channels)
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataSize)
	return buf
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	if len(block) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("wav encoder closed")
	}

	if !e.started {
		// 0xFFFFFFFF is the conventional "unknown length" marker for streamed WAV.
		if _, err := e.w.Write(wavHeader(e.sampleRate, 0xFFFFFFFF-wavHeaderSize+8)); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
		e.started = true
	}

	data := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("writing wav data: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func patchWavSizes(blob []byte) {
	if len(blob) < wavHeaderSize || string(blob[0:4]) != "RIFF" || string(blob[36:40]) != "data" {
		return
	}
	binary.LittleEndian.PutUint32(blob[4:8], uint32(len(blob)-8))
	binary.LittleEndian.PutUint32(blob[40:44], uint32(len(blob)-wavHeaderSize))
}
