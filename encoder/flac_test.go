package encoder

import (
	"bytes"
	"math"
	"testing"
)

func TestFlacEncoder(t *testing.T) {
	// 1.3s of a 440 Hz tone, so the last block is partial
	samples := make([]int16, SampleRate*13/10)
	for i := range samples {
		samples[i] = int16(12000 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}

	var buf bytes.Buffer
	enc, err := New("audio/flac", &buf, SampleRate)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		block := samples[i:end]
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(len(block))
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}

	flacData := buf.Bytes()
	if len(flacData) < 4 || string(flacData[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	var buf bytes.Buffer
	enc, err := New("audio/flac", &buf, SampleRate)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if buf.Len() != 0 {
		t.Errorf("empty recording wrote %d bytes", buf.Len())
	}
}

func TestFlacEncoderPartialBlock(t *testing.T) {
	var buf bytes.Buffer
	enc, err := New("audio/flac", &buf, SampleRate)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	partial := make([]int16, BlockSize/4)
	for i := range partial {
		partial[i] = int16(i % 1000)
	}

	if err := enc.EncodeBlock(partial); err != nil {
		t.Fatalf("EncodeBlock partial: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != uint64(len(partial)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(partial))
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("fLaC")) {
		t.Error("missing FLAC magic")
	}
}
