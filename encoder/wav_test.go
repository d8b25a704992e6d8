package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestIsTypeSupported(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"audio/wav", true},
		{"audio/WAV", true},
		{"audio/x-wav", true},
		{"audio/flac", true},
		{"audio/webm;codecs=opus", false},
		{"video/webm", false},
		{"audio/mp4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTypeSupported(tt.mime); got != tt.want {
			t.Errorf("IsTypeSupported(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestNewUnsupported(t *testing.T) {
	if _, err := New("audio/ogg", &bytes.Buffer{}, 0); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestWavStreamAndFinalize(t *testing.T) {
	var chunks [][]byte
	sink := writerFunc(func(p []byte) (int, error) {
		chunks = append(chunks, append([]byte(nil), p...))
		return len(p), nil
	})

	enc, err := New("audio/wav", sink, 16000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block := make([]int16, 1000)
	for i := range block {
		block[i] = int16(i)
	}
	for range 3 {
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := enc.EncodeBlock(block); err == nil {
		t.Error("EncodeBlock after Close should fail")
	}

	// header + 3 data writes
	if len(chunks) != 4 {
		t.Fatalf("chunks = %d, want 4", len(chunks))
	}

	blob := Finalize("audio/wav", bytes.Join(chunks, nil))
	if string(blob[0:4]) != "RIFF" || string(blob[8:12]) != "WAVE" {
		t.Fatal("bad RIFF magic")
	}
	wantData := uint32(3 * 1000 * 2)
	if got := binary.LittleEndian.Uint32(blob[40:44]); got != wantData {
		t.Errorf("data size = %d, want %d", got, wantData)
	}
	if got := binary.LittleEndian.Uint32(blob[4:8]); got != wantData+36 {
		t.Errorf("riff size = %d, want %d", got, wantData+36)
	}
	if got := binary.LittleEndian.Uint32(blob[24:28]); got != 16000 {
		t.Errorf("sample rate = %d", got)
	}
	if enc.TotalFrames() != 3000 {
		t.Errorf("TotalFrames = %d", enc.TotalFrames())
	}
}

func TestWavEmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	enc, _ := New("audio/wav", &buf, 0)
	enc.EncodeBlock(nil)
	enc.Close()
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for empty recording", buf.Len())
	}
}

func TestFinalizeIgnoresShortAndForeignBlobs(t *testing.T) {
	short := []byte("RIFF")
	if got := Finalize("audio/wav", short); !bytes.Equal(got, []byte("RIFF")) {
		t.Error("short blob modified")
	}
	flacBlob := []byte("fLaC....")
	if got := Finalize("audio/flac", flacBlob); !bytes.Equal(got, []byte("fLaC....")) {
		t.Error("flac blob modified")
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
