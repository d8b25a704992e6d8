package encoder

import (
	"fmt"
	"io"
	"strings"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder streams PCM blocks into a container. Encoded bytes are written to
// the sink handed to New as they become available; Close flushes the tail.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	TotalFrames() uint64
	MimeType() string
}

type factory func(w io.Writer, sampleRate uint32) Encoder

var registry = map[string]factory{
	"audio/wav":   newWav,
	"audio/wave":  newWav,
	"audio/x-wav": newWav,
	"audio/flac":  newFlac,
}

// BaseType strips parameters such as ";codecs=opus" and lowercases.
func BaseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// IsTypeSupported reports whether New can produce the given container.
func IsTypeSupported(mime string) bool {
	_, ok := registry[BaseType(mime)]
	return ok
}

func New(mime string, w io.Writer, sampleRate uint32) (Encoder, error) {
	f, ok := registry[BaseType(mime)]
	if !ok {
		return nil, fmt.Errorf("unsupported capture type %q", mime)
	}
	if sampleRate == 0 {
		sampleRate = SampleRate
	}
	return f(w, sampleRate), nil
}

// Finalize applies container fixups that need the whole stream, such as the
// RIFF sizes of a WAV file. blob is modified in place and returned.
func Finalize(mime string, blob []byte) []byte {
	switch BaseType(mime) {
	case "audio/wav", "audio/wave", "audio/x-wav":
		patchWavSizes(blob)
	}
	return blob
}
