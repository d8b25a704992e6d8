package encoder

import (
	"fmt"
	"io"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacEncoder writes verbatim FLAC frames. The stream header is emitted with
// the first block so an empty recording produces no output at all.
type FlacEncoder struct {
	w           writerOnly
	sampleRate  uint32
	enc         *flac.Encoder
	totalFrames uint64
	mu          sync.Mutex
}

// writerOnly hides Seek and Close from the flac package so the sink is
// neither rewound nor closed underneath the caller.
type writerOnly struct{ io.Writer }

func newFlac(w io.Writer, sampleRate uint32) Encoder {
	return &FlacEncoder{w: writerOnly{w}, sampleRate: sampleRate}
}

func (e *FlacEncoder) MimeType() string { return "audio/flac" }

func (e *FlacEncoder) open() error {
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    e.sampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	}
	enc, err := flac.NewEncoder(e.w, info)
	if err != nil {
		return fmt.Errorf("creating flac encoder: %w", err)
	}
	e.enc = enc
	return nil
}

func (e *FlacEncoder) EncodeBlock(block []int16) error {
	if len(block) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.enc == nil {
		if err := e.open(); err != nil {
			return err
		}
	}

	samples32 := make([]int32, len(block))
	for i, s := range block {
		samples32[i] = int32(s)
	}

	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred: frame.PredVerbatim,
		},
		Samples:  samples32,
		NSamples: len(block),
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    e.sampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{subframe},
	}

	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *FlacEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.enc == nil {
		return nil
	}
	err := e.enc.Close()
	e.enc = nil
	return err
}

func (e *FlacEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
