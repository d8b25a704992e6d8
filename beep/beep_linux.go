//go:build linux

package beep

import (
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

func play(mono []int16) {
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	// The default sink is stereo; duplicate each sample into L/R.
	samples := make([]int16, len(mono)*2)
	for i, s := range mono {
		samples[i*2] = s
		samples[i*2+1] = s
	}

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	defer stream.Close()
	stream.Start()
	stream.Drain()
	stream.Stop()
}
