//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

// one cue at a time; overlapping cues would fight over the device
var playMu sync.Mutex

func play(mono []int16) {
	playMu.Lock()
	defer playMu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	pcm := make([]byte, len(mono)*2)
	for i, s := range mono {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate

	var pos atomic.Int64
	done := make(chan struct{})
	var once sync.Once
	dev, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			p := int(pos.Load())
			n := copy(out, pcm[min(p, len(pcm)):])
			clear(out[n:])
			pos.Add(int64(n))
			if p+n >= len(pcm) {
				once.Do(func() { close(done) })
			}
		},
	})
	if err != nil {
		return
	}
	defer dev.Uninit()
	if err := dev.Start(); err != nil {
		return
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	dev.Stop()
}
