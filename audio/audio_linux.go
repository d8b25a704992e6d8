//go:build linux

package audio

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Sink monitors show up as sources but only ever carry playback.
const monitorSuffix = ".monitor"

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("speaksure"))
	if err != nil {
		return nil, fmt.Errorf("%w: pulse: %v", ErrDeviceUnavailable, err)
	}
	return &pulseContext{client: c}, nil
}

// Devices lists microphones with the server default first.
func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	defaultID := ""
	if def, err := p.client.DefaultSource(); err == nil && def != nil {
		defaultID = def.ID()
	}

	var devices []DeviceInfo
	for _, s := range sources {
		if strings.HasSuffix(s.ID(), monitorSuffix) {
			continue
		}
		d := DeviceInfo{ID: s.ID(), Name: s.Name()}
		if s.ID() == defaultID {
			devices = append([]DeviceInfo{d}, devices...)
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// NewCapture resolves the source up front so a device that vanished between
// enumeration and acquisition fails here rather than mid-interview.
func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	c := &pulseCapture{client: p.client, device: device, config: config}
	if device == nil {
		return c, nil
	}
	source, err := p.client.SourceByID(device.ID)
	if err != nil || source == nil {
		return nil, fmt.Errorf("%w: source %q is gone", ErrDeviceUnavailable, device.Name)
	}
	c.source = source
	return c, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseCapture struct {
	client   *pulse.Client
	device   *DeviceInfo
	source   *pulse.Source
	config   CaptureConfig
	callback atomic.Pointer[DataCallback]

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (c *pulseCapture) channels() int {
	if c.config.Channels == 2 {
		return 2
	}
	return 1
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}

	ch := c.channels()
	writer := pulse.Int16Writer(func(buf []int16) (int, error) {
		cb := c.callback.Load()
		if cb == nil || len(buf) == 0 {
			return len(buf), nil
		}
		// Subscribers may hold on to the slice, so each period gets its own.
		data := make([]byte, len(buf)*2)
		for i, s := range buf {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
		}
		(*cb)(data, uint32(len(buf)/ch))
		return len(buf), nil
	})

	var layout pulse.RecordOption = pulse.RecordMono
	volumes := proto.ChannelVolumes{uint32(proto.VolumeNorm)}
	if ch == 2 {
		layout = pulse.RecordStereo
		volumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
	}
	opts := []pulse.RecordOption{
		layout,
		pulse.RecordSampleRate(int(c.config.SampleRate)),
		pulse.RecordLatency(0.05),
		pulse.RecordMediaName("interview answer"),
		pulse.RecordRawOption(func(r *proto.CreateRecordStream) {
			r.ChannelVolumes = volumes
		}),
	}
	if c.source != nil {
		opts = append(opts, pulse.RecordSource(c.source))
	}

	stream, err := c.client.NewRecord(writer, opts...)
	if err != nil {
		return fmt.Errorf("pulse record: %w", err)
	}

	stop, done := make(chan struct{}), make(chan struct{})
	c.stop, c.done = stop, done
	go func() {
		defer close(done)
		stream.Start()
		<-stop
		stream.Stop()
		stream.Close()
	}()
	return nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop, c.done = nil, nil
}

func (c *pulseCapture) Close() {
	c.Stop()
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *pulseCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *pulseCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
