//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return &malgoContext{ctx: ctx}, nil
}

// Devices lists capture devices, default first.
func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(infos))
	for _, d := range infos {
		info := DeviceInfo{ID: hex.EncodeToString(d.ID.Pointer()[:]), Name: d.Name()}
		if d.IsDefault != 0 {
			devices = append([]DeviceInfo{info}, devices...)
			continue
		}
		devices = append(devices, info)
	}
	return devices, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = max(config.Channels, 1)
	cfg.SampleRate = config.SampleRate

	if device != nil {
		raw, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad device id %q", ErrDeviceUnavailable, device.ID)
		}
		var id malgo.DeviceID
		copy(id[:], raw)
		cfg.Capture.DeviceID = id.Pointer()
	}

	c := &malgoCapture{device: device}
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, frames uint32) {
			cb := c.callback.Load()
			if cb == nil || len(in) == 0 {
				return
			}
			// miniaudio reuses its period buffer; subscribers keep slices.
			data := make([]byte, len(in))
			copy(data, in)
			(*cb)(data, frames)
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, err
	}
	c.dev = dev
	return c, nil
}

func (m *malgoContext) Close() {
	_ = m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	dev      *malgo.Device
	device   *DeviceInfo
	callback atomic.Pointer[DataCallback]

	closeOnce sync.Once
}

func (c *malgoCapture) Start() error {
	if err := c.dev.Start(); err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}
	return nil
}

func (c *malgoCapture) Stop() {
	if c.dev.IsStarted() {
		_ = c.dev.Stop()
	}
}

func (c *malgoCapture) Close() {
	c.closeOnce.Do(c.dev.Uninit)
}

func (c *malgoCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *malgoCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *malgoCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
