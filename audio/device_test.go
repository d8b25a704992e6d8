package audio

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// keys hands out one keypress per Read, like a raw-mode tty.
type keys [][]byte

func (k *keys) Read(p []byte) (int, error) {
	if len(*k) == 0 {
		return 0, io.EOF
	}
	n := copy(p, (*k)[0])
	*k = (*k)[1:]
	return n, nil
}

var pickerDevices = []DeviceInfo{
	{ID: "0", Name: "Built-in"},
	{ID: "1", Name: "USB Mic"},
	{ID: "2", Name: "AirPods Pro"},
}

func TestPickerStartsOnCurrent(t *testing.T) {
	p := newPicker(pickerDevices, "USB Mic")
	if p.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", p.cursor)
	}
	if newPicker(pickerDevices, "gone").cursor != 0 {
		t.Error("unknown current device should start at the top")
	}
}

func TestRunPicker(t *testing.T) {
	tests := []struct {
		name string
		in   keys
		want string
	}{
		{"enter on first", keys{{'\r'}}, "Built-in"},
		{"arrow down twice", keys{{0x1b, '[', 'B'}, {0x1b, '[', 'B'}, {'\r'}}, "AirPods Pro"},
		{"clamped at bottom", keys{{'j'}, {'j'}, {'j'}, {'j'}, {'\r'}}, "AirPods Pro"},
		{"up past top", keys{{'k'}, {0x1b, '[', 'A'}, {'\r'}}, "Built-in"},
		{"cancel", keys{{'j'}, {'q'}}, ""},
		{"ctrl+c", keys{{3}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			in := tt.in
			got, err := runPicker(newPicker(pickerDevices, ""), &in, &out)
			if err != nil {
				t.Fatalf("runPicker: %v", err)
			}
			name := ""
			if got != nil {
				name = got.Name
			}
			if name != tt.want {
				t.Errorf("picked %q, want %q", name, tt.want)
			}
		})
	}
}

func TestRunPickerInputClosed(t *testing.T) {
	var out bytes.Buffer
	in := keys{{'j'}}
	if _, err := runPicker(newPicker(pickerDevices, ""), &in, &out); err == nil {
		t.Fatal("expected an error once input ends")
	}
}

func TestPickerRenderTagsBluetooth(t *testing.T) {
	var out bytes.Buffer
	newPicker(pickerDevices, "").render(&out)
	lines := strings.Split(out.String(), "\r\n")
	var tagged []string
	for _, l := range lines {
		if strings.Contains(l, "Lower audio quality") {
			tagged = append(tagged, l)
		}
	}
	if len(tagged) != 1 || !strings.Contains(tagged[0], "AirPods Pro") {
		t.Errorf("bluetooth tag lines = %q", tagged)
	}
}

func TestSelectDeviceSingle(t *testing.T) {
	fc := NewFakeContext(nil, false)
	d, err := SelectDevice(fc, "")
	if err != nil || d == nil || d.Name != "Fake Microphone" {
		t.Fatalf("SelectDevice = %v, %v", d, err)
	}
	fc.DeviceList = nil
	if _, err := SelectDevice(fc, ""); err != ErrDeviceUnavailable {
		t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
	}
}
