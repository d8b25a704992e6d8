package audio

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// FindDevice returns the device whose name matches, or nil when absent.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, nil
}

type pickResult int

const (
	pickPending pickResult = iota
	pickChosen
	pickCancelled
)

// picker is the key handling behind SelectDevice, kept apart from the tty.
type picker struct {
	devices []DeviceInfo
	cursor  int
}

func newPicker(devices []DeviceInfo, current string) *picker {
	p := &picker{devices: devices}
	for i, d := range devices {
		if d.Name == current {
			p.cursor = i
			break
		}
	}
	return p
}

func (p *picker) handle(key []byte) pickResult {
	switch {
	case len(key) == 1:
		switch key[0] {
		case '\r', '\n':
			return pickChosen
		case 3, 'q', 0x1b: // ctrl+c, q, bare esc
			return pickCancelled
		case 'j':
			p.move(1)
		case 'k':
			p.move(-1)
		}
	case len(key) == 3 && key[0] == 0x1b && key[1] == '[':
		switch key[2] {
		case 'A':
			p.move(-1)
		case 'B':
			p.move(1)
		}
	}
	return pickPending
}

func (p *picker) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), len(p.devices)-1)
}

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select microphone (↑/↓, Enter to confirm, q to cancel):\r\n\r\n")
	for i, d := range p.devices {
		tag := ""
		if IsBluetooth(d.Name) {
			tag = " \x1b[33m[⚠ Lower audio quality]\x1b[0m"
		}
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, tag)
		} else {
			fmt.Fprintf(w, "    %s%s\r\n", d.Name, tag)
		}
	}
}

// SelectDevice runs an interactive picker on the terminal, starting on the
// device named current. A single device is returned without prompting and a
// cancelled picker returns nil, nil.
func SelectDevice(ctx Context, current string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, ErrDeviceUnavailable
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	return runPicker(newPicker(devices, current), os.Stdin, os.Stdout)
}

func runPicker(p *picker, in io.Reader, out io.Writer) (*DeviceInfo, error) {
	p.render(out)
	buf := make([]byte, 3)
	for {
		n, err := in.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch p.handle(buf[:n]) {
		case pickChosen:
			fmt.Fprint(out, "\r\n")
			return &p.devices[p.cursor], nil
		case pickCancelled:
			fmt.Fprint(out, "\r\n")
			return nil, nil
		}
		fmt.Fprintf(out, "\x1b[%dA", len(p.devices)+2)
		p.render(out)
	}
}
