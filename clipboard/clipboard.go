package clipboard

import (
	"errors"

	cb "github.com/atotto/clipboard"
)

// ErrUnavailable is returned when the system has no clipboard utility
// (xclip, xsel, wl-copy, pbcopy...).
var ErrUnavailable = errors.New("clipboard unavailable")

func Available() bool { return !cb.Unsupported }

func Copy(text string) error {
	if cb.Unsupported {
		return ErrUnavailable
	}
	return cb.WriteAll(text)
}

func Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnavailable
	}
	return cb.ReadAll()
}

// System exposes the package functions as a value for callers that take an
// interface.
type System struct{}

func (System) Available() bool        { return Available() }
func (System) Copy(text string) error { return Copy(text) }
func (System) Read() (string, error)  { return Read() }
