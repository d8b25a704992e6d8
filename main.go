package main

import (
	"errors"
	"fmt"
	"os"
)

const (
	ExitSuccess = 0
	ExitFailed  = 1 // a check or operation reported failure
	ExitError   = 2 // configuration or runtime error
)

// exitCodeError carries a non-zero exit code without an extra message.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	if err := execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitError)
	}
}
