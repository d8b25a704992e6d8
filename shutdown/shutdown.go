package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Context returns a context cancelled on the first termination signal, so
// open devices and uploads can be unwound before exit.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// Notify relays termination signals to ch.
func Notify(ch chan<- os.Signal) {
	signal.Notify(ch, signals...)
}
