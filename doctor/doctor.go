package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"speaksure/analysis"
	"speaksure/audio"
	"speaksure/encoder"
	"speaksure/recorder"
	"speaksure/visualizer"
)

// Check is one diagnostic. Run returns a short human-readable detail line.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

type Result struct {
	Name    string
	Detail  string
	Err     error
	Elapsed time.Duration
}

func (r Result) Passed() bool { return r.Err == nil }

// Execute runs the checks concurrently. Results come back in the order the
// checks were given; one failing check never cancels the others.
func Execute(ctx context.Context, checks []Check) []Result {
	results := make([]Result, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, c := range checks {
		g.Go(func() error {
			start := time.Now()
			detail, err := c.Run(gctx)
			results[i] = Result{Name: c.Name, Detail: detail, Err: err, Elapsed: time.Since(start)}
			return nil
		})
	}
	g.Wait()
	return results
}

// Run executes the checks and writes a report to w. It returns the process
// exit code: 0 when every check passed, 1 otherwise.
func Run(ctx context.Context, w io.Writer, checks []Check) int {
	fmt.Fprintln(w, "speaksure doctor - system diagnostics")
	fmt.Fprintln(w, "=====================================")

	allPass := true
	for i, r := range Execute(ctx, checks) {
		fmt.Fprintf(w, "\n[%d/%d] %s (%dms)\n", i+1, len(checks), r.Name, r.Elapsed.Milliseconds())
		if r.Err != nil {
			allPass = false
			fmt.Fprintf(w, "  FAIL: %v\n", r.Err)
			continue
		}
		fmt.Fprintf(w, "  PASS: %s\n", r.Detail)
	}

	fmt.Fprintln(w)
	if allPass {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintln(w, "Some checks failed. See details above.")
	return 1
}

// LogDir verifies the log directory can be created and written.
func LogDir(dir string) Check {
	return Check{Name: "Log directory", Run: func(context.Context) (string, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		f, err := os.CreateTemp(dir, ".doctor-*")
		if err != nil {
			return "", fmt.Errorf("not writable: %w", err)
		}
		name := f.Name()
		f.Close()
		os.Remove(name)
		return filepath.Clean(dir) + " is writable", nil
	}}
}

// Devices lists the capture devices the platform reports.
func Devices(actx audio.Context) Check {
	return Check{Name: "Audio devices", Run: func(context.Context) (string, error) {
		if actx == nil {
			return "", audio.ErrDeviceUnavailable
		}
		devices, err := actx.Devices()
		if err != nil {
			return "", fmt.Errorf("enumerating devices: %w", err)
		}
		if len(devices) == 0 {
			return "", audio.ErrDeviceUnavailable
		}
		names := make([]string, len(devices))
		for i, d := range devices {
			names[i] = d.Name
			if audio.IsBluetooth(d.Name) {
				names[i] += " (bluetooth, lower quality)"
			}
		}
		return fmt.Sprintf("%d found: %s", len(devices), strings.Join(names, ", ")), nil
	}}
}

// Capture opens a media session for d and reports whether any signal arrived.
// A silent microphone passes with a warning; no buffers at all fails.
func Capture(mgr *audio.Manager, d time.Duration) Check {
	return Check{Name: "Microphone capture", Run: func(ctx context.Context) (string, error) {
		sess, err := mgr.Acquire(ctx)
		if err != nil {
			return "", err
		}
		defer mgr.Release(sess)

		an := visualizer.NewAnalyser()
		var frames atomic.Uint64
		var peak atomic.Uint64
		unsubscribe := sess.Subscribe(func(pcm []byte, n uint32) {
			an.Write(pcm, n)
			frames.Add(uint64(n))
			lvl := uint64(an.Level() * 1e6)
			for {
				cur := peak.Load()
				if lvl <= cur || peak.CompareAndSwap(cur, lvl) {
					break
				}
			}
		})
		defer unsubscribe()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d):
		}

		if frames.Load() == 0 {
			return "", errors.New("no audio received from " + sess.DeviceName)
		}
		level := float64(peak.Load()) / 1e6
		detail := fmt.Sprintf("%s: %d frames, peak level %.3f", sess.DeviceName, frames.Load(), level)
		if level < 0.002 {
			detail += " (no signal, is the microphone muted?)"
		}
		return detail, nil
	}}
}

// Formats reports which of the preferred recording types can be produced.
func Formats(preferred []string) Check {
	return Check{Name: "Recording formats", Run: func(context.Context) (string, error) {
		var parts []string
		for _, p := range preferred {
			state := "unsupported"
			if encoder.IsTypeSupported(p) {
				state = "ok"
			}
			parts = append(parts, p+" "+state)
		}
		return fmt.Sprintf("recording as %s [%s]", recorder.SelectType(preferred), strings.Join(parts, ", ")), nil
	}}
}

type resultsFetcher interface {
	FetchResults(ctx context.Context) ([]analysis.InterviewRecord, *analysis.NetworkMetrics, error)
}

// API checks the analysis service answers the results endpoint.
func API(f resultsFetcher, baseURL string) Check {
	return Check{Name: "Analysis service", Run: func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		recs, m, err := f.FetchResults(ctx)
		if err != nil {
			return "", fmt.Errorf("%s: %w", baseURL, err)
		}
		detail := fmt.Sprintf("%s reachable, %d stored interviews", baseURL, len(recs))
		if m != nil {
			detail += fmt.Sprintf(", %dms", m.Total.Milliseconds())
		}
		return detail, nil
	}}
}

type clipboardAccess interface {
	Available() bool
	Read() (string, error)
	Copy(text string) error
}

// Clipboard copies a marker through the system clipboard, reads it back and
// restores whatever was there before.
func Clipboard(c clipboardAccess) Check {
	return Check{Name: "Clipboard", Run: func(context.Context) (string, error) {
		if !c.Available() {
			return "", errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")
		}
		prev, _ := c.Read()
		defer c.Copy(prev)

		marker := fmt.Sprintf("speaksure-doctor-%d", time.Now().UnixNano())
		if err := c.Copy(marker); err != nil {
			return "", fmt.Errorf("copy: %w", err)
		}
		got, err := c.Read()
		if err != nil {
			return "", fmt.Errorf("read back: %w", err)
		}
		if got != marker {
			return "", errors.New("clipboard did not keep the copied text")
		}
		return "copy and read back work", nil
	}}
}
