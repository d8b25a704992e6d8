//go:build !windows

package log

import (
	"os"
	"path/filepath"
	"runtime"
)

// getDefaultDir puts session logs where the platform keeps app state:
// ~/Library/Logs on macOS, $XDG_STATE_HOME (or ~/.local/state) elsewhere.
func getDefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", appName), nil
	}
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" || !filepath.IsAbs(state) {
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, appName, "logs"), nil
}
