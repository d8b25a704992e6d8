//go:build linux

package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// v4l2Camera holds a video4linux node open for the life of the session.
// Frames are never read; holding the node claims the camera and turns on
// its indicator the way a live video track does.
type v4l2Camera struct {
	f    *os.File
	name string
}

func (c *v4l2Camera) Name() string { return c.name }

func (c *v4l2Camera) Close() { c.f.Close() }

func (p *pulseContext) OpenCamera() (Camera, error) {
	nodes, _ := filepath.Glob("/dev/video*")
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no video devices", ErrDeviceUnavailable)
	}
	sort.Strings(nodes)
	var firstErr error
	for _, node := range nodes {
		f, err := os.OpenFile(node, os.O_RDWR, 0)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return &v4l2Camera{f: f, name: cameraName(node)}, nil
	}
	return nil, firstErr
}

func cameraName(node string) string {
	b, err := os.ReadFile(filepath.Join("/sys/class/video4linux", filepath.Base(node), "name"))
	if err != nil {
		return node
	}
	return strings.TrimSpace(string(b))
}
