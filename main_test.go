package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speaksure/audio"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "speaksure dev\n", out.String())
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"interview", "results", "devices", "doctor", "version"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"config", "logpath", "api"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestSetupAppliesAPIOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPEAKSURE_API_URL", "")
	t.Cleanup(func() { configPath, logPathFlag, apiFlag, appConfig = "", "", "", nil })

	// Flag registration resets the bound globals, so values go in through
	// the flag set after the command is built.
	cmd := newRootCommand()
	pf := cmd.PersistentFlags()
	require.NoError(t, pf.Set("logpath", t.TempDir()))
	require.NoError(t, pf.Set("api", "http://analysis.internal:8080"))

	require.NoError(t, setup(cmd, nil))
	assert.Equal(t, "http://analysis.internal:8080", appConfig.API.BaseURL)

	cmd = newRootCommand()
	require.NoError(t, cmd.PersistentFlags().Set("logpath", t.TempDir()))
	require.NoError(t, cmd.PersistentFlags().Set("api", "not a url"))
	assert.Error(t, setup(cmd, nil))
}

func TestExitCodeError(t *testing.T) {
	err := fmt.Errorf("doctor: %w", &exitCodeError{code: ExitFailed})
	var ec *exitCodeError
	require.True(t, errors.As(err, &ec))
	assert.Equal(t, 1, ec.code)
	assert.Equal(t, "exit status 1", ec.Error())
}

func TestOpenAudioReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.wav")
	pcm := audio.GenTone(440, 16000, 100)
	require.NoError(t, os.WriteFile(path, append(make([]byte, audio.WAVHeaderSize), pcm...), 0o644))

	actx, err := openAudio(path)
	require.NoError(t, err)
	defer actx.Close()

	devices, err := actx.Devices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Fake Microphone", devices[0].Name)

	_, err = openAudio(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorContains(t, err, "loading replay")
}
