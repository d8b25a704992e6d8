package log

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("SPEAKSURE_LOG_PATH", "/tmp/speaksure-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/speaksure-env-log" {
		t.Errorf("got %q, want /tmp/speaksure-env-log", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv("SPEAKSURE_LOG_PATH", "/tmp/from-env")
	got, err := ResolveDir("/tmp/from-flag")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/from-flag" {
		t.Errorf("got %q, want /tmp/from-flag", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("SPEAKSURE_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "speaksure") {
		t.Errorf("default dir %q should mention speaksure", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"diagnostics_log.txt", "answers_log.txt"} {
		path := filepath.Join(tmp, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestTranscript(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Transcript("iid-1", 0, "hello world")

	data, err := os.ReadFile(filepath.Join(tmp, "answers_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, "hello world") {
		t.Errorf("answers_log.txt missing text, got: %q", line)
	}
	// format: "2006-01-02 15:04:05\t[pid]\tinterview\tqN\ttext\n"
	if fields := strings.Split(strings.TrimSuffix(line, "\n"), "\t"); len(fields) != 5 || fields[3] != "q1" {
		t.Errorf("unexpected format: %q", line)
	}
}

func TestEventsReachDiagnostics(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	SessionStart("Ada", "iid-1", 3)
	Answer(AnswerMetrics{InterviewID: "iid-1", QuestionIndex: 2, Score: 4.5, ConnReused: true})
	DeviceEvent("device_acquired", "Fake Microphone")
	SessionEnd(3, 3)
	Warnf("fetch failed: %d", 500)
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"session_start", "candidate=Ada", "answer", "question=3", "conn=reused", "device_acquired", "session_end", "answered=3", "fetch failed: 500"} {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostics log missing %q:\n%s", want, out)
		}
	}
}

func TestCallsBeforeInitAreDropped(t *testing.T) {
	Close()
	Info("dropped")
	Transcript("x", 0, "dropped")
	SessionEnd(0, 0)
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}

func TestResolveDirXDGState(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG layout only applies on unix-likes")
	}
	t.Setenv("SPEAKSURE_LOG_PATH", "")
	t.Setenv("XDG_STATE_HOME", "/var/tmp/state")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/var/tmp/state/speaksure/logs" {
		t.Errorf("got %q", got)
	}

	t.Setenv("XDG_STATE_HOME", "relative/state")
	got, err = ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, filepath.Join(".local", "state", "speaksure", "logs")) {
		t.Errorf("relative XDG_STATE_HOME should be ignored, got %q", got)
	}
}
