package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const appName = "speaksure"

var (
	diagLog     zerolog.Logger
	diagFile    *os.File
	answersFile *os.File
	logMu       sync.Mutex
	logReady    atomic.Bool
	pid         int
	dir         string
)

// AnswerMetrics describes one uploaded answer.
type AnswerMetrics struct {
	InterviewID   string
	QuestionIndex int
	Format        string
	AudioLengthS  float64
	SizeKB        float64
	EncodeTimeMs  float64
	Score         float64
	Words         int
	SpeechRateWPM float64
	Findings      int
	DNSTimeMs     float64
	TCPTimeMs     float64
	TLSTimeMs     float64
	ServerTimeMs  float64
	TotalTimeMs   float64
	ConnReused    bool
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: SPEAKSURE_LOG_PATH environment variable
	if envPath := os.Getenv("SPEAKSURE_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	answersPath := filepath.Join(dir, "answers_log.txt")
	answersFile, err = os.OpenFile(answersPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady.Store(true)
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	logReady.Store(false)
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if answersFile != nil {
		answersFile.Close()
		answersFile = nil
	}
}

func Info(msg string) {
	if logReady.Load() {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady.Load() {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady.Load() {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady.Load() {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady.Load() {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(candidate, interviewID string, questions int) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Str("candidate", candidate).
		Str("interview_id", interviewID).
		Int("questions", questions).
		Msg("session_start")
}

func SessionEnd(answered, total int) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Int("answered", answered).
		Int("total", total).
		Msg("session_end")
}

func DeviceEvent(event, device string) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Str("device", device).
		Msg(event)
}

func Answer(m AnswerMetrics) {
	if !logReady.Load() {
		return
	}

	connStatus := "new"
	if m.ConnReused {
		connStatus = "reused"
	}

	diagLog.Info().
		Str("interview_id", m.InterviewID).
		Int("question", m.QuestionIndex+1).
		Str("format", m.Format).
		Str("conn", connStatus).
		Float64("audio_s", m.AudioLengthS).
		Float64("size_kb", m.SizeKB).
		Float64("encode_ms", m.EncodeTimeMs).
		Float64("score", m.Score).
		Int("words", m.Words).
		Float64("wpm", m.SpeechRateWPM).
		Int("findings", m.Findings).
		Float64("dns_ms", m.DNSTimeMs).
		Float64("tcp_ms", m.TCPTimeMs).
		Float64("tls_ms", m.TLSTimeMs).
		Float64("server_ms", m.ServerTimeMs).
		Float64("total_ms", m.TotalTimeMs).
		Msg("answer")
}

// Transcript appends one answer transcript to answers_log.txt.
func Transcript(interviewID string, questionIndex int, text string) {
	if !logReady.Load() {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if answersFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\tq%d\t%s\n",
		time.Now().Format("2006-01-02 15:04:05"), pid, interviewID, questionIndex+1, text)
	answersFile.WriteString(line)
}
