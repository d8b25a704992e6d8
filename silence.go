package main

import "time"

const (
	tickInterval       = 100 * time.Millisecond
	silenceWarnEvery   = 8 * time.Second
	silenceAutoStopDur = 30 * time.Second
	speechMinRatio     = 0.10
	speechClearRatio   = 0.25 // higher threshold to clear warning (hysteresis)

	// RMS level of the analyser window above which a tick counts as voice.
	speechLevel = 0.02
)

type SilenceEvent int

const (
	SilenceNone      SilenceEvent = iota
	SilenceWarn                   // no voice detected
	SilenceWarnClear              // speech resumed after warning
	SilenceRepeat                 // repeat cue (every 8s)
	SilenceAutoStop               // 30s without voice, stop the recording
)

func hasSpeech(level float64) bool { return level >= speechLevel }

type silenceMonitor struct {
	warnAt   int
	windowSz int
	autoStop bool

	ticks       int
	window      []bool
	speechCount int
	warned      bool
	lastBeep    int
}

func newSilenceMonitor(autoStop bool) *silenceMonitor {
	m := &silenceMonitor{
		warnAt:   int(silenceWarnEvery / tickInterval),
		windowSz: int(silenceAutoStopDur / tickInterval),
		autoStop: autoStop,
	}
	m.window = make([]bool, m.windowSz)
	return m
}

// Reset forgets everything seen so far; called when a new recording starts.
func (m *silenceMonitor) Reset() {
	m.ticks, m.speechCount, m.lastBeep = 0, 0, 0
	m.warned = false
	clear(m.window)
}

func (m *silenceMonitor) Warned() bool { return m.warned }

func (m *silenceMonitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *silenceMonitor) Tick(speech bool) SilenceEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.speechCount--
	}
	m.window[idx] = speech
	if speech {
		m.speechCount++
	}
	m.ticks++

	r := m.ratio(m.warnAt)

	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		m.lastBeep = m.ticks
		return SilenceWarn
	}
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return SilenceWarnClear
	}

	if !m.autoStop {
		return SilenceNone
	}

	// checked before repeat so a dead microphone stops instead of beeping
	if m.ticks >= m.windowSz && float64(m.speechCount)/float64(m.windowSz) < speechMinRatio {
		return SilenceAutoStop
	}

	if m.warned && m.ticks-m.lastBeep >= m.warnAt {
		m.lastBeep = m.ticks
		return SilenceRepeat
	}

	return SilenceNone
}
