package main

import "testing"

func feedN(m *silenceMonitor, speech bool, n int) SilenceEvent {
	var last SilenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestSilenceWarnAfter8s(t *testing.T) {
	m := newSilenceMonitor(false)
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Fatalf("expected SilenceWarn at tick 80, got %d", ev)
	}
	if !m.Warned() {
		t.Fatal("monitor should report the warning")
	}
}

func TestSilenceWarnClearsOnSpeech(t *testing.T) {
	m := newSilenceMonitor(false)
	feedN(m, false, 80)

	for i := 0; i < 80; i++ {
		if m.Tick(true) == SilenceWarnClear {
			return
		}
	}
	t.Fatal("expected SilenceWarnClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := newSilenceMonitor(true)
	for i := 0; i < 400; i++ {
		if ev := m.Tick(true); ev != SilenceNone {
			t.Fatalf("unexpected event %d during speech at tick %d", ev, i)
		}
	}
}

func TestRepeatCue(t *testing.T) {
	m := newSilenceMonitor(true)
	feedN(m, false, 80)
	for i := 0; i < 100; i++ {
		if m.Tick(false) == SilenceRepeat {
			return
		}
	}
	t.Fatal("expected SilenceRepeat with auto-stop enabled")
}

func TestAutoStopPriorityOverRepeat(t *testing.T) {
	m := newSilenceMonitor(true)
	for i := 0; i < 400; i++ {
		ev := m.Tick(false)
		if ev == SilenceAutoStop {
			if i != 299 {
				t.Fatalf("auto-stop at tick %d, want 299", i)
			}
			return
		}
		if i >= 299 && ev == SilenceRepeat {
			t.Fatalf("SilenceRepeat fired at tick %d instead of SilenceAutoStop", i)
		}
	}
	t.Fatal("expected SilenceAutoStop within 400 ticks")
}

func TestNoAutoStopWhenDisabled(t *testing.T) {
	m := newSilenceMonitor(false)
	for i := 0; i < 400; i++ {
		switch m.Tick(false) {
		case SilenceAutoStop, SilenceRepeat:
			t.Fatalf("unexpected auto-stop or repeat at tick %d", i)
		}
	}
}

func TestAutoStopPreventedBySpeech(t *testing.T) {
	m := newSilenceMonitor(true)
	for i := 0; i < 500; i++ {
		if m.Tick(i%10 < 7) == SilenceAutoStop {
			t.Fatalf("unexpected auto-stop with speech at tick %d", i)
		}
	}
}

func TestWarnStaysDuringNoise(t *testing.T) {
	m := newSilenceMonitor(false)
	feedN(m, false, 80)

	for i := 0; i < 80; i++ {
		if m.Tick(i%10 == 0) == SilenceWarnClear {
			t.Fatalf("10%% speech cleared the warning at tick %d", i)
		}
	}
}

func TestSilenceReset(t *testing.T) {
	m := newSilenceMonitor(true)
	feedN(m, false, 120)
	m.Reset()
	if m.Warned() {
		t.Fatal("Reset should clear the warning")
	}
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("tick %d after reset: %d", i, ev)
		}
	}
}

func TestHasSpeech(t *testing.T) {
	if hasSpeech(0.001) {
		t.Error("near-silence counted as speech")
	}
	if !hasSpeech(0.3) {
		t.Error("loud level not counted as speech")
	}
}
