package session

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func activeMachine(t *testing.T, clock *fakeClock, target string) *Machine {
	t.Helper()
	m := NewMachine(clock.Now)
	m.SetTarget(target)
	if !m.StartCountdown() {
		t.Fatalf("countdown did not start")
	}
	for m.State() == StateCountdown {
		m.Tick()
	}
	if m.State() != StateActive {
		t.Fatalf("state = %s, want active", m.State())
	}
	return m
}

func TestCountdownSequence(t *testing.T) {
	m := NewMachine(newFakeClock().Now)
	m.SetTarget("abc")
	if !m.StartCountdown() {
		t.Fatalf("countdown did not start")
	}
	want := []int{3, 2, 1, 0}
	for _, v := range want {
		if m.Countdown() != v {
			t.Fatalf("countdown = %d, want %d", m.Countdown(), v)
		}
		m.Tick()
	}
	if m.State() != StateActive {
		t.Fatalf("state = %s, want active", m.State())
	}
}

func TestStartCountdownWithoutTargetIsNoop(t *testing.T) {
	m := NewMachine(newFakeClock().Now)
	if m.StartCountdown() {
		t.Fatalf("countdown started without a target")
	}
	if m.State() != StateIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
}

func TestStartCountdownWhileActiveIsFocusOnly(t *testing.T) {
	clock := newFakeClock()
	m := activeMachine(t, clock, "abc")
	m.Keystroke(KeystrokePrintable)
	m.InputChanged("a")
	if m.StartCountdown() {
		t.Fatalf("re-entrant countdown started")
	}
	if m.State() != StateActive {
		t.Fatalf("state = %s, want active", m.State())
	}
	if m.Input() != "a" || m.Keystrokes() != 1 {
		t.Fatalf("round state was reset by focus request")
	}
}

func TestSetTargetCancelsCountdown(t *testing.T) {
	m := NewMachine(newFakeClock().Now)
	m.SetTarget("abc")
	m.StartCountdown()
	m.SetTarget("xyz")
	if m.State() != StateIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
	if m.Countdown() != -1 {
		t.Fatalf("countdown still running")
	}
}

func TestKeystrokesCountOnlyWhileActive(t *testing.T) {
	clock := newFakeClock()
	m := NewMachine(clock.Now)
	m.SetTarget("ab")
	m.Keystroke(KeystrokePrintable)
	m.StartCountdown()
	m.Keystroke(KeystrokePrintable)
	if m.Keystrokes() != 0 {
		t.Fatalf("keystrokes counted before active: %d", m.Keystrokes())
	}
	for m.State() == StateCountdown {
		m.Tick()
	}
	m.Keystroke(KeystrokePrintable)
	m.Keystroke(KeystrokeEdit)
	m.Keystroke(KeystrokeCommit)
	if m.Keystrokes() != 3 {
		t.Fatalf("keystrokes = %d, want 3", m.Keystrokes())
	}
	m.InputChanged("ab")
	m.Keystroke(KeystrokePrintable)
	if m.Keystrokes() != 3 {
		t.Fatalf("keystrokes counted after completion")
	}
}

func TestJudgmentSpans(t *testing.T) {
	clock := newFakeClock()
	cases := []struct {
		name    string
		input   string
		correct string
		wrong   string
		rest    string
	}{
		{"empty", "", "", "", "こんにちは"},
		{"prefix", "こん", "こん", "", "にちは"},
		{"mismatch", "こアイ", "こ", "アイ", "は"},
		{"full mismatch bounded", "アアアアアアア", "", "アアアアア", ""},
		{"overlong correct prefix", "こんにちはアア", "こんにちは", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := activeMachine(t, clock, "こんにちは")
			m.InputChanged(tc.input)
			j := m.Judgment()
			if j.Correct != tc.correct || j.Wrong != tc.wrong || j.Rest != tc.rest {
				t.Fatalf("judgment = %+v, want {%q %q %q}", j, tc.correct, tc.wrong, tc.rest)
			}
		})
	}
}

func TestCompositionSuspendsJudgment(t *testing.T) {
	clock := newFakeClock()
	m := activeMachine(t, clock, "かな")
	m.InputChanged("か")
	m.CompositionStart()
	m.InputChanged("かn")
	j := m.Judgment()
	if j.Correct != "" || j.Wrong != "" || j.Rest != "かな" {
		t.Fatalf("judgment during composition = %+v, want unjudged target", j)
	}
	if res := m.InputChanged("かな"); res != nil {
		t.Fatalf("completion fired during composition")
	}
	res := m.CompositionEnd("かな")
	if res == nil {
		t.Fatalf("completion did not fire on composition end")
	}
	if m.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", m.State())
	}
}

func TestCompletionSingleEmission(t *testing.T) {
	clock := newFakeClock()
	m := activeMachine(t, clock, "ab")
	m.Keystroke(KeystrokePrintable)
	m.InputChanged("a")
	clock.Advance(2 * time.Second)
	m.Keystroke(KeystrokePrintable)
	res := m.InputChanged("ab")
	if res == nil {
		t.Fatalf("expected a result")
	}
	if res.TypedLength != 2 || res.Keystrokes != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Seconds < 1.999 || res.Seconds > 2.001 {
		t.Fatalf("seconds = %f, want ~2", res.Seconds)
	}
	if again := m.InputChanged("ab"); again != nil {
		t.Fatalf("second result emitted")
	}
}

func TestElapsedLatchedOnFirstNonEmptyInput(t *testing.T) {
	clock := newFakeClock()
	m := activeMachine(t, clock, "ab")
	// Time passing before any input must not count.
	clock.Advance(30 * time.Second)
	m.InputChanged("")
	clock.Advance(10 * time.Second)
	m.InputChanged("a")
	clock.Advance(1 * time.Second)
	res := m.InputChanged("ab")
	if res == nil {
		t.Fatalf("expected a result")
	}
	if res.Seconds < 0.999 || res.Seconds > 1.001 {
		t.Fatalf("seconds = %f, want ~1", res.Seconds)
	}
}

func TestElapsedAndKeystrokeFloors(t *testing.T) {
	clock := newFakeClock()
	m := activeMachine(t, clock, "a")
	res := m.InputChanged("a")
	if res == nil {
		t.Fatalf("expected a result")
	}
	if res.Seconds != 0.001 {
		t.Fatalf("seconds = %f, want floor 0.001", res.Seconds)
	}
	if res.Keystrokes != 1 {
		t.Fatalf("keystrokes = %d, want floor 1", res.Keystrokes)
	}
}

func TestSkipAbortsWithoutResult(t *testing.T) {
	clock := newFakeClock()
	m := activeMachine(t, clock, "abc")
	m.Keystroke(KeystrokePrintable)
	m.InputChanged("a")
	m.Skip()
	if m.State() != StateAborted {
		t.Fatalf("state = %s, want aborted", m.State())
	}
	if m.Keystrokes() != 0 || m.Input() != "" {
		t.Fatalf("round state not cleared on skip")
	}
}
