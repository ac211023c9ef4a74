// Package session implements the round lifecycle state machine: countdown,
// live input judgment, completion detection, and skip handling.
package session

import "time"

// State is the round lifecycle phase.
type State int

// Round states.
const (
	StateIdle State = iota
	StateCountdown
	StateActive
	StateCompleted
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCountdown:
		return "countdown"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// KeystrokeKind classifies a physical key event for accounting.
type KeystrokeKind int

// Keystroke classes. All of them count toward the raw keystroke total.
const (
	KeystrokePrintable KeystrokeKind = iota
	KeystrokeEdit
	KeystrokeCommit
)

// Countdown pacing. The driver schedules ticks; the machine only consumes
// them, so the wait stays cancellable.
const (
	CountdownStart    = 3
	CountdownInterval = 700 * time.Millisecond
)

// minElapsedSeconds floors the elapsed time so per-minute rates stay finite.
const minElapsedSeconds = 0.001

// Judgment splits the display into a correct prefix, a mismatched span, and
// the untyped remainder of the target.
type Judgment struct {
	Correct string
	Wrong   string
	Rest    string
}

// Result carries the raw measurements of a completed round.
type Result struct {
	TypedLength int
	Seconds     float64
	Keystrokes  int
}

// Machine owns one round of transcription. It is driven by discrete events
// from a single source and performs no I/O of its own.
type Machine struct {
	now func() time.Time

	state     State
	target    []rune
	input     []rune
	countdown int

	keystrokes   int
	composing    bool
	firstInputAt time.Time
	completed    bool
}

// NewMachine returns an idle machine using the given clock.
func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now, state: StateIdle, countdown: -1}
}

// State returns the current lifecycle phase.
func (m *Machine) State() State {
	return m.state
}

// Target returns the current target text.
func (m *Machine) Target() string {
	return string(m.target)
}

// Input returns the committed input so far.
func (m *Machine) Input() string {
	return string(m.input)
}

// Keystrokes returns the raw keystroke count for the round.
func (m *Machine) Keystrokes() int {
	return m.keystrokes
}

// Composing reports whether a composition span is open.
func (m *Machine) Composing() bool {
	return m.composing
}

// Countdown returns the value to display, or -1 when not counting down.
func (m *Machine) Countdown() int {
	if m.state != StateCountdown {
		return -1
	}
	return m.countdown
}

// SetTarget installs a new passage and forces the machine back to idle,
// clearing the keystroke counter, timer latch, and composition flag. Any
// running countdown is cancelled.
func (m *Machine) SetTarget(text string) {
	m.target = []rune(text)
	m.resetRound()
	m.state = StateIdle
}

// StartCountdown begins the fixed countdown toward the active state. It is
// a no-op without a target, and a focus-only no-op while already active.
// Returns true when a countdown was started.
func (m *Machine) StartCountdown() bool {
	if len(m.target) == 0 {
		return false
	}
	if m.state == StateActive {
		return false
	}
	m.resetRound()
	m.state = StateCountdown
	m.countdown = CountdownStart
	return true
}

// Tick advances the countdown by one step. Input stays disabled until the
// zero tick has been displayed, after which the round becomes active.
func (m *Machine) Tick() {
	if m.state != StateCountdown {
		return
	}
	if m.countdown > 0 {
		m.countdown--
		return
	}
	m.countdown = -1
	m.state = StateActive
}

// Keystroke counts one physical key event. Only active, uncompleted rounds
// accumulate; composition-internal keystrokes still count, which is the
// overcount that diff and eff are designed to surface.
func (m *Machine) Keystroke(KeystrokeKind) {
	if m.state != StateActive || m.completed {
		return
	}
	m.keystrokes++
}

// CompositionStart opens a composition span. Judgment and completion checks
// are suspended until the span ends.
func (m *Machine) CompositionStart() {
	if m.state != StateActive {
		return
	}
	m.composing = true
}

// CompositionEnd closes the composition span and immediately re-judges the
// committed value.
func (m *Machine) CompositionEnd(committed string) *Result {
	if m.state != StateActive {
		return nil
	}
	m.composing = false
	return m.InputChanged(committed)
}

// InputChanged records the committed input value and checks for completion.
// The start timestamp is latched on the first non-empty committed change,
// not on round start. Returns a Result exactly once, on the transition to
// the completed state.
func (m *Machine) InputChanged(committed string) *Result {
	if m.state != StateActive || m.completed {
		return nil
	}
	m.input = []rune(committed)
	if m.composing {
		return nil
	}
	if len(m.input) > 0 && m.firstInputAt.IsZero() {
		m.firstInputAt = m.now()
	}
	if string(m.input) != string(m.target) {
		return nil
	}
	m.completed = true
	m.state = StateCompleted
	seconds := m.now().Sub(m.firstInputAt).Seconds()
	if seconds < minElapsedSeconds {
		seconds = minElapsedSeconds
	}
	keystrokes := m.keystrokes
	if keystrokes < 1 {
		keystrokes = 1
	}
	return &Result{
		TypedLength: len(m.target),
		Seconds:     seconds,
		Keystrokes:  keystrokes,
	}
}

// Skip aborts the round without recording anything. The caller requests the
// next passage.
func (m *Machine) Skip() {
	m.resetRound()
	m.state = StateAborted
}

// Judgment computes the display spans for the committed input. While a
// composition span is open (or the round is not active) the target renders
// unjudged.
func (m *Machine) Judgment() Judgment {
	if m.composing || (m.state != StateActive && m.state != StateCompleted) {
		return Judgment{Rest: string(m.target)}
	}
	div := 0
	for div < len(m.input) && div < len(m.target) && m.input[div] == m.target[div] {
		div++
	}
	correct := string(m.target[:div])
	wrongEnd := len(m.input)
	if len(m.target) < wrongEnd {
		wrongEnd = len(m.target)
	}
	wrong := ""
	if div < wrongEnd {
		wrong = string(m.input[div:wrongEnd])
	}
	restStart := div + len([]rune(wrong))
	rest := ""
	if restStart < len(m.target) {
		rest = string(m.target[restStart:])
	}
	return Judgment{Correct: correct, Wrong: wrong, Rest: rest}
}

func (m *Machine) resetRound() {
	m.input = nil
	m.keystrokes = 0
	m.composing = false
	m.firstInputAt = time.Time{}
	m.completed = false
	m.countdown = -1
}
