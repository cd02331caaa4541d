package timer

import (
	"time"
)

// Mode is the countdown phase.
type Mode string

const (
	ModeWork  Mode = "work"
	ModeBreak Mode = "break"
)

const (
	// BreakSeconds is the fixed break length.
	BreakSeconds = 5 * 60

	MinInputMinutes = 1
	MaxInputMinutes = 120

	// DefaultInputMinutes is the work duration before the user edits it.
	DefaultInputMinutes = 25
)

// Effect is a side effect requested by a state transition. The machine
// itself is pure: it never touches storage, notifications or the clock
// beyond the `now` it is handed.
type Effect int

const (
	// EffectSessionCompleted fires when a work countdown reaches zero.
	EffectSessionCompleted Effect = iota
	// EffectSessionAbandoned fires when a running or paused work interval is reset.
	EffectSessionAbandoned
	// EffectNotifyWorkDone requests a best-effort "work is over" notification.
	EffectNotifyWorkDone
	// EffectNotifyBreakDone requests a best-effort "break is over" notification.
	EffectNotifyBreakDone
)

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	Mode         Mode `json:"mode"`
	SecondsLeft  int  `json:"secondsLeft"`
	IsPaused     bool `json:"isPaused"`
	InputMinutes int  `json:"inputMinutes"`
}

// Machine is the work/break countdown state machine. It is not
// goroutine-safe; callers serialize events (the engine holds a mutex).
type Machine struct {
	mode         Mode
	secondsLeft  int
	paused       bool
	inputMinutes int

	// startedAt is the wall time of the first Start of the current work
	// cycle; nil until then and cleared on finalization. Resume after
	// pause keeps the original value.
	startedAt *time.Time
}

// New returns an idle work machine at the default duration.
func New() *Machine {
	return &Machine{
		mode:         ModeWork,
		secondsLeft:  DefaultInputMinutes * 60,
		paused:       true,
		inputMinutes: DefaultInputMinutes,
	}
}

// Snapshot returns the current readable state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Mode:         m.mode,
		SecondsLeft:  m.secondsLeft,
		IsPaused:     m.paused,
		InputMinutes: m.inputMinutes,
	}
}

// StartedAt reports the start of the current work cycle, or nil if the
// timer has not started this cycle.
func (m *Machine) StartedAt() *time.Time {
	return m.startedAt
}

func clampMinutes(minutes int) int {
	if minutes < MinInputMinutes {
		return MinInputMinutes
	}
	if minutes > MaxInputMinutes {
		return MaxInputMinutes
	}
	return minutes
}

// SetDuration sets the work duration in minutes, clamped to [1,120].
// Ignored while the countdown is running: editing a live countdown races
// with tick decrements.
func (m *Machine) SetDuration(minutes int) {
	if !m.paused {
		return
	}
	minutes = clampMinutes(minutes)
	m.inputMinutes = minutes
	m.secondsLeft = minutes * 60
}

// AddMinutes adjusts the work duration by delta minutes (the UI passes
// ±5), clamped to [1,120]. Paused-only. SecondsLeft follows only when
// the cycle has not started yet.
func (m *Machine) AddMinutes(delta int) {
	if !m.paused {
		return
	}
	m.inputMinutes = clampMinutes(m.inputMinutes + delta)
	if m.startedAt == nil {
		m.secondsLeft = m.inputMinutes * 60
	}
}

// Start begins or resumes the countdown. The session start time is
// recorded on the first start of a fresh work cycle, not on resume.
func (m *Machine) Start(now time.Time) {
	if !m.paused {
		return
	}
	if m.mode == ModeWork && m.startedAt == nil {
		t := now
		m.startedAt = &t
	}
	m.paused = false
}

// Pause suspends the countdown without touching secondsLeft.
func (m *Machine) Pause() {
	m.paused = true
}

// Tick advances the countdown by one second. On reaching zero a work
// interval rolls into a running break, and a break rolls back to an idle
// work interval awaiting an explicit Start.
func (m *Machine) Tick(now time.Time) []Effect {
	if m.paused || m.secondsLeft <= 0 {
		return nil
	}
	m.secondsLeft--
	if m.secondsLeft > 0 {
		return nil
	}

	if m.mode == ModeWork {
		m.mode = ModeBreak
		m.secondsLeft = BreakSeconds
		return []Effect{EffectSessionCompleted, EffectNotifyWorkDone}
	}

	m.mode = ModeWork
	m.secondsLeft = m.inputMinutes * 60
	m.paused = true
	return []Effect{EffectNotifyBreakDone}
}

// Reset abandons the current interval and returns to idle at the full
// work duration. A work cycle that had started is finalized with partial
// credit; resetting during break just skips the rest of the break.
func (m *Machine) Reset() []Effect {
	var effects []Effect
	if m.mode == ModeWork && m.startedAt != nil {
		effects = append(effects, EffectSessionAbandoned)
	}
	m.mode = ModeWork
	m.secondsLeft = m.inputMinutes * 60
	m.paused = true
	return effects
}

// ClearCycle forgets the current cycle's start time. The engine calls it
// after the session recorder has consumed the cycle.
func (m *Machine) ClearCycle() {
	m.startedAt = nil
}
