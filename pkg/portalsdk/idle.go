package portalsdk

import (
	"sync"
	"time"
)

// Default inactivity parameters: five minutes of silence logs the session
// out, and the countdown indicator stays hidden for the first two seconds
// after any activity so it does not flicker during normal interaction.
const (
	DefaultIdleWindow = 300 * time.Second
	DefaultGraceDelay = 2 * time.Second
)

// IdleConfig configures an IdleMonitor.
type IdleConfig struct {
	// Window is how long without activity before the session expires.
	// Zero means DefaultIdleWindow.
	Window time.Duration

	// GraceDelay is how long after the last activity the countdown stays
	// invisible. Zero means DefaultGraceDelay.
	GraceDelay time.Duration

	// OnExpire is invoked exactly once when the window elapses, after the
	// session has been cleared. Optional.
	OnExpire func()
}

// IdleMonitor expires a session after a window with no observed activity.
// Touch resets the countdown to the full window. Expiry happens exactly once
// per monitor; a monitor is installed per session lifetime and a new session
// must install its own.
type IdleMonitor struct {
	window     time.Duration
	graceDelay time.Duration
	onExpire   func()

	mu           sync.Mutex
	timer        *time.Timer
	lastActivity time.Time
	started      bool
	expired      bool
	stopped      bool

	// clearSession is wired by Session.InstallIdleMonitor.
	clearSession func()
}

// NewIdleMonitor creates a monitor. It does nothing until installed on a
// session.
func NewIdleMonitor(cfg IdleConfig) *IdleMonitor {
	if cfg.Window <= 0 {
		cfg.Window = DefaultIdleWindow
	}
	if cfg.GraceDelay <= 0 {
		cfg.GraceDelay = DefaultGraceDelay
	}
	return &IdleMonitor{
		window:     cfg.Window,
		graceDelay: cfg.GraceDelay,
		onExpire:   cfg.OnExpire,
	}
}

func (m *IdleMonitor) start(clearSession func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true
	m.clearSession = clearSession
	m.lastActivity = time.Now()
	m.timer = time.AfterFunc(m.window, m.expire)
}

// Touch records activity and resets the countdown to the full window. After
// expiry or Stop it does nothing; an expired monitor never comes back.
func (m *IdleMonitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.expired || m.stopped {
		return
	}
	m.lastActivity = time.Now()
	m.timer.Reset(m.window)
}

// Stop halts the monitor without expiring the session. Idempotent.
func (m *IdleMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
	}
}

// Expired reports whether the monitor has fired.
func (m *IdleMonitor) Expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired
}

// Remaining reports how much of the window is left.
func (m *IdleMonitor) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.expired || m.stopped {
		return 0
	}
	remaining := m.window - time.Since(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CountdownVisible reports whether a countdown indicator should render:
// only after the grace delay since the last activity, so brief pauses in
// normal interaction do not flash a warning.
func (m *IdleMonitor) CountdownVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.expired || m.stopped {
		return false
	}
	return time.Since(m.lastActivity) >= m.graceDelay
}

// expire fires at most once per monitor.
func (m *IdleMonitor) expire() {
	m.mu.Lock()
	if m.expired || m.stopped {
		m.mu.Unlock()
		return
	}
	m.expired = true
	clear := m.clearSession
	notify := m.onExpire
	m.mu.Unlock()

	if clear != nil {
		clear()
	}
	if notify != nil {
		notify()
	}
}
