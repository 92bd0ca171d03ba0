// Package timeout implements the idle timer that warns and then expires an
// inactive session.
package timeout

import (
	"fmt"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
)

// Defaults applied to non-remembered sessions.
const (
	DefaultTimeout = 30 * time.Minute
	DefaultWarning = 5 * time.Minute
)

// Config configures a Manager. Warning is how long before Timeout the warning
// fires; zero disables the warning.
type Config struct {
	Timeout   time.Duration
	Warning   time.Duration
	OnWarning func(remaining time.Duration)
	OnTimeout func()
}

// Manager is an idle timer. Activity pushes the deadline out; once Timeout of
// uninterrupted idleness elapses OnTimeout fires once and the manager stops.
// Callbacks run on timer goroutines, outside the manager's lock.
type Manager struct {
	cfg     Config
	nowTime func() time.Time

	mu           sync.Mutex
	running      bool
	warned       bool
	generation   uint64
	lastActivity time.Time
	warningTimer *time.Timer
	timeoutTimer *time.Timer
}

// Option configures a Manager.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// New validates cfg and returns a stopped Manager.
func New(cfg Config, options ...Option) (*Manager, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("[timeout.New] timeout must be positive: %w", autherrors.ErrInvalidConfig)
	}
	if cfg.Warning < 0 || cfg.Warning >= cfg.Timeout {
		return nil, fmt.Errorf("[timeout.New] warning must be in [0, timeout): %w", autherrors.ErrInvalidConfig)
	}
	m := &Manager{
		cfg:     cfg,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Start arms the idle timer. Calling Start on a running manager restarts it, so
// there is only ever one live set of timers.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.armLocked()
}

// Stop disarms the timer. It is safe to call any number of times.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.disarmLocked()
}

// Activity records user activity and restarts the idle period. It is a no-op
// when the manager is not running.
func (m *Manager) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.armLocked()
}

// Running reports whether the timer is armed.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Timeout returns the configured idle timeout.
func (m *Manager) Timeout() time.Duration {
	return m.cfg.Timeout
}

// Warning returns the configured warning lead time.
func (m *Manager) Warning() time.Duration {
	return m.cfg.Warning
}

// Remaining returns the idle time left before timeout, or zero when stopped.
func (m *Manager) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return 0
	}
	remaining := m.cfg.Timeout - m.nowTime().Sub(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Manager) armLocked() {
	m.disarmLocked()
	m.generation++
	m.warned = false
	m.lastActivity = m.nowTime()

	gen := m.generation
	if m.cfg.Warning > 0 {
		m.warningTimer = time.AfterFunc(m.cfg.Timeout-m.cfg.Warning, func() { m.fireWarning(gen) })
	}
	m.timeoutTimer = time.AfterFunc(m.cfg.Timeout, func() { m.fireTimeout(gen) })
}

func (m *Manager) disarmLocked() {
	if m.warningTimer != nil {
		m.warningTimer.Stop()
		m.warningTimer = nil
	}
	if m.timeoutTimer != nil {
		m.timeoutTimer.Stop()
		m.timeoutTimer = nil
	}
	// Invalidate callbacks whose timers already fired but have not taken the lock yet.
	m.generation++
}

func (m *Manager) fireWarning(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.generation || m.warned {
		m.mu.Unlock()
		return
	}
	m.warned = true
	onWarning := m.cfg.OnWarning
	m.mu.Unlock()

	if onWarning != nil {
		onWarning(m.cfg.Warning)
	}
}

func (m *Manager) fireTimeout(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.disarmLocked()
	onTimeout := m.cfg.OnTimeout
	m.mu.Unlock()

	if onTimeout != nil {
		onTimeout()
	}
}
