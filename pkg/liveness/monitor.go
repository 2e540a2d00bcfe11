package liveness

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Default timings from the liveness state machine this monitor
// implements.
const (
	DefaultIdleTimeout = 10 * time.Second
	DefaultPongTimeout = 5 * time.Second
	DefaultRetryLimit  = 3
)

// ErrDead is passed to the failure callback once a peer has missed
// RetryLimit consecutive pongs.
var ErrDead = errors.New("liveness: peer did not respond to ping")

// Config configures a Monitor.
type Config struct {
	// Disabled suppresses PING scheduling entirely: Start becomes a
	// no-op, no PING is ever sent, and failure is never reported. The
	// owning service otherwise functions normally.
	Disabled bool

	// IdleTimeout is how long the connection may stay silent before a
	// PING is sent.
	IdleTimeout time.Duration

	// PongTimeout is how long to wait for a PONG after sending a PING.
	PongTimeout time.Duration

	// RetryLimit is the number of consecutive unanswered PINGs
	// tolerated before the monitor reports failure.
	RetryLimit int
}

// DefaultConfig returns the state machine's documented defaults:
// 10s idle timeout, 5s pong timeout, 3 retries.
func DefaultConfig() Config {
	return Config{
		IdleTimeout: DefaultIdleTimeout,
		PongTimeout: DefaultPongTimeout,
		RetryLimit:  DefaultRetryLimit,
	}
}

type state uint8

const (
	stateIdle state = iota
	stateWaitPong
)

// Monitor drives one connection's liveness state machine. Create one
// per connected session; it is not reusable across reconnects.
type Monitor struct {
	cfg      Config
	sendPing func() error
	onFail   func(error)

	activityCh chan struct{}
	stopCh     chan struct{}
	failOnce   sync.Once

	mu      sync.Mutex
	running bool
}

// New creates a Monitor that calls sendPing to emit each PING frame
// and onFail exactly once, with ErrDead, when the peer exhausts
// cfg.RetryLimit. A zero Config selects DefaultConfig.
func New(cfg Config, sendPing func() error, onFail func(error)) *Monitor {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.PongTimeout == 0 {
		cfg.PongTimeout = DefaultPongTimeout
	}
	if cfg.RetryLimit == 0 {
		cfg.RetryLimit = DefaultRetryLimit
	}
	return &Monitor{
		cfg:        cfg,
		sendPing:   sendPing,
		onFail:     onFail,
		activityCh: make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
}

// Start begins the idle timer. Calling Start twice is a no-op, as is
// calling it on a disabled monitor.
func (m *Monitor) Start(ctx context.Context) {
	if m.cfg.Disabled {
		return
	}
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	go m.run(ctx)
}

// Stop halts the monitor without reporting failure. Safe to call more
// than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
}

// NotifyActivity records that a frame (of any kind) was just received,
// resetting the idle timer and returning the state machine to
// IDLE-WAIT regardless of where it currently is.
func (m *Monitor) NotifyActivity() {
	select {
	case m.activityCh <- struct{}{}:
	default:
	}
}

// PongReceived is equivalent to NotifyActivity; a PONG is itself a
// frame and therefore liveness evidence, but it's exposed separately
// so callers can distinguish it in their own logging.
func (m *Monitor) PongReceived() {
	m.NotifyActivity()
}

func (m *Monitor) run(ctx context.Context) {
	timer := time.NewTimer(m.cfg.IdleTimeout)
	defer timer.Stop()

	st := stateIdle
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-m.activityCh:
			drainAndReset(timer, m.cfg.IdleTimeout)
			st = stateIdle
			attempt = 0
		case <-timer.C:
			switch st {
			case stateIdle:
				_ = m.sendPing()
				st = stateWaitPong
				timer.Reset(m.cfg.PongTimeout)
			case stateWaitPong:
				attempt++
				if attempt >= m.cfg.RetryLimit {
					m.fail()
					return
				}
				_ = m.sendPing()
				timer.Reset(m.cfg.PongTimeout)
			}
		}
	}
}

func (m *Monitor) fail() {
	m.failOnce.Do(func() {
		if m.onFail != nil {
			m.onFail(ErrDead)
		}
	})
}

func drainAndReset(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
