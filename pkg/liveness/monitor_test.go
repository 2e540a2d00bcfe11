package liveness

import (
	"context"
	"testing"
	"time"
)

func TestMonitorFailsAfterRetryLimit(t *testing.T) {
	cfg := Config{IdleTimeout: 5 * time.Millisecond, PongTimeout: 5 * time.Millisecond, RetryLimit: 2}

	pings := 0
	failed := make(chan error, 1)
	m := New(cfg, func() error { pings++; return nil }, func(err error) { failed <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	select {
	case err := <-failed:
		if err != ErrDead {
			t.Errorf("err = %v, want ErrDead", err)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor never reported failure")
	}

	if pings < 2 {
		t.Errorf("sendPing called %d times, want at least 2", pings)
	}
}

func TestMonitorActivityResetsIdleTimer(t *testing.T) {
	cfg := Config{IdleTimeout: 20 * time.Millisecond, PongTimeout: 20 * time.Millisecond, RetryLimit: 2}

	failed := make(chan error, 1)
	m := New(cfg, func() error { return nil }, func(err error) { failed <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	stop := time.After(150 * time.Millisecond)
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-time.After(5 * time.Millisecond):
			m.NotifyActivity()
		}
	}

	select {
	case err := <-failed:
		t.Fatalf("monitor reported failure despite steady activity: %v", err)
	default:
	}
}

func TestMonitorDisabledNeverPings(t *testing.T) {
	cfg := Config{Disabled: true, IdleTimeout: time.Millisecond, PongTimeout: time.Millisecond, RetryLimit: 1}

	pings := make(chan struct{}, 1)
	failed := make(chan error, 1)
	m := New(cfg, func() error { pings <- struct{}{}; return nil }, func(err error) { failed <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	select {
	case <-pings:
		t.Fatal("disabled monitor sent a PING")
	case err := <-failed:
		t.Fatalf("disabled monitor reported failure: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitorFailureReportedOnlyOnce(t *testing.T) {
	cfg := Config{IdleTimeout: time.Millisecond, PongTimeout: time.Millisecond, RetryLimit: 1}

	calls := 0
	done := make(chan struct{})
	m := New(cfg, func() error { return nil }, func(error) {
		calls++
		close(done)
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	<-done
	time.Sleep(20 * time.Millisecond) // the run loop has already returned by now
	cancel()

	if calls != 1 {
		t.Errorf("onFail called %d times, want 1", calls)
	}
}
