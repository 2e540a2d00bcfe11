package transceiver

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/devicehive/devicehive-go/pkg/devlog"
	"github.com/devicehive/devicehive-go/pkg/frame"
)

type pipeRW struct {
	r io.Reader
	w io.Writer
}

func (p pipeRW) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeRW) Write(b []byte) (int, error) { return p.w.Write(b) }

func newLinkedPair() (pipeRW, pipeRW) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return pipeRW{r: ar, w: aw}, pipeRW{r: br, w: bw}
}

func TestTransceiverSendRecvRoundTrip(t *testing.T) {
	a, b := newLinkedPair()
	exec := NewGoroutineExecutor(8)
	defer exec.Close()

	ta := New(frame.SimpleCodec{}, a, exec, 0)
	tb := New(frame.SimpleCodec{}, b, exec, 0)

	received := make(chan int, 1)
	tb.Recv(func(intent int, payload []byte, err error) {
		if err != nil {
			t.Errorf("unexpected recv error: %v", err)
			return
		}
		if string(payload) != "hello" || intent != 42 {
			t.Errorf("got intent=%d payload=%q", intent, payload)
		}
		received <- intent
	})

	sent := make(chan error, 1)
	if err := ta.Send(42, []byte("hello"), func(err error) { sent <- err }); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case err := <-sent:
		if err != nil {
			t.Fatalf("send completion error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for send completion")
	}

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for receive")
	}
}

func TestTransceiverSendQueueFull(t *testing.T) {
	a, _ := newLinkedPair()
	exec := InlineExecutor{}
	tr := New(frame.SimpleCodec{}, a, exec, 1)

	// The writer goroutine will block on the first Write since nothing
	// reads from the pipe's other end, so the queue fills immediately.
	if err := tr.Send(1, []byte("a"), nil); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := tr.Send(2, []byte("b"), nil); err != ErrSendQueueFull {
		t.Fatalf("second Send err = %v, want ErrSendQueueFull", err)
	}
}

func TestTransceiverBadChecksumNeverReachesCallback(t *testing.T) {
	a, b := newLinkedPair()
	exec := NewGoroutineExecutor(8)
	defer exec.Close()

	ta := New(frame.SimpleCodec{}, a, exec, 0)
	tb := New(frame.SimpleCodec{}, b, exec, 0)

	badChecksumSeen := make(chan struct{}, 1)
	tb.OnBadChecksum(func() { badChecksumSeen <- struct{}{} })

	good := make(chan struct{}, 1)
	tb.Recv(func(intent int, payload []byte, err error) {
		if err == nil {
			if intent != 2 || string(payload) != "ok" {
				t.Errorf("callback got intent=%d payload=%q, want only the valid frame", intent, payload)
			}
			good <- struct{}{}
		}
	})

	corrupt, _ := frame.SimpleCodec{}.Format(1, []byte("bad"))
	corrupt[len(corrupt)-1] ^= 0xFF
	valid, _ := frame.SimpleCodec{}.Format(2, []byte("ok"))

	go func() {
		_, _ = ta.rw.Write(corrupt)
		_, _ = ta.rw.Write(valid)
	}()

	select {
	case <-badChecksumSeen:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bad checksum hook")
	}

	select {
	case <-good:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subsequent valid frame")
	}
}

type captureLogger struct {
	mu     sync.Mutex
	events []devlog.Event
}

func (c *captureLogger) Log(e devlog.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *captureLogger) snapshot() []devlog.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]devlog.Event(nil), c.events...)
}

func TestTransceiverLogsFramesBothDirections(t *testing.T) {
	a, b := newLinkedPair()
	exec := NewGoroutineExecutor(8)
	defer exec.Close()

	capture := &captureLogger{}
	ta := New(frame.SimpleCodec{}, a, exec, 0)
	ta.SetLogger(capture, "conn-1")
	tb := New(frame.SimpleCodec{}, b, exec, 0)
	tb.SetLogger(capture, "conn-2")

	received := make(chan struct{}, 1)
	tb.Recv(func(intent int, payload []byte, err error) {
		if err == nil {
			received <- struct{}{}
		}
	})

	if err := ta.Send(9, []byte("ping"), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for receive")
	}

	// The sender logs its out event after the write completes, which
	// may land just after the receive callback fires; poll briefly.
	deadline := time.Now().Add(time.Second)
	for {
		var sawOut, sawIn bool
		for _, e := range capture.snapshot() {
			if e.Layer != devlog.LayerTransport || e.Frame == nil {
				continue
			}
			if e.Frame.Intent != 9 || string(e.Frame.Data) != "ping" {
				t.Fatalf("unexpected frame event %+v", e.Frame)
			}
			switch e.Direction {
			case devlog.DirectionOut:
				sawOut = true
			case devlog.DirectionIn:
				sawIn = true
			}
		}
		if sawOut && sawIn {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("missing frame events: out=%v in=%v", sawOut, sawIn)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
