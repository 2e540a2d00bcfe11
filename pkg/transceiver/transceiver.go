package transceiver

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/devicehive/devicehive-go/pkg/devlog"
	"github.com/devicehive/devicehive-go/pkg/frame"
)

// ErrSendQueueFull is returned by Send when the outstanding send queue
// has reached its configured limit, so a slow or stalled writer
// applies backpressure instead of growing memory without limit.
var ErrSendQueueFull = errors.New("transceiver: send queue full")

// DefaultMaxQueuedFrames is used when a Transceiver is constructed
// without an explicit queue limit.
const DefaultMaxQueuedFrames = 64

// DefaultReadBufferSize is the chunk size used for each physical read.
const DefaultReadBufferSize = 4096

// maxLoggedFrameBytes bounds how much of a frame's payload is copied
// into a log event; larger frames are truncated.
const maxLoggedFrameBytes = 256

// RecvFunc is invoked once per successfully parsed frame, or once with
// a non-nil err when the stream ends or a read fails. After the error
// call, RecvFunc is never invoked again.
type RecvFunc func(intent int, payload []byte, err error)

// BadChecksumFunc is an optional diagnostic hook invoked when the
// codec reports a checksum mismatch. Bad-checksum frames are never
// delivered to RecvFunc; the transceiver drains past them silently by
// design, but callers can still observe them for logging.
type BadChecksumFunc func()

// sendTask is one outstanding write. payload is retained alongside
// the encoded frame so the log event can carry the same bytes the
// receive side logs.
type sendTask struct {
	intent  int
	data    []byte
	payload []byte
	done    func(error)
}

// Transceiver drives one frame.Codec over one stream: a single
// outstanding read, a FIFO single-writer send queue, and completion
// callbacks posted to the Executor.
type Transceiver struct {
	codec  frame.Codec
	rw     io.ReadWriter
	exec   Executor
	logger devlog.Logger
	connID string

	maxQueued int

	mu          sync.Mutex
	recvBuf     []byte
	recvCB      RecvFunc
	badChecksum BadChecksumFunc
	rxStarted   bool
	rxDone      bool

	sendCh    chan sendTask
	sendQueue int
	txStarted bool
	closed    bool
}

// New creates a Transceiver over rw using codec to frame the stream.
// exec receives every RecvFunc and send-completion callback; it must
// not be nil. maxQueuedFrames bounds the number of outstanding sends;
// 0 selects DefaultMaxQueuedFrames.
func New(codec frame.Codec, rw io.ReadWriter, exec Executor, maxQueuedFrames int) *Transceiver {
	if maxQueuedFrames <= 0 {
		maxQueuedFrames = DefaultMaxQueuedFrames
	}
	return &Transceiver{
		codec:     codec,
		rw:        rw,
		exec:      exec,
		logger:    devlog.NoopLogger{},
		maxQueued: maxQueuedFrames,
		sendCh:    make(chan sendTask, maxQueuedFrames),
	}
}

// SetLogger installs a session logger that receives one Frame event
// per frame sent or received, tagged with connID. Must be called
// before Recv or the first Send.
func (t *Transceiver) SetLogger(logger devlog.Logger, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = devlog.Or(logger)
	t.connID = connID
}

func (t *Transceiver) logFrame(dir devlog.Direction, intent int, payload []byte) {
	data := payload
	truncated := false
	if len(data) > maxLoggedFrameBytes {
		data = data[:maxLoggedFrameBytes]
		truncated = true
	}
	t.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: t.connID,
		Direction:    dir,
		Layer:        devlog.LayerTransport,
		Category:     devlog.CategoryMessage,
		Frame: &devlog.FrameEvent{
			Intent:    intent,
			Size:      len(payload),
			Data:      append([]byte(nil), data...),
			Truncated: truncated,
		},
	})
}

// OnBadChecksum sets the optional diagnostic hook for checksum
// failures. Must be called before Recv.
func (t *Transceiver) OnBadChecksum(fn BadChecksumFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.badChecksum = fn
}

// Recv installs cb as the frame callback and, if this is the first
// call, starts the single read loop. Calling Recv again replaces the
// callback without starting a second loop.
func (t *Transceiver) Recv(cb RecvFunc) {
	t.mu.Lock()
	t.recvCB = cb
	alreadyStarted := t.rxStarted
	t.rxStarted = true
	t.mu.Unlock()

	if !alreadyStarted {
		go t.readLoop()
	}
}

// Send formats (intent, payload) and enqueues it on the FIFO send
// queue, starting the writer goroutine if it is idle. done, if
// non-nil, is posted to the Executor exactly once with the write's
// outcome.
func (t *Transceiver) Send(intent int, payload []byte, done func(error)) error {
	data, err := t.codec.Format(intent, payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return io.ErrClosedPipe
	}
	if t.sendQueue >= t.maxQueued {
		t.mu.Unlock()
		return ErrSendQueueFull
	}
	t.sendQueue++
	started := t.txStarted
	t.txStarted = true
	t.mu.Unlock()

	t.sendCh <- sendTask{intent: intent, data: data, payload: payload, done: done}

	if !started {
		go t.writeLoop()
	}
	return nil
}

// Close marks the transceiver closed. Outstanding reads/writes in
// progress complete or fail on their own; Close does not interrupt
// the underlying rw, since ownership of its lifecycle belongs to the
// caller (e.g. the WebSocket or serial connection wrapper).
func (t *Transceiver) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

func (t *Transceiver) readLoop() {
	buf := make([]byte, DefaultReadBufferSize)
	for {
		n, err := t.rw.Read(buf)
		if n > 0 {
			t.mu.Lock()
			t.recvBuf = append(t.recvBuf, buf[:n]...)
			t.mu.Unlock()
			t.drain()
		}
		if err != nil {
			t.reportReadError(err)
			return
		}
	}
}

// drain repeatedly parses frames out of recvBuf until Incomplete,
// posting each Success frame to the callback and skipping BadChecksum
// frames silently (after the diagnostic hook, if set).
func (t *Transceiver) drain() {
	for {
		t.mu.Lock()
		if t.rxDone || t.recvCB == nil {
			t.mu.Unlock()
			return
		}
		payload, intent, consumed, result := t.codec.Parse(t.recvBuf)
		if consumed > 0 {
			t.recvBuf = append([]byte(nil), t.recvBuf[consumed:]...)
		}
		cb := t.recvCB
		badChecksumHook := t.badChecksum
		t.mu.Unlock()

		switch result {
		case frame.Success:
			t.logFrame(devlog.DirectionIn, intent, payload)
			t.exec.Post(func() { cb(intent, payload, nil) })
		case frame.BadChecksum:
			if badChecksumHook != nil {
				t.exec.Post(badChecksumHook)
			}
		case frame.Incomplete:
			return
		}
	}
}

// reportReadError delivers the terminal read error to the callback
// exactly once; subsequent calls (there should be none, since readLoop
// returns right after) are silently dropped.
func (t *Transceiver) reportReadError(err error) {
	t.mu.Lock()
	if t.rxDone {
		t.mu.Unlock()
		return
	}
	t.rxDone = true
	cb := t.recvCB
	t.mu.Unlock()

	if cb != nil {
		t.exec.Post(func() { cb(0, nil, err) })
	}
}

func (t *Transceiver) writeLoop() {
	for task := range t.sendCh {
		_, err := t.rw.Write(task.data)
		if err == nil {
			t.logFrame(devlog.DirectionOut, task.intent, task.payload)
		}

		t.mu.Lock()
		t.sendQueue--
		empty := t.sendQueue == 0
		if empty {
			t.txStarted = false
		}
		t.mu.Unlock()

		if task.done != nil {
			done := task.done
			t.exec.Post(func() { done(err) })
		}

		if empty {
			return
		}
	}
}
