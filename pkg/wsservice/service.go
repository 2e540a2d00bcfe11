package wsservice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/devicehive/devicehive-go/pkg/correlator"
	"github.com/devicehive/devicehive-go/pkg/devicehive"
	"github.com/devicehive/devicehive-go/pkg/devlog"
	"github.com/devicehive/devicehive-go/pkg/liveness"
	"github.com/devicehive/devicehive-go/pkg/model"
)

// Service implements devicehive.DeviceService over one WebSocket
// connection, dispatching every action through a Correlator and
// guarding the peer's liveness with pkg/liveness.
type Service struct {
	cfg    Config
	logger devlog.Logger

	corr    *correlator.Correlator
	devices *deviceSet

	connMu   sync.Mutex
	conn     *websocket.Conn
	connID   string
	monitor  *liveness.Monitor
	readDone chan struct{}
	writeMu  sync.Mutex

	closeOnce sync.Once
}

var _ devicehive.DeviceService = (*Service)(nil)

// reply is the payload every correlator continuation for this service
// receives: the decoded envelope plus a synthesized protocol fault
// when the server reported a non-success status.
type reply struct {
	env   *inbound
	fault error
}

// New creates a Service. Connect must be called before any other
// method.
func New(cfg Config) *Service {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Service{
		cfg:     cfg,
		logger:  devlog.Or(cfg.Logger),
		corr:    correlator.New(),
		devices: newDeviceSet(),
	}
}

// keyOf returns dev's own key, falling back to the service-wide
// credential when the device carries none.
func (s *Service) keyOf(dev *model.Device) string {
	if dev.Key != "" {
		return dev.Key
	}
	return s.cfg.DeviceKey
}

// Connect dials the WebSocket endpoint once and starts the liveness
// monitor. There is no automatic reconnect: reconnection is always a
// fresh Connect call that the application orchestrates itself (no
// implicit resubscribe).
func (s *Service) Connect(ctx context.Context) error {
	err := s.dial(ctx)
	if s.cfg.Events.OnConnected != nil {
		s.cfg.Events.OnConnected(err)
	}
	return err
}

// dial establishes the socket and starts its reader and liveness
// monitor. Each call replaces any prior connection.
func (s *Service) dial(ctx context.Context) error {
	conn, _, err := s.cfg.dialer().DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	connID := uuid.New().String()
	done := make(chan struct{})
	monitor := liveness.New(s.cfg.Liveness, s.sendPing, s.onLivenessFail)

	s.connMu.Lock()
	s.conn = conn
	s.connID = connID
	s.monitor = monitor
	s.readDone = done
	s.connMu.Unlock()

	s.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    devlog.DirectionOut,
		Layer:        devlog.LayerWebSocket,
		Category:     devlog.CategoryState,
		StateChange: &devlog.StateChangeEvent{
			Entity:   devlog.StateEntityConnection,
			NewState: "CONNECTED",
		},
	})

	conn.SetPongHandler(func(string) error {
		monitor.PongReceived()
		s.logger.Log(devlog.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    devlog.DirectionIn,
			Layer:        devlog.LayerWebSocket,
			Category:     devlog.CategoryControl,
			Control:      &devlog.ControlEvent{Type: devlog.ControlPong},
		})
		return nil
	})

	monitor.Start(context.Background())
	go s.readLoop(conn, connID, done)
	return nil
}

func (s *Service) sendPing() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.connMu.Lock()
	conn := s.conn
	connID := s.connID
	s.connMu.Unlock()
	if conn == nil {
		return fmt.Errorf("wsservice: no connection")
	}
	s.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    devlog.DirectionOut,
		Layer:        devlog.LayerWebSocket,
		Category:     devlog.CategoryControl,
		Control:      &devlog.ControlEvent{Type: devlog.ControlPing},
	})
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout))
}

func (s *Service) onLivenessFail(err error) {
	s.connMu.Lock()
	conn := s.conn
	connID := s.connID
	s.connMu.Unlock()

	s.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        devlog.LayerWebSocket,
		Category:     devlog.CategoryError,
		Error:        &devlog.ErrorEventData{Layer: devlog.LayerWebSocket, Message: err.Error(), Context: "liveness"},
	})
	if s.cfg.Events.OnActionFailed != nil {
		s.cfg.Events.OnActionFailed(devicehive.NewFault("liveness", devicehive.Timeout, err))
	}
	if conn != nil {
		conn.Close()
	}
}

// readLoop decodes one action per iteration and dispatches it until
// the connection fails.
func (s *Service) readLoop(conn *websocket.Conn, connID string, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.corr.CancelAll()
			s.logger.Log(devlog.Event{
				Timestamp:    time.Now(),
				ConnectionID: connID,
				Layer:        devlog.LayerWebSocket,
				Category:     devlog.CategoryError,
				Error:        &devlog.ErrorEventData{Layer: devlog.LayerWebSocket, Message: err.Error(), Context: "read"},
			})
			if s.cfg.Events.OnActionFailed != nil {
				s.cfg.Events.OnActionFailed(devicehive.NewFault("read", devicehive.TransportError, err))
			}
			return
		}
		s.connMu.Lock()
		monitor := s.monitor
		s.connMu.Unlock()
		if monitor != nil {
			monitor.NotifyActivity()
		}

		var msg inbound
		if jsonErr := json.Unmarshal(data, &msg); jsonErr != nil {
			continue // malformed frame; not attributable to any requestId
		}
		s.logger.Log(devlog.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    devlog.DirectionIn,
			Layer:        devlog.LayerWebSocket,
			Category:     devlog.CategoryMessage,
			Action:       &devlog.ActionEvent{Name: msg.Action, RequestID: msg.RequestID, Status: msg.Status},
		})
		s.dispatch(&msg)
	}
}

func (s *Service) dispatch(msg *inbound) {
	if msg.Action == actionCommandInsert {
		dev, ok := s.devices.lookup(msg.DeviceGUID)
		if !ok {
			return // untracked device; not ours to deliver
		}
		if msg.Command != nil && s.cfg.Events.OnInsertCommand != nil {
			s.cfg.Events.OnInsertCommand(dev, *msg.Command)
		}
		return
	}

	var fault error
	if msg.Status != "" && msg.Status != statusSuccess {
		fault = devicehive.NewFault(msg.Action, devicehive.ProtocolFault, fmt.Errorf("status %q", msg.Status))
	}
	s.corr.Resolve(uint32(msg.RequestID), reply{env: msg, fault: fault})
}

func (s *Service) send(msg outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	s.connMu.Lock()
	conn := s.conn
	connID := s.connID
	s.connMu.Unlock()
	if conn == nil {
		return devicehive.NewFault(msg.Action, devicehive.TransportError, fmt.Errorf("not connected"))
	}
	s.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    devlog.DirectionOut,
		Layer:        devlog.LayerWebSocket,
		Category:     devlog.CategoryMessage,
		Action:       &devlog.ActionEvent{Name: msg.Action, RequestID: msg.RequestID},
	})
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// call allocates a request ID, sends build(id), and waits for the
// matching reply or ctx's deadline, falling back to cfg.CallTimeout.
func (s *Service) call(ctx context.Context, action string, build func(id uint64) outbound) (*inbound, error) {
	resultCh := make(chan reply, 1)
	id, err := s.corr.Allocate(func(payload any, cancelErr error) {
		if cancelErr != nil {
			resultCh <- reply{fault: devicehive.NewFault(action, devicehive.Cancelled, cancelErr)}
			return
		}
		resultCh <- payload.(reply)
	})
	if err != nil {
		return nil, devicehive.NewFault(action, devicehive.Cancelled, err)
	}

	if sendErr := s.send(build(uint64(id))); sendErr != nil {
		s.corr.Forget(id)
		return nil, devicehive.NewFault(action, devicehive.TransportError, sendErr)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	select {
	case r := <-resultCh:
		return r.env, r.fault
	case <-ctx.Done():
		s.corr.Forget(id)
		return nil, devicehive.NewFault(action, devicehive.Timeout, ctx.Err())
	}
}

// ServerInfo fetches the server's identity.
func (s *Service) ServerInfo(ctx context.Context) (*model.ServerInfo, error) {
	env, err := s.call(ctx, actionServerInfo, func(id uint64) outbound {
		return outbound{Action: actionServerInfo, RequestID: id}
	})
	if err != nil {
		return nil, err
	}
	if env.Info == nil {
		return nil, devicehive.NewFault(actionServerInfo, devicehive.ValidationError, fmt.Errorf("reply carries no info object"))
	}
	return env.Info.toModel(), nil
}

// Register sends dev's full state and absorbs the server's reply.
func (s *Service) Register(ctx context.Context, dev *model.Device) error {
	if dev == nil || dev.ID == "" {
		return devicehive.NewFault(actionDeviceSave, devicehive.ValidationError, fmt.Errorf("device id required"))
	}
	if err := dev.Validate(); err != nil {
		return devicehive.NewFault(actionDeviceSave, devicehive.ValidationError, err)
	}
	_, err := s.call(ctx, actionDeviceSave, func(id uint64) outbound {
		return outbound{
			Action:    actionDeviceSave,
			RequestID: id,
			DeviceID:  dev.ID,
			DeviceKey: s.keyOf(dev),
			Device:    dev,
		}
	})
	if err != nil {
		return err
	}
	s.devices.add(dev)
	return nil
}

// GetDeviceData fetches the server's record for dev and absorbs it
// into dev in place, so every reference the application holds sees
// the refreshed fields.
func (s *Service) GetDeviceData(ctx context.Context, dev *model.Device) error {
	env, err := s.call(ctx, actionDeviceGet, func(id uint64) outbound {
		return outbound{
			Action:    actionDeviceGet,
			RequestID: id,
			DeviceID:  dev.ID,
			DeviceKey: s.keyOf(dev),
		}
	})
	if err != nil {
		return err
	}
	if env.Device == nil {
		return devicehive.NewFault(actionDeviceGet, devicehive.ValidationError, fmt.Errorf("reply carries no device object"))
	}
	dev.Absorb(env.Device)
	s.devices.add(dev)
	return nil
}

// UpdateDeviceData sends dev's populated fields as a partial update,
// reusing the device/save action (the protocol has no separate
// partial-update action over WebSocket).
func (s *Service) UpdateDeviceData(ctx context.Context, dev *model.Device) error {
	_, err := s.call(ctx, actionDeviceSave, func(id uint64) outbound {
		return outbound{
			Action:    actionDeviceSave,
			RequestID: id,
			DeviceID:  dev.ID,
			DeviceKey: s.keyOf(dev),
			Device:    dev,
		}
	})
	return err
}

// Subscribe begins command delivery for dev, tracking dev so inbound
// command/insert actions route back to this same reference.
func (s *Service) Subscribe(ctx context.Context, dev *model.Device, since time.Time) error {
	// Track dev before the request goes out: the server may push a
	// command/insert right behind its subscribe reply, and the read
	// loop routes it before this goroutine resumes.
	prev, wasTracked := s.devices.lookup(dev.ID)
	s.devices.add(dev)
	_, err := s.call(ctx, actionCommandSubscribe, func(id uint64) outbound {
		msg := outbound{
			Action:    actionCommandSubscribe,
			RequestID: id,
			DeviceID:  dev.ID,
			DeviceKey: s.keyOf(dev),
		}
		if !since.IsZero() {
			msg.Timestamp = since.UTC().Format(time.RFC3339Nano)
		}
		return msg
	})
	if err != nil {
		if wasTracked {
			s.devices.add(prev)
		} else {
			s.devices.remove(dev.ID)
		}
		return err
	}
	return nil
}

// Unsubscribe stops command delivery for dev.
func (s *Service) Unsubscribe(ctx context.Context, dev *model.Device) error {
	_, err := s.call(ctx, actionCommandUnsubscribe, func(id uint64) outbound {
		return outbound{
			Action:    actionCommandUnsubscribe,
			RequestID: id,
			DeviceID:  dev.ID,
			DeviceKey: s.keyOf(dev),
		}
	})
	s.devices.remove(dev.ID)
	return err
}

// UpdateCommand reports the outcome of a previously received command.
func (s *Service) UpdateCommand(ctx context.Context, dev *model.Device, commandID int, update model.CommandUpdate) error {
	_, err := s.call(ctx, actionCommandUpdate, func(id uint64) outbound {
		return outbound{
			Action:    actionCommandUpdate,
			RequestID: id,
			DeviceID:  dev.ID,
			DeviceKey: s.keyOf(dev),
			CommandID: commandID,
			Command: &commandUpdate{
				Status: update.Status,
				Result: update.Result,
			},
		}
	})
	return err
}

// InsertNotification pushes a device-originated event to the server.
func (s *Service) InsertNotification(ctx context.Context, dev *model.Device, n model.Notification) error {
	_, err := s.call(ctx, actionNotificationInsert, func(id uint64) outbound {
		return outbound{
			Action:       actionNotificationInsert,
			RequestID:    id,
			DeviceID:     dev.ID,
			DeviceKey:    s.keyOf(dev),
			Notification: &n,
		}
	})
	return err
}

// CancelAll resolves every outstanding request with a Cancelled fault,
// stops the liveness monitor, force-closes the underlying connection,
// and clears the device tracking set. The Service remains usable: a
// fresh Connect establishes a new connection, but the application must
// re-issue any subscriptions itself (no implicit resubscribe).
func (s *Service) CancelAll() {
	s.corr.CancelAll()
	s.devices.clear()

	s.connMu.Lock()
	conn := s.conn
	connID := s.connID
	monitor := s.monitor
	s.conn = nil
	s.monitor = nil
	s.connMu.Unlock()

	s.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        devlog.LayerWebSocket,
		Category:     devlog.CategoryState,
		StateChange: &devlog.StateChangeEvent{
			Entity:   devlog.StateEntityConnection,
			OldState: "CONNECTED",
			NewState: "CANCELLED",
		},
	})

	if monitor != nil {
		monitor.Stop()
	}
	if conn != nil {
		conn.Close()
	}
}

// Close tears down the connection and stops the liveness monitor. A
// closed Service cannot be reused.
func (s *Service) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.corr.Close()
		s.devices.clear()

		s.connMu.Lock()
		conn := s.conn
		connID := s.connID
		monitor := s.monitor
		done := s.readDone
		s.connMu.Unlock()

		s.logger.Log(devlog.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Layer:        devlog.LayerWebSocket,
			Category:     devlog.CategoryState,
			StateChange: &devlog.StateChangeEvent{
				Entity:   devlog.StateEntityConnection,
				NewState: "CLOSED",
			},
		})

		if monitor != nil {
			monitor.Stop()
		}
		if conn != nil {
			closeErr = conn.Close()
		}
		if done != nil {
			select {
			case <-done:
			case <-time.After(time.Second):
			}
		}
	})
	return closeErr
}
