package httpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/devicehive/devicehive-go/pkg/devicehive"
	"github.com/devicehive/devicehive-go/pkg/devlog"
	"github.com/devicehive/devicehive-go/pkg/model"
)

// Service implements devicehive.DeviceService over REST calls, with
// command subscriptions backed by a long-poll loop per device.
type Service struct {
	cfg    Config
	logger devlog.Logger
	client *http.Client

	pollMu  sync.Mutex
	polls   map[string]context.CancelFunc // lower(deviceID) -> cancel of its poll loop
	closed  bool
	closeWG sync.WaitGroup
}

var _ devicehive.DeviceService = (*Service)(nil)

// New creates a Service from cfg, applying defaults for any zero
// duration fields.
func New(cfg Config) *Service {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.PollRetryDelay <= 0 {
		cfg.PollRetryDelay = DefaultPollRetryDelay
	}
	return &Service{
		cfg:    cfg,
		logger: devlog.Or(cfg.Logger),
		client: &http.Client{Timeout: cfg.RequestTimeout},
		polls:  make(map[string]context.CancelFunc),
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

// Connect verifies the server is reachable by fetching server/info.
func (s *Service) Connect(ctx context.Context) error {
	_, err := s.ServerInfo(ctx)
	if s.cfg.Events.OnConnected != nil {
		s.cfg.Events.OnConnected(err)
	}
	return err
}

// ServerInfo fetches the server's identity.
func (s *Service) ServerInfo(ctx context.Context) (*model.ServerInfo, error) {
	var info model.ServerInfo
	if err := s.do(ctx, http.MethodGet, "/info", "", "", nil, &info); err != nil {
		return nil, devicehive.NewFault("server-info", kindOf(err), err)
	}
	return &info, nil
}

// Register sends dev's full state and absorbs the server's reply.
func (s *Service) Register(ctx context.Context, dev *model.Device) error {
	if dev == nil || dev.ID == "" {
		return devicehive.NewFault("register", devicehive.ValidationError, fmt.Errorf("device id required"))
	}
	if err := dev.Validate(); err != nil {
		return devicehive.NewFault("register", devicehive.ValidationError, err)
	}
	path := "/device/" + dev.ID
	var reply model.Device
	if err := s.do(ctx, http.MethodPut, path, dev.ID, s.keyOf(dev), dev, &reply); err != nil {
		return devicehive.NewFault("register", kindOf(err), err)
	}
	dev.Absorb(&reply)
	return nil
}

// GetDeviceData fetches the server's record for dev and absorbs it
// into dev in place, so every reference the application holds sees
// the refreshed fields.
func (s *Service) GetDeviceData(ctx context.Context, dev *model.Device) error {
	var reply model.Device
	path := "/device/" + dev.ID
	if err := s.do(ctx, http.MethodGet, path, dev.ID, s.keyOf(dev), nil, &reply); err != nil {
		return devicehive.NewFault("get-device-data", kindOf(err), err)
	}
	dev.Absorb(&reply)
	return nil
}

// UpdateDeviceData sends dev's populated fields as a partial update.
func (s *Service) UpdateDeviceData(ctx context.Context, dev *model.Device) error {
	path := "/device/" + dev.ID
	if err := s.do(ctx, http.MethodPut, path, dev.ID, s.keyOf(dev), dev, nil); err != nil {
		return devicehive.NewFault("update-device-data", kindOf(err), err)
	}
	return nil
}

// UpdateCommand reports the outcome of a previously received command.
func (s *Service) UpdateCommand(ctx context.Context, dev *model.Device, commandID int, update model.CommandUpdate) error {
	path := "/device/" + dev.ID + "/command/" + strconv.Itoa(commandID)
	if err := s.do(ctx, http.MethodPut, path, dev.ID, s.keyOf(dev), update, nil); err != nil {
		return devicehive.NewFault("update-command", kindOf(err), err)
	}
	return nil
}

// InsertNotification pushes a device-originated event to the server.
func (s *Service) InsertNotification(ctx context.Context, dev *model.Device, n model.Notification) error {
	path := "/device/" + dev.ID + "/notification"
	if err := s.do(ctx, http.MethodPost, path, dev.ID, s.keyOf(dev), n, nil); err != nil {
		return devicehive.NewFault("insert-notification", kindOf(err), err)
	}
	return nil
}

// Subscribe starts a long-poll loop delivering commands for dev to
// Events.OnInsertCommand, holding dev (non-owning) so every delivery
// hands back the application's own reference. Calling Subscribe again
// for a device already subscribed replaces the prior loop.
func (s *Service) Subscribe(ctx context.Context, dev *model.Device, since time.Time) error {
	key := strings.ToLower(dev.ID)
	s.pollMu.Lock()
	if s.closed {
		s.pollMu.Unlock()
		return devicehive.NewFault("subscribe", devicehive.Cancelled, nil)
	}
	if cancel, ok := s.polls[key]; ok {
		cancel()
	}
	pollCtx, cancel := context.WithCancel(context.Background())
	s.polls[key] = cancel
	s.closeWG.Add(1)
	s.pollMu.Unlock()

	s.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: dev.ID,
		Layer:        devlog.LayerHTTP,
		Category:     devlog.CategoryState,
		StateChange: &devlog.StateChangeEvent{
			Entity:   devlog.StateEntitySubscription,
			NewState: "POLLING",
		},
	})
	go s.pollLoop(pollCtx, dev, since)
	return nil
}

// Unsubscribe stops command delivery for dev.
func (s *Service) Unsubscribe(ctx context.Context, dev *model.Device) error {
	key := strings.ToLower(dev.ID)
	s.pollMu.Lock()
	cancel, ok := s.polls[key]
	if ok {
		delete(s.polls, key)
	}
	s.pollMu.Unlock()
	if ok {
		cancel()
		s.logger.Log(devlog.Event{
			Timestamp:    time.Now(),
			ConnectionID: dev.ID,
			Layer:        devlog.LayerHTTP,
			Category:     devlog.CategoryState,
			StateChange: &devlog.StateChangeEvent{
				Entity:   devlog.StateEntitySubscription,
				OldState: "POLLING",
				NewState: "STOPPED",
			},
		})
	}
	return nil
}

// CancelAll stops every outstanding poll loop. The HTTP transport
// holds no pending request map beyond the poll loops: other calls
// already in flight are not interrupted and complete under their own
// ctx.
func (s *Service) CancelAll() {
	s.pollMu.Lock()
	polls := s.polls
	s.polls = make(map[string]context.CancelFunc)
	s.pollMu.Unlock()
	for deviceID, cancel := range polls {
		cancel()
		s.logger.Log(devlog.Event{
			Timestamp:    time.Now(),
			ConnectionID: deviceID,
			Layer:        devlog.LayerHTTP,
			Category:     devlog.CategoryState,
			StateChange: &devlog.StateChangeEvent{
				Entity:   devlog.StateEntitySubscription,
				OldState: "POLLING",
				NewState: "CANCELLED",
			},
		})
	}
}

// Close stops every poll loop and waits for them to exit.
func (s *Service) Close() error {
	s.pollMu.Lock()
	s.closed = true
	polls := s.polls
	s.polls = make(map[string]context.CancelFunc)
	s.pollMu.Unlock()
	for _, cancel := range polls {
		cancel()
	}
	s.closeWG.Wait()
	return nil
}

// pollLoop repeatedly polls for commands addressed to dev, re-arming
// on both success and timeout with the last known command timestamp,
// until ctx is cancelled.
func (s *Service) pollLoop(ctx context.Context, dev *model.Device, since time.Time) {
	defer s.closeWG.Done()
	last := since
	for {
		if ctx.Err() != nil {
			return
		}
		cmds, err := s.pollOnce(ctx, dev, last)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if s.cfg.Events.OnActionFailed != nil {
				s.cfg.Events.OnActionFailed(devicehive.NewFault("poll-commands", kindOf(err), err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.PollRetryDelay):
			}
			continue
		}
		for _, cmd := range cmds {
			if cmd.Timestamp.After(last) {
				last = cmd.Timestamp
			}
			if s.cfg.Events.OnInsertCommand != nil {
				s.cfg.Events.OnInsertCommand(dev, cmd)
			}
		}
	}
}

func (s *Service) pollOnce(ctx context.Context, dev *model.Device, since time.Time) ([]model.Command, error) {
	path := "/device/" + dev.ID + "/command/poll"
	if !since.IsZero() {
		path += "?timestamp=" + since.UTC().Format(time.RFC3339Nano)
	}
	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	var cmds []model.Command
	err := s.doWithClient(pollCtx, s.pollClient(), http.MethodGet, path, dev.ID, s.keyOf(dev), nil, &cmds)
	if err != nil && pollCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		// Poll timed out with no data; that is a successful empty
		// poll, not a transport failure, so re-arm immediately.
		return nil, nil
	}
	return cmds, err
}

func (s *Service) pollClient() *http.Client {
	return &http.Client{Timeout: s.cfg.PollTimeout + 5*time.Second}
}

// do issues a REST call using the service's default client.
func (s *Service) do(ctx context.Context, method, path, deviceID, deviceKey string, body, out any) error {
	return s.doWithClient(ctx, s.client, method, path, deviceID, deviceKey, body, out)
}

func (s *Service) doWithClient(ctx context.Context, client *http.Client, method, path, deviceID, deviceKey string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if deviceID != "" {
		req.Header.Set("Auth-DeviceID", deviceID)
	}
	if deviceKey != "" {
		req.Header.Set("Auth-DeviceKey", deviceKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Log(devlog.Event{
			Timestamp:    time.Now(),
			ConnectionID: deviceID,
			Direction:    devlog.DirectionOut,
			Layer:        devlog.LayerHTTP,
			Category:     devlog.CategoryError,
			Error:        &devlog.ErrorEventData{Layer: devlog.LayerHTTP, Message: err.Error(), Context: method + " " + path},
		})
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	s.logger.Log(devlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: deviceID,
		Direction:    devlog.DirectionOut,
		Layer:        devlog.LayerHTTP,
		Category:     devlog.CategoryMessage,
		Action: &devlog.ActionEvent{
			Name:           method + " " + path,
			Status:         strconv.Itoa(resp.StatusCode),
			ProcessingTime: &elapsed,
		},
	})

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

// kindOf classifies err for the Fault it will be wrapped in.
// Cancellations and timeouts surface distinctly from generic transport
// failures since callers often treat them differently (e.g. a poll
// timeout is not logged as loudly as a connection refusal).
func kindOf(err error) devicehive.ErrorKind {
	if errors.Is(err, context.Canceled) {
		return devicehive.Cancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return devicehive.Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return devicehive.Timeout
	}
	return devicehive.TransportError
}
