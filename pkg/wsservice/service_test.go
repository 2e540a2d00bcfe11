package wsservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devicehive/devicehive-go/pkg/devicehive"
	"github.com/devicehive/devicehive-go/pkg/model"
)

// fakeServer is a minimal DeviceHive WebSocket peer used to exercise
// Service without a real cloud endpoint.
type fakeServer struct {
	upgrader websocket.Upgrader
	handle   func(conn *websocket.Conn, msg map[string]any)
}

func newFakeServer(t *testing.T, handle func(conn *websocket.Conn, msg map[string]any)) *httptest.Server {
	t.Helper()
	fs := &fakeServer{handle: handle}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			fs.handle(conn, msg)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestServerInfoRoundTrip(t *testing.T) {
	srv := newFakeServer(t, func(conn *websocket.Conn, msg map[string]any) {
		conn.WriteJSON(map[string]any{
			"action":    "server/info",
			"requestId": msg["requestId"],
			"status":    "success",
			"info": map[string]any{
				"apiVersion":      "1.0",
				"serverTimestamp": time.Now().UTC().Format(time.RFC3339Nano),
			},
		})
	})

	svc := New(Config{URL: wsURL(srv.URL)})
	defer svc.Close()
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	info, err := svc.ServerInfo(context.Background())
	if err != nil {
		t.Fatalf("ServerInfo: %v", err)
	}
	if info.APIVersion != "1.0" {
		t.Fatalf("unexpected api version %q", info.APIVersion)
	}
}

func TestRegisterProtocolFault(t *testing.T) {
	srv := newFakeServer(t, func(conn *websocket.Conn, msg map[string]any) {
		conn.WriteJSON(map[string]any{
			"action":    "device/save",
			"requestId": msg["requestId"],
			"status":    "error",
		})
	})

	svc := New(Config{URL: wsURL(srv.URL)})
	defer svc.Close()
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	err := svc.Register(context.Background(), &model.Device{ID: "dev-1", Name: "widget"})
	if err == nil {
		t.Fatal("expected protocol fault")
	}
	var fault *devicehive.Fault
	if !asFault(err, &fault) || fault.Kind != devicehive.ProtocolFault {
		t.Fatalf("expected ProtocolFault, got %v", err)
	}
}

func TestCommandInsertRoutedToSubscribedDevice(t *testing.T) {
	type delivery struct {
		dev *model.Device
		cmd model.Command
	}
	received := make(chan delivery, 1)
	srv := newFakeServer(t, func(conn *websocket.Conn, msg map[string]any) {
		action, _ := msg["action"].(string)
		switch action {
		case "command/subscribe":
			conn.WriteJSON(map[string]any{
				"action":    "command/subscribe",
				"requestId": msg["requestId"],
				"status":    "success",
			})
			conn.WriteJSON(map[string]any{
				"action":     "command/insert",
				"deviceGuid": "DEV-1",
				"command":    map[string]any{"command": "blink"},
			})
		}
	})

	svc := New(Config{
		URL: wsURL(srv.URL),
		Events: devicehive.DeviceServiceEvents{
			OnInsertCommand: func(dev *model.Device, cmd model.Command) {
				received <- delivery{dev: dev, cmd: cmd}
			},
		},
	})
	defer svc.Close()
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	dev := &model.Device{ID: "dev-1"}
	if err := svc.Subscribe(context.Background(), dev, time.Time{}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case got := <-received:
		if got.cmd.Command != "blink" {
			t.Fatalf("unexpected command %+v", got.cmd)
		}
		if got.dev != dev {
			t.Fatalf("delivered device %p, want the subscribed reference %p", got.dev, dev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for routed command")
	}
}

func TestCommandInsertForUntrackedDeviceDropped(t *testing.T) {
	received := make(chan *model.Device, 1)
	srv := newFakeServer(t, func(conn *websocket.Conn, msg map[string]any) {
		action, _ := msg["action"].(string)
		switch action {
		case "command/subscribe":
			conn.WriteJSON(map[string]any{
				"action":     "command/insert",
				"deviceGuid": "other-device",
				"command":    map[string]any{"command": "blink"},
			})
			conn.WriteJSON(map[string]any{
				"action":    "command/subscribe",
				"requestId": msg["requestId"],
				"status":    "success",
			})
		}
	})

	svc := New(Config{
		URL: wsURL(srv.URL),
		Events: devicehive.DeviceServiceEvents{
			OnInsertCommand: func(dev *model.Device, cmd model.Command) {
				received <- dev
			},
		},
	})
	defer svc.Close()
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := svc.Subscribe(context.Background(), &model.Device{ID: "dev-1"}, time.Time{}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case dev := <-received:
		t.Fatalf("untracked command delivered for device %v", dev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGetDeviceDataAbsorbsReplyInPlace(t *testing.T) {
	srv := newFakeServer(t, func(conn *websocket.Conn, msg map[string]any) {
		conn.WriteJSON(map[string]any{
			"action":    "device/get",
			"requestId": msg["requestId"],
			"status":    "success",
			"device": map[string]any{
				"id":     "dev-1",
				"name":   "refreshed-name",
				"status": "online",
			},
		})
	})

	svc := New(Config{URL: wsURL(srv.URL)})
	defer svc.Close()
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	dev := &model.Device{ID: "dev-1", Name: "stale-name", Key: "secret"}
	if err := svc.GetDeviceData(context.Background(), dev); err != nil {
		t.Fatalf("GetDeviceData: %v", err)
	}
	if dev.Name != "refreshed-name" || dev.Status != "online" {
		t.Fatalf("device not refreshed in place: %+v", dev)
	}
	if dev.Key != "secret" {
		t.Fatalf("device key not preserved, got %q", dev.Key)
	}
}

func TestCancelAllResolvesPendingRequestsWithFault(t *testing.T) {
	block := make(chan struct{})
	srv := newFakeServer(t, func(conn *websocket.Conn, msg map[string]any) {
		<-block // never reply, forcing CancelAll to resolve the pending call
	})

	svc := New(Config{URL: wsURL(srv.URL)})
	defer func() {
		close(block)
		svc.Close()
	}()
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.ServerInfo(context.Background())
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	svc.CancelAll()

	select {
	case err := <-errCh:
		var fault *devicehive.Fault
		if !asFault(err, &fault) || fault.Kind != devicehive.Cancelled {
			t.Fatalf("expected Cancelled fault, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("CancelAll did not resolve pending request")
	}
}

func asFault(err error, target **devicehive.Fault) bool {
	f, ok := err.(*devicehive.Fault)
	if !ok {
		return false
	}
	*target = f
	return true
}
