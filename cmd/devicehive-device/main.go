// Command devicehive-device is a reference DeviceHive device client.
//
// It registers a device with a DeviceHive server, subscribes for
// inbound commands, and lets the operator drive notifications and
// command results from an interactive prompt. It demonstrates both
// transports the library supports: HTTP long-polling and WebSocket.
//
// Usage:
//
//	devicehive-device [flags]
//
// Flags:
//
//	-transport string   Transport to use: http or ws (default "ws")
//	-url string         Server endpoint (REST base URL or WebSocket URL)
//	-device-id string   Device identifier
//	-device-key string  Device authentication key
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-log-config string  Path to a JSON log configuration file
//	-protocol-log string File to record protocol events to (CBOR format)
//	-interactive         Enable interactive command mode
//
// Interactive Commands:
//
//	register              - (re-)send the device's registration
//	get                    - fetch the server's record for this device
//	subscribe              - start receiving commands
//	unsubscribe            - stop receiving commands
//	notify <name> <json>   - send a notification
//	result <id> <status>   - report a command outcome
//	info                   - fetch server/info
//	help                   - show this help
//	quit                   - exit
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"

	"github.com/devicehive/devicehive-go/pkg/devicehive"
	"github.com/devicehive/devicehive-go/pkg/devlog"
	"github.com/devicehive/devicehive-go/pkg/devlog/logcfg"
	"github.com/devicehive/devicehive-go/pkg/httpservice"
	"github.com/devicehive/devicehive-go/pkg/model"
	"github.com/devicehive/devicehive-go/pkg/wsservice"
)

type config struct {
	Transport     string
	URL           string
	DeviceID      string
	DeviceKey     string
	LogLevel      string
	LogConfigFile string
	ProtocolLog   string
	Interactive   bool
}

var cfg config

func init() {
	flag.StringVar(&cfg.Transport, "transport", "ws", "Transport to use: http or ws")
	flag.StringVar(&cfg.URL, "url", "wss://playground.devicehive.com/api/websocket", "Server endpoint (REST base URL or WebSocket URL)")
	flag.StringVar(&cfg.DeviceID, "device-id", "", "Device identifier")
	flag.StringVar(&cfg.DeviceKey, "device-key", "", "Device authentication key")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogConfigFile, "log-config", "", "Path to a JSON log configuration file")
	flag.StringVar(&cfg.ProtocolLog, "protocol-log", "", "File path for protocol event logging (CBOR format)")
	flag.BoolVar(&cfg.Interactive, "interactive", true, "Enable interactive command mode")
}

func main() {
	flag.Parse()

	if cfg.DeviceID == "" {
		log.Fatal("devicehive-device: -device-id is required")
	}

	slogger := setupLogging()
	logger, protocolLogger := setupProtocolLogging(cfg.ProtocolLog)
	if protocolLogger != nil {
		defer protocolLogger.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := buildService(logger)
	if err != nil {
		log.Fatalf("devicehive-device: %v", err)
	}

	if err := svc.Connect(ctx); err != nil {
		log.Fatalf("devicehive-device: connect: %v", err)
	}
	slogger.Info("connected", "transport", cfg.Transport, "url", cfg.URL)

	dev := &model.Device{ID: cfg.DeviceID, Name: cfg.DeviceID, Key: cfg.DeviceKey}
	if err := svc.Register(ctx, dev); err != nil {
		slogger.Warn("register failed", "error", err)
	}
	if err := svc.Subscribe(ctx, dev, time.Time{}); err != nil {
		slogger.Warn("subscribe failed", "error", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Interactive {
		rep := newREPL(svc, dev)
		go func() {
			rep.run(ctx, cancel)
		}()
		defer rep.close()
	}

	select {
	case sig := <-sigCh:
		slogger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	svc.CancelAll()
	if err := svc.Close(); err != nil {
		slogger.Warn("close failed", "error", err)
	}
	slogger.Info("shut down")
}

func buildService(logger devlog.Logger) (devicehive.DeviceService, error) {
	switch strings.ToLower(cfg.Transport) {
	case "ws", "websocket":
		svc := wsservice.New(wsservice.Config{
			URL:       cfg.URL,
			DeviceKey: cfg.DeviceKey,
			Logger:    logger,
			Events: devicehive.DeviceServiceEvents{
				OnInsertCommand: handleCommand,
				OnActionFailed:  handleActionFailed,
			},
		})
		return svc, nil
	case "http":
		svc := httpservice.New(httpservice.Config{
			BaseURL:   cfg.URL,
			DeviceKey: cfg.DeviceKey,
			Logger:    logger,
			Events: devicehive.DeviceServiceEvents{
				OnInsertCommand: handleCommand,
				OnActionFailed:  handleActionFailed,
			},
		})
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (want http or ws)", cfg.Transport)
	}
}

func handleCommand(dev *model.Device, cmd model.Command) {
	log.Printf("[COMMAND] device=%s id=%d command=%s params=%s", dev.ID, cmd.ID, cmd.Command, cmd.Parameters)
}

func handleActionFailed(err error) {
	log.Printf("[FAILED] %v", err)
}

// setupLogging builds the structured slog.Logger used for operator
// messages, honoring -log-config (a logcfg document) when given, and
// falling back to -log-level otherwise.
func setupLogging() *slog.Logger {
	level := parseLevel(cfg.LogLevel)
	if cfg.LogConfigFile != "" {
		data, err := os.ReadFile(cfg.LogConfigFile)
		if err != nil {
			log.Fatalf("devicehive-device: reading log config: %v", err)
		}
		logCfg, err := logcfg.Parse(data)
		if err != nil {
			log.Fatalf("devicehive-device: parsing log config: %v", err)
		}
		level = levelFromLogcfg(logcfg.ResolveLevel(logCfg, "/"))
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slogger := slog.New(handler)
	slog.SetDefault(slogger)
	return slogger
}

// setupProtocolLogging wires the devlog Event stream: always a slog
// adapter for human-readable output at debug level, plus a CBOR file
// sink when -protocol-log names a file.
func setupProtocolLogging(path string) (devlog.Logger, *devlog.FileLogger) {
	loggers := []devlog.Logger{devlog.NewSlogAdapter(slog.Default())}

	var fileLogger *devlog.FileLogger
	if path != "" {
		var err error
		fileLogger, err = devlog.NewFileLogger(path)
		if err != nil {
			log.Fatalf("devicehive-device: opening protocol log: %v", err)
		}
		loggers = append(loggers, fileLogger)
		log.Printf("protocol logging to: %s", path)
	}
	return devlog.NewMultiLogger(loggers...), fileLogger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelFromLogcfg(l logcfg.Level) slog.Level {
	switch {
	case l <= logcfg.LevelDebug:
		return slog.LevelDebug
	case l == logcfg.LevelInfo:
		return slog.LevelInfo
	case l == logcfg.LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// repl drives the interactive prompt using chzyer/readline for line
// editing and history.
type repl struct {
	svc devicehive.DeviceService
	dev *model.Device
	rl  *readline.Instance
}

func newREPL(svc devicehive.DeviceService, dev *model.Device) *repl {
	rl, err := readline.New("device> ")
	if err != nil {
		log.Fatalf("devicehive-device: readline: %v", err)
	}
	return &repl{svc: svc, dev: dev, rl: rl}
}

func (r *repl) close() {
	r.rl.Close()
}

func (r *repl) run(ctx context.Context, cancel context.CancelFunc) {
	r.printHelp()
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := r.rl.Readline()
		if err != nil {
			cancel()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 4)
		cmd := strings.ToLower(fields[0])

		switch cmd {
		case "help", "?":
			r.printHelp()
		case "register":
			r.cmdRegister(ctx)
		case "get":
			r.cmdGet(ctx)
		case "subscribe":
			r.cmdSubscribe(ctx)
		case "unsubscribe":
			r.cmdUnsubscribe(ctx)
		case "notify":
			r.cmdNotify(ctx, fields[1:])
		case "result":
			r.cmdResult(ctx, fields[1:])
		case "info":
			r.cmdInfo(ctx)
		case "quit", "exit":
			fmt.Println("Exiting...")
			cancel()
			return
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (r *repl) printHelp() {
	fmt.Println(`
DeviceHive Device Commands:
  register              - (re-)send the device's registration
  get                    - fetch the server's record for this device
  subscribe              - start receiving commands
  unsubscribe            - stop receiving commands
  notify <name> <json>   - send a notification, e.g. notify temp {"value":21.5}
  result <id> <status>   - report a command outcome, e.g. result 42 Done
  info                   - fetch server/info
  help                   - show this help
  quit                   - exit`)
}

func (r *repl) cmdRegister(ctx context.Context) {
	if err := r.svc.Register(ctx, r.dev); err != nil {
		fmt.Printf("register failed: %v\n", err)
		return
	}
	fmt.Println("registered")
}

func (r *repl) cmdGet(ctx context.Context) {
	if err := r.svc.GetDeviceData(ctx, r.dev); err != nil {
		fmt.Printf("get failed: %v\n", err)
		return
	}
	fmt.Printf("id=%s name=%s status=%s\n", r.dev.ID, r.dev.Name, r.dev.Status)
}

func (r *repl) cmdSubscribe(ctx context.Context) {
	if err := r.svc.Subscribe(ctx, r.dev, time.Time{}); err != nil {
		fmt.Printf("subscribe failed: %v\n", err)
		return
	}
	fmt.Println("subscribed")
}

func (r *repl) cmdUnsubscribe(ctx context.Context) {
	if err := r.svc.Unsubscribe(ctx, r.dev); err != nil {
		fmt.Printf("unsubscribe failed: %v\n", err)
		return
	}
	fmt.Println("unsubscribed")
}

func (r *repl) cmdNotify(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: notify <name> [json-params]")
		return
	}
	var params json.RawMessage
	if len(args) > 1 {
		params = json.RawMessage(args[1])
	}
	n := model.NewNotification(args[0], params)
	if err := r.svc.InsertNotification(ctx, r.dev, n); err != nil {
		fmt.Printf("notify failed: %v\n", err)
		return
	}
	fmt.Println("sent")
}

func (r *repl) cmdResult(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: result <id> <status> [json-result]")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("invalid command id: %v\n", err)
		return
	}
	update := model.CommandUpdate{Status: args[1]}
	if len(args) > 2 {
		update.Result = json.RawMessage(args[2])
	}
	if err := r.svc.UpdateCommand(ctx, r.dev, id, update); err != nil {
		fmt.Printf("result failed: %v\n", err)
		return
	}
	fmt.Println("reported")
}

func (r *repl) cmdInfo(ctx context.Context) {
	info, err := r.svc.ServerInfo(ctx)
	if err != nil {
		fmt.Printf("info failed: %v\n", err)
		return
	}
	fmt.Printf("apiVersion=%s serverTimestamp=%s\n", info.APIVersion, info.ServerTimestamp.Format(time.RFC3339))
}
